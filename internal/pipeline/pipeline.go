// Package pipeline wires feed acquisition, planning and document output.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"icsweek/internal/capture"
	"icsweek/internal/ics"
	"icsweek/internal/layout"
	appLog "icsweek/internal/log"
	"icsweek/internal/model"
	"icsweek/internal/render"
	"icsweek/internal/theme"
)

// Format is an output document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// StdoutPath writes the document to standard output.
const StdoutPath = "-"

// Formats returns the supported formats, default first.
func Formats() []Format {
	return []Format{FormatPDF, FormatHTML, FormatPNG, FormatJSON}
}

// ParseFormat maps a name to a Format; empty means PDF.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatPDF, nil
	}
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// DefaultOutputPath is calendar-YYYY-MM-DD.<ext> for the given day.
func DefaultOutputPath(f Format, now time.Time) string {
	return "calendar-" + now.Format("2006-01-02") + f.Ext()
}

// Source selects where the feed comes from. URL wins when both are set.
type Source struct {
	Path string
	URL  string
}

// Request is one document generation.
type Request struct {
	Source  Source
	Options model.Options
	Format  Format
	Output  string // file path, or StdoutPath
}

// Result describes a finished (or built, not yet written) document.
type Result struct {
	Feed     *ics.Feed
	Document *render.Document
	Format   Format
	Output   string
	Data     []byte
}

// Pipeline runs load -> plan -> encode -> write.
type Pipeline struct {
	fetcher *ics.Fetcher
	planner *render.Planner
	capture capture.Options
	stdout  io.Writer

	// Chromium steps, replaceable in tests.
	printPDF   func(context.Context, []byte, capture.Options) ([]byte, error)
	screenshot func(context.Context, []byte, capture.Options) ([]byte, error)
}

// New creates a Pipeline. A nil planner means an A4 landscape planner.
func New(fetcher *ics.Fetcher, planner *render.Planner, copts capture.Options) *Pipeline {
	if fetcher == nil {
		fetcher = ics.NewFetcher(ics.FetcherOptions{ProxyURL: ics.DefaultProxyURL})
	}
	if planner == nil {
		planner = render.NewPlanner(layout.A4Landscape)
	}
	return &Pipeline{
		fetcher:    fetcher,
		planner:    planner,
		capture:    copts,
		stdout:     os.Stdout,
		printPDF:   capture.PrintPDF,
		screenshot: capture.ScreenshotPNG,
	}
}

// SetStdout redirects StdoutPath output.
func (p *Pipeline) SetStdout(w io.Writer) {
	p.stdout = w
}

// Load acquires and normalizes the feed.
func (p *Pipeline) Load(ctx context.Context, src Source, loc *time.Location) (*ics.Feed, error) {
	switch {
	case src.URL != "":
		return ics.LoadURL(ctx, p.fetcher, src.URL, loc)
	case src.Path != "":
		return ics.LoadFile(src.Path, loc)
	default:
		return nil, errors.New("no feed configured: set a file path or a URL")
	}
}

// Plan lays out feed events with the palette named by opts.Theme.
func (p *Pipeline) Plan(events []*model.Event, opts model.Options) (*render.Document, error) {
	th, err := theme.Load(opts.Theme)
	if err != nil {
		return nil, err
	}
	return p.planner.Plan(events, opts, theme.NewPalette(th))
}

// Encode renders doc in format f.
func (p *Pipeline) Encode(ctx context.Context, doc *render.Document, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		var buf bytes.Buffer
		if err := render.WriteJSON(&buf, doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatHTML, FormatPDF, FormatPNG:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	html, err := render.HTML(doc)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatPDF:
		return p.printPDF(ctx, html, p.capture)
	case FormatPNG:
		return p.screenshot(ctx, html, p.capture)
	default:
		return html, nil
	}
}

// Build loads, plans and encodes without writing.
func (p *Pipeline) Build(ctx context.Context, req Request) (*Result, error) {
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}
	feed, err := p.Load(ctx, req.Source, req.Options.Loc())
	if err != nil {
		return nil, err
	}
	doc, err := p.Plan(feed.Events, req.Options)
	if err != nil {
		return nil, err
	}
	data, err := p.Encode(ctx, doc, req.Format)
	if err != nil {
		return nil, err
	}
	return &Result{Feed: feed, Document: doc, Format: req.Format, Output: req.Output, Data: data}, nil
}

// Write stores a built result at its output path.
func (p *Pipeline) Write(res *Result) error {
	if res.Output == StdoutPath {
		_, err := p.stdout.Write(res.Data)
		return err
	}
	if err := writeFileAtomic(res.Output, res.Data); err != nil {
		return fmt.Errorf("write %s: %w", res.Output, err)
	}
	appLog.Info("document written",
		"path", res.Output,
		"format", string(res.Format),
		"pages", len(res.Document.Pages),
		"size", humanize.Bytes(uint64(len(res.Data))),
	)
	return nil
}

// Run builds and writes req.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res, err := p.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := p.Write(res); err != nil {
		return nil, err
	}
	return res, nil
}

// writeFileAtomic writes via a temp file in the same directory + rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".icsweek-out-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
