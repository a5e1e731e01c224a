package ics

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// StdinPath selects standard input in LoadFile.
const StdinPath = "-"

// LoadFile reads an ICS file (or stdin for "-") and normalizes it.
func LoadFile(path string, loc *time.Location) (*Feed, error) {
	var (
		body []byte
		err  error
	)
	if path == StdinPath {
		body, err = io.ReadAll(os.Stdin)
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return Normalize(path, body, loc)
}

// LoadURL downloads a feed with f and normalizes it. An empty body from
// either the direct or the proxied request is a ParseError.
func LoadURL(ctx context.Context, f *Fetcher, rawURL string, loc *time.Location) (*Feed, error) {
	res, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return Normalize(res.URL, res.Body, loc)
}
