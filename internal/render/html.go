package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"icsweek/internal/layout"
)

//go:embed templates/document.html.tmpl
var templateFS embed.FS

var documentTmpl = template.Must(
	template.New("document.html.tmpl").Funcs(template.FuncMap{
		"pt":    pt,
		"pct":   pct,
		"color": color,
	}).ParseFS(templateFS, "templates/document.html.tmpl"),
)

type htmlView struct {
	*Document
	Padding      float64
	HeaderMargin float64
	EmptyMessage string
}

// Title is the HTML document title.
func (d *Document) Title() string {
	if len(d.Pages) == 0 {
		return "Week planner"
	}
	return fmt.Sprintf("Week planner %s – %s",
		d.WindowFrom.Format("2 January 2006"),
		d.WindowTo.Format("2 January 2006"))
}

// WriteHTML renders doc as a printable HTML document. The root element
// carries data-ready="true" once written, which the capture step waits for.
func WriteHTML(w io.Writer, doc *Document) error {
	view := htmlView{
		Document:     doc,
		Padding:      layout.PagePadding,
		HeaderMargin: layout.WeekHeaderMargin,
		EmptyMessage: EmptyWeekMessage,
	}
	if err := documentTmpl.Execute(w, view); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// HTML renders doc into memory.
func HTML(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pt(v float64) template.CSS {
	return template.CSS(strconv.FormatFloat(v, 'f', -1, 64) + "pt")
}

func pct(v float64) template.CSS {
	return template.CSS(strconv.FormatFloat(v, 'f', 4, 64) + "%")
}

// color passes palette values through; they are #rrggbb by construction.
func color(hex string) template.CSS {
	return template.CSS(hex)
}
