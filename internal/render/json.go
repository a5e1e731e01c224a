package render

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON dumps doc (pages, columns, placements, metrics) as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	return nil
}
