package output

import (
	"encoding/json"
	"io"

	"github.com/hortanse/variant-explorer/internal/annotate"
)

// JSONWriter writes rows as an indented JSON array.
type JSONWriter struct {
	w io.Writer
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

// Write encodes rows as a JSON array with two-space indentation. Nested
// values keep their native structure.
func (jw *JSONWriter) Write(rows []annotate.Row) error {
	if rows == nil {
		rows = []annotate.Row{}
	}
	enc := json.NewEncoder(jw.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rows)
}
