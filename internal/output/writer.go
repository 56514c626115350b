package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/hortanse/variant-explorer/internal/annotate"
)

// Output format names.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatCSV, FormatJSON}

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Writer renders a batch of rows.
type Writer interface {
	Write(rows []annotate.Row) error
}

// New returns the writer for format.
func New(format string, w io.Writer) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("%w %q (use csv or json)", ErrUnknownFormat, format)
	}
}
