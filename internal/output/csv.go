// Package output renders annotation rows as CSV or JSON.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hortanse/variant-explorer/internal/annotate"
)

// CSVWriter writes rows as comma-separated values. The header is the union
// of row keys in first-seen order. Strings and the header are quoted,
// numbers are bare, and missing or null values are empty. Nested lists and
// maps are written as quoted JSON text.
type CSVWriter struct {
	w *bufio.Writer
}

// NewCSVWriter creates a new CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: bufio.NewWriter(w)}
}

// Write writes the header and one line per row, then flushes. Rows without
// any keys produce no output.
func (cw *CSVWriter) Write(rows []annotate.Row) error {
	columns := Columns(rows)
	if len(columns) == 0 {
		return nil
	}

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = quote(c)
	}
	if err := cw.writeLine(header); err != nil {
		return err
	}

	cells := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			v, _ := row.Get(c)
			cell, err := formatCell(v)
			if err != nil {
				return fmt.Errorf("column %s: %w", c, err)
			}
			cells[i] = cell
		}
		if err := cw.writeLine(cells); err != nil {
			return err
		}
	}
	return cw.w.Flush()
}

func (cw *CSVWriter) writeLine(cells []string) error {
	_, err := cw.w.WriteString(strings.Join(cells, ",") + "\n")
	return err
}

// Columns returns the union of the rows' keys in first-seen order.
func Columns(rows []annotate.Row) []string {
	var columns []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	return columns
}

func formatCell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return quote(x), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		var sb strings.Builder
		enc := json.NewEncoder(&sb)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(x); err != nil {
			return "", err
		}
		return quote(strings.TrimSuffix(sb.String(), "\n")), nil
	}
}

// quote wraps s in double quotes, doubling any embedded quote.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
