// Package export writes dynamic query results to files.
package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bgunnarsson/sqlbind/bridge"
)

var ErrUnknownFormat = errors.New("unknown export format")

// RowEncoder writes a header and then rows in one file format.
type RowEncoder interface {
	WriteHeader(columns []string) error
	WriteRow(values []any) error
	// Flush writes everything buffered to the underlying writer.
	Flush() error
	io.Closer
}

// New returns the encoder for format, one of "csv" or "xlsx".
func New(format string, w io.Writer) (RowEncoder, error) {
	switch strings.ToLower(format) {
	case "csv":
		return NewCSVEncoder(w), nil
	case "xlsx":
		return NewExcelEncoder(w)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
}

// FormatOf picks the format from the extension of path.
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Table writes t through enc and flushes it.
func Table(enc RowEncoder, t *bridge.Table) error {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Name
	}
	if err := enc.WriteHeader(cols); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := enc.WriteRow(row); err != nil {
			return err
		}
	}
	return enc.Flush()
}

// sanitize stops spreadsheet applications from reading text as a formula.
func sanitize(s string) string {
	if len(s) > 0 {
		switch s[0] {
		case '=', '+', '-', '@':
			return "'" + s
		}
	}
	return s
}
