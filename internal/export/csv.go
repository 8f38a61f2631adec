package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bgunnarsson/sqlbind/binding"
)

type CSVEncoder struct {
	w   *csv.Writer
	buf *bufio.Writer
}

func NewCSVEncoder(w io.Writer) *CSVEncoder {
	buf := bufio.NewWriterSize(w, 64*1024)
	return &CSVEncoder{w: csv.NewWriter(buf), buf: buf}
}

func (e *CSVEncoder) WriteHeader(columns []string) error {
	return e.w.Write(columns)
}

func (e *CSVEncoder) WriteRow(values []any) error {
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = csvString(v)
	}
	return e.w.Write(record)
}

func (e *CSVEncoder) Flush() error {
	e.w.Flush()
	if err := e.w.Error(); err != nil {
		return err
	}
	return e.buf.Flush()
}

func (e *CSVEncoder) Close() error {
	return e.Flush()
}

// csvString writes NULL as an empty field; numbers are never sanitized.
func csvString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case time.Time:
		return v.UTC().Format(binding.DateLayout)
	case []byte:
		return sanitize(string(v))
	case string:
		return sanitize(v)
	}
	return sanitize(fmt.Sprint(v))
}
