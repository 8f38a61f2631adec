package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName = "Sheet1"
	// Excel hard limit
	maxRows = 1048576
)

// ExcelEncoder writes an .xlsx workbook through excelize's stream writer.
// Nothing reaches w until Flush.
type ExcelEncoder struct {
	f      *excelize.File
	sw     *excelize.StreamWriter
	w      io.Writer
	rowIdx int
}

func NewExcelEncoder(w io.Writer) (*ExcelEncoder, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &ExcelEncoder{f: f, sw: sw, w: w, rowIdx: 1}, nil
}

func (e *ExcelEncoder) WriteHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, col := range columns {
		row[i] = excelize.Cell{Value: col}
	}
	return e.setRow(row)
}

func (e *ExcelEncoder) WriteRow(values []any) error {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = excelValue(v)
	}
	return e.setRow(row)
}

func (e *ExcelEncoder) setRow(row []any) error {
	if e.rowIdx > maxRows {
		return fmt.Errorf("excel row limit exceeded (%d rows)", maxRows)
	}
	cell, err := excelize.CoordinatesToCellName(1, e.rowIdx)
	if err != nil {
		return err
	}
	if err := e.sw.SetRow(cell, row); err != nil {
		return err
	}
	e.rowIdx++
	return nil
}

func (e *ExcelEncoder) Flush() error {
	if err := e.sw.Flush(); err != nil {
		return err
	}
	return e.f.Write(e.w)
}

func (e *ExcelEncoder) Close() error {
	return e.f.Close()
}

// excelValue keeps numbers, booleans and times native so the sheet can
// compute with them.
func excelValue(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case int64, float64, bool:
		return v
	case string:
		return sanitize(v)
	case []byte:
		if utf8.Valid(v) {
			return sanitize(string(v))
		}
		return fmt.Sprintf("0x%x", v)
	}
	return v
}
