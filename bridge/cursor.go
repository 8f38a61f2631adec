package bridge

import (
	"database/sql/driver"
	"fmt"

	sqlite3 "modernc.org/sqlite/lib"
)

// Cursor is the row being decoded and the position of the next column to
// read. It is reset to the first column for every row.
type Cursor struct {
	cols []string
	row  []driver.Value
	off  int
}

// NewCursor returns a cursor over row, positioned at its first column.
// cols names the columns; it may be shorter than row.
func NewCursor(cols []string, row []driver.Value) *Cursor {
	return &Cursor{cols: cols, row: row}
}

// Next returns the value of the next column and advances past it.
func (c *Cursor) Next() (driver.Value, error) {
	if c.off >= len(c.row) {
		e := errorFromCode(sqlite3.SQLITE_RANGE)
		e.Message = fmt.Sprintf("%s: column %d out of range, row has %d columns",
			e.Message, c.off, len(c.row))
		return nil, e
	}
	v := c.row[c.off]
	c.off++
	return v, nil
}

// Skip advances past n columns.
func (c *Cursor) Skip(n int) error {
	if n < 0 || c.off+n > len(c.row) {
		e := errorFromCode(sqlite3.SQLITE_RANGE)
		e.Message = fmt.Sprintf("%s: can not skip %d columns at column %d of %d",
			e.Message, n, c.off, len(c.row))
		return e
	}
	c.off += n
	return nil
}

// Offset is the index of the next column to read.
func (c *Cursor) Offset() int { return c.off }

// Len is the number of columns in the row.
func (c *Cursor) Len() int { return len(c.row) }

// Remaining is the number of columns not yet read.
func (c *Cursor) Remaining() int { return len(c.row) - c.off }

// Name returns the name of column i, or "" if it is unknown.
func (c *Cursor) Name(i int) string {
	if i >= 0 && i < len(c.cols) {
		return c.cols[i]
	}
	return ""
}

// Columns returns the column names of the result.
func (c *Cursor) Columns() []string { return c.cols }

// finish moves past the end of the row so nothing carries over to the next.
func (c *Cursor) finish() { c.off = len(c.row) }

// mismatch reports that the column just read can not be decoded as want.
func (c *Cursor) mismatch(v driver.Value, want string, cause error) error {
	i := c.off - 1
	name := c.Name(i)
	if name == "" {
		name = fmt.Sprintf("#%d", i)
	}

	e := errorFromCode(sqlite3.SQLITE_MISMATCH)
	if v == nil {
		e.Message = fmt.Sprintf("%s: column %s: NULL can not be decoded as %s", e.Message, name, want)
	} else if cause != nil {
		e.Message = fmt.Sprintf("%s: column %s: decoding %T as %s: %s", e.Message, name, v, want, cause)
	} else {
		e.Message = fmt.Sprintf("%s: column %s: %T can not be decoded as %s", e.Message, name, v, want)
	}
	e.err = cause
	return e
}
