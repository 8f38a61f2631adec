package stmt

import (
	"fmt"

	"github.com/bgunnarsson/sqlbind/binding"
)

// InsertStmt is an INSERT statement under construction.
type InsertStmt struct {
	table string
	cols  []string
	rows  [][]binding.Value
}

func InsertInto(table string, cols ...string) *InsertStmt {
	return &InsertStmt{table: table, cols: cols}
}

// Values adds one row. A row whose length does not match the column list
// renders an invalid binding, failing the statement when it is executed.
func (s *InsertStmt) Values(args ...any) *InsertStmt {
	row := binding.List(args...)
	if len(s.cols) > 0 && len(row) != len(s.cols) {
		row = append(row, binding.Invalid(fmt.Errorf("stmt: insert into %s: row %d has %d values, want %d",
			s.table, len(s.rows)+1, len(args), len(s.cols))))
	}
	s.rows = append(s.rows, row)
	return s
}

func (s *InsertStmt) Query() (string, []binding.Value) {
	if s.table == "" || len(s.rows) == 0 {
		return "", nil
	}

	var b builder
	b.WriteString("INSERT INTO ")
	b.ident(s.table)
	if len(s.cols) > 0 {
		b.WriteString(" (")
		for i, c := range s.cols {
			if i > 0 {
				b.WriteString(", ")
			}
			b.ident(c)
		}
		b.WriteByte(')')
	}
	b.WriteString(" VALUES ")
	for r, row := range s.rows {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for i, v := range row {
			if i > 0 {
				b.WriteString(", ")
			}
			b.bind(v)
		}
		b.WriteByte(')')
	}
	return b.query()
}

type assignment struct {
	col string
	val Expr
}

// UpdateStmt is an UPDATE statement under construction.
type UpdateStmt struct {
	table string
	sets  []assignment
	where Expr
}

func Update(table string) *UpdateStmt {
	return &UpdateStmt{table: table}
}

// Set assigns v to col; v may be an Expr.
func (s *UpdateStmt) Set(col string, v any) *UpdateStmt {
	s.sets = append(s.sets, assignment{col: col, val: operand(v)})
	return s
}

func (s *UpdateStmt) Where(e Expr) *UpdateStmt {
	if s.where == nil {
		s.where = e
	} else {
		s.where = And(s.where, e)
	}
	return s
}

func (s *UpdateStmt) Query() (string, []binding.Value) {
	if s.table == "" || len(s.sets) == 0 {
		return "", nil
	}

	var b builder
	b.WriteString("UPDATE ")
	b.ident(s.table)
	b.WriteString(" SET ")
	for i, a := range s.sets {
		if i > 0 {
			b.WriteString(", ")
		}
		b.ident(a.col)
		b.WriteString(" = ")
		a.val.render(&b)
	}
	if s.where != nil {
		b.WriteString(" WHERE ")
		s.where.render(&b)
	}
	return b.query()
}

// DeleteStmt is a DELETE statement under construction.
type DeleteStmt struct {
	table string
	where Expr
}

func DeleteFrom(table string) *DeleteStmt {
	return &DeleteStmt{table: table}
}

func (s *DeleteStmt) Where(e Expr) *DeleteStmt {
	if s.where == nil {
		s.where = e
	} else {
		s.where = And(s.where, e)
	}
	return s
}

func (s *DeleteStmt) Query() (string, []binding.Value) {
	if s.table == "" {
		return "", nil
	}

	var b builder
	b.WriteString("DELETE FROM ")
	b.ident(s.table)
	if s.where != nil {
		b.WriteString(" WHERE ")
		s.where.render(&b)
	}
	return b.query()
}
