package stmt

import (
	"github.com/bgunnarsson/sqlbind/binding"
)

type join struct {
	kind  string
	table string
	on    Expr
}

// SelectStmt is a SELECT statement under construction.
type SelectStmt struct {
	cols   []Expr
	from   string
	joins  []join
	where  Expr
	order  []Order
	limit  int
	offset int
}

// Select starts a SELECT of cols; no cols selects *.
func Select(cols ...Expr) *SelectStmt {
	return &SelectStmt{cols: cols, limit: -1, offset: -1}
}

// Join describes a table joined into a SelectAll.
type Join struct {
	Kind  string
	Table Table
	On    Expr
}

// InnerJoin joins t on cond.
func InnerJoin(t Table, on Expr) Join { return Join{Kind: "JOIN", Table: t, On: on} }

// LeftJoin left-joins t on cond.
func LeftJoin(t Table, on Expr) Join { return Join{Kind: "LEFT JOIN", Table: t, On: on} }

// SelectAll selects every column of from followed by every column of each
// joined table, in join order, all qualified by their table name.
func SelectAll(from Table, joins ...Join) *SelectStmt {
	s := Select(qualified(from)...).From(from.TableName())
	for _, j := range joins {
		s.cols = append(s.cols, qualified(j.Table)...)
		s.joins = append(s.joins, join{kind: j.Kind, table: j.Table.TableName(), on: j.On})
	}
	return s
}

func qualified(t Table) []Expr {
	name := t.TableName()
	var cols []Expr
	for _, c := range t.Columns() {
		cols = append(cols, Col(name, c))
	}
	return cols
}

func (s *SelectStmt) From(table string) *SelectStmt {
	s.from = table
	return s
}

func (s *SelectStmt) Join(table string, on Expr) *SelectStmt {
	s.joins = append(s.joins, join{kind: "JOIN", table: table, on: on})
	return s
}

func (s *SelectStmt) LeftJoin(table string, on Expr) *SelectStmt {
	s.joins = append(s.joins, join{kind: "LEFT JOIN", table: table, on: on})
	return s
}

// Where sets the filter; calling it again ANDs the conditions.
func (s *SelectStmt) Where(e Expr) *SelectStmt {
	if s.where == nil {
		s.where = e
	} else {
		s.where = And(s.where, e)
	}
	return s
}

func (s *SelectStmt) OrderBy(o ...Order) *SelectStmt {
	s.order = append(s.order, o...)
	return s
}

func (s *SelectStmt) Limit(n int) *SelectStmt {
	s.limit = n
	return s
}

func (s *SelectStmt) Offset(n int) *SelectStmt {
	s.offset = n
	return s
}

func (s *SelectStmt) Query() (string, []binding.Value) {
	if s.from == "" && len(s.cols) == 0 {
		return "", nil
	}

	var b builder
	b.WriteString("SELECT ")
	if len(s.cols) == 0 {
		b.WriteByte('*')
	}
	for i, c := range s.cols {
		if i > 0 {
			b.WriteString(", ")
		}
		c.render(&b)
	}

	if s.from != "" {
		b.WriteString(" FROM ")
		b.ident(s.from)
	}
	for _, j := range s.joins {
		b.WriteByte(' ')
		b.WriteString(j.kind)
		b.WriteByte(' ')
		b.ident(j.table)
		if j.on != nil {
			b.WriteString(" ON ")
			j.on.render(&b)
		}
	}
	if s.where != nil {
		b.WriteString(" WHERE ")
		s.where.render(&b)
	}
	for i, o := range s.order {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		o.render(&b)
	}
	if s.limit >= 0 {
		b.WriteString(" LIMIT ")
		b.bind(binding.Int64(int64(s.limit)))
	}
	if s.offset >= 0 {
		if s.limit < 0 {
			// sqlite requires a LIMIT before OFFSET
			b.WriteString(" LIMIT -1")
		}
		b.WriteString(" OFFSET ")
		b.bind(binding.Int64(int64(s.offset)))
	}
	return b.query()
}
