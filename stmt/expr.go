package stmt

import (
	"strings"

	"github.com/bgunnarsson/sqlbind/binding"
)

// Expr is a SQL expression that can be rendered into a statement.
type Expr interface {
	render(b *builder)
}

// Column refers to a column, optionally qualified by its table.
type Column struct {
	Table string
	Name  string
}

// C returns an unqualified column.
func C(name string) Column { return Column{Name: name} }

// Col returns a column qualified by table.
func Col(table, name string) Column { return Column{Table: table, Name: name} }

func (c Column) render(b *builder) {
	if c.Table != "" {
		b.ident(c.Table)
		b.WriteByte('.')
	}
	b.ident(c.Name)
}

func (c Column) Eq(v any) Expr        { return binary(c, "=", v) }
func (c Column) Ne(v any) Expr        { return binary(c, "<>", v) }
func (c Column) Lt(v any) Expr        { return binary(c, "<", v) }
func (c Column) Le(v any) Expr        { return binary(c, "<=", v) }
func (c Column) Gt(v any) Expr        { return binary(c, ">", v) }
func (c Column) Ge(v any) Expr        { return binary(c, ">=", v) }
func (c Column) Like(v any) Expr      { return binary(c, "LIKE", v) }
func (c Column) In(vs ...any) Expr    { return inExpr{left: c, vals: vs} }
func (c Column) IsNull() Expr         { return postfix{e: c, op: "IS NULL"} }
func (c Column) IsNotNull() Expr      { return postfix{e: c, op: "IS NOT NULL"} }
func (c Column) Asc() Order           { return Order{e: c} }
func (c Column) Desc() Order          { return Order{e: c, desc: true} }
func (c Column) As(alias string) Expr { return aliased{e: c, alias: alias} }

type value struct {
	v binding.Value
}

// Val binds v as a parameter.
func Val(v any) Expr { return value{v: binding.Of(v)} }

func (v value) render(b *builder) { b.bind(v.v) }

func operand(v any) Expr {
	if e, ok := v.(Expr); ok {
		return e
	}
	return Val(v)
}

type binop struct {
	left  Expr
	op    string
	right Expr
}

func binary(left Expr, op string, right any) Expr {
	return binop{left: left, op: op, right: operand(right)}
}

func (e binop) render(b *builder) {
	e.left.render(b)
	b.WriteByte(' ')
	b.WriteString(e.op)
	b.WriteByte(' ')
	e.right.render(b)
}

type postfix struct {
	e  Expr
	op string
}

func (e postfix) render(b *builder) {
	e.e.render(b)
	b.WriteByte(' ')
	b.WriteString(e.op)
}

type inExpr struct {
	left Expr
	vals []any
}

func (e inExpr) render(b *builder) {
	if len(e.vals) == 0 {
		// x IN () is a syntax error in most engines
		b.WriteString("1 = 0")
		return
	}
	e.left.render(b)
	b.WriteString(" IN (")
	for i, v := range e.vals {
		if i > 0 {
			b.WriteString(", ")
		}
		operand(v).render(b)
	}
	b.WriteByte(')')
}

type logical struct {
	op    string
	exprs []Expr
}

// And joins exprs with AND; nil exprs are skipped.
func And(exprs ...Expr) Expr { return logical{op: "AND", exprs: compact(exprs)} }

// Or joins exprs with OR; nil exprs are skipped.
func Or(exprs ...Expr) Expr { return logical{op: "OR", exprs: compact(exprs)} }

func compact(exprs []Expr) []Expr {
	var out []Expr
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (e logical) render(b *builder) {
	switch len(e.exprs) {
	case 0:
		if e.op == "AND" {
			b.WriteString("1 = 1")
		} else {
			b.WriteString("1 = 0")
		}
		return
	case 1:
		e.exprs[0].render(b)
		return
	}
	b.WriteByte('(')
	for i, x := range e.exprs {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(e.op)
			b.WriteByte(' ')
		}
		x.render(b)
	}
	b.WriteByte(')')
}

type not struct {
	e Expr
}

func Not(e Expr) Expr { return not{e: e} }

func (e not) render(b *builder) {
	b.WriteString("NOT (")
	e.e.render(b)
	b.WriteByte(')')
}

type aliased struct {
	e     Expr
	alias string
}

func (e aliased) render(b *builder) {
	e.e.render(b)
	b.WriteString(" AS ")
	b.ident(e.alias)
}

type fragment struct {
	text string
	args []binding.Value
}

// Frag is a literal SQL fragment; each ? in text is bound to the next arg.
func Frag(text string, args ...any) Expr {
	return fragment{text: text, args: binding.List(args...)}
}

func (f fragment) render(b *builder) {
	b.WriteString(f.text)
	b.args = append(b.args, f.args...)
}

// Order is an ORDER BY term.
type Order struct {
	e    Expr
	desc bool
}

func (o Order) render(b *builder) {
	o.e.render(b)
	if o.desc {
		b.WriteString(" DESC")
	}
}

// Render renders a single expression, mostly useful in tests and logs.
func Render(e Expr) (string, []binding.Value) {
	var b builder
	e.render(&b)
	return strings.TrimSpace(b.String()), b.args
}
