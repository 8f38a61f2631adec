// Package stmt renders statements to SQL text with positional placeholders
// plus the ordered parameter bindings for them.
package stmt

import (
	"strconv"
	"strings"

	"github.com/bgunnarsson/sqlbind/binding"
)

// Statement is anything that renders to SQL text and its bindings. The
// number and order of bindings match the placeholders in the text exactly.
// An empty text means there is nothing to execute.
type Statement interface {
	Query() (string, []binding.Value)
}

// Table describes a table well enough to expand "select everything".
type Table interface {
	TableName() string
	Columns() []string
}

// Raw is literal SQL text with its arguments.
type Raw struct {
	Text string
	Args []binding.Value
}

// SQL returns a Raw statement; every arg is converted with binding.Of.
func SQL(text string, args ...any) Raw {
	return Raw{Text: text, Args: binding.List(args...)}
}

func (r Raw) Query() (string, []binding.Value) {
	return r.Text, r.Args
}

// Quote quotes an identifier. A dotted name is quoted part by part.
func Quote(id string) string {
	if id == "*" {
		return id
	}
	parts := strings.Split(id, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

type builder struct {
	strings.Builder
	args []binding.Value
}

func (b *builder) ident(id string) {
	b.WriteString(Quote(id))
}

func (b *builder) bind(v binding.Value) {
	b.WriteByte('?')
	b.args = append(b.args, v)
}

func (b *builder) query() (string, []binding.Value) {
	return b.String(), b.args
}

// Style selects how positional placeholders are written.
type Style int

const (
	Question Style = iota // ?
	Dollar                // $1, $2, ...
	AtP                   // @p1, @p2, ...
)

func (s Style) String() string {
	switch s {
	case Question:
		return "question"
	case Dollar:
		return "dollar"
	case AtP:
		return "atp"
	}
	return "style(" + strconv.Itoa(int(s)) + ")"
}

type rebound struct {
	s     Statement
	style Style
}

// Rebind returns s with its ? placeholders numbered in the given style.
// Question marks inside quoted strings, identifiers and comments are left
// alone.
func Rebind(s Statement, style Style) Statement {
	if style == Question {
		return s
	}
	return rebound{s: s, style: style}
}

func (r rebound) Query() (string, []binding.Value) {
	text, args := r.s.Query()
	return rebind(text, r.style), args
}

func rebind(text string, style Style) string {
	var b strings.Builder
	b.Grow(len(text) + 8)

	n := 0
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch ch {
		case '\'', '"', '`':
			j := i + 1
			for j < len(text) {
				if text[j] == ch {
					if j+1 < len(text) && text[j+1] == ch {
						j += 2
						continue
					}
					break
				}
				j++
			}
			if j >= len(text) {
				j = len(text) - 1
			}
			b.WriteString(text[i : j+1])
			i = j
		case '-':
			if i+1 < len(text) && text[i+1] == '-' {
				j := strings.IndexByte(text[i:], '\n')
				if j < 0 {
					j = len(text) - i - 1
				}
				b.WriteString(text[i : i+j+1])
				i += j
			} else {
				b.WriteByte(ch)
			}
		case '/':
			if i+1 < len(text) && text[i+1] == '*' {
				j := strings.Index(text[i+2:], "*/")
				if j < 0 {
					j = len(text) - 1
				} else {
					j += i + 3
				}
				b.WriteString(text[i : j+1])
				i = j
			} else {
				b.WriteByte(ch)
			}
		case '?':
			n++
			if style == Dollar {
				b.WriteByte('$')
			} else {
				b.WriteString("@p")
			}
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
