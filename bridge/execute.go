package bridge

import (
	"context"
	"database/sql/driver"

	log "github.com/sirupsen/logrus"

	"github.com/bgunnarsson/sqlbind/stmt"
)

// Run executes s to completion and discards any rows it produces.
func Run(ctx context.Context, c *Conn, s stmt.Statement) error {
	sql, args := s.Query()
	if sql == "" {
		return nil
	}

	return withStatement(ctx, c, sql, args, func(ss *session) error {
		return ss.exec(ctx)
	})
}

// Query executes s and decodes every row with codec, in the order the
// engine returns them. On failure no rows are returned.
func Query[T any](ctx context.Context, c *Conn, s stmt.Statement, codec Codec[T]) ([]T, error) {
	sql, args := s.Query()
	out := []T{}
	if sql == "" {
		return out, nil
	}

	err := withStatement(ctx, c, sql, args, func(ss *session) (err error) {
		st, err := ss.step(ctx, codec.Width())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := st.close(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		for {
			ok, err := st.next()
			if err != nil {
				return err
			} else if !ok {
				break
			}

			v, err := codec.Decode(st.cur)
			if err != nil {
				return err
			}
			out = append(out, v)
			st.cur.finish()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.WithFields(log.Fields{"sql": sql, "rows": len(out)}).Debug("bridge: query done")
	return out, nil
}

// Query2 executes s and decodes each row as two values.
func Query2[A, B any](ctx context.Context, c *Conn, s stmt.Statement, a Codec[A],
	b Codec[B]) ([]Tuple2[A, B], error) {

	return Query(ctx, c, s, T2(a, b))
}

// Query3 executes s and decodes each row as three values.
func Query3[A, B, C any](ctx context.Context, c *Conn, s stmt.Statement, a Codec[A],
	b Codec[B], cc Codec[C]) ([]Tuple3[A, B, C], error) {

	return Query(ctx, c, s, T3(a, b, cc))
}

// Query4 executes s and decodes each row as four values.
func Query4[A, B, C, D any](ctx context.Context, c *Conn, s stmt.Statement, a Codec[A],
	b Codec[B], cc Codec[C], d Codec[D]) ([]Tuple4[A, B, C, D], error) {

	return Query(ctx, c, s, T4(a, b, cc, d))
}

// Column describes one column of a Table.
type Column struct {
	Name string
	Type string
}

// Table is a result whose shape is only known once it has been executed.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// QueryTable executes s and returns its columns and rows as the engine
// produced them.
func QueryTable(ctx context.Context, c *Conn, s stmt.Statement) (*Table, error) {
	sql, args := s.Query()
	t := &Table{}
	if sql == "" {
		return t, nil
	}

	err := withStatement(ctx, c, sql, args, func(ss *session) (err error) {
		st, err := ss.step(ctx, -1)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := st.close(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		t.Columns = columns(st.rows)
		for {
			ok, err := st.next()
			if err != nil {
				return err
			} else if !ok {
				break
			}

			row, err := Values.Decode(st.cur)
			if err != nil {
				return err
			}
			t.Rows = append(t.Rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func columns(rows driver.Rows) []Column {
	names := rows.Columns()
	typed, _ := rows.(driver.RowsColumnTypeDatabaseTypeName)

	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i].Name = name
		if typed != nil {
			cols[i].Type = typed.ColumnTypeDatabaseTypeName(i)
		}
	}
	return cols
}
