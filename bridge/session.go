package bridge

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/bgunnarsson/sqlbind/binding"
)

// session is one prepared statement with its bound arguments.
type session struct {
	conn *Conn
	stmt driver.Stmt
	args []driver.NamedValue
}

// namedValues converts bindings to driver arguments at 1-based positions.
// The first invalid binding stops the conversion with its error.
func namedValues(bindings []binding.Value) ([]driver.NamedValue, error) {
	if len(bindings) == 0 {
		return nil, nil
	}

	args := make([]driver.NamedValue, len(bindings))
	for i, b := range bindings {
		v, err := b.Driver()
		if err != nil {
			return nil, err
		}
		args[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return args, nil
}

func prepare(ctx context.Context, native driver.Conn, sql string) (driver.Stmt, error) {
	if p, ok := native.(driver.ConnPrepareContext); ok {
		return p.PrepareContext(ctx, sql)
	}
	return native.Prepare(sql)
}

// withStatement prepares sql, hands the statement with its arguments to
// body and finalizes the statement when body returns, fails or panics.
// Invalid bindings fail before anything is prepared.
func withStatement(ctx context.Context, c *Conn, sql string, bindings []binding.Value,
	body func(s *session) error) (err error) {

	if err := c.live(); err != nil {
		return err
	}

	args, err := namedValues(bindings)
	if err != nil {
		return err
	}

	c.log.WithFields(log.Fields{"sql": sql, "args": len(args)}).Debug("bridge: prepare")

	st, err := prepare(ctx, c.native, sql)
	if err != nil {
		return newError(err)
	}
	if st == nil {
		e := errorFromCode(sqlite3.SQLITE_MISUSE)
		e.Message = fmt.Sprintf("%s: no statement prepared from %q", e.Message, sql)
		return e
	}
	defer func() {
		cerr := st.Close()
		if cerr == nil {
			return
		}
		if err == nil {
			err = newError(cerr)
		} else {
			c.log.WithError(cerr).Warn("bridge: finalize")
		}
	}()

	if n := st.NumInput(); n >= 0 && n != len(args) {
		e := errorFromCode(sqlite3.SQLITE_RANGE)
		e.Message = fmt.Sprintf("%s: statement has %d parameters, got %d bindings",
			e.Message, n, len(args))
		return e
	}

	return body(&session{conn: c, stmt: st, args: args})
}

func (s *session) values() []driver.Value {
	if len(s.args) == 0 {
		return nil
	}
	vals := make([]driver.Value, len(s.args))
	for i, a := range s.args {
		vals[i] = a.Value
	}
	return vals
}

// exec binds the arguments and runs the statement to completion.
func (s *session) exec(ctx context.Context) error {
	if e, ok := s.stmt.(driver.StmtExecContext); ok {
		_, err := e.ExecContext(ctx, s.args)
		return newError(err)
	}
	_, err := s.stmt.Exec(s.values())
	return newError(err)
}

func (s *session) query(ctx context.Context) (driver.Rows, error) {
	if q, ok := s.stmt.(driver.StmtQueryContext); ok {
		rows, err := q.QueryContext(ctx, s.args)
		return rows, newError(err)
	}
	rows, err := s.stmt.Query(s.values())
	return rows, newError(err)
}

// stepper advances a result one row at a time into its cursor.
type stepper struct {
	rows driver.Rows
	cur  *Cursor
}

// step binds the arguments, starts the query and checks that a result shape
// of width columns fits it; a negative width is not checked.
func (s *session) step(ctx context.Context, width int) (*stepper, error) {
	rows, err := s.query(ctx)
	if err != nil {
		return nil, err
	}

	cols := rows.Columns()
	if width >= 0 && width != len(cols) {
		rows.Close()
		e := errorFromCode(sqlite3.SQLITE_RANGE)
		e.Message = fmt.Sprintf("%s: query returns %d columns, result needs %d",
			e.Message, len(cols), width)
		return nil, e
	}

	return &stepper{
		rows: rows,
		cur:  NewCursor(cols, make([]driver.Value, len(cols))),
	}, nil
}

// next advances to the next row; it reports false when there are no more.
func (st *stepper) next() (bool, error) {
	st.cur.off = 0
	err := st.rows.Next(st.cur.row)
	if err == io.EOF {
		return false, nil
	} else if err != nil {
		return false, newError(err)
	}
	return true, nil
}

func (st *stepper) close() error {
	return newError(st.rows.Close())
}
