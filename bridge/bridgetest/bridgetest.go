// Package bridgetest provides a native connection that records what the
// bridge asks of it: prepares, bound arguments, finalizes and closes.
package bridgetest

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
)

// ErrNotSupported is returned for transactions, which the fake lacks.
var ErrNotSupported = errors.New("bridgetest: not supported")

// Conn is a scripted driver.Conn. Set the exported configuration fields
// before use and read the recorded fields afterwards.
type Conn struct {
	// Columns and Rows are returned by every query.
	Columns []string
	Rows    [][]driver.Value

	// NumInput is reported by every prepared statement; -1 disables the
	// parameter count check.
	NumInput int

	PrepareErr error
	NilStmt    bool
	QueryErr   error
	ExecErr    error
	// StepErr is returned by Rows.Next once StepErrAfter rows were read.
	StepErr      error
	StepErrAfter int
	FinalizeErr  error
	CloseErr     error

	mu        sync.Mutex
	prepared  []string
	finalized int
	double    int
	args      [][]driver.NamedValue
	steps     int
	execs     []string
	closes    int
}

// New returns a Conn with no rows and the parameter count check disabled.
func New() *Conn {
	return &Conn{NumInput: -1}
}

// Prepared returns the SQL of every prepare call, in order.
func (c *Conn) Prepared() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prepared...)
}

// Finalized returns the number of statements closed.
func (c *Conn) Finalized() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finalized
}

// DoubleFinalized returns the number of Close calls on statements that
// were already closed.
func (c *Conn) DoubleFinalized() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.double
}

// Args returns the arguments bound for each execution, in order.
func (c *Conn) Args() [][]driver.NamedValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]driver.NamedValue(nil), c.args...)
}

// Steps returns the number of Rows.Next calls.
func (c *Conn) Steps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps
}

// Execs returns the SQL passed to one-shot executions.
func (c *Conn) Execs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.execs...)
}

// Closes returns the number of times the connection was closed.
func (c *Conn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prepared = append(c.prepared, query)
	if c.PrepareErr != nil {
		return nil, c.PrepareErr
	}
	if c.NilStmt {
		return nil, nil
	}
	return &stmt{conn: c}, nil
}

func (c *Conn) ExecContext(ctx context.Context, query string,
	args []driver.NamedValue) (driver.Result, error) {

	c.mu.Lock()
	defer c.mu.Unlock()

	c.execs = append(c.execs, query)
	if c.ExecErr != nil {
		return nil, c.ExecErr
	}
	return driver.RowsAffected(0), nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closes++
	return c.CloseErr
}

func (c *Conn) Begin() (driver.Tx, error) {
	return nil, ErrNotSupported
}

type stmt struct {
	conn   *Conn
	closed bool
}

func (s *stmt) Close() error {
	c := s.conn
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.closed {
		c.double++
		return nil
	}
	s.closed = true
	c.finalized++
	return c.FinalizeErr
}

func (s *stmt) NumInput() int {
	return s.conn.NumInput
}

func (s *stmt) bind(args []driver.NamedValue) {
	c := s.conn
	c.mu.Lock()
	defer c.mu.Unlock()

	c.args = append(c.args, append([]driver.NamedValue(nil), args...))
}

func (s *stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	s.bind(args)
	if s.conn.ExecErr != nil {
		return nil, s.conn.ExecErr
	}
	return driver.RowsAffected(0), nil
}

func (s *stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	s.bind(args)
	if s.conn.QueryErr != nil {
		return nil, s.conn.QueryErr
	}
	return &rows{conn: s.conn}, nil
}

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), named(args))
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), named(args))
}

func named(args []driver.Value) []driver.NamedValue {
	nv := make([]driver.NamedValue, len(args))
	for i, a := range args {
		nv[i] = driver.NamedValue{Ordinal: i + 1, Value: a}
	}
	return nv
}

type rows struct {
	conn *Conn
	next int
}

func (r *rows) Columns() []string {
	return r.conn.Columns
}

func (r *rows) Close() error {
	return nil
}

func (r *rows) Next(dest []driver.Value) error {
	c := r.conn
	c.mu.Lock()
	c.steps++
	c.mu.Unlock()

	if c.StepErr != nil && r.next >= c.StepErrAfter {
		return c.StepErr
	}
	if r.next >= len(c.Rows) {
		return io.EOF
	}
	copy(dest, c.Rows[r.next])
	r.next++
	return nil
}
