package bridge

import (
	"context"
	"database/sql/driver"
	"sync"

	log "github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

var sqliteDriver driver.Driver = &sqlite.Driver{}

// Conn is a handle on one native connection.
//
// An owned handle closes the native connection when its last reference is
// released; every Retain must be matched by a Release. An unowned handle,
// from Wrap, never closes it and must not outlive whoever owns it.
//
// A Conn is not safe for concurrent use: callers serialize access to it.
type Conn struct {
	native driver.Conn
	owned  bool
	log    log.FieldLogger

	mu   sync.Mutex
	refs int
}

// Option configures a Conn.
type Option func(c *Conn)

// WithLogger sets the logger used for statement tracing and teardown
// problems. The default is the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(c *Conn) {
		c.log = l
	}
}

func newConn(native driver.Conn, owned bool, opts []Option) *Conn {
	c := &Conn{
		native: native,
		owned:  owned,
		log:    log.StandardLogger(),
		refs:   1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open opens the sqlite database at path, creating it if it does not exist,
// for reading and writing. Use Memory for an in-memory database.
func Open(path string, opts ...Option) (*Conn, error) {
	native, err := sqliteDriver.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	if native == nil {
		return nil, errorFromCode(sqlite3.SQLITE_CANTOPEN)
	}

	c := newConn(native, true, opts)
	c.log.WithField("path", path).Debug("bridge: opened")
	return c, nil
}

// Adopt returns an owned handle on a native connection opened elsewhere.
func Adopt(native driver.Conn, opts ...Option) *Conn {
	return newConn(native, true, opts)
}

// Wrap returns an unowned handle on native. Releasing it never closes
// native.
func Wrap(native driver.Conn, opts ...Option) *Conn {
	return newConn(native, false, opts)
}

// Native returns the native connection.
func (c *Conn) Native() driver.Conn {
	return c.native
}

// Owned reports whether releasing the last reference closes the native
// connection.
func (c *Conn) Owned() bool {
	return c.owned
}

// Retain adds a reference and returns c. A handle whose last reference is
// gone stays released: Retain fails with ErrReleased and adds nothing.
func (c *Conn) Retain() (*Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refs == 0 {
		return nil, ErrReleased
	}
	c.refs++
	return c, nil
}

// Release drops a reference. Dropping the last reference of an owned
// handle closes the native connection; a failure to close is logged and
// otherwise ignored.
func (c *Conn) Release() {
	c.mu.Lock()
	if c.refs == 0 {
		c.mu.Unlock()
		return
	}
	c.refs--
	last := c.refs == 0
	c.mu.Unlock()

	if !last || !c.owned {
		return
	}
	if err := c.native.Close(); err != nil {
		c.log.WithError(err).Warn("bridge: close failed")
		return
	}
	c.log.Debug("bridge: closed")
}

// Close releases one reference; it always returns nil.
func (c *Conn) Close() error {
	c.Release()
	return nil
}

func (c *Conn) live() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refs == 0 {
		return ErrReleased
	}
	return nil
}

// Exec runs sql to completion without bindings or result rows. It may
// contain several statements separated by semicolons.
func (c *Conn) Exec(ctx context.Context, sql string) error {
	if sql == "" {
		return ErrEmptyQuery
	}
	if err := c.live(); err != nil {
		return err
	}

	c.log.WithField("sql", sql).Debug("bridge: exec")

	if execer, ok := c.native.(driver.ExecerContext); ok {
		_, err := execer.ExecContext(ctx, sql, nil)
		if err != driver.ErrSkip {
			return newError(err)
		}
	}

	return withStatement(ctx, c, sql, nil, func(s *session) error {
		return s.exec(ctx)
	})
}
