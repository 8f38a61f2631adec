package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bgunnarsson/sqlbind/bridge"
	"github.com/bgunnarsson/sqlbind/stmt"
)

// ErrEmptyDSN is returned by the network engines when no DSN was given.
var ErrEmptyDSN = errors.New("empty DSN")

// ConnectTimeout bounds connecting to and pinging a network engine.
const ConnectTimeout = 5 * time.Second

type Column struct {
	Name string
	Type string
}

// DB is an open database: a bridge handle plus the engine's catalog
// queries and placeholder style.
type DB interface {
	Name() string
	Conn() *bridge.Conn
	Style() stmt.Style
	ListTables(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, table string) ([]Column, error)
	Close() error
}

// Normalizer is implemented by engines whose raw values need adjusting
// before they are shown, such as text returned as bytes.
type Normalizer interface {
	Normalize(t *bridge.Table)
}

// Query runs sql, written with ? placeholders, against d and returns the
// dynamic result.
func Query(ctx context.Context, d DB, sql string, args ...any) (*bridge.Table, error) {
	return QueryStmt(ctx, d, stmt.SQL(sql, args...))
}

// QueryStmt runs s against d with its placeholders rebound for the engine.
func QueryStmt(ctx context.Context, d DB, s stmt.Statement) (*bridge.Table, error) {
	t, err := bridge.QueryTable(ctx, d.Conn(), stmt.Rebind(s, d.Style()))
	if err != nil {
		return nil, err
	}
	if n, ok := d.(Normalizer); ok {
		n.Normalize(t)
	}
	return t, nil
}

// Exec runs sql, written with ? placeholders, against d and discards any rows.
func Exec(ctx context.Context, d DB, sql string, args ...any) error {
	if len(args) == 0 {
		return d.Conn().Exec(ctx, sql)
	}
	return bridge.Run(ctx, d.Conn(), stmt.Rebind(stmt.SQL(sql, args...), d.Style()))
}

// Connect opens one native connection through connector, pings it when the
// driver supports that and hands ownership to a bridge handle.
func Connect(ctx context.Context, name string, connector driver.Connector,
	logger log.FieldLogger) (*bridge.Conn, error) {

	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	native, err := connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", name, err)
	}
	if p, ok := native.(driver.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			native.Close()
			return nil, fmt.Errorf("%s: ping: %w", name, err)
		}
	}

	logger.WithField("engine", name).Debug("db: connected")
	return bridge.Adopt(native, bridge.WithLogger(logger)), nil
}

// Base carries what every engine shares. Engines embed it and add their
// catalog queries.
type Base struct {
	conn  *bridge.Conn
	name  string
	style stmt.Style
}

func NewBase(conn *bridge.Conn, name string, style stmt.Style) Base {
	return Base{conn: conn, name: name, style: style}
}

func (b Base) Name() string       { return b.name }
func (b Base) Conn() *bridge.Conn { return b.conn }
func (b Base) Style() stmt.Style  { return b.style }

func (b Base) Close() error {
	return b.conn.Close()
}

// QuoteIdent quotes a possibly schema qualified name for d's engine.
func QuoteIdent(d DB, name string) string {
	if d.Name() != "mysql" {
		return stmt.Quote(name)
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}

// Preview returns a statement selecting at most n rows of table.
func Preview(d DB, table string, n int) stmt.Statement {
	if d.Name() == "mssql" {
		return stmt.SQL(fmt.Sprintf("SELECT TOP (%d) * FROM %s", n, QuoteIdent(d, table)))
	}
	return stmt.SQL(fmt.Sprintf("SELECT * FROM %s LIMIT %d", QuoteIdent(d, table), n))
}

// SplitSchema splits "schema.table" into its parts, using def when table
// has no schema.
func SplitSchema(table, def string) (string, string) {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return schema, name
	}
	return def, table
}
