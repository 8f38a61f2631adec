package sqlite

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/bgunnarsson/sqlbind/bridge"
	"github.com/bgunnarsson/sqlbind/internal/db"
	"github.com/bgunnarsson/sqlbind/stmt"
)

const Name = "sqlite"

type SqliteDB struct {
	db.Base
}

func Open(ctx context.Context, path string, logger log.FieldLogger) (*SqliteDB, error) {
	c, err := bridge.Open(path, bridge.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	if err := c.Exec(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		c.Release()
		return nil, err
	}

	return &SqliteDB{Base: db.NewBase(c, Name, stmt.Question)}, nil
}

func (s *SqliteDB) ListTables(ctx context.Context) ([]string, error) {
	// tables and views, without the engine's own sqlite_% objects
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY lower(name)`

	return bridge.Query(ctx, s.Conn(), stmt.SQL(q), bridge.String)
}

func (s *SqliteDB) DescribeTable(ctx context.Context, table string) ([]db.Column, error) {
	const q = `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`

	rows, err := bridge.Query2(ctx, s.Conn(), stmt.SQL(q, table), bridge.String, bridge.String)
	if err != nil {
		return nil, err
	}

	cols := make([]db.Column, len(rows))
	for i, r := range rows {
		cols[i] = db.Column{Name: r.V1, Type: r.V2}
	}
	return cols, nil
}
