package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"

	"github.com/bgunnarsson/sqlbind/bridge"
	"github.com/bgunnarsson/sqlbind/internal/db"
	"github.com/bgunnarsson/sqlbind/stmt"
)

const Name = "postgres"

type PostgresDB struct {
	db.Base
}

func Open(ctx context.Context, dsn string, logger log.FieldLogger) (*PostgresDB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: %w", db.ErrEmptyDSN)
	}

	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	c, err := db.Connect(ctx, Name, stdlib.GetConnector(*cfg), logger)
	if err != nil {
		return nil, err
	}
	return &PostgresDB{Base: db.NewBase(c, Name, stmt.Dollar)}, nil
}

func (p *PostgresDB) ListTables(ctx context.Context) ([]string, error) {
	const q = `
SELECT (table_schema || '.' || table_name)::text AS name
FROM information_schema.tables
WHERE table_type = 'BASE TABLE'
  AND table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY table_schema, table_name`

	return bridge.Query(ctx, p.Conn(), stmt.SQL(q), bridge.String)
}

// DescribeTable accepts either "table" or "schema.table".
func (p *PostgresDB) DescribeTable(ctx context.Context, table string) ([]db.Column, error) {
	schema, name := db.SplitSchema(table, "public")

	const q = `
SELECT column_name::text, data_type::text
FROM information_schema.columns
WHERE table_schema = ?
  AND table_name = ?
ORDER BY ordinal_position`

	rows, err := bridge.Query2(ctx, p.Conn(), stmt.Rebind(stmt.SQL(q, schema, name), p.Style()),
		bridge.String, bridge.String)
	if err != nil {
		return nil, err
	}

	cols := make([]db.Column, len(rows))
	for i, r := range rows {
		cols[i] = db.Column{Name: r.V1, Type: r.V2}
	}
	return cols, nil
}
