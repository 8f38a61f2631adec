package mysql

import (
	"context"
	"fmt"

	"github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"

	"github.com/bgunnarsson/sqlbind/bridge"
	"github.com/bgunnarsson/sqlbind/internal/db"
	"github.com/bgunnarsson/sqlbind/stmt"
)

const Name = "mysql"

type MysqlDB struct {
	db.Base
}

func Open(ctx context.Context, dsn string, logger log.FieldLogger) (*MysqlDB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql: %w", db.ErrEmptyDSN)
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}

	c, err := db.Connect(ctx, Name, connector, logger)
	if err != nil {
		return nil, err
	}
	return &MysqlDB{Base: db.NewBase(c, Name, stmt.Question)}, nil
}

func (m *MysqlDB) ListTables(ctx context.Context) ([]string, error) {
	const q = `
SELECT table_name
FROM information_schema.tables
WHERE table_type = 'BASE TABLE'
  AND table_schema = DATABASE()
ORDER BY table_name`

	return bridge.Query(ctx, m.Conn(), stmt.SQL(q), bridge.String)
}

func (m *MysqlDB) DescribeTable(ctx context.Context, table string) ([]db.Column, error) {
	const q = `
SELECT column_name, column_type
FROM information_schema.columns
WHERE table_schema = DATABASE()
  AND table_name = ?
ORDER BY ordinal_position`

	rows, err := bridge.Query2(ctx, m.Conn(), stmt.SQL(q, table), bridge.String, bridge.String)
	if err != nil {
		return nil, err
	}

	cols := make([]db.Column, len(rows))
	for i, r := range rows {
		cols[i] = db.Column{Name: r.V1, Type: r.V2}
	}
	return cols, nil
}

// Normalize turns the text columns MySQL returns as bytes into strings.
func (m *MysqlDB) Normalize(t *bridge.Table) {
	for _, row := range t.Rows {
		for i, v := range row {
			if b, ok := v.([]byte); ok && i < len(t.Columns) && isText(t.Columns[i].Type) {
				row[i] = string(b)
			}
		}
	}
}

func isText(typ string) bool {
	switch typ {
	case "CHAR", "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM", "SET",
		"DECIMAL", "JSON":
		return true
	}
	return false
}
