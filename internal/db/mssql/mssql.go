package mssql

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/azuread"
	log "github.com/sirupsen/logrus"

	"github.com/bgunnarsson/sqlbind/bridge"
	"github.com/bgunnarsson/sqlbind/internal/db"
	"github.com/bgunnarsson/sqlbind/stmt"
)

const Name = "mssql"

type MssqlDB struct {
	db.Base
}

// Open opens a MSSQL connection.
// If the DSN contains "fedauth=", the Azure AD connector is used so
// things like ActiveDirectoryInteractive / AzCli work.
func Open(ctx context.Context, dsn string, logger log.FieldLogger) (*MssqlDB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mssql: %w", db.ErrEmptyDSN)
	}

	connector, err := newConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql: %w", err)
	}

	c, err := db.Connect(ctx, Name, connector, logger)
	if err != nil {
		return nil, err
	}
	return &MssqlDB{Base: db.NewBase(c, Name, stmt.AtP)}, nil
}

func newConnector(dsn string) (driver.Connector, error) {
	if strings.Contains(strings.ToLower(dsn), "fedauth=") {
		return azuread.NewConnector(dsn)
	}
	return mssql.NewConnector(dsn)
}

func (m *MssqlDB) ListTables(ctx context.Context) ([]string, error) {
	const q = `
SELECT TABLE_SCHEMA + '.' + TABLE_NAME AS name
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_SCHEMA, TABLE_NAME`

	return bridge.Query(ctx, m.Conn(), stmt.SQL(q), bridge.String)
}

// DescribeTable accepts either "table" or "schema.table".
func (m *MssqlDB) DescribeTable(ctx context.Context, table string) ([]db.Column, error) {
	schema, name := db.SplitSchema(table, "dbo")

	const q = `
SELECT COLUMN_NAME, DATA_TYPE
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`

	rows, err := bridge.Query2(ctx, m.Conn(), stmt.Rebind(stmt.SQL(q, schema, name), m.Style()),
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

// Normalize renders uniqueidentifier columns in their usual text form and
// other binary columns as hex, so they print as one cell.
func (m *MssqlDB) Normalize(t *bridge.Table) {
	for _, row := range t.Rows {
		for i, v := range row {
			b, ok := v.([]byte)
			if !ok {
				continue
			}
			if i < len(t.Columns) && strings.EqualFold(t.Columns[i].Type, "UNIQUEIDENTIFIER") {
				var u mssql.UniqueIdentifier
				if err := u.Scan(b); err == nil {
					row[i] = u.String()
					continue
				}
			}
			row[i] = fmt.Sprintf("0x%x", b)
		}
	}
}
