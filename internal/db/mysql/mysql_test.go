package mysql

import (
	"testing"

	"github.com/bgunnarsson/sqlbind/bridge"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tbl := &bridge.Table{
		Columns: []bridge.Column{{Name: "name", Type: "VARCHAR"}, {Name: "data", Type: "BLOB"}},
		Rows:    [][]any{{[]byte("ann"), []byte{1, 2}}},
	}

	(&MysqlDB{}).Normalize(tbl)

	if tbl.Rows[0][0] != "ann" {
		t.Errorf("varchar got %#v", tbl.Rows[0][0])
	}
	if _, ok := tbl.Rows[0][1].([]byte); !ok {
		t.Errorf("blob got %#v", tbl.Rows[0][1])
	}
}

func TestOpenBadDSN(t *testing.T) {
	t.Parallel()

	for _, dsn := range []string{"", "not a dsn"} {
		if _, err := Open(t.Context(), dsn, nil); err == nil {
			t.Errorf("Open(%q) succeeded", dsn)
		}
	}
}
