package bridge

import (
	"context"
	"database/sql/driver"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/bgunnarsson/sqlbind/stmt"
)

type note struct {
	ID   int64  `db:"id"`
	Body string `db:"body"`
}

// TestWrapPooledConnection borrows a connection from a database/sql pool,
// uses it through an unowned handle and hands it back intact.
func TestWrapPooledConnection(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pool.db")
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sqlx.Open(%s) returned error: %v", path, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	db.MustExec("CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)")
	db.MustExec("INSERT INTO notes (id, body) VALUES (?, ?), (?, ?)", 1, "first", 2, "second")

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn returned error: %v", err)
	}

	var got []Tuple2[int64, string]
	err = conn.Raw(func(dc any) error {
		c := Wrap(dc.(driver.Conn), WithLogger(quietLogger()))
		defer c.Release()

		if err := Run(ctx, c, stmt.InsertInto("notes", "id", "body").Values(3, "third")); err != nil {
			return err
		}
		got, err = Query2(ctx, c, stmt.Select(stmt.C("id"), stmt.C("body")).From("notes").
			OrderBy(stmt.C("id").Asc()), Int64, String)
		return err
	})
	if err != nil {
		t.Fatalf("Raw returned error: %v", err)
	}
	if len(got) != 3 || got[2] != (Tuple2[int64, string]{3, "third"}) {
		t.Fatalf("Query2 through wrapped connection got %v", got)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("returning the connection failed: %v", err)
	}

	// the pooled connection survived the release of the wrapping handle
	var notes []note
	if err := db.Select(&notes, "SELECT id, body FROM notes ORDER BY id"); err != nil {
		t.Fatalf("Select after release returned error: %v", err)
	}
	if len(notes) != 3 || notes[2].Body != "third" {
		t.Fatalf("Select after release got %v", notes)
	}
}
