package ui

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/bgunnarsson/sqlbind/internal/db"
	"github.com/bgunnarsson/sqlbind/internal/db/sqlite"
)

func testDB(t *testing.T) db.DB {
	t.Helper()

	l := log.New()
	l.SetOutput(io.Discard)

	ctx := context.Background()
	d, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "ui.db"), l)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	err = db.Exec(ctx, d, `
		CREATE TABLE pets (id INTEGER, name TEXT);
		INSERT INTO pets VALUES (1, 'rex'), (2, 'tom');
		CREATE TABLE owners (id INTEGER)`)
	if err != nil {
		t.Fatalf("Exec returned error: %v", err)
	}
	return d
}

// step feeds msg to m and runs the command it returns, if any, once.
func step(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()

	m, cmd := m.Update(msg)
	if cmd != nil {
		if next := cmd(); next != nil {
			m, _ = m.Update(next)
		}
	}
	return m
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoadAndPreview(t *testing.T) {
	t.Parallel()

	m := tea.Model(newModel(context.Background(), testDB(t), "sqlite"))
	m = step(t, m, m.Init()())

	got := m.(model)
	if len(got.tables) != 2 || got.tables[0] != "owners" || got.tables[1] != "pets" {
		t.Fatalf("tables got %v", got.tables)
	}

	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	got = m.(model)
	if got.failed {
		t.Fatalf("preview failed: %s", got.status)
	}
	if got.last == nil || len(got.last.Rows) != 2 {
		t.Fatalf("preview got %v", got.last)
	}
	if !strings.Contains(got.status, "2 rows") {
		t.Errorf("status %q", got.status)
	}
	if v := got.View(); !strings.Contains(v, "rex") || !strings.Contains(v, "sqlbind · sqlite") {
		t.Errorf("view does not show the preview:\n%s", v)
	}
}

func TestQueryPane(t *testing.T) {
	t.Parallel()

	m := tea.Model(newModel(context.Background(), testDB(t), "sqlite"))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlJ})
	m = step(t, m, keys("SELECT name FROM pets WHERE id = 2"))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	got := m.(model)
	if got.last == nil || len(got.last.Rows) != 1 || got.last.Rows[0][0] != "tom" {
		t.Fatalf("query result got %v (%s)", got.last, got.status)
	}

	q := m.(model)
	q.query.SetValue("SELECT nope FROM pets")
	m = step(t, q, tea.KeyMsg{Type: tea.KeyEnter})

	got = m.(model)
	if !got.failed || !strings.Contains(got.status, "no such column") {
		t.Fatalf("status after bad query got %q", got.status)
	}
	if got.last == nil || got.last.Rows[0][0] != "tom" {
		t.Fatal("a failed query replaced the previous result")
	}
}

func TestOverlays(t *testing.T) {
	t.Parallel()

	m := tea.Model(newModel(context.Background(), testDB(t), "sqlite"))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if m.(model).overlay != overlayHelp || !strings.Contains(m.View(), "Reload tables") {
		t.Fatal("F1 did not open help")
	}
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.(model).overlay != overlayNone {
		t.Fatal("Esc did not close help")
	}

	m = step(t, m, m.Init()())
	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.(model).overlay != overlayRow {
		t.Fatal("Enter on results did not open the row")
	}
	if v := m.View(); !strings.Contains(v, "name:") || !strings.Contains(v, "rex") {
		t.Errorf("row detail:\n%s", v)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Ctrl+C did not quit")
	}
}

func TestInline(t *testing.T) {
	t.Parallel()

	if got := inline("a\nb\tc"); got != "a b c" {
		t.Fatalf("inline got %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate got %q", got)
	}
}
