package ui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	log "github.com/sirupsen/logrus"

	"github.com/bgunnarsson/sqlbind/bridge"
	"github.com/bgunnarsson/sqlbind/internal/db"
	"github.com/bgunnarsson/sqlbind/internal/print"
)

const (
	maxColWidth = 40
	previewRows = 200
	tablesWidth = 28
)

type pane int

const (
	paneTables pane = iota
	paneResult
	paneQuery
)

type overlay int

const (
	overlayNone overlay = iota
	overlayRow
	overlayHelp
)

type tablesMsg struct {
	names []string
	err   error
}

type resultMsg struct {
	sql   string
	table *bridge.Table
	took  time.Duration
	err   error
}

type model struct {
	ctx   context.Context
	db    db.DB
	label string

	tables   []string
	selected int

	result  table.Model
	query   textinput.Model
	last    *bridge.Table
	status  string
	failed  bool
	focus   pane
	overlay overlay

	width, height int
}

// Run starts the interactive console on d. label names the engine in the
// header.
func Run(ctx context.Context, d db.DB, label string) error {
	p := tea.NewProgram(newModel(ctx, d, label), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func newModel(ctx context.Context, d db.DB, label string) model {
	q := textinput.New()
	q.Prompt = "sql> "
	q.Placeholder = "type a query and press Enter"
	q.CharLimit = 0

	r := table.New()
	st := table.DefaultStyles()
	st.Header = st.Header.Foreground(colorBlue).Bold(true)
	st.Selected = st.Selected.Foreground(colorBase).Background(colorBlue)
	r.SetStyles(st)

	return model{
		ctx:    ctx,
		db:     d,
		label:  label,
		result: r,
		query:  q,
		status: "Loading tables…",
		width:  80,
		height: 24,
	}
}

func (m model) Init() tea.Cmd {
	return m.loadTables()
}

func (m model) loadTables() tea.Cmd {
	return func() tea.Msg {
		names, err := m.db.ListTables(m.ctx)
		return tablesMsg{names: names, err: err}
	}
}

func (m model) runQuery(sql string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		t, err := db.Query(m.ctx, m.db, sql)
		return resultMsg{sql: sql, table: t, took: time.Since(start), err: err}
	}
}

func (m model) previewTable(name string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		s := db.Preview(m.db, name, previewRows)
		t, err := db.QueryStmt(m.ctx, m.db, s)
		sql, _ := s.Query()
		return resultMsg{sql: sql, table: t, took: time.Since(start), err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tablesMsg:
		if msg.err != nil {
			m.setError("Error loading tables: %v", msg.err)
			return m, nil
		}
		m.tables = m.tables[:0]
		for _, t := range msg.names {
			if name := strings.TrimSpace(t); name != "" {
				m.tables = append(m.tables, name)
			}
		}
		m.selected = 0
		if len(m.tables) == 0 {
			m.setStatus("No tables found.")
		} else {
			m.setStatus("Tables loaded. Use arrows + Enter, or type a query below.")
		}
		return m, nil

	case resultMsg:
		if msg.err != nil {
			log.WithError(msg.err).WithField("sql", msg.sql).Debug("ui: query failed")
			m.setError("Query error: %v", msg.err)
			return m, nil
		}
		m.show(msg.table)
		m.setStatus("Query OK " + print.Footer(msg.table, msg.took))
		return m, nil

	case tea.KeyMsg:
		return m.key(msg)
	}
	return m, nil
}

func (m model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()

	if m.overlay != overlayNone {
		switch k {
		case "esc", "enter", "ctrl+q", "ctrl+_", "f1":
			m.overlay = overlayNone
		case "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch k {
	case "ctrl+c", "ctrl+q":
		return m, tea.Quit
	case "ctrl+_", "f1":
		m.overlay = overlayHelp
		return m, nil
	case "ctrl+r":
		m.setStatus("Loading tables…")
		return m, m.loadTables()
	case "ctrl+h":
		m.setFocus(paneTables)
		return m, nil
	case "ctrl+l":
		m.setFocus(paneResult)
		return m, nil
	case "ctrl+j":
		m.setFocus(paneQuery)
		return m, nil
	case "tab":
		m.setFocus((m.focus + 1) % 3)
		return m, nil
	}

	switch m.focus {
	case paneTables:
		switch k {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.tables)-1 {
				m.selected++
			}
		case "enter":
			if m.selected < len(m.tables) {
				name := m.tables[m.selected]
				m.setStatus("Loading " + name + "…")
				return m, m.previewTable(name)
			}
		case ":":
			m.setFocus(paneQuery)
		}
		return m, nil

	case paneResult:
		if k == "enter" {
			if m.last != nil && len(m.last.Rows) > 0 {
				m.overlay = overlayRow
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.result, cmd = m.result.Update(msg)
		return m, cmd

	default:
		if k == "enter" {
			sql := strings.TrimSpace(m.query.Value())
			if sql == "" {
				return m, nil
			}
			m.setStatus("Running query… " + truncate(sql, 80))
			return m, m.runQuery(sql)
		}
		var cmd tea.Cmd
		m.query, cmd = m.query.Update(msg)
		return m, cmd
	}
}

func (m *model) setFocus(p pane) {
	m.focus = p
	if p == paneQuery {
		m.query.Focus()
	} else {
		m.query.Blur()
	}
	if p == paneResult {
		m.result.Focus()
	} else {
		m.result.Blur()
	}
}

func (m *model) setStatus(s string) {
	m.status = s
	m.failed = false
}

func (m *model) setError(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.failed = true
}

// show replaces the result pane with t.
func (m *model) show(t *bridge.Table) {
	m.last = t

	cols := make([]table.Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = table.Column{Title: c.Name, Width: min(runewidth.StringWidth(c.Name), maxColWidth)}
	}

	rows := make([]table.Row, len(t.Rows))
	for r, row := range t.Rows {
		cells := make(table.Row, len(cols))
		for i := range cells {
			if i < len(row) {
				cells[i] = inline(print.FormatCell(row[i]))
			}
			if r < previewRows {
				if w := min(runewidth.StringWidth(cells[i]), maxColWidth); w > cols[i].Width {
					cols[i].Width = w
				}
			}
		}
		rows[r] = cells
	}

	// rows must not be wider than the columns while they change
	m.result.SetRows(nil)
	m.result.SetColumns(cols)
	m.result.SetRows(rows)
	m.result.GotoTop()
	m.layout()
}

func (m *model) layout() {
	// header, status, query and borders
	h := m.height - 9
	if h < 3 {
		h = 3
	}
	m.result.SetHeight(h)
	m.result.SetWidth(max(m.width-tablesWidth-6, 10))
	m.query.Width = max(m.width-10, 10)
}

func (m model) View() string {
	switch m.overlay {
	case overlayHelp:
		return m.box(helpText, "sqlbind help (ESC/Enter to close)")
	case overlayRow:
		return m.box(m.rowDetail(), "Row detail (ESC/Enter to close)")
	}

	header := headerStyle.Render(fmt.Sprintf(" sqlbind · %s ", m.label))

	var list strings.Builder
	for i, t := range m.tables {
		line := truncate(t, tablesWidth-2)
		if i == m.selected {
			line = selectedStyle.Render(runewidth.FillRight(line, tablesWidth-2))
		}
		list.WriteString(line)
		list.WriteByte('\n')
	}

	h := max(m.height-7, 3)
	left := paneStyle(m.focus == paneTables).Width(tablesWidth).Height(h).
		Render(strings.TrimRight(list.String(), "\n"))
	right := paneStyle(m.focus == paneResult).Height(h).Render(m.result.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	query := paneStyle(m.focus == paneQuery).Width(max(m.width-2, 10)).Render(m.query.View())

	status := statusStyle
	if m.failed {
		status = errorStyle
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, query, status.Render(m.status))
}

func (m model) rowDetail() string {
	if m.last == nil {
		return ""
	}
	r := m.result.Cursor()
	if r < 0 || r >= len(m.last.Rows) {
		return ""
	}
	row := m.last.Rows[r]

	var b strings.Builder
	b.Grow(256)
	for i, col := range m.last.Columns {
		b.WriteString(col.Name)
		b.WriteString(":\n  ")
		if i < len(row) {
			b.WriteString(print.FormatCell(row[i]))
		}
		b.WriteString("\n\n")
	}
	if n := len(m.last.Rows); n > 1 {
		fmt.Fprintf(&b, "row %s of %s", humanize.Comma(int64(r+1)), humanize.Comma(int64(n)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m model) box(body, title string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(" "+title+" "),
		paneStyle(true).Width(max(m.width-2, 10)).Render(body))
}

const helpText = `Global
  Ctrl+Q / Ctrl+C   Quit
  Ctrl+/ or F1      Toggle this help
  Ctrl+R            Reload tables
  Tab               Cycle panes

Panes
  Ctrl+h            Focus tables (left)
  Ctrl+l            Focus results (right)
  Ctrl+j            Focus query (down)

Tables
  Up/Down, j/k      Move
  Enter             Preview table
  :                 Focus query

Results
  Enter             Show the selected row`

// inline flattens s onto one line so it fits a table cell.
func inline(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

func truncate(s string, w int) string {
	if runewidth.StringWidth(s) <= w {
		return s
	}
	return runewidth.Truncate(s, w, "…")
}
