package print

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"

	"github.com/bgunnarsson/sqlbind/bridge"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
)

type Options struct {
	MaxWidth int // max width for each column, 0 = no limit
	Format   Format
}

// Render writes t to w in the format opts asks for.
func Render(w io.Writer, t *bridge.Table, opts Options) error {
	switch opts.Format {
	case "", FormatTable:
		RenderTable(w, t, opts)
	case FormatMarkdown:
		RenderMarkdown(w, t, opts)
	default:
		return fmt.Errorf("unknown output format %q", opts.Format)
	}
	return nil
}

// Footer summarises a result the way the console shows it under a table.
func Footer(t *bridge.Table, took time.Duration) string {
	n := len(t.Rows)
	noun := "rows"
	if n == 1 {
		noun = "row"
	}
	return fmt.Sprintf("(%s %s in %s)", humanize.Comma(int64(n)), noun, took.Round(time.Microsecond))
}

func RenderTable(w io.Writer, t *bridge.Table, opts Options) {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 40
	}

	cols := len(t.Columns)
	if cols == 0 {
		fmt.Fprintln(w, "(no columns)")
		return
	}

	// compute widths
	widths := make([]int, cols)
	for i, col := range t.Columns {
		widths[i] = min(runewidth.StringWidth(col.Name), opts.MaxWidth)
	}

	cells := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		cells[r] = make([]string, cols)
		for i := 0; i < cols && i < len(row); i++ {
			s := FormatCell(row[i])
			cells[r][i] = s
			if l := runewidth.StringWidth(s); l > widths[i] {
				widths[i] = min(l, opts.MaxWidth)
			}
		}
	}

	// helpers
	sep := func(ch string) string {
		var b strings.Builder
		b.WriteString("+")
		for i := range widths {
			b.WriteString(strings.Repeat(ch, widths[i]+2))
			b.WriteString("+")
		}
		return b.String()
	}

	writeRow := func(cells []string) {
		var b strings.Builder
		b.WriteString("|")
		for i, c := range cells {
			cut := truncate(c, widths[i])
			b.WriteString(" ")
			b.WriteString(runewidth.FillRight(cut, widths[i]))
			b.WriteString(" |")
		}
		fmt.Fprintln(w, b.String())
	}

	// header
	fmt.Fprintln(w, sep("-"))
	header := make([]string, cols)
	for i, col := range t.Columns {
		header[i] = col.Name
	}
	writeRow(header)
	fmt.Fprintln(w, sep("="))

	// data
	for _, row := range cells {
		writeRow(row)
	}
	fmt.Fprintln(w, sep("-"))
}

// RenderMarkdown writes t as a GitHub flavoured markdown table.
func RenderMarkdown(w io.Writer, t *bridge.Table, opts Options) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	tw.SetCenterSeparator("|")
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Name
	}
	tw.SetHeader(header)

	for _, row := range t.Rows {
		line := make([]string, len(t.Columns))
		for i := range line {
			if i < len(row) {
				s := strings.ReplaceAll(FormatCell(row[i]), "|", `\|`)
				if opts.MaxWidth > 0 {
					s = truncate(s, opts.MaxWidth)
				}
				line[i] = s
			}
		}
		tw.Append(line)
	}
	tw.Render()
}

// FormatCell renders one value of a dynamic result as text.
func FormatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	switch t := v.(type) {
	case []byte:
		// heuristic: treat as string if printable, else show the size
		s := string(t)
		if isPrintable(s) {
			return s
		}
		return fmt.Sprintf("<blob %s>", humanize.Bytes(uint64(len(t))))
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(t)
	}
}

func isPrintable(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r < 32 && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}

func truncate(s string, w int) string {
	if runewidth.StringWidth(s) <= w {
		return s
	}
	if w <= 3 {
		return runewidth.Truncate(s, w, "")
	}
	return runewidth.Truncate(s, w, "...")
}
