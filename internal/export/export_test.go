package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bgunnarsson/sqlbind/bridge"
)

func sample() *bridge.Table {
	return &bridge.Table{
		Columns: []bridge.Column{{Name: "id"}, {Name: "name"}, {Name: "score"}, {Name: "seen"}},
		Rows: [][]any{
			{int64(1), "ann", 2.5, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
			{int64(-2), "=SUM(A1:A2)", nil, nil},
			{int64(3), []byte("a,b"), true, nil},
		},
	}
}

func TestCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc, err := New("CSV", &buf)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := Table(enc, sample()); err != nil {
		t.Fatalf("Table returned error: %v", err)
	}

	want := `id,name,score,seen
1,ann,2.5,2024-01-02T03:04:05Z
-2,'=SUM(A1:A2),,
3,"a,b",1,
`
	if got := buf.String(); got != want {
		t.Fatalf("CSV got:\n%s\nwant:\n%s", got, want)
	}
}

func readSheet(t *testing.T, b []byte) [][]string {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("OpenReader returned error: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows returned error: %v", err)
	}
	return rows
}

func TestExcel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc, err := New("xlsx", &buf)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer enc.Close()

	if err := Table(enc, sample()); err != nil {
		t.Fatalf("Table returned error: %v", err)
	}

	rows := readSheet(t, buf.Bytes())
	if len(rows) != 4 {
		t.Fatalf("sheet has %d rows want 4: %v", len(rows), rows)
	}
	if strings.Join(rows[0], ",") != "id,name,score,seen" {
		t.Errorf("header got %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != "ann" || rows[1][2] != "2.5" {
		t.Errorf("first row got %v", rows[1])
	}
	if rows[2][0] != "-2" || rows[2][1] != "'=SUM(A1:A2)" {
		t.Errorf("second row got %v", rows[2])
	}
	if rows[3][1] != "a,b" || rows[3][2] != "TRUE" {
		t.Errorf("third row got %v", rows[3])
	}
}

func TestUnknownFormat(t *testing.T) {
	t.Parallel()

	if _, err := New("pdf", &bytes.Buffer{}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("New(pdf) got %v want %v", err, ErrUnknownFormat)
	}
}

func TestFormatOf(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"out.csv":          "csv",
		"/tmp/Report.XLSX": "xlsx",
		"noext":            "",
	}
	for path, want := range cases {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) got %q want %q", path, got, want)
		}
	}
}
