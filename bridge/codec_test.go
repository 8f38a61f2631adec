package bridge

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func decodeOne[T any](c Codec[T], v driver.Value) (T, error) {
	return c.Decode(NewCursor([]string{"col"}, []driver.Value{v}))
}

func TestDecodeConversions(t *testing.T) {
	t.Parallel()

	if got, err := decodeOne(Int64, "  42 "); err != nil || got != 42 {
		t.Errorf("Int64 from text got %d, %v", got, err)
	}
	if got, err := decodeOne(Int64, 7.0); err != nil || got != 7 {
		t.Errorf("Int64 from whole float got %d, %v", got, err)
	}
	if got, err := decodeOne(Int64, true); err != nil || got != 1 {
		t.Errorf("Int64 from bool got %d, %v", got, err)
	}
	if got, err := decodeOne(Float64, int64(3)); err != nil || got != 3 {
		t.Errorf("Float64 from integer got %v, %v", got, err)
	}
	if got, err := decodeOne(Float64, []byte("2.5")); err != nil || got != 2.5 {
		t.Errorf("Float64 from blob text got %v, %v", got, err)
	}
	if got, err := decodeOne(String, []byte("abc")); err != nil || got != "abc" {
		t.Errorf("String from blob got %q, %v", got, err)
	}
	if got, err := decodeOne(Bool, int64(0)); err != nil || got {
		t.Errorf("Bool from 0 got %v, %v", got, err)
	}
	if got, err := decodeOne(Bool, int64(2)); err != nil || !got {
		t.Errorf("Bool from 2 got %v, %v", got, err)
	}

	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	if got, err := decodeOne(UUID, id[:]); err != nil || got != id {
		t.Errorf("UUID from raw bytes got %v, %v", got, err)
	}
	if got, err := decodeOne(UUID, []byte(id.String())); err != nil || got != id {
		t.Errorf("UUID from text bytes got %v, %v", got, err)
	}
	if got, err := decodeOne(Decimal, int64(12)); err != nil || !got.Equal(decimal.New(12, 0)) {
		t.Errorf("Decimal from integer got %v, %v", got, err)
	}
}

func TestDecodeBytesCopies(t *testing.T) {
	t.Parallel()

	src := []byte{1, 2, 3}
	got, err := decodeOne(Bytes, src)
	if err != nil {
		t.Fatalf("Bytes returned error: %v", err)
	}
	src[0] = 9
	if got[0] != 1 {
		t.Fatal("Bytes aliases the engine's buffer")
	}

	vals, err := Values.Decode(NewCursor(nil, []driver.Value{src}))
	if err != nil {
		t.Fatalf("Values returned error: %v", err)
	}
	src[1] = 9
	if vals[0].([]byte)[1] != 2 {
		t.Fatal("Values aliases the engine's buffer")
	}
}

func TestDecodeTime(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   driver.Value
		want time.Time
	}{
		{"2024-01-02T03:04:05.5Z", time.Date(2024, 1, 2, 3, 4, 5, 500000000, time.UTC)},
		{"2024-01-02T03:04:05+02:00", time.Date(2024, 1, 2, 1, 4, 5, 0, time.UTC)},
		{"2024-01-02 03:04:05", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2024-01-02 03:04:05.25+00:00", time.Date(2024, 1, 2, 3, 4, 5, 250000000, time.UTC)},
		{"2024-01-02 03:04", time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{[]byte("2024-01-02"), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{int64(0), time.Unix(0, 0).UTC()},
		{time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("", 3600)),
			time.Date(2024, 1, 2, 2, 4, 5, 0, time.UTC)},
	}

	for _, c := range cases {
		got, err := decodeOne(Time, c.in)
		if err != nil {
			t.Errorf("Time(%v) returned error: %v", c.in, err)
			continue
		}
		if !got.Equal(c.want) || got.Location() != time.UTC {
			t.Errorf("Time(%v) got %v want %v", c.in, got, c.want)
		}
	}

	if _, err := decodeOne(Time, "yesterday"); err == nil {
		t.Error("Time(yesterday) did not fail")
	}
}

func TestDecodeMismatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fn   func() error
		msg  string
	}{
		{"null", func() error { _, err := decodeOne(Int64, nil); return err }, "NULL can not be decoded as int64"},
		{"bool", func() error { _, err := decodeOne(Float64, true); return err }, "bool can not be decoded"},
		{"fraction", func() error { _, err := decodeOne(Int64, 1.5); return err }, "float64 can not be decoded"},
		{"parse", func() error { _, err := decodeOne(Int64, "x1"); return err }, "decoding string as int64"},
		{"integer", func() error { _, err := decodeOne(String, int64(3)); return err }, "int64 can not be decoded"},
		{"uuid", func() error { _, err := decodeOne(UUID, "nope"); return err }, "as uuid.UUID"},
	}

	for _, c := range cases {
		err := c.fn()
		var be *Error
		if !errors.As(err, &be) {
			t.Errorf("%s: got %v want *Error", c.name, err)
			continue
		}
		if !strings.Contains(be.Message, c.msg) || !strings.Contains(be.Message, "column col") {
			t.Errorf("%s: message %q does not contain %q", c.name, be.Message, c.msg)
		}
	}
}

func TestIntRange(t *testing.T) {
	t.Parallel()

	if math.MaxInt == math.MaxInt64 {
		t.Skip("int is 64 bits wide")
	}
	if _, err := decodeOne(Int, int64(math.MaxInt64)); err == nil {
		t.Fatal("Int accepted a value wider than int")
	}
}

func TestNullCodec(t *testing.T) {
	t.Parallel()

	n := Null(String)
	cur := NewCursor([]string{"a", "b", "c"}, []driver.Value{nil, "x", int64(1)})

	got, err := n.Decode(cur)
	if err != nil || got.Valid {
		t.Fatalf("Null from NULL got %v, %v", got, err)
	}
	got, err = n.Decode(cur)
	if err != nil || got != (sql.Null[string]{V: "x", Valid: true}) {
		t.Fatalf("Null from text got %v, %v", got, err)
	}
	if _, err := n.Decode(cur); err == nil {
		t.Fatal("Null(String) decoded an integer")
	}
	if cur.Remaining() != 0 {
		t.Fatalf("Remaining() got %d want 0", cur.Remaining())
	}

	if v := n.Bind(sql.Null[string]{}); v.String() != "NULL" {
		t.Errorf("Bind(invalid) got %s want NULL", v)
	}
}

func TestCursor(t *testing.T) {
	t.Parallel()

	cur := NewCursor([]string{"a"}, []driver.Value{int64(1), int64(2), int64(3)})
	if cur.Len() != 3 || cur.Name(0) != "a" || cur.Name(1) != "" {
		t.Fatalf("cursor reports len %d names %q %q", cur.Len(), cur.Name(0), cur.Name(1))
	}
	if err := cur.Skip(2); err != nil {
		t.Fatalf("Skip(2) returned error: %v", err)
	}
	if v, err := cur.Next(); err != nil || v != int64(3) {
		t.Fatalf("Next() after Skip got %v, %v", v, err)
	}

	_, err := cur.Next()
	var be *Error
	if !errors.As(err, &be) || !strings.Contains(be.Message, "out of range") {
		t.Fatalf("Next() past the end got %v", err)
	}
	if err := cur.Skip(1); err == nil {
		t.Fatal("Skip past the end did not fail")
	}

	// a codec that runs past the row reports a range error
	_, err = T2(Int64, Int64).Decode(NewCursor(nil, []driver.Value{int64(1)}))
	if !errors.As(err, &be) {
		t.Fatalf("T2 on one column got %v", err)
	}
}

func TestTupleWidth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		width int
		want  int
	}{
		{"T2", T2(Int64, String).Width(), 2},
		{"T3", T3(Int64, String, Null(Bytes)).Width(), 3},
		{"T4", T4(Int64, String, Float64, Bool).Width(), 4},
		{"nested", T2(T3(Int, Int, Int), T2(Int, Int)).Width(), 5},
		{"values", T2(Int64, Values).Width(), -1},
	}
	for _, c := range cases {
		if c.width != c.want {
			t.Errorf("%s width got %d want %d", c.name, c.width, c.want)
		}
	}
}
