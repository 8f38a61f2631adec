package bridge

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/bgunnarsson/sqlbind/binding"
	"github.com/bgunnarsson/sqlbind/bridge/bridgetest"
	"github.com/bgunnarsson/sqlbind/stmt"
)

func fakeConn() (*bridgetest.Conn, *Conn) {
	native := bridgetest.New()
	return native, Wrap(native, WithLogger(quietLogger()))
}

func TestBindOrder(t *testing.T) {
	t.Parallel()

	cases := [][]any{
		{},
		{int64(1)},
		{int64(1), "a", 2.5, nil, []byte{9}},
	}

	for _, args := range cases {
		native, c := fakeConn()
		s := stmt.SQL("select x", args...)
		if err := Run(context.Background(), c, s); err != nil {
			t.Fatalf("Run(%v) returned error: %v", args, err)
		}

		bound := native.Args()
		if len(bound) != 1 {
			t.Fatalf("Run(%v) executed %d times", args, len(bound))
		}
		if len(bound[0]) != len(args) {
			t.Fatalf("Run(%v) bound %d values", args, len(bound[0]))
		}
		for i, nv := range bound[0] {
			want, _ := binding.Of(args[i]).Driver()
			if nv.Ordinal != i+1 {
				t.Errorf("Run(%v) arg %d has ordinal %d", args, i, nv.Ordinal)
			}
			if b, ok := want.([]byte); ok {
				if string(nv.Value.([]byte)) != string(b) {
					t.Errorf("Run(%v) arg %d got %v want %v", args, i, nv.Value, want)
				}
			} else if nv.Value != want {
				t.Errorf("Run(%v) arg %d got %v want %v", args, i, nv.Value, want)
			}
		}
		if native.Finalized() != 1 {
			t.Errorf("Run(%v) finalized %d statements", args, native.Finalized())
		}
	}
}

func TestInvalidBindingAborts(t *testing.T) {
	t.Parallel()

	cause := errors.New("malformed")
	for pos := 0; pos < 3; pos++ {
		vals := []binding.Value{binding.Int64(1), binding.Text("a"), binding.Double(2)}
		vals[pos] = binding.Invalid(cause)

		native, c := fakeConn()
		native.Columns = []string{"x"}
		native.Rows = [][]driver.Value{{int64(1)}}

		got, err := Query(context.Background(), c, stmt.Raw{Text: "select ?, ?, ?", Args: vals}, Int64)
		if err != cause {
			t.Fatalf("invalid binding at %d: got %v want %v", pos, err, cause)
		}
		if got != nil {
			t.Fatalf("invalid binding at %d returned rows %v", pos, got)
		}
		if len(native.Prepared()) != 0 || native.Steps() != 0 {
			t.Fatalf("invalid binding at %d reached the engine", pos)
		}
	}
}

func TestEmptyQuerySkipsEngine(t *testing.T) {
	t.Parallel()

	native, c := fakeConn()
	ctx := context.Background()

	got, err := Query(ctx, c, stmt.Raw{}, Int64)
	if err != nil {
		t.Fatalf("Query(empty) returned error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("Query(empty) got %#v want empty slice", got)
	}
	if err := Run(ctx, c, stmt.Select()); err != nil {
		t.Fatalf("Run(empty) returned error: %v", err)
	}
	tbl, err := QueryTable(ctx, c, stmt.DeleteFrom(""))
	if err != nil || len(tbl.Rows) != 0 {
		t.Fatalf("QueryTable(empty) got %v, %v", tbl, err)
	}
	if len(native.Prepared()) != 0 || native.Steps() != 0 {
		t.Fatal("empty statement reached the engine")
	}
}

type panicCodec struct{}

func (panicCodec) Width() int { return 1 }

func (panicCodec) Decode(cur *Cursor) (int, error) {
	panic("decode exploded")
}

func TestFinalizeOnEveryPath(t *testing.T) {
	t.Parallel()

	rows := [][]driver.Value{{int64(1)}, {int64(2)}, {"three"}}
	cases := []struct {
		name   string
		setup  func(n *bridgetest.Conn)
		codec  Codec[int64]
		fails  bool
		prepd  int
		finals int
	}{
		{name: "ok", setup: func(n *bridgetest.Conn) { n.Rows = rows[:2] }, codec: Int64, prepd: 1,
			finals: 1},
		{name: "decode error", setup: func(n *bridgetest.Conn) { n.Rows = rows }, codec: Int64,
			fails: true, prepd: 1, finals: 1},
		{name: "query error", setup: func(n *bridgetest.Conn) { n.QueryErr = errors.New("bind") },
			codec: Int64, fails: true, prepd: 1, finals: 1},
		{name: "step error", setup: func(n *bridgetest.Conn) {
			n.Rows = rows
			n.StepErr = errors.New("disk I/O error")
			n.StepErrAfter = 1
		}, codec: Int64, fails: true, prepd: 1, finals: 1},
		{name: "parameter count", setup: func(n *bridgetest.Conn) { n.NumInput = 3 }, codec: Int64,
			fails: true, prepd: 1, finals: 1},
		{name: "prepare error", setup: func(n *bridgetest.Conn) { n.PrepareErr = errors.New("syntax") },
			codec: Int64, fails: true, prepd: 1, finals: 0},
		{name: "nil statement", setup: func(n *bridgetest.Conn) { n.NilStmt = true }, codec: Int64,
			fails: true, prepd: 1, finals: 0},
		{name: "finalize error", setup: func(n *bridgetest.Conn) {
			n.Rows = rows[:1]
			n.FinalizeErr = errors.New("finalize")
		}, codec: Int64, fails: true, prepd: 1, finals: 1},
	}

	for _, c := range cases {
		native, conn := fakeConn()
		native.Columns = []string{"x"}
		c.setup(native)

		got, err := Query(context.Background(), conn, stmt.SQL("select x"), c.codec)
		if c.fails {
			if err == nil {
				t.Errorf("%s: Query did not fail", c.name)
			}
			var be *Error
			if err != nil && !errors.As(err, &be) {
				t.Errorf("%s: error %T is not *Error", c.name, err)
			}
			if got != nil {
				t.Errorf("%s: failed Query returned rows %v", c.name, got)
			}
		} else if err != nil {
			t.Errorf("%s: Query returned error: %v", c.name, err)
		}

		if n := len(native.Prepared()); n != c.prepd {
			t.Errorf("%s: prepared %d statements want %d", c.name, n, c.prepd)
		}
		if n := native.Finalized(); n != c.finals {
			t.Errorf("%s: finalized %d statements want %d", c.name, n, c.finals)
		}
		if n := native.DoubleFinalized(); n != 0 {
			t.Errorf("%s: finalized %d statements twice", c.name, n)
		}
	}
}

func TestWidthMismatch(t *testing.T) {
	t.Parallel()

	native, c := fakeConn()
	native.Columns = []string{"x"}
	native.Rows = [][]driver.Value{{int64(1)}}

	_, err := Query2(context.Background(), c, stmt.SQL("select x"), Int64, Int64)
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("Query2 on one column got %v want *Error", err)
	}
	if native.Steps() != 0 {
		t.Fatal("Query2 stepped rows of the wrong shape")
	}
	if native.Finalized() != 1 {
		t.Fatalf("finalized %d statements want 1", native.Finalized())
	}
}

func TestFinalizeOnPanic(t *testing.T) {
	t.Parallel()

	native, c := fakeConn()
	native.Columns = []string{"x"}
	native.Rows = [][]driver.Value{{int64(1)}}

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("Query did not panic")
			}
		}()
		Query(context.Background(), c, stmt.SQL("select x"), Codec[int](panicCodec{}))
	}()

	if native.Finalized() != 1 {
		t.Fatalf("finalized %d statements after panic want 1", native.Finalized())
	}
}

func TestRowsInEngineOrder(t *testing.T) {
	t.Parallel()

	native, c := fakeConn()
	native.Columns = []string{"n", "s"}
	native.Rows = [][]driver.Value{{int64(3), "c"}, {int64(1), "a"}, {int64(2), "b"}}

	got, err := Query2(context.Background(), c, stmt.SQL("select n, s"), Int, String)
	if err != nil {
		t.Fatalf("Query2 returned error: %v", err)
	}
	want := []Tuple2[int, string]{{3, "c"}, {1, "a"}, {2, "b"}}
	if len(got) != len(want) {
		t.Fatalf("Query2 got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Query2 row %d got %v want %v", i, got[i], want[i])
		}
	}
}
