package bridge

import (
	"context"
	"fmt"

	sqlite3 "modernc.org/sqlite/lib"

	"github.com/bgunnarsson/sqlbind/stmt"
)

// Entity is a row type that knows its table and decodes itself. ScanRow
// must read exactly one column for each name in Columns, in that order.
type Entity interface {
	stmt.Table
	ScanRow(cur *Cursor) error
}

type entity[T any, PT interface {
	*T
	Entity
}] struct {
	width int
	table string
}

// EntityOf returns the codec for an entity type.
func EntityOf[T any, PT interface {
	*T
	Entity
}]() Codec[T] {
	pt := PT(new(T))
	return entity[T, PT]{width: len(pt.Columns()), table: pt.TableName()}
}

func (e entity[T, PT]) Width() int { return e.width }

func (e entity[T, PT]) Decode(cur *Cursor) (T, error) {
	var v T
	start := cur.Offset()
	if err := PT(&v).ScanRow(cur); err != nil {
		return v, err
	}
	if n := cur.Offset() - start; n != e.width {
		err := errorFromCode(sqlite3.SQLITE_MISMATCH)
		err.Message = fmt.Sprintf("%s: %s read %d columns, has %d", err.Message, e.table, n, e.width)
		return v, err
	}
	return v, nil
}

// Select executes s and decodes each row as the entity T.
func Select[T any, PT interface {
	*T
	Entity
}](ctx context.Context, c *Conn, s stmt.Statement) ([]T, error) {
	return Query(ctx, c, s, EntityOf[T, PT]())
}

func where(s *stmt.SelectStmt, conds []stmt.Expr) *stmt.SelectStmt {
	if len(conds) > 0 {
		s.Where(stmt.And(conds...))
	}
	return s
}

// All selects every column of T's table from the rows matching conds.
func All[T any, PT interface {
	*T
	Entity
}](ctx context.Context, c *Conn, conds ...stmt.Expr) ([]T, error) {
	return Select[T, PT](ctx, c, where(stmt.SelectAll(PT(new(T))), conds))
}

// AllJoined2 selects every column of A's table joined with B's table on
// on, and decodes each row as the pair of entities.
func AllJoined2[A, B any, PA interface {
	*A
	Entity
}, PB interface {
	*B
	Entity
}](ctx context.Context, c *Conn, on stmt.Expr, conds ...stmt.Expr) ([]Tuple2[A, B], error) {
	s := stmt.SelectAll(PA(new(A)), stmt.InnerJoin(PB(new(B)), on))
	return Query(ctx, c, where(s, conds), T2(EntityOf[A, PA](), EntityOf[B, PB]()))
}

// AllJoined3 is AllJoined2 with a third table joined on onC.
func AllJoined3[A, B, C any, PA interface {
	*A
	Entity
}, PB interface {
	*B
	Entity
}, PC interface {
	*C
	Entity
}](ctx context.Context, c *Conn, onB, onC stmt.Expr,
	conds ...stmt.Expr) ([]Tuple3[A, B, C], error) {

	s := stmt.SelectAll(PA(new(A)), stmt.InnerJoin(PB(new(B)), onB), stmt.InnerJoin(PC(new(C)), onC))
	return Query(ctx, c, where(s, conds),
		T3(EntityOf[A, PA](), EntityOf[B, PB](), EntityOf[C, PC]()))
}
