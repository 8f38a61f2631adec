package bridge

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bgunnarsson/sqlbind/binding"
)

// Codec decodes one result value from the columns at the cursor.
//
// Width is the number of columns Decode consumes; it is known before any
// row is read. A negative width means the codec consumes the rest of the
// row.
type Codec[T any] interface {
	Width() int
	Decode(cur *Cursor) (T, error)
}

// Scalar is a codec for a single column whose values can also be bound
// as parameters.
type Scalar[T any] interface {
	Codec[T]
	Bind(v T) binding.Value
}

var errMismatch = errors.New("type mismatch")

type scalar[T any] struct {
	name   string
	bind   func(T) binding.Value
	decode func(driver.Value) (T, error)
}

func (s scalar[T]) Width() int { return 1 }

func (s scalar[T]) Bind(v T) binding.Value { return s.bind(v) }

func (s scalar[T]) Decode(cur *Cursor) (T, error) {
	v, err := cur.Next()
	if err != nil {
		var zero T
		return zero, err
	}
	if v == nil {
		var zero T
		return zero, cur.mismatch(v, s.name, nil)
	}
	t, err := s.decode(v)
	if err == errMismatch {
		return t, cur.mismatch(v, s.name, nil)
	} else if err != nil {
		return t, cur.mismatch(v, s.name, err)
	}
	return t, nil
}

var (
	Int64 Scalar[int64] = scalar[int64]{
		name:   "int64",
		bind:   binding.Int64,
		decode: decodeInt64,
	}

	Int Scalar[int] = scalar[int]{
		name: "int",
		bind: func(v int) binding.Value { return binding.Int64(int64(v)) },
		decode: func(v driver.Value) (int, error) {
			i, err := decodeInt64(v)
			if err != nil {
				return 0, err
			}
			if int64(int(i)) != i {
				return 0, strconv.ErrRange
			}
			return int(i), nil
		},
	}

	Float64 Scalar[float64] = scalar[float64]{
		name:   "float64",
		bind:   binding.Double,
		decode: decodeFloat64,
	}

	String Scalar[string] = scalar[string]{
		name:   "string",
		bind:   binding.Text,
		decode: decodeString,
	}

	Bytes Scalar[[]byte] = scalar[[]byte]{
		name: "[]byte",
		bind: binding.Blob,
		decode: func(v driver.Value) ([]byte, error) {
			switch v := v.(type) {
			case []byte:
				return bytes.Clone(v), nil
			case string:
				return []byte(v), nil
			}
			return nil, errMismatch
		},
	}

	Bool Scalar[bool] = scalar[bool]{
		name: "bool",
		bind: func(v bool) binding.Value { return binding.Of(v) },
		decode: func(v driver.Value) (bool, error) {
			if b, ok := v.(bool); ok {
				return b, nil
			}
			i, err := decodeInt64(v)
			if err != nil {
				return false, err
			}
			return i != 0, nil
		},
	}

	Time Scalar[time.Time] = scalar[time.Time]{
		name:   "time.Time",
		bind:   binding.Date,
		decode: decodeTime,
	}

	UUID Scalar[uuid.UUID] = scalar[uuid.UUID]{
		name: "uuid.UUID",
		bind: binding.UUID,
		decode: func(v driver.Value) (uuid.UUID, error) {
			switch v := v.(type) {
			case string:
				return uuid.Parse(v)
			case []byte:
				if len(v) == 16 {
					return uuid.FromBytes(v)
				}
				return uuid.ParseBytes(v)
			}
			return uuid.Nil, errMismatch
		},
	}

	Decimal Scalar[decimal.Decimal] = scalar[decimal.Decimal]{
		name: "decimal.Decimal",
		bind: func(d decimal.Decimal) binding.Value { return binding.Text(d.String()) },
		decode: func(v driver.Value) (decimal.Decimal, error) {
			switch v := v.(type) {
			case int64:
				return decimal.New(v, 0), nil
			case float64:
				return decimal.NewFromFloat(v), nil
			case string:
				return decimal.NewFromString(v)
			case []byte:
				return decimal.NewFromString(string(v))
			}
			return decimal.Zero, errMismatch
		},
	}
)

func decodeInt64(v driver.Value) (int64, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, errMismatch
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	}
	return 0, errMismatch
}

func decodeFloat64(v driver.Value) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	}
	return 0, errMismatch
}

func decodeString(v driver.Value) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		return v.UTC().Format(binding.DateLayout), nil
	}
	return "", errMismatch
}

var timeLayouts = []string{
	binding.DateLayout,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// decodeTime accepts the engine's own time values, ISO-8601 text and unix
// seconds. Times are returned in UTC.
func decodeTime(v driver.Value) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v.UTC(), nil
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case []byte:
		return decodeTime(string(v))
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, errors.New("not an ISO-8601 time")
	}
	return time.Time{}, errMismatch
}

type nullable[T any] struct {
	s Scalar[T]
}

// Null wraps s so that NULL columns decode as an invalid sql.Null and an
// invalid sql.Null binds NULL.
func Null[T any](s Scalar[T]) Scalar[sql.Null[T]] {
	return nullable[T]{s: s}
}

func (n nullable[T]) Width() int { return 1 }

func (n nullable[T]) Bind(v sql.Null[T]) binding.Value {
	if !v.Valid {
		return binding.Null()
	}
	return n.s.Bind(v.V)
}

func (n nullable[T]) Decode(cur *Cursor) (sql.Null[T], error) {
	if cur.off < len(cur.row) && cur.row[cur.off] == nil {
		cur.off++
		return sql.Null[T]{}, nil
	}
	v, err := n.s.Decode(cur)
	if err != nil {
		return sql.Null[T]{}, err
	}
	return sql.Null[T]{V: v, Valid: true}, nil
}

type values struct{}

// Values decodes every remaining column of the row as it came from the
// engine. Byte slices are copied.
var Values Codec[[]any] = values{}

func (values) Width() int { return -1 }

func (values) Decode(cur *Cursor) ([]any, error) {
	out := make([]any, 0, cur.Remaining())
	for cur.Remaining() > 0 {
		v, _ := cur.Next()
		if b, ok := v.([]byte); ok {
			v = bytes.Clone(b)
		}
		out = append(out, v)
	}
	return out, nil
}
