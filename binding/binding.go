// Package binding holds the values bound to statement parameters.
//
// A Value is produced once per execution by a statement renderer and never
// changes afterwards. Conversion failures are not reported when a Value is
// built; they are carried inside an Invalid value and surface when the value
// is bound, so a single malformed argument aborts the whole statement.
package binding

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind identifies which native bind primitive a Value is dispatched to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBlob
	KindDate
	KindDouble
	KindInteger
	KindNull
	KindText
	KindUUID
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBlob:    "blob",
	KindDate:    "date",
	KindDouble:  "double",
	KindInteger: "integer",
	KindNull:    "null",
	KindText:    "text",
	KindUUID:    "uuid",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// DateLayout is the ISO-8601 layout used to store dates as text.
const DateLayout = time.RFC3339Nano

// ErrUnsupported is wrapped by the error of an Invalid value built by Of from a
// Go value it does not know how to bind.
var ErrUnsupported = errors.New("unsupported binding type")

// Value is one parameter value ready to bind.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
	err  error
}

// Int64 returns an integer binding.
func Int64(v int64) Value { return Value{kind: KindInteger, i: v} }

// Double returns a floating point binding.
func Double(v float64) Value { return Value{kind: KindDouble, f: v} }

// Text returns a UTF-8 text binding.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Null returns a NULL binding.
func Null() Value { return Value{kind: KindNull} }

// Blob returns a byte sequence binding. The bytes are copied; a nil slice
// binds an empty blob rather than NULL.
func Blob(v []byte) Value {
	b := make([]byte, len(v))
	copy(b, v)
	return Value{kind: KindBlob, b: b}
}

// Date returns a timestamp binding stored as ISO-8601 text in UTC.
func Date(t time.Time) Value {
	return Value{kind: KindDate, s: t.UTC().Format(DateLayout)}
}

// UUID returns a unique identifier binding stored as lowercase hyphenated text.
func UUID(u uuid.UUID) Value {
	return Value{kind: KindUUID, s: u.String()}
}

// Invalid returns a value that fails with err when bound.
func Invalid(err error) Value {
	if err == nil {
		err = errors.New("invalid binding")
	}
	return Value{kind: KindInvalid, err: err}
}

func (v Value) Kind() Kind { return v.kind }

// Err returns the embedded error of an Invalid value and nil otherwise.
func (v Value) Err() error {
	if v.kind == KindInvalid {
		if v.err == nil {
			return errors.New("invalid binding")
		}
		return v.err
	}
	return nil
}

// Driver returns the value in the form handed to the native bind call:
// int64, float64, string, []byte or nil. The returned byte slice is a fresh
// copy so the engine never reads memory shared with the Value.
func (v Value) Driver() (driver.Value, error) {
	switch v.kind {
	case KindBlob:
		b := make([]byte, len(v.b))
		copy(b, v.b)
		return b, nil
	case KindDate, KindText, KindUUID:
		return v.s, nil
	case KindDouble:
		return v.f, nil
	case KindInteger:
		return v.i, nil
	case KindNull:
		return nil, nil
	default:
		return nil, v.Err()
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBlob:
		return fmt.Sprintf("blob(%d bytes)", len(v.b))
	case KindDate, KindText, KindUUID:
		return strconv.Quote(v.s)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindNull:
		return "NULL"
	default:
		return fmt.Sprintf("invalid(%v)", v.Err())
	}
}

// Of converts a dynamic Go value into a Value. Values it can not represent
// become Invalid; Of never panics.
func Of(arg any) Value {
	switch a := arg.(type) {
	case nil:
		return Null()
	case Value:
		return a
	case int:
		return Int64(int64(a))
	case int8:
		return Int64(int64(a))
	case int16:
		return Int64(int64(a))
	case int32:
		return Int64(int64(a))
	case int64:
		return Int64(a)
	case uint:
		return ofUint(uint64(a))
	case uint8:
		return Int64(int64(a))
	case uint16:
		return Int64(int64(a))
	case uint32:
		return Int64(int64(a))
	case uint64:
		return ofUint(a)
	case float32:
		return Double(float64(a))
	case float64:
		return Double(a)
	case bool:
		if a {
			return Int64(1)
		}
		return Int64(0)
	case string:
		return Text(a)
	case []byte:
		if a == nil {
			return Null()
		}
		return Blob(a)
	case time.Time:
		return Date(a)
	case *time.Time:
		if a == nil {
			return Null()
		}
		return Date(*a)
	case uuid.UUID:
		return UUID(a)
	case decimal.Decimal:
		return Text(a.String())
	case driver.Valuer:
		if rv := reflect.ValueOf(a); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null()
		}
		dv, err := a.Value()
		if err != nil {
			return Invalid(fmt.Errorf("binding: %T: %w", arg, err))
		}
		if _, ok := dv.(driver.Valuer); ok {
			return Invalid(fmt.Errorf("binding: %T: %w", arg, ErrUnsupported))
		}
		return Of(dv)
	default:
		return Invalid(fmt.Errorf("binding: %T: %w", arg, ErrUnsupported))
	}
}

func ofUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Invalid(fmt.Errorf("binding: uint64 %d overflows int64", u))
	}
	return Int64(int64(u))
}

// List converts each argument with Of.
func List(args ...any) []Value {
	if len(args) == 0 {
		return nil
	}
	vals := make([]Value, len(args))
	for i, arg := range args {
		vals[i] = Of(arg)
	}
	return vals
}

// FirstErr returns the error of the first Invalid value in vals.
func FirstErr(vals []Value) error {
	for _, v := range vals {
		if v.kind == KindInvalid {
			return v.Err()
		}
	}
	return nil
}
