package bridge

// Tuple2 is a row decoded as two values, in column order.
type Tuple2[A, B any] struct {
	V1 A
	V2 B
}

// Tuple3 is a row decoded as three values, in column order.
type Tuple3[A, B, C any] struct {
	V1 A
	V2 B
	V3 C
}

// Tuple4 is a row decoded as four values, in column order.
type Tuple4[A, B, C, D any] struct {
	V1 A
	V2 B
	V3 C
	V4 D
}

// width adds up static widths; any variable width makes the sum variable.
func width(ws ...int) int {
	n := 0
	for _, w := range ws {
		if w < 0 {
			return -1
		}
		n += w
	}
	return n
}

type t2[A, B any] struct {
	a Codec[A]
	b Codec[B]
}

// T2 decodes a and then b from consecutive columns of one row.
func T2[A, B any](a Codec[A], b Codec[B]) Codec[Tuple2[A, B]] {
	return t2[A, B]{a: a, b: b}
}

func (t t2[A, B]) Width() int { return width(t.a.Width(), t.b.Width()) }

func (t t2[A, B]) Decode(cur *Cursor) (Tuple2[A, B], error) {
	var v Tuple2[A, B]
	var err error
	if v.V1, err = t.a.Decode(cur); err != nil {
		return v, err
	}
	if v.V2, err = t.b.Decode(cur); err != nil {
		return v, err
	}
	return v, nil
}

type t3[A, B, C any] struct {
	a Codec[A]
	b Codec[B]
	c Codec[C]
}

// T3 decodes a, b and c from consecutive columns of one row.
func T3[A, B, C any](a Codec[A], b Codec[B], c Codec[C]) Codec[Tuple3[A, B, C]] {
	return t3[A, B, C]{a: a, b: b, c: c}
}

func (t t3[A, B, C]) Width() int { return width(t.a.Width(), t.b.Width(), t.c.Width()) }

func (t t3[A, B, C]) Decode(cur *Cursor) (Tuple3[A, B, C], error) {
	var v Tuple3[A, B, C]
	var err error
	if v.V1, err = t.a.Decode(cur); err != nil {
		return v, err
	}
	if v.V2, err = t.b.Decode(cur); err != nil {
		return v, err
	}
	if v.V3, err = t.c.Decode(cur); err != nil {
		return v, err
	}
	return v, nil
}

type t4[A, B, C, D any] struct {
	a Codec[A]
	b Codec[B]
	c Codec[C]
	d Codec[D]
}

// T4 decodes a, b, c and d from consecutive columns of one row.
func T4[A, B, C, D any](a Codec[A], b Codec[B], c Codec[C], d Codec[D]) Codec[Tuple4[A, B, C, D]] {
	return t4[A, B, C, D]{a: a, b: b, c: c, d: d}
}

func (t t4[A, B, C, D]) Width() int {
	return width(t.a.Width(), t.b.Width(), t.c.Width(), t.d.Width())
}

func (t t4[A, B, C, D]) Decode(cur *Cursor) (Tuple4[A, B, C, D], error) {
	var v Tuple4[A, B, C, D]
	var err error
	if v.V1, err = t.a.Decode(cur); err != nil {
		return v, err
	}
	if v.V2, err = t.b.Decode(cur); err != nil {
		return v, err
	}
	if v.V3, err = t.c.Decode(cur); err != nil {
		return v, err
	}
	if v.V4, err = t.d.Decode(cur); err != nil {
		return v, err
	}
	return v, nil
}
