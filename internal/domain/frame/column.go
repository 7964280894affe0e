package frame

import (
	"math"
	"strconv"
)

// Kind is the physical representation of a column's values.
type Kind int

const (
	Int Kind = iota
	Float
	String
	Bool
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Column is a named, typed vector with a null mask.
// Exactly one of the value slices is populated, matching Kind.
type Column struct {
	name   string
	dtype  string
	kind   Kind
	ints   []int64
	floats []float64
	strs   []string
	bools  []bool
	valid  []bool
}

// NewInt returns an int64 column with every value present.
func NewInt(name string, vals []int64) *Column {
	return &Column{name: name, dtype: "int64", kind: Int, ints: vals, valid: allValid(len(vals))}
}

// NewFloat returns a float64 column. NaN entries are treated as null.
func NewFloat(name string, vals []float64) *Column {
	valid := make([]bool, len(vals))
	for i, v := range vals {
		valid[i] = !math.IsNaN(v)
	}
	return &Column{name: name, dtype: "float64", kind: Float, floats: vals, valid: valid}
}

// NewString returns a string column with every value present.
func NewString(name string, vals []string) *Column {
	return &Column{name: name, dtype: "string", kind: String, strs: vals, valid: allValid(len(vals))}
}

// NewBool returns a bool column with every value present.
func NewBool(name string, vals []bool) *Column {
	return &Column{name: name, dtype: "bool", kind: Bool, bools: vals, valid: allValid(len(vals))}
}

// Ints is shorthand for NewInt with variadic values.
func Ints(name string, vals ...int64) *Column { return NewInt(name, vals) }

// Floats is shorthand for NewFloat with variadic values.
func Floats(name string, vals ...float64) *Column { return NewFloat(name, vals) }

// Strings is shorthand for NewString with variadic values.
func Strings(name string, vals ...string) *Column { return NewString(name, vals) }

// WithDType overrides the storage dtype label (e.g. "int32", "float32").
func (c *Column) WithDType(dtype string) *Column {
	c.dtype = dtype
	return c
}

// WithNulls marks the given row positions as null.
func (c *Column) WithNulls(rows ...int) *Column {
	for _, r := range rows {
		if r >= 0 && r < len(c.valid) {
			c.valid[r] = false
		}
	}
	return c
}

func (c *Column) Name() string  { return c.name }
func (c *Column) DType() string { return c.dtype }
func (c *Column) Kind() Kind    { return c.kind }
func (c *Column) Len() int      { return len(c.valid) }

// IsNull reports whether row i holds no value.
func (c *Column) IsNull(i int) bool { return !c.valid[i] }

// NonNullCount returns the number of rows holding a value.
func (c *Column) NonNullCount() int {
	n := 0
	for _, ok := range c.valid {
		if ok {
			n++
		}
	}
	return n
}

// IsNumeric reports whether the column holds ints or floats.
func (c *Column) IsNumeric() bool { return c.kind == Int || c.kind == Float }

// Int returns row i as an integer. Floats are truncated, strings parsed.
// Null rows return 0.
func (c *Column) Int(i int) int64 {
	if !c.valid[i] {
		return 0
	}
	switch c.kind {
	case Int:
		return c.ints[i]
	case Float:
		return int64(c.floats[i])
	case String:
		n, _ := strconv.ParseInt(c.strs[i], 10, 64)
		return n
	case Bool:
		if c.bools[i] {
			return 1
		}
	}
	return 0
}

// Float returns row i as a float64, or NaN when null or non-numeric.
func (c *Column) Float(i int) float64 {
	if !c.valid[i] {
		return math.NaN()
	}
	switch c.kind {
	case Int:
		return float64(c.ints[i])
	case Float:
		return c.floats[i]
	case Bool:
		if c.bools[i] {
			return 1
		}
		return 0
	}
	return math.NaN()
}

// String returns row i rendered as text. Null rows return "".
func (c *Column) String(i int) string {
	if !c.valid[i] {
		return ""
	}
	switch c.kind {
	case Int:
		return strconv.FormatInt(c.ints[i], 10)
	case Float:
		return strconv.FormatFloat(c.floats[i], 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(c.bools[i])
	default:
		return c.strs[i]
	}
}

// Value returns row i as a comparable Go value, or nil when null.
func (c *Column) Value(i int) any {
	if !c.valid[i] {
		return nil
	}
	switch c.kind {
	case Int:
		return c.ints[i]
	case Float:
		return c.floats[i]
	case Bool:
		return c.bools[i]
	default:
		return c.strs[i]
	}
}

// Max returns the largest non-null numeric value and whether one exists.
func (c *Column) Max() (float64, bool) {
	best, found := 0.0, false
	for i := range c.valid {
		v := c.Float(i)
		if math.IsNaN(v) {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}

// Min returns the smallest non-null numeric value and whether one exists.
func (c *Column) Min() (float64, bool) {
	best, found := 0.0, false
	for i := range c.valid {
		v := c.Float(i)
		if math.IsNaN(v) {
			continue
		}
		if !found || v < best {
			best, found = v, true
		}
	}
	return best, found
}

func (c *Column) take(rows []int) *Column {
	out := &Column{name: c.name, dtype: c.dtype, kind: c.kind, valid: make([]bool, len(rows))}
	switch c.kind {
	case Int:
		out.ints = make([]int64, len(rows))
	case Float:
		out.floats = make([]float64, len(rows))
	case String:
		out.strs = make([]string, len(rows))
	case Bool:
		out.bools = make([]bool, len(rows))
	}
	for j, r := range rows {
		out.valid[j] = c.valid[r]
		switch c.kind {
		case Int:
			out.ints[j] = c.ints[r]
		case Float:
			out.floats[j] = c.floats[r]
		case String:
			out.strs[j] = c.strs[r]
		case Bool:
			out.bools[j] = c.bools[r]
		}
	}
	return out
}

func allValid(n int) []bool {
	v := make([]bool, n)
	for i := range v {
		v[i] = true
	}
	return v
}
