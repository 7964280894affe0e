package frame

import "fmt"

// Builder assembles a frame row by row. Columns may be declared at any time;
// a column declared late is back-filled with nulls, and a column not set for
// a row is padded with null when the row ends.
type Builder struct {
	cols  []*Column
	index map[string]int
	rows  int
}

func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Declare registers a column and returns its position. Re-declaring an
// existing column with the same kind is a no-op; a different kind is an error.
func (b *Builder) Declare(name, dtype string, kind Kind) (int, error) {
	if i, ok := b.index[name]; ok {
		if b.cols[i].kind != kind {
			return 0, fmt.Errorf("column %q: %s conflicts with %s", name, kind, b.cols[i].kind)
		}
		return i, nil
	}
	c := &Column{name: name, dtype: dtype, kind: kind}
	for r := 0; r < b.rows; r++ {
		appendNull(c)
	}
	b.cols = append(b.cols, c)
	b.index[name] = len(b.cols) - 1
	return len(b.cols) - 1, nil
}

func (b *Builder) AppendInt(col int, v int64) {
	c := b.cols[col]
	switch c.kind {
	case Float:
		c.floats = append(c.floats, float64(v))
	default:
		c.ints = append(c.ints, v)
	}
	c.valid = append(c.valid, true)
}

func (b *Builder) AppendFloat(col int, v float64) {
	c := b.cols[col]
	c.floats = append(c.floats, v)
	c.valid = append(c.valid, v == v)
}

func (b *Builder) AppendString(col int, v string) {
	c := b.cols[col]
	c.strs = append(c.strs, v)
	c.valid = append(c.valid, true)
}

func (b *Builder) AppendBool(col int, v bool) {
	c := b.cols[col]
	c.bools = append(c.bools, v)
	c.valid = append(c.valid, true)
}

func (b *Builder) AppendNull(col int) {
	appendNull(b.cols[col])
}

// EndRow closes the current row, padding columns that were not set.
func (b *Builder) EndRow() {
	b.rows++
	for _, c := range b.cols {
		for c.Len() < b.rows {
			appendNull(c)
		}
	}
}

func (b *Builder) Rows() int { return b.rows }

// Frame returns the assembled frame. The builder must not be used afterwards.
func (b *Builder) Frame() *Frame {
	f, err := New(b.cols...)
	if err != nil {
		// EndRow keeps every column at b.rows, so this is unreachable.
		panic(err)
	}
	f.rows = b.rows
	return f
}

func appendNull(c *Column) {
	switch c.kind {
	case Int:
		c.ints = append(c.ints, 0)
	case Float:
		c.floats = append(c.floats, 0)
	case String:
		c.strs = append(c.strs, "")
	case Bool:
		c.bools = append(c.bools, false)
	}
	c.valid = append(c.valid, false)
}
