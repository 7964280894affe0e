// Package frame holds the in-memory columnar table the validators operate on.
package frame

import (
	"fmt"
	"math"
	"sort"
)

// Frame is an ordered set of equal-length columns.
type Frame struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New assembles a frame, rejecting duplicate names and ragged columns.
func New(cols ...*Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := f.index[c.name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.name)
		}
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.name, c.Len(), f.rows)
		}
		f.index[c.name] = i
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// MustNew is New for fixtures; it panics on malformed input.
func MustNew(cols ...*Column) *Frame {
	f, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Frame) Len() int { return f.rows }

// Names returns column names in storage order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Col returns the named column, or nil when absent.
func (f *Frame) Col(name string) *Column {
	i, ok := f.index[name]
	if !ok {
		return nil
	}
	return f.cols[i]
}

// DTypes maps every column name to its dtype label.
func (f *Frame) DTypes() map[string]string {
	out := make(map[string]string, len(f.cols))
	for _, c := range f.cols {
		out[c.name] = c.dtype
	}
	return out
}

// Filter returns the rows for which keep reports true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	var rows []int
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return f.Take(rows)
}

// Take returns a new frame holding the given rows in order.
func (f *Frame) Take(rows []int) *Frame {
	out := &Frame{index: make(map[string]int, len(f.cols)), rows: len(rows)}
	for i, c := range f.cols {
		out.cols = append(out.cols, c.take(rows))
		out.index[c.name] = i
	}
	return out
}

// SumByInt totals value per integer key. Null keys are dropped and null values
// contribute nothing, so a key whose values are all null sums to 0.
func (f *Frame) SumByInt(key, value string) map[int64]float64 {
	kc, vc := f.Col(key), f.Col(value)
	out := make(map[int64]float64)
	if kc == nil || vc == nil {
		return out
	}
	for i := 0; i < f.rows; i++ {
		if kc.IsNull(i) {
			continue
		}
		k := kc.Int(i)
		out[k] += nanToZero(vc.Float(i))
	}
	return out
}

// SumBy totals value per key rendered as text.
func (f *Frame) SumBy(key, value string) map[string]float64 {
	kc, vc := f.Col(key), f.Col(value)
	out := make(map[string]float64)
	if kc == nil || vc == nil {
		return out
	}
	for i := 0; i < f.rows; i++ {
		if kc.IsNull(i) {
			continue
		}
		out[kc.String(i)] += nanToZero(vc.Float(i))
	}
	return out
}

// Sum totals a numeric column, skipping nulls.
func (f *Frame) Sum(value string) float64 {
	vc := f.Col(value)
	if vc == nil {
		return 0
	}
	total := 0.0
	for i := 0; i < f.rows; i++ {
		total += nanToZero(vc.Float(i))
	}
	return total
}

// DistinctInts returns the sorted distinct non-null values of an integer column.
func (f *Frame) DistinctInts(name string) []int64 {
	c := f.Col(name)
	if c == nil {
		return nil
	}
	seen := make(map[int64]struct{})
	for i := 0; i < f.rows; i++ {
		if !c.IsNull(i) {
			seen[c.Int(i)] = struct{}{}
		}
	}
	out := make([]int64, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// DistinctStrings returns the sorted distinct non-null values rendered as text.
func (f *Frame) DistinctStrings(name string) []string {
	c := f.Col(name)
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for i := 0; i < f.rows; i++ {
		if !c.IsNull(i) {
			seen[c.String(i)] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FirstStringByInt maps each integer key to the first non-null value of
// another column.
func (f *Frame) FirstStringByInt(key, value string) map[int64]string {
	kc, vc := f.Col(key), f.Col(value)
	out := make(map[int64]string)
	if kc == nil || vc == nil {
		return out
	}
	for i := 0; i < f.rows; i++ {
		if kc.IsNull(i) || vc.IsNull(i) {
			continue
		}
		k := kc.Int(i)
		if _, ok := out[k]; !ok {
			out[k] = vc.String(i)
		}
	}
	return out
}

// MaxInt returns the largest value of an integer column and whether one exists.
func (f *Frame) MaxInt(name string) (int64, bool) {
	vals := f.DistinctInts(name)
	if len(vals) == 0 {
		return 0, false
	}
	return vals[len(vals)-1], true
}

// MinInt returns the smallest value of an integer column and whether one exists.
func (f *Frame) MinInt(name string) (int64, bool) {
	vals := f.DistinctInts(name)
	if len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
