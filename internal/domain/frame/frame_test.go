package frame_test

import (
	"math"
	"testing"

	"github.com/odagate/odagate/internal/domain/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *frame.Frame {
	return frame.MustNew(
		frame.Ints("donor_code", 1, 1, 2, 2, 3),
		frame.Ints("year", 2023, 2024, 2023, 2024, 2024),
		frame.Floats("value", 100, 110, 200, math.NaN(), 50),
		frame.Strings("donor_name", "Austria", "Austria", "Belgium", "Belgium", "").WithNulls(4),
	)
}

func TestNew_RejectsRaggedColumns(t *testing.T) {
	_, err := frame.New(frame.Ints("a", 1, 2), frame.Ints("b", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestNew_RejectsDuplicateNames(t *testing.T) {
	_, err := frame.New(frame.Ints("a", 1), frame.Ints("a", 2))
	assert.Error(t, err)
}

func TestSumByInt_SkipsNullValues(t *testing.T) {
	sums := sample().SumByInt("donor_code", "value")
	assert.Equal(t, map[int64]float64{1: 210, 2: 200, 3: 50}, sums)
}

func TestSumBy_UsesTextKeys(t *testing.T) {
	sums := sample().SumBy("year", "value")
	assert.InDelta(t, 300, sums["2023"], 1e-9)
	assert.InDelta(t, 160, sums["2024"], 1e-9)
}

func TestDistinct(t *testing.T) {
	f := sample()
	assert.Equal(t, []int64{2023, 2024}, f.DistinctInts("year"))
	assert.Equal(t, []string{"Austria", "Belgium"}, f.DistinctStrings("donor_name"))
	assert.Nil(t, f.DistinctInts("missing"))
}

func TestFirstStringByInt_SkipsNulls(t *testing.T) {
	names := sample().FirstStringByInt("donor_code", "donor_name")
	assert.Equal(t, map[int64]string{1: "Austria", 2: "Belgium"}, names)
}

func TestFilter(t *testing.T) {
	f := sample()
	years := f.Col("year")
	latest := f.Filter(func(i int) bool { return years.Int(i) == 2024 })
	assert.Equal(t, 3, latest.Len())
	assert.Equal(t, []int64{1, 2, 3}, latest.DistinctInts("donor_code"))
	assert.True(t, latest.Col("value").IsNull(1))
}

func TestColumn_MinMax(t *testing.T) {
	c := frame.Floats("v", math.NaN(), -5, 12)
	hi, ok := c.Max()
	require.True(t, ok)
	assert.Equal(t, 12.0, hi)
	lo, _ := c.Min()
	assert.Equal(t, -5.0, lo)

	_, ok = frame.Floats("empty", math.NaN()).Max()
	assert.False(t, ok)
}

func TestBuilder_BackfillsLateColumns(t *testing.T) {
	b := frame.NewBuilder()
	year, err := b.Declare("year", "int32", frame.Int)
	require.NoError(t, err)
	b.AppendInt(year, 2023)
	b.EndRow()

	name, err := b.Declare("donor_name", "string", frame.String)
	require.NoError(t, err)
	b.AppendInt(year, 2024)
	b.AppendString(name, "France")
	b.EndRow()

	f := b.Frame()
	require.Equal(t, 2, f.Len())
	assert.True(t, f.Col("donor_name").IsNull(0))
	assert.Equal(t, "France", f.Col("donor_name").String(1))
	assert.Equal(t, "int32", f.DTypes()["year"])
}

func TestBuilder_KindConflict(t *testing.T) {
	b := frame.NewBuilder()
	_, err := b.Declare("year", "int64", frame.Int)
	require.NoError(t, err)
	_, err = b.Declare("year", "string", frame.String)
	assert.Error(t, err)
}
