package manifest

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/odagate/odagate/internal/domain/frame"
)

// MaxRecipients bounds recipients_present.
const MaxRecipients = 100

// Update records a snapshot of f under release, creating the manifest when m
// is nil. The schema always reflects the latest observed frame.
func Update(m *Manifest, release string, f *frame.Frame, valueColumn string, keyColumns []string, now time.Time) *Manifest {
	if m == nil {
		m = New("")
	}
	if m.Releases == nil {
		m.Releases = make(map[string]*Release)
	}
	m.Schema = Schema{
		Columns:    f.Names(),
		DTypes:     f.DTypes(),
		KeyColumns: append([]string(nil), keyColumns...),
	}
	m.Releases[release] = Snapshot(f, valueColumn, now)
	return m
}

// Snapshot computes the release record for f.
func Snapshot(f *frame.Frame, valueColumn string, now time.Time) *Release {
	r := &Release{
		ComputedAt:          now.Format(time.RFC3339Nano),
		RowCount:            f.Len(),
		DonorsPresent:       distinct(f, "donor_code"),
		RecipientsPresent:   distinct(f, "recipient_code"),
		IndicatorsPresent:   Labels(f.DistinctStrings("indicator")),
		Aggregates:          ComputeAggregates(f, valueColumn),
		Distribution:        ComputeDistribution(f, valueColumn),
		HistoricalVariation: HistoricalVariation(f, valueColumn),
	}
	if r.IndicatorsPresent == nil {
		r.IndicatorsPresent = Labels{}
	}
	if len(r.RecipientsPresent) > MaxRecipients {
		r.RecipientsPresent = r.RecipientsPresent[:MaxRecipients]
	}
	lo, okLo := f.MinInt("year")
	hi, okHi := f.MaxInt("year")
	if okLo && okHi {
		r.YearRange = &[2]int{int(lo), int(hi)}
	}
	if f.Has("purpose_code") {
		r.PurposeCodesPresent = distinct(f, "purpose_code")
	}
	if f.Has("sub_sector_code") {
		r.SubSectorCodesPresent = distinct(f, "sub_sector_code")
	}
	if f.Has("sector_name") {
		r.SectorsPresent = f.DistinctStrings("sector_name")
	}
	return r
}

func distinct(f *frame.Frame, col string) []int64 {
	vals := f.DistinctInts(col)
	if vals == nil {
		return []int64{}
	}
	return vals
}

func intKey(k int64) string { return strconv.FormatInt(k, 10) }

func textKey(k string) string { return k }

// ComputeAggregates sums valueColumn along every dimension the frame carries.
func ComputeAggregates(f *frame.Frame, valueColumn string) Aggregates {
	var a Aggregates
	if f.Has("donor_code") {
		a.ByDonor = totalsOf(f.SumByInt("donor_code", valueColumn), intKey)
	}
	if f.Has("year") {
		a.ByYear = totalsOf(f.SumByInt("year", valueColumn), intKey)
	}
	if f.Has("indicator") {
		a.ByIndicator = totalsOf(f.SumBy("indicator", valueColumn), textKey)
	}
	if f.Has("recipient_code") {
		a.ByRecipient = totalsOf(f.SumByInt("recipient_code", valueColumn), intKey)
	}
	if f.Has("agency_code") {
		a.ByAgency = totalsOf(f.SumByInt("agency_code", valueColumn), intKey)
	}
	if f.Has("sector_name") {
		a.BySector = totalsOf(f.SumBy("sector_name", valueColumn), textKey)
	}
	if f.Has("sub_sector_code") {
		a.BySubSector = totalsOf(f.SumByInt("sub_sector_code", valueColumn), intKey)
	}
	if f.Has("donor_code") && f.Has("sector_name") {
		a.ByDonorSector = make(DonorSectorTotals)
		for cell, v := range SumByDonorSector(f, valueColumn) {
			a.ByDonorSector[cell] = Float(v)
		}
	}
	return a
}

// SumByDonorSector totals valueColumn per (donor_code, sector_name) pair.
// Rows with a null in either key are dropped.
func SumByDonorSector(f *frame.Frame, valueColumn string) map[DonorSector]float64 {
	out := make(map[DonorSector]float64)
	dc, sc, vc := f.Col("donor_code"), f.Col("sector_name"), f.Col(valueColumn)
	if dc == nil || sc == nil || vc == nil {
		return out
	}
	for i := 0; i < f.Len(); i++ {
		if dc.IsNull(i) || sc.IsNull(i) {
			continue
		}
		v := vc.Float(i)
		if math.IsNaN(v) {
			v = 0
		}
		out[DonorSector{Donor: dc.Int(i), Sector: sc.String(i)}] += v
	}
	return out
}

// ComputeDistribution returns min, max and linear-interpolated quartiles of
// the non-null values in valueColumn.
func ComputeDistribution(f *frame.Frame, valueColumn string) Distribution {
	nan := Float(math.NaN())
	empty := Distribution{Min: nan, Max: nan, Median: nan, P25: nan, P75: nan}

	c := f.Col(valueColumn)
	if c == nil {
		return empty
	}
	vals := make([]float64, 0, c.NonNullCount())
	for i := 0; i < c.Len(); i++ {
		if v := c.Float(i); !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return empty
	}
	sort.Float64s(vals)
	return Distribution{
		Min:    Float(vals[0]),
		Max:    Float(vals[len(vals)-1]),
		Median: Float(Quantile(vals, 0.5)),
		P25:    Float(Quantile(vals, 0.25)),
		P75:    Float(Quantile(vals, 0.75)),
	}
}

// Quantile interpolates linearly between the closest ranks of sorted.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// HistoricalVariation measures year-over-year percentage changes per donor and
// pooled across donors. Per-donor spread is the sample standard deviation,
// zero for a single change; the pooled spread is the population standard
// deviation.
func HistoricalVariation(f *frame.Frame, valueColumn string) Variation {
	out := Variation{ByDonor: map[string]Stat{}}
	if !f.Has("year") || !f.Has("donor_code") {
		return out
	}

	dc, yc := f.Col("donor_code"), f.Col("year")
	rowsByDonor := make(map[int64]int)
	for i := 0; i < f.Len(); i++ {
		if !dc.IsNull(i) {
			rowsByDonor[dc.Int(i)]++
		}
	}

	var pooled []float64
	for _, donor := range f.DistinctInts("donor_code") {
		if rowsByDonor[donor] < 2 {
			continue
		}
		sub := f.Filter(func(i int) bool { return !dc.IsNull(i) && dc.Int(i) == donor && !yc.IsNull(i) })
		changes := PctChanges(YearlyTotals(sub.SumByInt("year", valueColumn)))
		if len(changes) == 0 {
			continue
		}
		pooled = append(pooled, changes...)
		out.ByDonor[intKey(donor)] = Stat{Mean: Float(Mean(changes)), Std: Float(SampleStd(changes))}
	}
	if len(pooled) > 0 {
		out.Overall = Stat{Mean: Float(Mean(pooled)), Std: Float(PopulationStd(pooled))}
	}
	return out
}

// YearTotal is one point of a year-indexed series.
type YearTotal struct {
	Year  int64
	Value float64
}

// YearlyTotals orders a year-keyed map by year.
func YearlyTotals(byYear map[int64]float64) []YearTotal {
	out := make([]YearTotal, 0, len(byYear))
	for y, v := range byYear {
		out = append(out, YearTotal{Year: y, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// PctChanges returns the finite percentage changes between consecutive
// points of series.
func PctChanges(series []YearTotal) []float64 {
	var out []float64
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Value
		ch := (series[i].Value - prev) / prev
		if math.IsNaN(ch) || math.IsInf(ch, 0) {
			continue
		}
		out = append(out, ch)
	}
	return out
}

func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// SampleStd is the n-1 standard deviation; zero for fewer than two values.
func SampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return math.Sqrt(sumSquares(vals) / float64(len(vals)-1))
}

// PopulationStd is the n standard deviation.
func PopulationStd(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return math.Sqrt(sumSquares(vals) / float64(len(vals)))
}

func sumSquares(vals []float64) float64 {
	m := Mean(vals)
	ss := 0.0
	for _, v := range vals {
		ss += (v - m) * (v - m)
	}
	return ss
}
