package anomaly

import (
	"math"

	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/frame"
	"github.com/odagate/odagate/internal/domain/manifest"
)

const (
	minYears           = 4
	minHistoricalYears = 3
	minHistoricalMoves = 2
)

// YoY flags donors whose currentYear change deviates from their own
// historical year-over-year pattern.
func YoY(f *frame.Frame, currentYear int64, valueColumn string) []domain.Warning {
	if !f.Has("donor_code") || !f.Has("year") {
		return nil
	}
	dc, yc := f.Col("donor_code"), f.Col("year")
	names := DonorNames(f)

	var out []domain.Warning
	for _, donor := range f.DistinctInts("donor_code") {
		sub := f.Filter(func(i int) bool { return !dc.IsNull(i) && dc.Int(i) == donor && !yc.IsNull(i) })
		byYear := sub.SumByInt("year", valueColumn)
		if len(byYear) < minYears {
			continue
		}

		series := manifest.YearlyTotals(byYear)
		var historical []manifest.YearTotal
		for _, p := range series {
			if p.Year < currentYear {
				historical = append(historical, p)
			}
		}
		if len(historical) < minHistoricalYears {
			continue
		}
		changes := historicalChanges(historical)
		if len(changes) < minHistoricalMoves {
			continue
		}

		mean := manifest.Mean(changes)
		std := manifest.SampleStd(changes)
		if math.IsNaN(std) || std == 0 {
			continue
		}

		cur, okCur := byYear[currentYear]
		prev, okPrev := byYear[currentYear-1]
		if !okCur || !okPrev {
			continue
		}
		change, ok := pctChange(cur, prev)
		if !ok {
			continue
		}

		z := (change - mean) / std
		level, flagged := levelFor(z, ZThreshold, ZHigh)
		if !flagged {
			continue
		}
		name, ok := names[donor]
		if !ok || name == "" {
			name = formatCode(donor)
		}
		out = append(out, warn(level, "%s: %d change is %s (typical: %s ± %s, z=%.1f)",
			name, currentYear, domain.SignedPct(change), domain.SignedPct(mean), domain.Pct(std), z))
	}
	return out
}

// historicalChanges drops undefined changes (0 to 0) but keeps infinite
// ones from a zero year, so the spread of such a series is NaN.
func historicalChanges(series []manifest.YearTotal) []float64 {
	var out []float64
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Value
		ch := (series[i].Value - prev) / prev
		if math.IsNaN(ch) {
			continue
		}
		out = append(out, ch)
	}
	return out
}
