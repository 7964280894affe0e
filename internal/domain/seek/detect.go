package seek

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/frame"
)

const maxNewDonorsListed = 5

// BaselineMessage is reported when no earlier release exists to compare with.
const BaselineMessage = "SEEK validation baseline established (no previous release to compare)"

// Thresholds grade donor drift. A donor is flagged when either its z-score
// or its percentage change crosses the lower bound, and is high when either
// crosses the upper bound.
type Thresholds struct {
	Z       float64
	ZHigh   float64
	Pct     float64
	PctHigh float64
}

// Params configures a SEEK run.
type Params struct {
	HealthCodes      []int
	AgricultureCodes []int
	CriticalDonors   []int
	ValueColumn      string
	Thresholds       Thresholds
}

// ParamsFrom builds run parameters from catalog settings, filling gaps with
// the built-in defaults.
func ParamsFrom(cfg domain.SeekConfig) Params {
	def := domain.DefaultSeekConfig()
	p := Params{
		HealthCodes:      cfg.HealthCodes,
		AgricultureCodes: cfg.AgricultureCodes,
		CriticalDonors:   cfg.CriticalDonors,
		ValueColumn:      cfg.ValueColumn,
		Thresholds:       Thresholds{Z: cfg.ZThreshold, ZHigh: cfg.ZHigh, Pct: cfg.PctThreshold, PctHigh: cfg.PctHigh},
	}
	if len(p.HealthCodes) == 0 {
		p.HealthCodes = def.HealthCodes
	}
	if len(p.AgricultureCodes) == 0 {
		p.AgricultureCodes = def.AgricultureCodes
	}
	if len(p.CriticalDonors) == 0 {
		p.CriticalDonors = def.CriticalDonors
	}
	if p.ValueColumn == "" {
		p.ValueColumn = def.ValueColumn
	}
	if p.Thresholds.Z <= 0 || p.Thresholds.ZHigh <= 0 || p.Thresholds.Pct <= 0 || p.Thresholds.PctHigh <= 0 {
		p.Thresholds = Thresholds{Z: def.ZThreshold, ZHigh: def.ZHigh, Pct: def.PctThreshold, PctHigh: def.PctHigh}
	}
	return p
}

type donorChange struct {
	donor int64
	pct   float64
}

// DonorDrift scores each donor's change against the cross-donor distribution
// of changes for one sector. With fewer than two comparable donors only the
// percentage thresholds apply.
func DonorDrift(current, previous map[int64]float64, sector string, names map[int64]string, th Thresholds) []domain.Warning {
	if len(previous) == 0 {
		return nil
	}

	var changes []donorChange
	for _, donor := range sortedDonors(current) {
		prev := previous[donor]
		if prev > 0 {
			changes = append(changes, donorChange{donor, (current[donor] - prev) / prev})
		}
	}

	var out []domain.Warning
	if len(changes) < 2 {
		for _, c := range changes {
			if math.Abs(c.pct) <= th.Pct {
				continue
			}
			level := domain.LevelMedium
			if math.Abs(c.pct) > th.PctHigh {
				level = domain.LevelHigh
			}
			out = append(out, warning(level, fmt.Sprintf("SEEK %s: %s changed %s vs previous release",
				sector, donorLabel(c.donor, names), domain.SignedPct(c.pct))))
		}
		return out
	}

	pcts := make([]float64, len(changes))
	for i, c := range changes {
		pcts[i] = c.pct
	}
	mean, std := meanStd(pcts)

	for _, c := range changes {
		z := 0.0
		if std > 0 {
			z = (c.pct - mean) / std
		}
		if math.Abs(z) <= th.Z && math.Abs(c.pct) <= th.Pct {
			continue
		}
		level := domain.LevelMedium
		if math.Abs(z) > th.ZHigh || math.Abs(c.pct) > th.PctHigh {
			level = domain.LevelHigh
		}
		out = append(out, warning(level, fmt.Sprintf("SEEK %s: %s changed %s (z=%.1f, typical: %s ± %s)",
			sector, donorLabel(c.donor, names), domain.SignedPct(c.pct), z, domain.SignedPct(mean), domain.Pct(std))))
	}
	return out
}

// meanStd returns the mean and population standard deviation.
func meanStd(vals []float64) (float64, float64) {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	ss := 0.0
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(vals)))
}

// MissingDonors flags critical donors whose total dropped from positive to
// zero or absent.
func MissingDonors(current, previous map[int64]float64, sector string, names map[int64]string, critical []int) []domain.Warning {
	var out []domain.Warning
	for _, d := range critical {
		donor := int64(d)
		prev := previous[donor]
		if prev > 0 && current[donor] == 0 {
			out = append(out, warning(domain.LevelHigh, fmt.Sprintf("SEEK %s: %s has no data (had %s in previous release)",
				sector, donorLabel(donor, names), domain.Amount(prev))))
		}
	}
	return out
}

// NewDonors summarises donors present now but absent from the previous
// release in a single info warning.
func NewDonors(current, previous map[int64]float64, sector string, names map[int64]string) []domain.Warning {
	var fresh []string
	for _, donor := range sortedDonors(current) {
		if _, ok := previous[donor]; ok {
			continue
		}
		name, ok := names[donor]
		if !ok || name == "" {
			name = strconv.FormatInt(donor, 10)
		}
		fresh = append(fresh, name)
	}
	if len(fresh) == 0 {
		return nil
	}
	list := strings.Join(fresh, ", ")
	if len(fresh) > maxNewDonorsListed {
		list = fmt.Sprintf("%s and %d others", strings.Join(fresh[:maxNewDonorsListed], ", "), len(fresh)-maxNewDonorsListed)
	}
	return []domain.Warning{warning(domain.LevelInfo, fmt.Sprintf("SEEK %s: New donors in this release: %s", sector, list))}
}

// Run compares the current frame with the previous release's totals: drift
// per sector, then missing critical donors per sector, then new donors
// overall.
func Run(f *frame.Frame, previous Aggregates, names map[int64]string, p Params) []domain.Warning {
	cur := ComputeAggregates(f, p.HealthCodes, p.AgricultureCodes, p.ValueColumn)

	sectors := []struct {
		name      string
		cur, prev map[int64]float64
	}{
		{SectorTotal, cur.ByDonorTotal, previous.ByDonorTotal},
		{SectorHealth, cur.ByDonorHealth, previous.ByDonorHealth},
		{SectorAgriculture, cur.ByDonorAgriculture, previous.ByDonorAgriculture},
	}

	var out []domain.Warning
	for _, s := range sectors {
		out = append(out, DonorDrift(s.cur, s.prev, s.name, names, p.Thresholds)...)
	}
	for _, s := range sectors {
		out = append(out, MissingDonors(s.cur, s.prev, s.name, names, p.CriticalDonors)...)
	}
	out = append(out, NewDonors(cur.ByDonorTotal, previous.ByDonorTotal, SectorTotal, names)...)
	return out
}

func donorLabel(code int64, names map[int64]string) string {
	if n, ok := names[code]; ok && n != "" {
		return n
	}
	return fmt.Sprintf("Donor %d", code)
}
