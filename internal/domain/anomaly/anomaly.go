// Package anomaly holds the statistical detectors that produce non-blocking
// warnings. Detectors are pure: they return warnings with an empty Dataset
// and skip silently when there is not enough data to judge.
package anomaly

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/frame"
)

const (
	// ZThreshold and ZHigh bound the year-over-year z-score.
	ZThreshold = 2.0
	ZHigh      = 3.0

	// DriftThreshold and DriftHigh bound release-over-release changes of
	// donor, agency and sector totals.
	DriftThreshold = 0.20
	DriftHigh      = 0.40

	// DonorSectorThreshold and DonorSectorHigh are wider because per-cell
	// volumes are noisier.
	DonorSectorThreshold = 0.40
	DonorSectorHigh      = 0.60

	// RowCountThreshold and RowCountHigh bound row-count changes.
	RowCountThreshold = 0.15
	RowCountHigh      = 0.30

	// CodeSampleLimit bounds the codes listed in purpose and sub-sector
	// messages.
	CodeSampleLimit = 20
)

// PreviousReleaseLabel names the comparison baseline in messages.
const PreviousReleaseLabel = "previous release"

// NamedDonor pairs a donor code with its display name.
type NamedDonor struct {
	Code int64
	Name string
}

// DonorNames maps each donor code to the first donor_name seen for it.
func DonorNames(f *frame.Frame) map[int64]string {
	return f.FirstStringByInt("donor_code", "donor_name")
}

// NamedDonors resolves codes against names, falling back to "Donor {code}".
func NamedDonors(codes []int, names map[int64]string) []NamedDonor {
	out := make([]NamedDonor, len(codes))
	for i, c := range codes {
		out[i] = NamedDonor{Code: int64(c), Name: donorLabel(int64(c), names)}
	}
	return out
}

func donorLabel(code int64, names map[int64]string) string {
	if n, ok := names[code]; ok && n != "" {
		return n
	}
	return fmt.Sprintf("Donor %d", code)
}

// pctChange returns the relative change from prev to cur. It reports false
// when prev is zero or undefined.
func pctChange(cur, prev float64) (float64, bool) {
	if prev == 0 || math.IsNaN(prev) || math.IsInf(prev, 0) {
		return 0, false
	}
	if math.IsNaN(cur) {
		cur = 0
	}
	return (cur - prev) / prev, true
}

// levelFor grades magnitude against a threshold pair.
func levelFor(magnitude, threshold, high float64) (domain.Level, bool) {
	m := math.Abs(magnitude)
	if m <= threshold {
		return "", false
	}
	if m > high {
		return domain.LevelHigh, true
	}
	return domain.LevelMedium, true
}

func formatCode(code int64) string { return strconv.FormatInt(code, 10) }

func warn(level domain.Level, format string, args ...any) domain.Warning {
	return domain.Warning{Level: level, Message: fmt.Sprintf(format, args...)}
}

func sortedInt64Keys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
