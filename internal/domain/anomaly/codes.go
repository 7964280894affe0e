package anomaly

import (
	"sort"

	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/frame"
	"github.com/odagate/odagate/internal/domain/manifest"
)

// NewOrRemovedCodes set-differences the current distinct codes against those
// recorded for the previous release. Additions are info; removals are medium,
// except removed sectors, which are high.
func NewOrRemovedCodes(f *frame.Frame, prev *manifest.Release) []domain.Warning {
	if prev == nil {
		return nil
	}
	var out []domain.Warning

	if f.Has("donor_code") {
		added, removed := diffInts(f.DistinctInts("donor_code"), prev.DonorsPresent)
		if len(added) > 0 {
			out = append(out, warn(domain.LevelInfo, "New donor codes: %s", domain.IntList(added)))
		}
		if len(removed) > 0 {
			out = append(out, warn(domain.LevelMedium, "Removed donor codes: %s", domain.IntList(removed)))
		}
	}

	if f.Has("indicator") {
		added, removed := diffStrings(f.DistinctStrings("indicator"), prev.IndicatorsPresent)
		if len(added) > 0 {
			out = append(out, warn(domain.LevelInfo, "New indicators: %s", domain.QuotedList(added)))
		}
		if len(removed) > 0 {
			out = append(out, warn(domain.LevelMedium, "Removed indicators: %s", domain.QuotedList(removed)))
		}
	}

	if f.Has("purpose_code") {
		added, removed := diffInts(f.DistinctInts("purpose_code"), prev.PurposeCodesPresent)
		if len(added) > 0 {
			out = append(out, warn(domain.LevelInfo, "New purpose codes: %s", domain.Truncated(added, CodeSampleLimit)))
		}
		if len(removed) > 0 {
			out = append(out, warn(domain.LevelMedium, "Removed purpose codes: %s", domain.Truncated(removed, CodeSampleLimit)))
		}
	}

	if f.Has("sub_sector_code") {
		added, removed := diffInts(f.DistinctInts("sub_sector_code"), prev.SubSectorCodesPresent)
		if len(added) > 0 {
			out = append(out, warn(domain.LevelInfo, "New sub-sector codes: %s", domain.Truncated(added, CodeSampleLimit)))
		}
		if len(removed) > 0 {
			out = append(out, warn(domain.LevelMedium, "Removed sub-sector codes: %s", domain.Truncated(removed, CodeSampleLimit)))
		}
	}

	if f.Has("sector_name") {
		added, removed := diffStrings(f.DistinctStrings("sector_name"), prev.SectorsPresent)
		if len(added) > 0 {
			out = append(out, warn(domain.LevelInfo, "New sectors: %s", domain.QuotedList(added)))
		}
		if len(removed) > 0 {
			out = append(out, warn(domain.LevelHigh, "Removed sectors: %s", domain.QuotedList(removed)))
		}
	}

	return out
}

// diffInts returns the sorted values only in current and only in previous.
func diffInts(current, previous []int64) (added, removed []int64) {
	cur := make(map[int64]bool, len(current))
	for _, v := range current {
		cur[v] = true
	}
	prev := make(map[int64]bool, len(previous))
	for _, v := range previous {
		prev[v] = true
		if !cur[v] {
			removed = append(removed, v)
		}
	}
	for _, v := range current {
		if !prev[v] {
			added = append(added, v)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return dedupeInts(added), dedupeInts(removed)
}

func dedupeInts(sorted []int64) []int64 {
	var out []int64
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func diffStrings(current, previous []string) (added, removed []string) {
	cur := make(map[string]bool, len(current))
	for _, v := range current {
		cur[v] = true
	}
	prev := make(map[string]bool, len(previous))
	for _, v := range previous {
		if !prev[v] && !cur[v] {
			removed = append(removed, v)
		}
		prev[v] = true
	}
	for _, v := range current {
		if !prev[v] {
			added = append(added, v)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
