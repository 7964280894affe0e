package manifest

import (
	"sort"
	"time"
)

// Timestamped is a release record that may carry a computed_at value.
type Timestamped interface {
	Timestamp() string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 and the zone-less ISO forms older manifests
// were written with.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Ordered lists release names newest first. Releases with a parseable
// timestamp come first, by timestamp; the rest follow by name descending.
func Ordered[R Timestamped](releases map[string]R) []string {
	type entry struct {
		name  string
		at    time.Time
		stamp bool
	}
	entries := make([]entry, 0, len(releases))
	for name, r := range releases {
		e := entry{name: name}
		e.at, e.stamp = ParseTimestamp(r.Timestamp())
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.stamp != b.stamp {
			return a.stamp
		}
		if a.stamp && !a.at.Equal(b.at) {
			return a.at.After(b.at)
		}
		return a.name > b.name
	})
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// Previous selects the most recent release other than current.
func Previous[R Timestamped](releases map[string]R, current string) (string, R, bool) {
	for _, name := range Ordered(releases) {
		if name == current {
			continue
		}
		return name, releases[name], true
	}
	var zero R
	return "", zero, false
}
