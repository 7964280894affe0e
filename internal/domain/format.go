package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Messages embed numbers in fixed formats so report output stays diffable.

// SignedPct renders a ratio as a signed percentage with one decimal: +12.5%.
func SignedPct(ratio float64) string {
	return fmt.Sprintf("%+.1f%%", ratio*100)
}

// Pct renders a ratio as an unsigned percentage with one decimal: 12.5%.
func Pct(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// Amount renders a value rounded to a whole number with thousands separators.
func Amount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return humanize.Commaf(math.Round(v))
}

// Count renders an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// IntList renders codes as a bracketed list: [1, 2, 3].
func IntList[T ~int | ~int32 | ~int64](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// QuotedList renders labels as a bracketed, quoted list: ['a', 'b'].
func QuotedList(vals []string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = "'" + v + "'"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Truncated renders at most limit items of a bracketed list, followed by an
// ellipsis when items were dropped.
func Truncated[T ~int | ~int32 | ~int64](vals []T, limit int) string {
	if len(vals) <= limit {
		return IntList(vals)
	}
	return IntList(vals[:limit]) + "..."
}

// SortedInts returns a sorted copy.
func SortedInts[T ~int | ~int32 | ~int64](vals []T) []T {
	out := append([]T(nil), vals...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
