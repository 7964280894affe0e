package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/frame"
)

const (
	maxDuplicateSamples = 5
	maxUnmappedCodes    = 10
	recentYearsShown    = 5
)

// ExpectedSchema declares the columns a dataset must carry and, optionally,
// their dtypes.
type ExpectedSchema struct {
	Columns []string
	DTypes  map[string]string
}

// Schema fails when an expected column is absent or a declared dtype is not
// compatible with the observed one.
func Schema(f *frame.Frame, expected ExpectedSchema) domain.CheckResult {
	var errs []string

	var missing []string
	for _, col := range expected.Columns {
		if !f.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		errs = append(errs, fmt.Sprintf("Missing columns: %s", domain.QuotedList(dedupe(missing))))
	}

	cols := make([]string, 0, len(expected.DTypes))
	for col := range expected.DTypes {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		c := f.Col(col)
		if c == nil {
			continue
		}
		want := expected.DTypes[col]
		if !TypesCompatible(c.DType(), want) {
			errs = append(errs, fmt.Sprintf("Column '%s': expected %s, got %s", col, want, c.DType()))
		}
	}
	return domain.ResultOf(errs)
}

// TypesCompatible treats integer widths as interchangeable, float widths as
// interchangeable, and nullable integer spellings as equal to plain ones.
func TypesCompatible(actual, expected string) bool {
	actual, expected = strings.ToLower(actual), strings.ToLower(expected)
	if actual == expected {
		return true
	}
	if isOneOf(actual, "int16", "int32", "int64") && isOneOf(expected, "int16", "int32", "int64") {
		return true
	}
	if isOneOf(actual, "float32", "float64") && isOneOf(expected, "float32", "float64") {
		return true
	}
	return allDigits(strings.ReplaceAll(actual, "int", "")) && allDigits(strings.ReplaceAll(expected, "int", ""))
}

func isOneOf(s string, set ...string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// NotEmpty fails when the frame has no rows.
func NotEmpty(f *frame.Frame) domain.CheckResult {
	if f.Len() == 0 {
		return domain.Fail("Dataset is empty (0 rows)")
	}
	return domain.Pass()
}

// NoDuplicateKeys fails when a combination of the key columns present in f
// occurs more than once. The reported count is the number of rows that take
// part in any duplicate group.
func NoDuplicateKeys(f *frame.Frame, keyColumns []string) domain.CheckResult {
	var keys []*frame.Column
	var names []string
	for _, name := range keyColumns {
		if c := f.Col(name); c != nil {
			keys = append(keys, c)
			names = append(names, name)
		}
	}
	if len(keys) == 0 {
		return domain.Pass()
	}

	rowKeys := make([]string, f.Len())
	groups := make(map[string]int, f.Len())
	for i := range rowKeys {
		rowKeys[i] = tupleKey(keys, i)
		groups[rowKeys[i]]++
	}

	count := 0
	var samples []string
	sampled := make(map[string]bool)
	for i, k := range rowKeys {
		if groups[k] < 2 {
			continue
		}
		count++
		if !sampled[k] && len(samples) < maxDuplicateSamples {
			sampled[k] = true
			samples = append(samples, renderTuple(keys, names, i))
		}
	}
	if count == 0 {
		return domain.Pass()
	}
	return domain.Fail(fmt.Sprintf("%d duplicate rows on %s. Sample: [%s]",
		count, domain.QuotedList(names), strings.Join(samples, ", ")))
}

func tupleKey(cols []*frame.Column, row int) string {
	var b strings.Builder
	for _, c := range cols {
		if c.IsNull(row) {
			b.WriteString("\x00")
		} else {
			b.WriteString(c.String(row))
		}
		b.WriteByte('\x1f')
	}
	return b.String()
}

func renderTuple(cols []*frame.Column, names []string, row int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("'%s': %s", names[i], renderValue(c, row))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func renderValue(c *frame.Column, row int) string {
	switch {
	case c.IsNull(row):
		return "null"
	case c.Kind() == frame.String:
		return "'" + c.String(row) + "'"
	default:
		return c.String(row)
	}
}

// ValueColumns lists the value_* columns in frame order.
func ValueColumns(f *frame.Frame) []*frame.Column {
	var out []*frame.Column
	for _, name := range f.Names() {
		if strings.HasPrefix(name, "value_") {
			out = append(out, f.Col(name))
		}
	}
	return out
}

// ValueColumnsPopulated reports every value_* column that has no non-null
// entry.
func ValueColumnsPopulated(f *frame.Frame) domain.CheckResult {
	var errs []string
	for _, c := range ValueColumns(f) {
		if c.NonNullCount() == 0 {
			errs = append(errs, fmt.Sprintf("Column '%s' is entirely null (%d rows)", c.Name(), f.Len()))
		}
	}
	return domain.ResultOf(errs)
}

// ValueBounds fails for any value_* column whose maximum exceeds ceiling.
// Negative values are legitimate flows and are not bounded.
func ValueBounds(f *frame.Frame, ceiling float64) domain.CheckResult {
	var errs []string
	for _, c := range ValueColumns(f) {
		hi, ok := c.Max()
		if ok && hi > ceiling {
			errs = append(errs, fmt.Sprintf("Column '%s' max value %s exceeds sanity limit %s",
				c.Name(), domain.Amount(hi), domain.Amount(ceiling)))
		}
	}
	return domain.ResultOf(errs)
}

var nameMappings = []struct {
	code, name, label string
}{
	{"donor_code", "donor_name", "donor"},
	{"recipient_code", "recipient_name", "recipient"},
	{"indicator", "indicator_name", "indicator"},
}

// NameMappingsComplete fails when a non-null code has no name in some row.
func NameMappingsComplete(f *frame.Frame) domain.CheckResult {
	var errs []string
	for _, m := range nameMappings {
		codes, names := f.Col(m.code), f.Col(m.name)
		if codes == nil || names == nil {
			continue
		}
		unmapped := f.Filter(func(i int) bool { return !codes.IsNull(i) && names.IsNull(i) })
		if unmapped.Len() == 0 {
			continue
		}
		errs = append(errs, fmt.Sprintf("Unmapped %s codes: %s", m.label, codeSample(unmapped, m.code)))
	}
	return domain.ResultOf(errs)
}

func codeSample(f *frame.Frame, col string) string {
	if f.Col(col).IsNumeric() {
		codes := f.DistinctInts(col)
		if len(codes) > maxUnmappedCodes {
			codes = codes[:maxUnmappedCodes]
		}
		return domain.IntList(codes)
	}
	labels := f.DistinctStrings(col)
	if len(labels) > maxUnmappedCodes {
		labels = labels[:maxUnmappedCodes]
	}
	return domain.QuotedList(labels)
}

// CriticalDimensions fails when the expected latest year is missing from the
// year column or a critical donor is missing from donor_code. Both problems
// are reported when both occur.
func CriticalDimensions(f *frame.Frame, expectedLatestYear int64, criticalDonors []int) domain.CheckResult {
	var errs []string

	if f.Has("year") {
		years := f.DistinctInts("year")
		if !containsInt(years, expectedLatestYear) {
			recent := years
			if len(recent) > recentYearsShown {
				recent = recent[len(recent)-recentYearsShown:]
			}
			errs = append(errs, fmt.Sprintf("Missing latest year: %d. Years present: %s",
				expectedLatestYear, domain.IntList(recent)))
		}
	}

	if f.Has("donor_code") {
		donors := f.DistinctInts("donor_code")
		var missing []int
		for _, d := range criticalDonors {
			if !containsInt(donors, int64(d)) {
				missing = append(missing, d)
			}
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Sprintf("Missing critical donors: %s", domain.IntList(missing)))
		}
	}
	return domain.ResultOf(errs)
}

func containsInt(sorted []int64, v int64) bool {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= v })
	return i < len(sorted) && sorted[i] == v
}
