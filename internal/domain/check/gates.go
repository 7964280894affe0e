package check

import (
	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/frame"
)

// GateParams carries the per-dataset expectations the hard gates need.
type GateParams struct {
	RequiredColumns []string
	KeyColumns      []string
	MaxSaneValue    float64
	CriticalDonors  []int
}

// Gate is one named hard-gate outcome.
type Gate struct {
	Name   string
	Result domain.CheckResult
}

// RunGates runs every hard gate against f in report order. Every gate runs
// even when an earlier one fails.
func RunGates(f *frame.Frame, p GateParams) []Gate {
	ceiling := p.MaxSaneValue
	if ceiling <= 0 {
		ceiling = domain.DefaultMaxSaneValue
	}
	// Latest year is taken from the data itself; an all-null year column
	// yields 0, which is reported as missing.
	latest, _ := f.MaxInt("year")

	return []Gate{
		{domain.CheckSchema, Schema(f, ExpectedSchema{Columns: p.RequiredColumns})},
		{domain.CheckNotEmpty, NotEmpty(f)},
		{domain.CheckNoDuplicateKeys, NoDuplicateKeys(f, p.KeyColumns)},
		{domain.CheckValuesPopulated, ValueColumnsPopulated(f)},
		{domain.CheckValueBounds, ValueBounds(f, ceiling)},
		{domain.CheckNameMappings, NameMappingsComplete(f)},
		{domain.CheckCriticalDimensions, CriticalDimensions(f, latest, p.CriticalDonors)},
	}
}
