// Package manifest models the per-dataset release history used as the
// comparison baseline for anomaly detection. The JSON shape is kept stable so
// manifests written by earlier pipeline versions still load.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalid marks a manifest document that is missing required keys or is
// not valid JSON.
var ErrInvalid = errors.New("invalid manifest")

// Float is a float64 that encodes non-finite values as JSON null and decodes
// null back to NaN.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Valid reports whether the value is finite.
func (f Float) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Totals maps a dimension key, rendered as text, to a summed value.
type Totals map[string]Float

// ByInt returns the totals whose keys parse as integers.
func (t Totals) ByInt() map[int64]float64 {
	out := make(map[int64]float64, len(t))
	for k, v := range t {
		n, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		out[n] = float64(v)
	}
	return out
}

// Keys returns the keys in ascending order.
func (t Totals) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func totalsOf[K comparable](m map[K]float64, key func(K) string) Totals {
	out := make(Totals, len(m))
	for k, v := range m {
		out[key(k)] = Float(v)
	}
	return out
}

// DonorSector identifies a (donor, sector) cell.
type DonorSector struct {
	Donor  int64
	Sector string
}

// Key encodes the cell as "donor|sector". The donor part is an integer, so the
// first delimiter always separates the two halves even when a sector name
// contains one.
func (k DonorSector) Key() string {
	return strconv.FormatInt(k.Donor, 10) + "|" + k.Sector
}

// ParseDonorSector decodes a "donor|sector" key.
func ParseDonorSector(key string) (DonorSector, bool) {
	donor, sector, ok := strings.Cut(key, "|")
	if !ok {
		return DonorSector{}, false
	}
	code, err := strconv.ParseInt(donor, 10, 64)
	if err != nil {
		return DonorSector{}, false
	}
	return DonorSector{Donor: code, Sector: sector}, true
}

// DonorSectorTotals is the by_donor_sector aggregate. Malformed keys are
// dropped on decode.
type DonorSectorTotals map[DonorSector]Float

func (t DonorSectorTotals) MarshalJSON() ([]byte, error) {
	flat := make(map[string]Float, len(t))
	for k, v := range t {
		flat[k.Key()] = v
	}
	return json.Marshal(flat)
}

func (t *DonorSectorTotals) UnmarshalJSON(data []byte) error {
	var flat map[string]Float
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	out := make(DonorSectorTotals, len(flat))
	for k, v := range flat {
		cell, ok := ParseDonorSector(k)
		if !ok {
			continue
		}
		out[cell] = v
	}
	*t = out
	return nil
}

// Labels is a list of codes stored as text. Numeric JSON entries are accepted
// and converted.
type Labels []string

func (l *Labels) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Labels, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			continue
		}
		out = append(out, n.String())
	}
	*l = out
	return nil
}

// Manifest is the persisted history of one dataset.
type Manifest struct {
	Dataset  string              `json:"dataset"`
	Schema   Schema              `json:"schema"`
	Releases map[string]*Release `json:"releases"`
}

// Schema is the most recently observed column layout.
type Schema struct {
	Columns    []string          `json:"columns"`
	DTypes     map[string]string `json:"dtypes"`
	KeyColumns []string          `json:"key_columns,omitempty"`
}

// Release is the immutable snapshot recorded for one release.
type Release struct {
	ComputedAt            string       `json:"computed_at,omitempty"`
	RowCount              int          `json:"row_count"`
	YearRange             *[2]int      `json:"year_range"`
	DonorsPresent         []int64      `json:"donors_present"`
	RecipientsPresent     []int64      `json:"recipients_present"`
	IndicatorsPresent     Labels       `json:"indicators_present"`
	Aggregates            Aggregates   `json:"aggregates"`
	Distribution          Distribution `json:"distribution"`
	HistoricalVariation   Variation    `json:"historical_variation"`
	PurposeCodesPresent   []int64      `json:"purpose_codes_present,omitempty"`
	SubSectorCodesPresent []int64      `json:"sub_sector_codes_present,omitempty"`
	SectorsPresent        []string     `json:"sectors_present,omitempty"`
}

// Timestamp returns the computed_at value.
func (r *Release) Timestamp() string { return r.ComputedAt }

// Aggregates holds one total per dimension. A dimension is absent when the
// dataset lacks the grouping column.
type Aggregates struct {
	ByDonor       Totals            `json:"by_donor,omitempty"`
	ByYear        Totals            `json:"by_year,omitempty"`
	ByIndicator   Totals            `json:"by_indicator,omitempty"`
	ByRecipient   Totals            `json:"by_recipient,omitempty"`
	ByAgency      Totals            `json:"by_agency,omitempty"`
	BySector      Totals            `json:"by_sector,omitempty"`
	BySubSector   Totals            `json:"by_sub_sector,omitempty"`
	ByDonorSector DonorSectorTotals `json:"by_donor_sector,omitempty"`
}

// Distribution summarises the primary value column. All fields are NaN when
// the column has no values.
type Distribution struct {
	Min    Float `json:"min"`
	Max    Float `json:"max"`
	Median Float `json:"median"`
	P25    Float `json:"p25"`
	P75    Float `json:"p75"`
}

// Stat is a mean and standard deviation of year-over-year changes.
type Stat struct {
	Mean Float `json:"mean"`
	Std  Float `json:"std"`
}

// Variation records historical year-over-year variation.
type Variation struct {
	Overall Stat            `json:"overall"`
	ByDonor map[string]Stat `json:"by_donor"`
}

// New returns an empty manifest for a dataset.
func New(dataset string) *Manifest {
	return &Manifest{
		Dataset:  dataset,
		Schema:   Schema{Columns: []string{}, DTypes: map[string]string{}},
		Releases: make(map[string]*Release),
	}
}

// Previous returns the most recent release other than current.
func (m *Manifest) Previous(current string) (string, *Release, bool) {
	if m == nil {
		return "", nil, false
	}
	return Previous(m.Releases, current)
}

// Encode renders the manifest as indented JSON.
func Encode(m any) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Decode parses a dataset manifest, checking that required keys are present.
func Decode(data []byte) (*Manifest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := requireKeys(raw, "manifest", "dataset", "schema", "releases"); err != nil {
		return nil, err
	}
	if err := requireReleaseKeys(raw["releases"], "row_count", "aggregates"); err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if m.Releases == nil {
		m.Releases = make(map[string]*Release)
	}
	if m.Schema.DTypes == nil {
		m.Schema.DTypes = map[string]string{}
	}
	return &m, nil
}

func requireKeys(raw map[string]json.RawMessage, where string, keys ...string) error {
	for _, k := range keys {
		if _, ok := raw[k]; !ok {
			return fmt.Errorf("%w: %s is missing %q", ErrInvalid, where, k)
		}
	}
	return nil
}

func requireReleaseKeys(data json.RawMessage, keys ...string) error {
	var releases map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &releases); err != nil {
		return fmt.Errorf("%w: releases: %v", ErrInvalid, err)
	}
	for name, rel := range releases {
		if rel == nil {
			return fmt.Errorf("%w: release %q is null", ErrInvalid, name)
		}
		if err := requireKeys(rel, fmt.Sprintf("release %q", name), keys...); err != nil {
			return err
		}
	}
	return nil
}
