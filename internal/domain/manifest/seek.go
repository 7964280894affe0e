package manifest

import (
	"encoding/json"
	"fmt"
)

// SeekName is the dataset recorded in the SEEK manifest.
const SeekName = "seek_sectors_validation"

// SeekManifest is the release history of the SEEK sector totals.
type SeekManifest struct {
	Dataset  string                  `json:"dataset"`
	Releases map[string]*SeekRelease `json:"releases"`
}

// SeekRelease holds latest-year donor totals for one release.
type SeekRelease struct {
	ComputedAt         string `json:"computed_at"`
	LatestYear         *int   `json:"latest_year"`
	ByDonorTotal       Totals `json:"by_donor_total"`
	ByDonorHealth      Totals `json:"by_donor_health"`
	ByDonorAgriculture Totals `json:"by_donor_agriculture"`
}

func (r *SeekRelease) Timestamp() string { return r.ComputedAt }

// NewSeek returns an empty SEEK manifest.
func NewSeek() *SeekManifest {
	return &SeekManifest{Dataset: SeekName, Releases: make(map[string]*SeekRelease)}
}

// Put stores r under release, creating the manifest when m is nil.
func (m *SeekManifest) Put(release string, r *SeekRelease) *SeekManifest {
	if m == nil {
		m = NewSeek()
	}
	if m.Releases == nil {
		m.Releases = make(map[string]*SeekRelease)
	}
	m.Releases[release] = r
	return m
}

// Previous returns the most recent release other than current.
func (m *SeekManifest) Previous(current string) (string, *SeekRelease, bool) {
	if m == nil {
		return "", nil, false
	}
	return Previous(m.Releases, current)
}

// DecodeSeek parses a SEEK manifest, checking that required keys are present.
func DecodeSeek(data []byte) (*SeekManifest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := requireKeys(raw, "seek manifest", "releases"); err != nil {
		return nil, err
	}
	if err := requireReleaseKeys(raw["releases"], "by_donor_total"); err != nil {
		return nil, err
	}

	var m SeekManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if m.Dataset == "" {
		m.Dataset = SeekName
	}
	if m.Releases == nil {
		m.Releases = make(map[string]*SeekRelease)
	}
	return &m, nil
}
