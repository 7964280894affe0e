package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DefaultValueColumn is the primary measure used when a dataset names none.
const DefaultValueColumn = "value_usd_constant"

// DefaultMaxSaneValue is the ceiling for value_* columns, in raw currency units.
const DefaultMaxSaneValue = 1e18

// MajorDonors must have data in every release: France, Germany, Italy, Japan,
// UK, USA, Canada.
var MajorDonors = []int{4, 5, 6, 7, 12, 301, 302}

// DACDonors is the critical-donor set for the dashboard views.
var DACDonors = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 18, 22, 50, 68, 69, 75, 76, 301, 302, 701, 742, 820}

// Config is the dataset catalog loaded from .odagate.yaml.
type Config struct {
	Datasets     []DatasetConfig `yaml:"datasets"       json:"datasets"       validate:"required,min=1,dive"`
	MajorDonors  []int           `yaml:"major_donors"   json:"major_donors"`
	MaxSaneValue float64         `yaml:"max_sane_value" json:"max_sane_value" validate:"gt=0"`
	Seek         SeekConfig      `yaml:"seek"           json:"seek"`
}

// DatasetConfig holds the static expectations for one dataset.
type DatasetConfig struct {
	Name            string   `yaml:"name"             json:"name"             validate:"required"`
	File            string   `yaml:"file"             json:"file,omitempty"`
	Partitioned     bool     `yaml:"partitioned"      json:"partitioned,omitempty"`
	KeyColumns      []string `yaml:"key_columns"      json:"key_columns"      validate:"required,min=1,dive,required"`
	ValueColumn     string   `yaml:"value_column"     json:"value_column,omitempty"`
	RequiredColumns []string `yaml:"required_columns" json:"required_columns" validate:"dive,required"`
	CriticalDonors  []int    `yaml:"critical_donors"  json:"critical_donors,omitempty"`
}

// FileName returns the configured location relative to its base directory.
func (d DatasetConfig) FileName() string {
	if d.File != "" {
		return d.File
	}
	if d.Partitioned {
		return d.Name
	}
	return d.Name + ".parquet"
}

// Value returns the primary measure column.
func (d DatasetConfig) Value() string {
	if d.ValueColumn != "" {
		return d.ValueColumn
	}
	return DefaultValueColumn
}

// SeekConfig configures the purpose-code sector validation.
type SeekConfig struct {
	Enabled          bool    `yaml:"enabled"           json:"enabled"`
	File             string  `yaml:"file"              json:"file"              validate:"required_if=Enabled true"`
	ValueColumn      string  `yaml:"value_column"      json:"value_column"`
	HealthCodes      []int   `yaml:"health_codes"      json:"health_codes"`
	AgricultureCodes []int   `yaml:"agriculture_codes" json:"agriculture_codes"`
	CriticalDonors   []int   `yaml:"critical_donors"   json:"critical_donors"`
	ZThreshold       float64 `yaml:"z_threshold"       json:"z_threshold"       validate:"gt=0"`
	ZHigh            float64 `yaml:"z_high"            json:"z_high"            validate:"gtfield=ZThreshold"`
	PctThreshold     float64 `yaml:"pct_threshold"     json:"pct_threshold"     validate:"gt=0"`
	PctHigh          float64 `yaml:"pct_high"          json:"pct_high"          validate:"gtfield=PctThreshold"`
}

// SeekDataset is the dataset name SEEK results are reported under.
const SeekDataset = "seek_sectors"

// DefaultSeekHealthCodes covers CRS purpose codes 121xx, 122xx, 123xx and 130xx.
var DefaultSeekHealthCodes = []int{
	12110, 12181, 12182, 12191,
	12220, 12230, 12240, 12250, 12261, 12262, 12263, 12264, 12281,
	12310, 12320, 12330, 12340, 12350, 12382,
	13010, 13020, 13030, 13040, 13081, 13096,
}

// DefaultSeekAgricultureCodes covers CRS purpose codes 311xx, 312xx, 313xx
// plus agricultural development in multisector aid.
var DefaultSeekAgricultureCodes = []int{
	31110, 31120, 31130, 31140, 31150, 31161, 31162, 31163, 31164, 31165, 31166,
	31181, 31182, 31191, 31192, 31193, 31194, 31195,
	31210, 31220, 31261, 31281, 31282, 31291,
	31310, 31320, 31381, 31382, 31391,
	43040, 43071, 43072, 43073,
}

// DefaultSeekConfig returns the SEEK settings used when the catalog has none.
func DefaultSeekConfig() SeekConfig {
	return SeekConfig{
		Enabled:          true,
		File:             "seek_sectors.parquet",
		ValueColumn:      "value",
		HealthCodes:      append([]int(nil), DefaultSeekHealthCodes...),
		AgricultureCodes: append([]int(nil), DefaultSeekAgricultureCodes...),
		CriticalDonors:   append([]int(nil), MajorDonors...),
		ZThreshold:       2.0,
		ZHigh:            3.0,
		PctThreshold:     0.20,
		PctHigh:          0.40,
	}
}

var valueColumns = []string{
	"value_usd_current", "value_usd_constant",
	"value_eur_current", "value_eur_constant",
	"value_gbp_current", "value_gbp_constant",
	"value_cad_current", "value_cad_constant",
}

func columns(dims ...string) []string {
	return append(append([]string(nil), dims...), valueColumns...)
}

// DefaultConfig returns the built-in catalog of dashboard views.
func DefaultConfig() Config {
	return Config{
		Datasets: []DatasetConfig{
			{
				Name:            "financing_view",
				KeyColumns:      []string{"year", "donor_code", "indicator_name", "type"},
				ValueColumn:     DefaultValueColumn,
				RequiredColumns: columns("year", "donor_code", "donor_name", "indicator", "indicator_name", "type"),
				CriticalDonors:  append([]int(nil), DACDonors...),
			},
			{
				Name:            "recipients_view",
				KeyColumns:      []string{"year", "donor_code", "recipient_code", "indicator"},
				ValueColumn:     DefaultValueColumn,
				RequiredColumns: columns("year", "donor_code", "donor_name", "recipient_code", "recipient_name", "indicator", "indicator_name"),
				CriticalDonors:  append([]int(nil), DACDonors...),
			},
			{
				Name:            "gender_view",
				KeyColumns:      []string{"year", "donor_code", "recipient_code", "indicator"},
				ValueColumn:     DefaultValueColumn,
				RequiredColumns: columns("year", "donor_code", "donor_name", "recipient_code", "recipient_name", "indicator", "indicator_name"),
				CriticalDonors:  append([]int(nil), DACDonors...),
			},
			{
				Name:            "sectors_view",
				File:            "sectors_view",
				Partitioned:     true,
				KeyColumns:      []string{"year", "donor_code", "recipient_code", "indicator", "sub_sector_code"},
				ValueColumn:     DefaultValueColumn,
				RequiredColumns: columns("year", "donor_code", "donor_name", "recipient_code", "recipient_name", "indicator", "indicator_name", "sector_name", "sub_sector_code", "sub_sector_name"),
				CriticalDonors:  append([]int(nil), DACDonors...),
			},
		},
		MajorDonors:  append([]int(nil), MajorDonors...),
		MaxSaneValue: DefaultMaxSaneValue,
		Seek:         DefaultSeekConfig(),
	}
}

// Dataset looks up a dataset by name.
func (c Config) Dataset(name string) (DatasetConfig, error) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, nil
		}
	}
	return DatasetConfig{}, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
}

// DatasetNames lists datasets in catalog order.
func (c Config) DatasetNames() []string {
	names := make([]string, len(c.Datasets))
	for i, d := range c.Datasets {
		names[i] = d.Name
	}
	return names
}

// CriticalDonorsFor returns the dataset's critical donors, falling back to
// the catalog's major donors.
func (c Config) CriticalDonorsFor(d DatasetConfig) []int {
	if len(d.CriticalDonors) > 0 {
		return d.CriticalDonors
	}
	if len(c.MajorDonors) > 0 {
		return c.MajorDonors
	}
	return MajorDonors
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and catalog-level rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Datasets))
	for _, d := range c.Datasets {
		if seen[d.Name] {
			return fmt.Errorf("duplicate dataset %q", d.Name)
		}
		if d.Name == SeekDataset {
			return fmt.Errorf("dataset name %q is reserved", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}
