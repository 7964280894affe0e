package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/odagate/odagate/internal/adapters/outbound/config"
	"github.com/odagate/odagate/internal/domain"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, appconfig.FileName), []byte(content), 0644))
}

func TestYAMLLoader_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := appconfig.New().Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestYAMLLoader_EmptyFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")

	cfg, err := appconfig.New().Load(dir)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestYAMLLoader_DatasetsReplaceCatalog(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
datasets:
  - name: financing_view
    key_columns: [year, donor_code]
    required_columns: [year, donor_code, value_usd_constant]
max_sane_value: 1e15
`)

	cfg, err := appconfig.New().Load(dir)
	require.NoError(t, err)
	require.Len(t, cfg.Datasets, 1)
	ds := cfg.Datasets[0]
	assert.Equal(t, "financing_view.parquet", ds.FileName())
	assert.Equal(t, domain.DefaultValueColumn, ds.Value())
	assert.Equal(t, domain.MajorDonors, cfg.CriticalDonorsFor(ds))
	assert.Equal(t, 1e15, cfg.MaxSaneValue)
}

func TestYAMLLoader_SeekOverridesKeepOtherDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
seek:
  file: seek/purpose_codes.parquet
  pct_threshold: 0.25
  pct_high: 0.5
`)

	cfg, err := appconfig.New().Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "seek/purpose_codes.parquet", cfg.Seek.File)
	assert.Equal(t, 0.25, cfg.Seek.PctThreshold)
	assert.Equal(t, 0.5, cfg.Seek.PctHigh)
	assert.Equal(t, 2.0, cfg.Seek.ZThreshold)
	assert.Equal(t, domain.DefaultSeekHealthCodes, cfg.Seek.HealthCodes)
	assert.Len(t, cfg.Datasets, 4)
}

func TestYAMLLoader_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{{{invalid yaml`)

	_, err := appconfig.New().Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing .odagate.yaml")
}

func TestYAMLLoader_RejectsEmptyKeyColumns(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
datasets:
  - name: financing_view
    key_columns: []
`)

	_, err := appconfig.New().Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid .odagate.yaml")
}

func TestYAMLLoader_RejectsMisorderedThresholds(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
seek:
  z_threshold: 3
  z_high: 2
`)

	_, err := appconfig.New().Load(dir)
	assert.Error(t, err)
}

func TestYAMLLoader_RejectsDuplicateDatasets(t *testing.T) {
	_, err := appconfig.Parse([]byte(`
datasets:
  - name: a
    key_columns: [year]
  - name: a
    key_columns: [year]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate dataset "a"`)
}

func TestRender_ParsesBackToDefaults(t *testing.T) {
	def := domain.DefaultConfig()
	data, err := appconfig.Render(def)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# odagate dataset catalog")

	cfg, err := appconfig.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, def.DatasetNames(), cfg.DatasetNames())
	assert.Equal(t, def.MajorDonors, cfg.MajorDonors)
	assert.Equal(t, def.MaxSaneValue, cfg.MaxSaneValue)
	assert.Equal(t, def.Seek, cfg.Seek)
	for i, ds := range def.Datasets {
		assert.Equal(t, ds.KeyColumns, cfg.Datasets[i].KeyColumns, ds.Name)
		assert.Equal(t, ds.Partitioned, cfg.Datasets[i].Partitioned, ds.Name)
	}
}

func TestRender_RejectsInvalidCatalog(t *testing.T) {
	_, err := appconfig.Render(domain.Config{})
	assert.Error(t, err)
}
