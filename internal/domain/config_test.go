package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/odagate/odagate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := domain.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"financing_view", "recipients_view", "gender_view", "sectors_view"}, cfg.DatasetNames())
}

func TestDefaultConfig_SectorsViewIsPartitioned(t *testing.T) {
	ds, err := domain.DefaultConfig().Dataset("sectors_view")
	require.NoError(t, err)
	assert.True(t, ds.Partitioned)
	assert.Equal(t, "sectors_view", ds.FileName())
	assert.Contains(t, ds.RequiredColumns, "sector_name")
}

func TestDatasetConfig_Defaults(t *testing.T) {
	ds := domain.DatasetConfig{Name: "financing_view"}
	assert.Equal(t, "financing_view.parquet", ds.FileName())
	assert.Equal(t, domain.DefaultValueColumn, ds.Value())
}

func TestConfig_UnknownDataset(t *testing.T) {
	_, err := domain.DefaultConfig().Dataset("nope")
	assert.True(t, errors.Is(err, domain.ErrUnknownDataset))
}

func TestConfig_RejectsEmptyKeyColumns(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Datasets[0].KeyColumns = nil
	assert.Error(t, cfg.Validate())
}

func TestConfig_RejectsDuplicateNames(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Datasets = append(cfg.Datasets, cfg.Datasets[0])
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate dataset")
}

func TestConfig_RejectsReservedName(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Datasets[0].Name = domain.SeekDataset
	assert.Error(t, cfg.Validate())
}

func TestConfig_RejectsInvertedSeekThresholds(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Seek.ZHigh = 1.0
	assert.Error(t, cfg.Validate())
}

func TestConfig_CriticalDonorsFallback(t *testing.T) {
	cfg := domain.DefaultConfig()
	assert.Equal(t, domain.MajorDonors, cfg.CriticalDonorsFor(domain.DatasetConfig{Name: "x"}))
	assert.Equal(t, []int{4}, cfg.CriticalDonorsFor(domain.DatasetConfig{Name: "x", CriticalDonors: []int{4}}))
}

func TestDefaultReleaseName(t *testing.T) {
	now := time.Date(2025, 4, 17, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-04", domain.DefaultReleaseName(now))
}

func TestCheckReleaseName(t *testing.T) {
	assert.NoError(t, domain.CheckReleaseName("dec_2024"))
	assert.Error(t, domain.CheckReleaseName(" "))
	assert.Error(t, domain.CheckReleaseName("../x"))
}
