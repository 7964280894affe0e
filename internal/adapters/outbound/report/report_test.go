package report_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odagate/odagate/internal/adapters/outbound/report"
	"github.com/odagate/odagate/internal/domain"
)

var ts = time.Date(2025, 1, 10, 9, 5, 7, 0, time.UTC)

func newReport() *domain.ValidationReport {
	return domain.NewValidationReport("dec_2024", ts)
}

func TestStatus(t *testing.T) {
	r := newReport()
	assert.Equal(t, "PASSED", report.Status(r))

	r.AddWarning(domain.Warning{Level: domain.LevelInfo, Message: "i"})
	assert.Equal(t, "INFO (1 items)", report.Status(r))

	r.AddWarning(domain.Warning{Level: domain.LevelMedium, Message: "m"})
	assert.Equal(t, "WARNINGS (1 medium, 1 info)", report.Status(r))

	r.AddWarning(domain.Warning{Level: domain.LevelHigh, Message: "h"})
	assert.Equal(t, "WARNINGS (1 high, 1 medium, 1 info)", report.Status(r))

	r.AddCheckResult("financing_view", domain.CheckSchema, domain.Fail("Missing column: year"))
	assert.Equal(t, "BLOCKED", report.Status(r))
}

func TestMarkdown_PassedNoWarnings(t *testing.T) {
	r := newReport()
	r.AddCheckResult("financing_view", domain.CheckSchema, domain.Pass())
	r.AddCheckResult("financing_view", domain.CheckNotEmpty, domain.Pass())

	want := strings.Join([]string{
		"# Data Validation Report",
		"**Release:** dec_2024",
		"**Generated:** 2025-01-10 09:05:07",
		"**Status:** PASSED",
		"",
		"---",
		"",
		"## Hard Gates",
		"",
		"### PASSED",
		"",
		"| Dataset | Check | Status |",
		"|---------|-------|--------|",
		"| financing_view | schema | Pass |",
		"| financing_view | not_empty | Pass |",
		"",
		"---",
		"",
		"## Warnings",
		"",
		"No warnings.",
		"",
	}, "\n")
	assert.Equal(t, want, report.Markdown(r))
}

func TestMarkdown_FailuresAndWarnings(t *testing.T) {
	r := newReport()
	r.AddCheckResult("financing_view", domain.CheckSchema, domain.Fail("Missing column: year"))
	r.AddWarning(domain.Warning{Level: domain.LevelHigh, Dataset: "recipients_view", Message: "High priority issue"})
	r.AddWarning(domain.Warning{Level: domain.LevelHigh, Dataset: "financing_view", Message: "Another"})
	r.AddWarning(domain.Warning{Level: domain.LevelMedium, Dataset: "financing_view", Message: "Medium priority issue"})
	r.AddWarning(domain.Warning{Level: domain.LevelInfo, Message: "Untagged"})

	md := report.Markdown(r)

	assert.Contains(t, md, "**Status:** BLOCKED")
	assert.Contains(t, md, "### BLOCKED")
	assert.Contains(t, md, "| financing_view | schema | **FAIL** |")
	assert.Contains(t, md, "### Errors\n\n- **financing_view/schema**: Missing column: year\n")
	assert.Contains(t, md, "### High Priority (2)\n\n**financing_view**\n- Another\n\n**recipients_view**\n- High priority issue\n")
	assert.Contains(t, md, "### Medium Priority (1)")
	assert.Contains(t, md, "### Info (1)\n\n- Untagged\n")
	assert.NotContains(t, md, "No warnings.")
}

func TestWriter_Save(t *testing.T) {
	fsys := afero.NewMemMapFs()
	r := newReport()
	r.AddCheckResult("test", domain.CheckSchema, domain.Pass())

	path, err := report.NewWriter(fsys, "/reports").Save(r)
	require.NoError(t, err)
	assert.Equal(t, "/reports/validation_dec_2024_20250110_090507.md", path)

	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	assert.Equal(t, report.Markdown(r), string(data))
}

func TestWriter_SaveCSV(t *testing.T) {
	fsys := afero.NewMemMapFs()
	r := newReport()
	r.AddCheckResult("financing_view", domain.CheckSchema, domain.Fail("a", "b"))
	r.AddWarning(domain.Warning{Level: domain.LevelMedium, Dataset: "financing_view", Message: "Row count changed, a lot"})

	path, err := report.NewWriter(fsys, "/reports").SaveCSV(r)
	require.NoError(t, err)
	assert.Equal(t, "/reports/validation_dec_2024_20250110_090507.csv", path)

	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	var rows []report.Row
	require.NoError(t, csvutil.Unmarshal(data, &rows))
	assert.Equal(t, []report.Row{
		{Kind: "check", Dataset: "financing_view", Name: "schema", Status: "fail", Message: "a; b"},
		{Kind: "warning", Dataset: "financing_view", Level: "medium", Message: "Row count changed, a lot"},
	}, rows)
}
