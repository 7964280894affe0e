// Package report renders validation reports as markdown and CSV and writes
// them to the reports directory.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odagate/odagate/internal/domain"
)

// Status is the one-line verdict shown in the report header.
func Status(r *domain.ValidationReport) string {
	s := r.Summary()
	switch {
	case r.HasBlockingErrors():
		return "BLOCKED"
	case s.High > 0:
		return fmt.Sprintf("WARNINGS (%d high, %d medium, %d info)", s.High, s.Medium, s.Info)
	case s.Medium > 0:
		return fmt.Sprintf("WARNINGS (%d medium, %d info)", s.Medium, s.Info)
	case s.Info > 0:
		return fmt.Sprintf("INFO (%d items)", s.Info)
	default:
		return "PASSED"
	}
}

var levelHeadings = map[domain.Level]string{
	domain.LevelHigh:   "High Priority",
	domain.LevelMedium: "Medium Priority",
	domain.LevelInfo:   "Info",
}

// Markdown renders the full report document.
func Markdown(r *domain.ValidationReport) string {
	var lines []string
	add := func(l ...string) { lines = append(lines, l...) }

	add(
		"# Data Validation Report",
		"**Release:** "+r.Release,
		"**Generated:** "+r.Timestamp.Format("2006-01-02 15:04:05"),
		"**Status:** "+Status(r),
		"",
		"---",
		"",
		"## Hard Gates",
		"",
	)

	if r.HasBlockingErrors() {
		add("### BLOCKED", "")
	} else {
		add("### PASSED", "")
	}

	add("| Dataset | Check | Status |", "|---------|-------|--------|")
	checks := r.Checks()
	for _, c := range checks {
		status := "Pass"
		if !c.Result.Passed {
			status = "**FAIL**"
		}
		add(fmt.Sprintf("| %s | %s | %s |", c.Dataset, c.Check, status))
	}
	add("")

	var errs []string
	for _, c := range checks {
		for _, e := range c.Result.Errors {
			errs = append(errs, fmt.Sprintf("- **%s/%s**: %s", c.Dataset, c.Check, e))
		}
	}
	if len(errs) > 0 {
		add("### Errors", "")
		add(errs...)
		add("")
	}

	add("---", "", "## Warnings", "")

	listed := false
	for _, level := range domain.Levels {
		ws := r.WarningsByLevel(level)
		if len(ws) == 0 {
			continue
		}
		listed = true
		add(fmt.Sprintf("### %s (%d)", levelHeadings[level], len(ws)), "")
		add(groupByDataset(ws)...)
	}
	if !listed {
		add("No warnings.", "")
	}

	return strings.Join(lines, "\n")
}

// groupByDataset lists messages under a bold dataset heading, datasets
// sorted by name and messages in report order.
func groupByDataset(ws []domain.Warning) []string {
	byDataset := make(map[string][]string)
	for _, w := range ws {
		byDataset[w.Dataset] = append(byDataset[w.Dataset], w.Message)
	}
	datasets := make([]string, 0, len(byDataset))
	for ds := range byDataset {
		datasets = append(datasets, ds)
	}
	sort.Strings(datasets)

	var lines []string
	for _, ds := range datasets {
		if ds != "" {
			lines = append(lines, "**"+ds+"**")
		}
		for _, msg := range byDataset[ds] {
			lines = append(lines, "- "+msg)
		}
		lines = append(lines, "")
	}
	return lines
}

// FileName is validation_{release}_{YYYYmmdd_HHMMSS} with the given extension.
func FileName(r *domain.ValidationReport, ext string) string {
	return fmt.Sprintf("validation_%s_%s%s", r.Release, r.Timestamp.Format("20060102_150405"), ext)
}
