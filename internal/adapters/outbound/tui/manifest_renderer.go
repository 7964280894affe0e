package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/odagate/odagate/internal/domain/manifest"
)

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle          = lipgloss.NewStyle().Foreground(dim).Italic(true)
)

// RenderManifest shows a dataset's recorded schema and its releases, newest
// first.
func RenderManifest(m *manifest.Manifest, now time.Time) string {
	var b strings.Builder

	b.WriteString(boxStyle.Render(headerStyle.Render(m.Dataset) + "\n" +
		dimStyle.Render(fmt.Sprintf("%d releases · %d columns", len(m.Releases), len(m.Schema.Columns)))))
	b.WriteString("\n\n")

	if len(m.Schema.KeyColumns) > 0 {
		fmt.Fprintf(&b, "  %s %s\n\n", sectionHeaderStyle.Render("Key"), strings.Join(m.Schema.KeyColumns, ", "))
	}

	b.WriteString(fmt.Sprintf("  %s %s\n",
		sectionHeaderStyle.Render("Schema"),
		dimStyle.Render(fmt.Sprintf("(%d)", len(m.Schema.Columns))),
	))
	for _, col := range m.Schema.Columns {
		fmt.Fprintf(&b, "    %s %s\n", padRight(col, 28), faintStyle.Render(m.Schema.DTypes[col]))
	}

	b.WriteString("\n")
	b.WriteString(RenderReleases(m, now))
	return b.String()
}

// RenderReleases lists releases newest first with their row counts and
// year coverage.
func RenderReleases(m *manifest.Manifest, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %s %s\n",
		sectionHeaderStyle.Render("Releases"),
		dimStyle.Render(fmt.Sprintf("(%d)", len(m.Releases))),
	))
	if len(m.Releases) == 0 {
		b.WriteString("    " + hintStyle.Render("No releases recorded. Run odagate validate to create a baseline.") + "\n")
		return b.String()
	}

	for _, name := range manifest.Ordered(m.Releases) {
		r := m.Releases[name]
		years := "no years"
		if r.YearRange != nil {
			years = fmt.Sprintf("%d–%d", r.YearRange[0], r.YearRange[1])
		}
		when := "unknown time"
		if t, ok := manifest.ParseTimestamp(r.ComputedAt); ok {
			when = humanize.RelTime(t, now, "ago", "from now")
		}
		fmt.Fprintf(&b, "    %s %s rows  %s  %s\n",
			titleStyle.Render(padRight(name, 14)),
			padRight(humanize.Comma(int64(r.RowCount)), 12),
			dimStyle.Render(padRight(years, 10)),
			faintStyle.Render(when),
		)
	}
	return b.String()
}
