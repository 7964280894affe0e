package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mitchellh/go-wordwrap"

	"github.com/odagate/odagate/internal/domain"
)

// ── warm palette ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
	info    = lipgloss.Color("#8B949E") // soft blue-gray
)

const messageWidth = 76

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	highTagStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
	medTagStyle   = lipgloss.NewStyle().Foreground(warning).Bold(true)
	infoTagStyle  = lipgloss.NewStyle().Foreground(info)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	datasetStyle  = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderReport formats a validation report for terminal output. path is the
// saved markdown report, or empty when none was written.
func RenderReport(r *domain.ValidationReport, status, path string) string {
	var b strings.Builder

	// ── Header ──
	title := headerStyle.Render("odagate")
	subtitle := dimStyle.Render("Release " + r.Release)
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + statusStyle(r).Render(status)))
	b.WriteString("\n\n")

	// ── Hard gates ──
	b.WriteString("  " + titleStyle.Render("Hard Gates") + "\n\n")
	for _, g := range groupChecks(r.Checks()) {
		renderDatasetGates(&b, g)
	}

	b.WriteString("\n")
	b.WriteString("  " + separatorLine)
	b.WriteString("\n\n")

	// ── Warnings ──
	s := r.Summary()
	if len(r.Warnings) == 0 {
		b.WriteString("  " + passStyle.Render("No warnings.") + "\n")
	} else {
		b.WriteString("  " + titleStyle.Render("Warnings") + "  ")
		if s.High > 0 {
			b.WriteString(highTagStyle.Render(fmt.Sprintf("%d high", s.High)) + "  ")
		}
		if s.Medium > 0 {
			b.WriteString(medTagStyle.Render(fmt.Sprintf("%d medium", s.Medium)) + "  ")
		}
		if s.Info > 0 {
			b.WriteString(infoTagStyle.Render(fmt.Sprintf("%d info", s.Info)))
		}
		b.WriteString("\n\n")
		for _, level := range domain.Levels {
			for _, w := range r.WarningsByLevel(level) {
				renderWarning(&b, w)
			}
		}
	}

	if path != "" {
		b.WriteString("\n  " + dimStyle.Render("Report: "+path) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

type datasetGates struct {
	dataset string
	checks  []domain.NamedCheck
}

func groupChecks(checks []domain.NamedCheck) []datasetGates {
	var out []datasetGates
	index := make(map[string]int)
	for _, c := range checks {
		i, ok := index[c.Dataset]
		if !ok {
			i = len(out)
			index[c.Dataset] = i
			out = append(out, datasetGates{dataset: c.Dataset})
		}
		out[i].checks = append(out[i].checks, c)
	}
	return out
}

func renderDatasetGates(b *strings.Builder, g datasetGates) {
	passed := 0
	for _, c := range g.checks {
		if c.Result.Passed {
			passed++
		}
	}
	icon := passStyle.Render("●")
	if passed < len(g.checks) {
		icon = failStyle.Render("●")
	}
	counts := dimStyle.Render(fmt.Sprintf("%d/%d passed", passed, len(g.checks)))
	fmt.Fprintf(b, "    %s %s %s\n", icon, datasetStyle.Render(padRight(g.dataset, 24)), counts)

	for _, c := range g.checks {
		if c.Result.Passed {
			continue
		}
		fmt.Fprintf(b, "        %s %s\n", failStyle.Render("✗"), c.Check)
		for _, e := range c.Result.Errors {
			writeWrapped(b, e, "          ", dimStyle)
		}
	}
}

func renderWarning(b *strings.Builder, w domain.Warning) {
	fmt.Fprintf(b, "    %s %s\n", levelTag(w.Level), dimStyle.Render(w.Dataset))
	writeWrapped(b, w.Message, "           ", lipgloss.NewStyle())
}

func writeWrapped(b *strings.Builder, text, indent string, style lipgloss.Style) {
	for _, line := range strings.Split(wordwrap.WrapString(text, messageWidth), "\n") {
		b.WriteString(indent + style.Render(line) + "\n")
	}
}

func levelTag(level domain.Level) string {
	switch level {
	case domain.LevelHigh:
		return highTagStyle.Render("high  ")
	case domain.LevelMedium:
		return medTagStyle.Render("medium")
	default:
		return infoTagStyle.Render("info  ")
	}
}

func statusStyle(r *domain.ValidationReport) lipgloss.Style {
	s := r.Summary()
	style := lipgloss.NewStyle().Bold(true)
	switch {
	case r.HasBlockingErrors():
		return style.Foreground(danger)
	case s.High > 0 || s.Medium > 0:
		return style.Foreground(warning)
	case s.Info > 0:
		return style.Foreground(info)
	default:
		return style.Foreground(success)
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// RenderHistory formats recorded runs, newest first.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No validation runs recorded.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Run History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 60)) + "\n\n")

	for _, e := range entries {
		hash := e.CommitHash
		if len(hash) > 7 {
			hash = hash[:7]
		}
		if hash == "" {
			hash = "·······"
		}
		if e.Dirty {
			hash += "*"
		} else {
			hash += " "
		}

		verdict := passStyle.Render("PASS")
		if !e.Passed {
			verdict = failStyle.Render("FAIL")
		}

		line := fmt.Sprintf("  %s  %s  %s  %s  %s",
			dimStyle.Render(e.StartedAt.Format("2006-01-02 15:04")),
			faintStyle.Render(hash),
			padRight(e.Release, 12),
			verdict,
			dimStyle.Render(fmt.Sprintf("%dh %dm %di", e.High, e.Medium, e.Info)),
		)
		if d := e.FinishedAt.Sub(e.StartedAt); d > 0 {
			line += "  " + faintStyle.Render(d.Round(time.Second).String())
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}
