package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/odagate/odagate/internal/adapters/outbound/report"
	"github.com/odagate/odagate/internal/adapters/outbound/tui"
	"github.com/odagate/odagate/internal/domain"
)

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printReport writes the report as JSON or as the terminal summary.
func printReport(cmd *cobra.Command, r *domain.ValidationReport, path string, asJSON bool) error {
	if asJSON {
		return renderJSON(cmd, r)
	}
	fmt.Fprint(cmd.OutOrStdout(), tui.RenderReport(r, report.Status(r), path))
	return nil
}

// blocked returns the error a command exits with when r has failing checks.
func blocked(r *domain.ValidationReport) error {
	if !r.HasBlockingErrors() {
		return nil
	}
	return fmt.Errorf("release %s has %d failing check(s)", r.Release, len(r.FailedChecks()))
}

// startSpinner shows progress on an interactive terminal and returns the
// function that stops it.
func startSpinner(quiet bool, suffix string) func() {
	if quiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}
