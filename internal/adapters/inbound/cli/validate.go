package cli

import (
	"github.com/spf13/cobra"

	"github.com/odagate/odagate/internal/adapters/outbound/gitinfo"
	"github.com/odagate/odagate/internal/adapters/outbound/report"
	"github.com/odagate/odagate/internal/application"
	"github.com/odagate/odagate/internal/domain"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		dryRun   bool
		noReport bool
		csv      bool
		jsonOut  bool
		noSeek   bool
	)

	cmd := &cobra.Command{
		Use:   "validate [release]",
		Short: "Validate every catalog dataset for a release",
		Long: "Run the hard gates and anomaly detectors over every dataset in the catalog, " +
			"then the SEEK sector validation. Records the release in the manifests, writes a " +
			"markdown report and exits 1 when any check fails.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := a.release(args)
			if err != nil {
				return err
			}
			svcs, err := a.newServices(false)
			if err != nil {
				return err
			}

			var runs domain.RunHistory
			if db, err := a.openHistory(cmd.Context()); err != nil {
				log.Warnw("run history unavailable", "err", err)
			} else {
				defer db.Close()
				runs = db
			}

			runner := application.NewRunService(
				svcs.validator,
				report.NewWriter(svcs.fs, a.settings.Paths.ReportsDir),
				runs,
				gitinfo.New(),
			).WithClock(a.now)

			stop := startSpinner(jsonOut, "Validating "+release)
			res, err := runner.Run(cmd.Context(), domain.RunOptions{
				ValidateOptions: domain.ValidateOptions{
					UpdateManifests: !dryRun,
					IncludeSeek:     !noSeek,
				},
				Release:     release,
				SaveReport:  !noReport,
				ExportCSV:   csv,
				ProjectPath: a.settings.Project,
			})
			stop()
			if err != nil {
				return err
			}

			if jsonOut {
				if err := renderJSON(cmd, res); err != nil {
					return err
				}
			} else if err := printReport(cmd, res.Report, res.ReportPath, false); err != nil {
				return err
			}
			return blocked(res.Report)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without updating manifests")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "Do not write the markdown report")
	cmd.Flags().BoolVar(&csv, "csv", false, "Also export checks and warnings as CSV")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the run result as JSON")
	cmd.Flags().BoolVar(&noSeek, "no-seek", false, "Skip the SEEK sector validation")

	return cmd
}
