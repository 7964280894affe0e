package cli

import (
	"github.com/spf13/cobra"

	"github.com/odagate/odagate/internal/domain"
)

func newDatasetCmd(a *app) *cobra.Command {
	var (
		dryRun  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "dataset <name> [release]",
		Short: "Validate a single catalog dataset",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := a.release(args[1:])
			if err != nil {
				return err
			}
			svcs, err := a.newServices(false)
			if err != nil {
				return err
			}
			r, err := svcs.validator.ValidateDataset(cmd.Context(), args[0], release, domain.ValidateOptions{UpdateManifests: !dryRun})
			if err != nil {
				return err
			}
			if err := printReport(cmd, r, "", jsonOut); err != nil {
				return err
			}
			return blocked(r)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without updating the manifest")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the report as JSON")

	return cmd
}

func newSeekCmd(a *app) *cobra.Command {
	var (
		dryRun  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "seek [release]",
		Short: "Run the SEEK purpose-code sector validation alone",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := a.release(args)
			if err != nil {
				return err
			}
			svcs, err := a.newServices(false)
			if err != nil {
				return err
			}
			r, err := svcs.validator.ValidateSeek(cmd.Context(), release, domain.ValidateOptions{UpdateManifests: !dryRun})
			if err != nil {
				return err
			}
			if err := printReport(cmd, r, "", jsonOut); err != nil {
				return err
			}
			return blocked(r)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without updating the SEEK manifest")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the report as JSON")

	return cmd
}
