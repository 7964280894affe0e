package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odagate/odagate/internal/adapters/outbound/tui"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent validation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}
			if jsonOut {
				return renderJSON(cmd, entries)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output runs as JSON")

	return cmd
}
