package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odagate/odagate/internal/adapters/outbound/tui"
	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/manifest"
)

func newManifestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect recorded release manifests",
	}
	cmd.AddCommand(newManifestListCmd(a))
	cmd.AddCommand(newManifestShowCmd(a))
	cmd.AddCommand(newManifestReleasesCmd(a))
	return cmd
}

func newManifestListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List datasets with a recorded manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := a.newServices(false)
			if err != nil {
				return err
			}
			names, err := svcs.manifests.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No manifests recorded.")
				return nil
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newManifestShowCmd(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <dataset>",
		Short: "Show a dataset's schema and releases",
		Long:  "Show a dataset's recorded schema and releases. The seek_sectors manifest is always printed as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := a.newServices(false)
			if err != nil {
				return err
			}
			if args[0] == domain.SeekDataset {
				sm, err := svcs.manifests.LoadSeek()
				if err != nil {
					return err
				}
				if sm == nil {
					return fmt.Errorf("no manifest recorded for %s", args[0])
				}
				return renderJSON(cmd, sm)
			}
			m, err := loadDatasetManifest(svcs, args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return renderJSON(cmd, m)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderManifest(m, a.now()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the manifest as JSON")
	return cmd
}

func newManifestReleasesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "releases <dataset>",
		Short: "List a dataset's recorded releases, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := a.newServices(false)
			if err != nil {
				return err
			}
			m, err := loadDatasetManifest(svcs, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderReleases(m, a.now()))
			return nil
		},
	}
}

func loadDatasetManifest(svcs *services, name string) (*manifest.Manifest, error) {
	m, err := svcs.manifests.Load(name)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("no manifest recorded for %s", name)
	}
	return m, nil
}
