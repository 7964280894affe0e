package cli

import (
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/mitchellh/go-wordwrap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logging.Logger("odagate/cli")

var (
	version = "dev"
	commit  = "none"
)

// app carries state shared by every command of one root: the viper
// instance its flags are bound to and the settings resolved before a
// command runs.
type app struct {
	v        *viper.Viper
	settings Settings
	now      func() time.Time
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), now: time.Now}

	cmd := &cobra.Command{
		Use:   "odagate",
		Short: "Validate ODA statistics releases before they are published",
		Long: wordwrap.WrapString("odagate runs hard-gate checks and anomaly detection over the "+
			"parquet datasets behind an ODA statistics release, compares them with the manifests "+
			"recorded for earlier releases and writes a markdown report. It exits non-zero when a "+
			"release has blocking errors.", 78),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd, a.v)
			if err != nil {
				return err
			}
			a.settings = s
			return nil
		},
	}
	bindFlags(cmd, a.v)

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newValidateCmd(a))
	cmd.AddCommand(newDatasetCmd(a))
	cmd.AddCommand(newSeekCmd(a))
	cmd.AddCommand(newManifestCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newMCPCmd(a))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
