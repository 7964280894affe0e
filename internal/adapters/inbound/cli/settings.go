package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	logging "github.com/ipfs/go-log/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Settings are the runtime options resolved from flags, ODAGATE_* variables
// and odagate-config.yaml, in that order of precedence.
type Settings struct {
	Project string       `mapstructure:"project" validate:"required"`
	Paths   PathSettings `mapstructure:"paths"`
	Run     RunSettings  `mapstructure:"run"`
	Log     LogSettings  `mapstructure:"log"`
}

// PathSettings locate data relative to the project directory unless absolute.
type PathSettings struct {
	CacheDir     string `mapstructure:"cache_dir"     validate:"required"`
	CDNDir       string `mapstructure:"cdn_dir"       validate:"required"`
	ManifestsDir string `mapstructure:"manifests_dir" validate:"required"`
	ReportsDir   string `mapstructure:"reports_dir"   validate:"required"`
	HistoryDB    string `mapstructure:"history_db"    validate:"required"`
}

type RunSettings struct {
	Parallelism int `mapstructure:"parallelism" validate:"min=1,max=64"`
}

type LogSettings struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

const (
	envPrefix       = "ODAGATE"
	configName      = "odagate-config"
	logSubsystems   = "odagate/.*"
	defaultLogLevel = "warn"
	defaultHistory  = ".odagate/history.db"
)

// bindFlags registers the persistent runtime flags and binds them to v.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	pf := cmd.PersistentFlags()
	pf.String("config", "", "Path to odagate-config.yaml")
	pf.String("project", ".", "Project directory holding .odagate.yaml")
	pf.String("cache-dir", "data/cache", "Directory of flat parquet files and the SEEK file")
	pf.String("cdn-dir", "data/cdn", "Directory of hive-partitioned datasets")
	pf.String("manifests-dir", "data/manifests", "Directory of release manifests")
	pf.String("reports-dir", "data/reports", "Directory validation reports are written to")
	pf.String("history-db", defaultHistory, "SQLite database of past runs")
	pf.Int("parallelism", 1, "Datasets validated concurrently")
	pf.String("log-level", defaultLogLevel, "Log level (debug, info, warn, error)")

	for key, flag := range map[string]string{
		"project":             "project",
		"paths.cache_dir":     "cache-dir",
		"paths.cdn_dir":       "cdn-dir",
		"paths.manifests_dir": "manifests-dir",
		"paths.reports_dir":   "reports-dir",
		"paths.history_db":    "history-db",
		"run.parallelism":     "parallelism",
		"log.level":           "log-level",
	} {
		cobra.CheckErr(v.BindPFlag(key, pf.Lookup(flag)))
	}
}

// loadSettings reads .env, the optional config file and the environment into
// validated Settings, and applies the log level.
func loadSettings(cmd *cobra.Command, v *viper.Viper) (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("loading .env: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "odagate"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	if err := validate.Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	if err := logging.SetLogLevelRegex(logSubsystems, s.Log.Level); err != nil {
		return Settings{}, fmt.Errorf("setting log level: %w", err)
	}
	return s.resolve()
}

// resolve makes the project absolute and anchors relative paths to it.
func (s Settings) resolve() (Settings, error) {
	project, err := filepath.Abs(s.Project)
	if err != nil {
		return Settings{}, fmt.Errorf("resolving project path: %w", err)
	}
	s.Project = project
	for _, p := range []*string{&s.Paths.CacheDir, &s.Paths.CDNDir, &s.Paths.ManifestsDir, &s.Paths.ReportsDir, &s.Paths.HistoryDB} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(project, *p)
		}
	}
	return s, nil
}
