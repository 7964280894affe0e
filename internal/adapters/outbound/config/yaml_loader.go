package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/odagate/odagate/internal/domain"
)

// FileName is the dataset catalog looked up in the project directory.
const FileName = ".odagate.yaml"

// YAMLLoader implements domain.ConfigLoader by reading .odagate.yaml.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads .odagate.yaml from projectPath.
// Returns DefaultConfig if the file does not exist. Keys present in the file
// replace the built-in values; absent keys keep them.
func (l *YAMLLoader) Load(projectPath string) (domain.Config, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultConfig(), nil
		}
		return domain.Config{}, err
	}
	return Parse(data)
}

// Parse decodes a catalog over the built-in defaults and validates it.
func Parse(data []byte) (domain.Config, error) {
	cfg := domain.DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return cfg, nil
}

const renderHeader = `# odagate dataset catalog
# Each dataset lists the columns that identify a row and the columns that must
# be present. Datasets without a file default to <name>.parquet in the cache
# directory, or <name>/ in the CDN directory when partitioned.

`

// Render encodes cfg as a .odagate.yaml document that Parse accepts.
func Render(cfg domain.Config) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", FileName, err)
	}
	return append([]byte(renderHeader), body...), nil
}
