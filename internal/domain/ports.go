package domain

import (
	"context"
	"errors"

	"github.com/odagate/odagate/internal/domain/frame"
	"github.com/odagate/odagate/internal/domain/manifest"
)

var (
	// ErrSourceNotFound marks a dataset location that does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrUnknownDataset marks a dataset name missing from the catalog.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrInvalidManifest is re-exported so callers need not import manifest.
	ErrInvalidManifest = manifest.ErrInvalid
)

// Source locates a dataset on disk.
type Source struct {
	Path        string
	Partitioned bool
}

// FrameLoader reads a dataset into memory. A missing location yields an
// error wrapping ErrSourceNotFound.
type FrameLoader interface {
	Load(ctx context.Context, src Source) (*frame.Frame, error)
}

// ManifestStore persists per-dataset manifests and the SEEK manifest.
// Load methods return (nil, nil) when nothing has been saved yet.
type ManifestStore interface {
	Load(dataset string) (*manifest.Manifest, error)
	Save(m *manifest.Manifest) error
	LoadSeek() (*manifest.SeekManifest, error)
	SaveSeek(m *manifest.SeekManifest) error
	List() ([]string, error)
}

// ReportWriter persists rendered reports and returns the written path.
type ReportWriter interface {
	Save(r *ValidationReport) (string, error)
	SaveCSV(r *ValidationReport) (string, error)
}

// RunHistory records programmatic runs.
type RunHistory interface {
	Record(ctx context.Context, e RunEntry) error
	List(ctx context.Context, limit int) ([]RunEntry, error)
}

// GitInfo provides provenance for the data repository.
type GitInfo interface {
	IsGitRepo(path string) bool
	CommitHash(path string) (string, error)
	IsDirty(path string) (bool, error)
}

// ConfigLoader loads the dataset catalog for a project directory.
type ConfigLoader interface {
	Load(projectPath string) (Config, error)
}
