package domain

import (
	"fmt"
	"strings"
	"time"
)

// ValidateOptions controls a validation run.
type ValidateOptions struct {
	// UpdateManifests records the current release into manifest history.
	// Disable for dry runs and CI preflight.
	UpdateManifests bool
	// IncludeSeek runs the SEEK sub-validator after the catalog datasets.
	IncludeSeek bool
}

// RunOptions extends ValidateOptions for the programmatic entry point.
type RunOptions struct {
	ValidateOptions
	Release    string
	SaveReport bool
	ExportCSV  bool
	// ProjectPath is inspected for git provenance.
	ProjectPath string
}

// DefaultReleaseName names a release after the month it was validated in.
func DefaultReleaseName(now time.Time) string {
	return now.Format("2006-01")
}

// CheckReleaseName rejects names that cannot be used in report file names.
func CheckReleaseName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("release name is empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("release name %q contains a path separator", name)
	}
	return nil
}
