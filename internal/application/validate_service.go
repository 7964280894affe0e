package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"

	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/anomaly"
	"github.com/odagate/odagate/internal/domain/check"
	"github.com/odagate/odagate/internal/domain/frame"
	"github.com/odagate/odagate/internal/domain/manifest"
	"github.com/odagate/odagate/internal/domain/seek"
)

var log = logging.Logger("odagate/application")

// Settings locates the data a ValidateService reads.
type Settings struct {
	// CacheDir holds flat parquet files and, unless an absolute path is
	// configured, the SEEK file.
	CacheDir string
	// CDNDir holds hive-partitioned datasets.
	CDNDir string
	// Parallelism bounds how many datasets are validated at once.
	Parallelism int
}

// ValidateService runs the hard gates and anomaly detectors for a release:
// load data → hard gates → anomalies → manifest update.
type ValidateService struct {
	loader    domain.FrameLoader
	manifests domain.ManifestStore
	cfg       domain.Config
	settings  Settings
	now       func() time.Time
}

func NewValidateService(
	loader domain.FrameLoader,
	manifests domain.ManifestStore,
	cfg domain.Config,
	settings Settings,
) *ValidateService {
	if settings.Parallelism < 1 {
		settings.Parallelism = 1
	}
	return &ValidateService{
		loader:    loader,
		manifests: manifests,
		cfg:       cfg,
		settings:  settings,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for report and manifest timestamps.
func (s *ValidateService) WithClock(now func() time.Time) *ValidateService {
	s.now = now
	return s
}

// Config returns the catalog the service validates against.
func (s *ValidateService) Config() domain.Config { return s.cfg }

// ValidateDataset validates one catalog dataset. Data problems are reported
// as failing checks; the error is reserved for unknown datasets, context
// cancellation and manifest writes that fail.
func (s *ValidateService) ValidateDataset(ctx context.Context, name, release string, opts domain.ValidateOptions) (*domain.ValidationReport, error) {
	ds, err := s.cfg.Dataset(name)
	if err != nil {
		return nil, err
	}
	report := domain.NewValidationReport(release, s.now())
	if err := s.validateDataset(ctx, report, ds, release, opts.UpdateManifests); err != nil {
		return nil, err
	}
	return report, nil
}

// ValidateSeek runs the SEEK sector validation alone.
func (s *ValidateService) ValidateSeek(ctx context.Context, release string, opts domain.ValidateOptions) (*domain.ValidationReport, error) {
	report := domain.NewValidationReport(release, s.now())
	if err := s.validateSeek(ctx, report, release, opts.UpdateManifests); err != nil {
		return nil, err
	}
	return report, nil
}

// ValidateAll validates every catalog dataset and merges the results in
// catalog order, followed by SEEK when requested and enabled. One dataset's
// read failure does not stop the others.
func (s *ValidateService) ValidateAll(ctx context.Context, release string, opts domain.ValidateOptions) (*domain.ValidationReport, error) {
	combined := domain.NewValidationReport(release, s.now())

	reports := make([]*domain.ValidationReport, len(s.cfg.Datasets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Parallelism)
	for i, ds := range s.cfg.Datasets {
		g.Go(func() error {
			r := domain.NewValidationReport(release, combined.Timestamp)
			if err := s.validateDataset(gctx, r, ds, release, opts.UpdateManifests); err != nil {
				return fmt.Errorf("validating %s: %w", ds.Name, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, r := range reports {
		combined.Merge(r)
	}

	if opts.IncludeSeek && s.cfg.Seek.Enabled {
		r := domain.NewValidationReport(release, combined.Timestamp)
		if err := s.validateSeek(ctx, r, release, opts.UpdateManifests); err != nil {
			return nil, fmt.Errorf("validating SEEK: %w", err)
		}
		combined.Merge(r)
	}
	return combined, nil
}

func (s *ValidateService) source(ds domain.DatasetConfig) domain.Source {
	dir := s.settings.CacheDir
	if ds.Partitioned {
		dir = s.settings.CDNDir
	}
	return domain.Source{Path: filepath.Join(dir, ds.FileName()), Partitioned: ds.Partitioned}
}

func (s *ValidateService) validateDataset(ctx context.Context, report *domain.ValidationReport, ds domain.DatasetConfig, release string, update bool) error {
	src := s.source(ds)
	f, err := s.loader.Load(ctx, src)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, domain.ErrSourceNotFound) {
		kind := "File"
		if ds.Partitioned {
			kind = "Directory"
		}
		report.AddCheckResult(ds.Name, domain.CheckFileExists, domain.Fail(fmt.Sprintf("%s not found: %s", kind, src.Path)))
		return nil
	}
	report.AddCheckResult(ds.Name, domain.CheckFileExists, domain.Pass())
	if err != nil {
		report.AddCheckResult(ds.Name, domain.CheckParquetReadable, domain.Fail(fmt.Sprintf("Failed to read parquet: %v", err)))
		return nil
	}
	report.AddCheckResult(ds.Name, domain.CheckParquetReadable, domain.Pass())

	m, readable, err := s.loadManifest(report, ds.Name)
	if err != nil {
		return err
	}
	_, prev, _ := m.Previous(release)

	for _, g := range check.RunGates(f, check.GateParams{
		RequiredColumns: ds.RequiredColumns,
		KeyColumns:      ds.KeyColumns,
		MaxSaneValue:    s.cfg.MaxSaneValue,
		CriticalDonors:  s.cfg.CriticalDonorsFor(ds),
	}) {
		report.AddCheckResult(ds.Name, g.Name, g.Result)
	}

	report.AddWarnings(ds.Name, detectAnomalies(f, ds, prev, s.cfg.CriticalDonorsFor(ds)))

	if !update || !readable {
		return nil
	}
	m = manifest.Update(m, release, f, ds.Value(), ds.KeyColumns, s.now())
	m.Dataset = ds.Name
	if err := s.manifests.Save(m); err != nil {
		return fmt.Errorf("saving manifest %s: %w", ds.Name, err)
	}
	log.Debugw("manifest updated", "dataset", ds.Name, "release", release, "releases", len(m.Releases))
	return nil
}

// loadManifest returns the stored manifest. A manifest that fails validation
// is reported as a failing check and treated as unreadable, so it is neither
// compared against nor overwritten.
func (s *ValidateService) loadManifest(report *domain.ValidationReport, dataset string) (*manifest.Manifest, bool, error) {
	m, err := s.manifests.Load(dataset)
	if err == nil {
		return m, true, nil
	}
	if !errors.Is(err, domain.ErrInvalidManifest) {
		return nil, false, fmt.Errorf("loading manifest %s: %w", dataset, err)
	}
	report.AddCheckResult(dataset, domain.CheckManifestReadable, domain.Fail(err.Error()))
	return nil, false, nil
}

// detectAnomalies runs the warning detectors in report order. Comparisons
// against a previous release only run when one exists.
func detectAnomalies(f *frame.Frame, ds domain.DatasetConfig, prev *manifest.Release, critical []int) []domain.Warning {
	value := ds.Value()
	names := anomaly.DonorNames(f)
	var out []domain.Warning

	if latest, ok := f.MaxInt("year"); ok && latest != 0 {
		out = append(out, anomaly.YoY(f, latest, value)...)
	}

	if prev != nil {
		out = append(out, anomaly.ReleaseDrift(f, prev, anomaly.PreviousReleaseLabel, value)...)
		out = append(out, anomaly.RowCountChange(f.Len(), prev.RowCount, ds.Name, anomaly.RowCountThreshold)...)
		out = append(out, anomaly.NewOrRemovedCodes(f, prev)...)
		out = append(out, anomaly.IndicatorCoverageGaps(f, prev, value)...)
		out = append(out, anomaly.AgencyDrift(f, prev, value)...)
		out = append(out, anomaly.SectorDrift(f, prev, value, names)...)
	}

	out = append(out, anomaly.MissingExpectedData(f, anomaly.NamedDonors(critical, names), value)...)
	return out
}

func (s *ValidateService) seekSource() domain.Source {
	path := s.cfg.Seek.File
	if path == "" {
		path = domain.DefaultSeekConfig().File
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.settings.CacheDir, path)
	}
	return domain.Source{Path: path}
}

func (s *ValidateService) validateSeek(ctx context.Context, report *domain.ValidationReport, release string, update bool) error {
	f, err := s.loader.Load(ctx, s.seekSource())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		report.AddCheckResult(domain.SeekDataset, domain.CheckDataFetch, domain.Fail(fmt.Sprintf("Failed to fetch SEEK data: %v", err)))
		return nil
	}
	report.AddCheckResult(domain.SeekDataset, domain.CheckDataFetch, domain.Pass())

	if f.Len() == 0 {
		report.AddCheckResult(domain.SeekDataset, domain.CheckNotEmpty, domain.Fail("SEEK data is empty"))
		return nil
	}
	report.AddCheckResult(domain.SeekDataset, domain.CheckNotEmpty, domain.Pass())

	m, err := s.manifests.LoadSeek()
	readable := true
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidManifest) {
			return fmt.Errorf("loading SEEK manifest: %w", err)
		}
		report.AddCheckResult(domain.SeekDataset, domain.CheckManifestReadable, domain.Fail(err.Error()))
		m, readable = nil, false
	}

	p := seek.ParamsFrom(s.cfg.Seek)
	if _, prev, ok := m.Previous(release); ok {
		report.AddWarnings(domain.SeekDataset, seek.Run(f, seek.FromSnapshot(prev), anomaly.DonorNames(f), p))
	} else if readable {
		report.AddWarning(domain.Warning{Level: domain.LevelInfo, Dataset: domain.SeekDataset, Message: seek.BaselineMessage})
	}

	if !update || !readable {
		return nil
	}
	agg := seek.ComputeAggregates(f, p.HealthCodes, p.AgricultureCodes, p.ValueColumn)
	m = m.Put(release, agg.Snapshot(s.now()))
	if err := s.manifests.SaveSeek(m); err != nil {
		return fmt.Errorf("saving SEEK manifest: %w", err)
	}
	log.Debugw("SEEK manifest updated", "release", release, "releases", len(m.Releases))
	return nil
}
