package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odagate/odagate/internal/domain"
)

// RunService is the programmatic entry point used by CI: validate a release,
// persist the report and record the outcome.
type RunService struct {
	validator *ValidateService
	reports   domain.ReportWriter
	history   domain.RunHistory
	git       domain.GitInfo
	now       func() time.Time
}

// NewRunService wires the collaborators of a run. reports, history and git
// are optional; a nil collaborator skips its step.
func NewRunService(validator *ValidateService, reports domain.ReportWriter, history domain.RunHistory, git domain.GitInfo) *RunService {
	return &RunService{
		validator: validator,
		reports:   reports,
		history:   history,
		git:       git,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for release defaults and history.
func (s *RunService) WithClock(now func() time.Time) *RunService {
	s.now = now
	return s
}

// Run validates every dataset for the release. The returned result carries
// the report and the pass/fail outcome; an error means the run itself could
// not complete.
func (s *RunService) Run(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error) {
	started := s.now()
	release := opts.Release
	if release == "" {
		release = domain.DefaultReleaseName(started)
	}
	if err := domain.CheckReleaseName(release); err != nil {
		return nil, err
	}

	res := &domain.RunResult{RunID: uuid.NewString()}
	log.Infow("validating release", "release", release, "run_id", res.RunID, "update_manifests", opts.UpdateManifests)

	report, err := s.validator.ValidateAll(ctx, release, opts.ValidateOptions)
	if err != nil {
		return nil, fmt.Errorf("validating release %s: %w", release, err)
	}
	res.Report = report
	res.Passed = !report.HasBlockingErrors()
	res.Summary = report.Summary()

	if s.reports != nil && opts.SaveReport {
		path, err := s.reports.Save(report)
		if err != nil {
			return nil, fmt.Errorf("saving report: %w", err)
		}
		res.ReportPath = path
		log.Infow("report saved", "path", path)
	}
	if s.reports != nil && opts.ExportCSV {
		path, err := s.reports.SaveCSV(report)
		if err != nil {
			return nil, fmt.Errorf("exporting csv: %w", err)
		}
		res.CSVPath = path
		log.Infow("csv exported", "path", path)
	}

	if s.git != nil && opts.ProjectPath != "" && s.git.IsGitRepo(opts.ProjectPath) {
		if hash, err := s.git.CommitHash(opts.ProjectPath); err == nil {
			res.CommitHash = hash
		}
		if dirty, err := s.git.IsDirty(opts.ProjectPath); err == nil {
			res.Dirty = dirty
		}
	}

	logOutcome(res)

	if s.history != nil {
		entry := domain.RunEntry{
			RunID:      res.RunID,
			Release:    release,
			StartedAt:  started,
			FinishedAt: s.now(),
			Passed:     res.Passed,
			High:       res.Summary.High,
			Medium:     res.Summary.Medium,
			Info:       res.Summary.Info,
			ReportPath: res.ReportPath,
			CommitHash: res.CommitHash,
			Dirty:      res.Dirty,
		}
		if err := s.history.Record(ctx, entry); err != nil {
			log.Warnw("recording run history failed", "run_id", res.RunID, "err", err)
		}
	}
	return res, nil
}

func logOutcome(res *domain.RunResult) {
	switch {
	case !res.Passed:
		failed := res.Report.FailedChecks()
		log.Errorw("validation failed", "release", res.Report.Release, "failed_checks", len(failed))
		for _, c := range failed {
			for _, e := range c.Result.Errors {
				log.Errorf("  %s/%s: %s", c.Dataset, c.Check, e)
			}
		}
	case res.Summary.High > 0:
		log.Warnw("validation passed with warnings", "release", res.Report.Release, "high", res.Summary.High, "medium", res.Summary.Medium)
	default:
		log.Infow("validation passed", "release", res.Report.Release, "medium", res.Summary.Medium, "info", res.Summary.Info)
	}
}
