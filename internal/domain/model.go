package domain

import "time"

// CheckResult is the outcome of one hard-gate check. Passed is expected to
// equal len(Errors) == 0; constructors below keep the two consistent.
type CheckResult struct {
	Passed bool     `json:"passed"`
	Errors []string `json:"errors,omitempty"`
}

// Pass returns a passing result.
func Pass() CheckResult { return CheckResult{Passed: true} }

// Fail returns a failing result carrying the given errors.
func Fail(errs ...string) CheckResult { return CheckResult{Passed: false, Errors: errs} }

// ResultOf passes when errs is empty.
func ResultOf(errs []string) CheckResult {
	return CheckResult{Passed: len(errs) == 0, Errors: errs}
}

// Combine ANDs the pass flags and concatenates errors in input order.
func Combine(results ...CheckResult) CheckResult {
	out := CheckResult{Passed: true}
	for _, r := range results {
		out.Passed = out.Passed && r.Passed
		out.Errors = append(out.Errors, r.Errors...)
	}
	return out
}

// Check names as they appear in reports.
const (
	CheckFileExists         = "file_exists"
	CheckParquetReadable    = "parquet_readable"
	CheckManifestReadable   = "manifest_readable"
	CheckSchema             = "schema"
	CheckNotEmpty           = "not_empty"
	CheckNoDuplicateKeys    = "no_duplicate_keys"
	CheckValuesPopulated    = "value_columns_populated"
	CheckValueBounds        = "value_bounds"
	CheckNameMappings       = "name_mappings"
	CheckCriticalDimensions = "critical_dimensions"
	CheckDataFetch          = "data_fetch"
)

// Level ranks a warning.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelInfo   Level = "info"
)

// Levels lists warning levels from most to least severe.
var Levels = []Level{LevelHigh, LevelMedium, LevelInfo}

// Warning is a non-blocking observation. Detectors leave Dataset empty; the
// orchestrator tags it.
type Warning struct {
	Level   Level  `json:"level"`
	Dataset string `json:"dataset"`
	Message string `json:"message"`
}

// NamedCheck is a check result with its location in the report.
type NamedCheck struct {
	Dataset string      `json:"dataset"`
	Check   string      `json:"check"`
	Result  CheckResult `json:"result"`
}

// ValidationReport aggregates one release run. It is transient: only the
// rendered markdown and the manifests are persisted.
type ValidationReport struct {
	Release      string                            `json:"release"`
	Timestamp    time.Time                         `json:"timestamp"`
	CheckResults map[string]map[string]CheckResult `json:"check_results"`
	Warnings     []Warning                         `json:"warnings"`

	order []checkRef
}

type checkRef struct{ dataset, check string }

func NewValidationReport(release string, ts time.Time) *ValidationReport {
	return &ValidationReport{
		Release:      release,
		Timestamp:    ts,
		CheckResults: make(map[string]map[string]CheckResult),
	}
}

// AddCheckResult records a result. Re-adding a name replaces the earlier
// result but keeps its position.
func (r *ValidationReport) AddCheckResult(dataset, check string, result CheckResult) {
	if r.CheckResults == nil {
		r.CheckResults = make(map[string]map[string]CheckResult)
	}
	checks, ok := r.CheckResults[dataset]
	if !ok {
		checks = make(map[string]CheckResult)
		r.CheckResults[dataset] = checks
	}
	if _, exists := checks[check]; !exists {
		r.order = append(r.order, checkRef{dataset, check})
	}
	checks[check] = result
}

func (r *ValidationReport) AddWarning(w Warning) {
	r.Warnings = append(r.Warnings, w)
}

// AddWarnings appends detector output, tagging any untagged warning with dataset.
func (r *ValidationReport) AddWarnings(dataset string, ws []Warning) {
	for _, w := range ws {
		if w.Dataset == "" {
			w.Dataset = dataset
		}
		r.AddWarning(w)
	}
}

// HasBlockingErrors reports whether any check failed.
func (r *ValidationReport) HasBlockingErrors() bool {
	for _, checks := range r.CheckResults {
		for _, res := range checks {
			if !res.Passed {
				return true
			}
		}
	}
	return false
}

// Checks returns every check result in insertion order.
func (r *ValidationReport) Checks() []NamedCheck {
	out := make([]NamedCheck, 0, len(r.order))
	seen := make(map[checkRef]bool, len(r.order))
	for _, ref := range r.order {
		out = append(out, NamedCheck{Dataset: ref.dataset, Check: ref.check, Result: r.CheckResults[ref.dataset][ref.check]})
		seen[ref] = true
	}
	// Results assigned directly to the map (e.g. decoded from JSON) have no
	// recorded order; append them after the ordered ones.
	for _, ds := range sortedKeys(r.CheckResults) {
		for _, name := range sortedKeys(r.CheckResults[ds]) {
			if !seen[checkRef{ds, name}] {
				out = append(out, NamedCheck{Dataset: ds, Check: name, Result: r.CheckResults[ds][name]})
			}
		}
	}
	return out
}

// FailedChecks returns only the failing results, in insertion order.
func (r *ValidationReport) FailedChecks() []NamedCheck {
	var out []NamedCheck
	for _, c := range r.Checks() {
		if !c.Result.Passed {
			out = append(out, c)
		}
	}
	return out
}

func (r *ValidationReport) WarningsByLevel(level Level) []Warning {
	var out []Warning
	for _, w := range r.Warnings {
		if w.Level == level {
			out = append(out, w)
		}
	}
	return out
}

// Summary counts warnings per level.
func (r *ValidationReport) Summary() WarningSummary {
	var s WarningSummary
	for _, w := range r.Warnings {
		switch w.Level {
		case LevelHigh:
			s.High++
		case LevelMedium:
			s.Medium++
		case LevelInfo:
			s.Info++
		}
	}
	return s
}

// Merge folds another report's checks and warnings into r, preserving order.
func (r *ValidationReport) Merge(other *ValidationReport) {
	if other == nil {
		return
	}
	for _, c := range other.Checks() {
		r.AddCheckResult(c.Dataset, c.Check, c.Result)
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// WarningSummary counts warnings by level.
type WarningSummary struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Info   int `json:"info"`
}

// RunResult is the outcome of the programmatic entry point.
type RunResult struct {
	RunID      string            `json:"run_id"`
	Passed     bool              `json:"passed"`
	Report     *ValidationReport `json:"report"`
	ReportPath string            `json:"report_path,omitempty"`
	CSVPath    string            `json:"csv_path,omitempty"`
	Summary    WarningSummary    `json:"summary"`
	CommitHash string            `json:"commit_hash,omitempty"`
	Dirty      bool              `json:"dirty,omitempty"`
}

// ExitCode follows the CI convention: non-zero when blocking errors exist.
func (r *RunResult) ExitCode() int {
	if r.Passed {
		return 0
	}
	return 1
}

// RunEntry is one row of persisted run history.
type RunEntry struct {
	RunID      string    `json:"run_id" db:"run_id"`
	Release    string    `json:"release" db:"release"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
	Passed     bool      `json:"passed" db:"passed"`
	High       int       `json:"high" db:"high"`
	Medium     int       `json:"medium" db:"medium"`
	Info       int       `json:"info" db:"info"`
	ReportPath string    `json:"report_path,omitempty" db:"report_path"`
	CommitHash string    `json:"commit_hash,omitempty" db:"commit_hash"`
	Dirty      bool      `json:"dirty" db:"dirty"`
}
