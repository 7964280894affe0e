package report

import (
	"fmt"
	"path/filepath"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/jszwec/csvutil"
	"github.com/spf13/afero"

	"github.com/odagate/odagate/internal/domain"
)

var log = logging.Logger("odagate/report")

// Writer implements domain.ReportWriter on an afero filesystem.
type Writer struct {
	fs  afero.Fs
	dir string
}

func NewWriter(fsys afero.Fs, dir string) *Writer {
	return &Writer{fs: fsys, dir: dir}
}

// Save writes the markdown report and returns its path.
func (w *Writer) Save(r *domain.ValidationReport) (string, error) {
	return w.write(FileName(r, ".md"), []byte(Markdown(r)))
}

// Row is one line of the CSV export: a check result or a warning.
type Row struct {
	Kind    string `csv:"kind"`
	Dataset string `csv:"dataset"`
	Name    string `csv:"name"`
	Level   string `csv:"level"`
	Status  string `csv:"status"`
	Message string `csv:"message"`
}

// Rows flattens a report into export rows, checks first.
func Rows(r *domain.ValidationReport) []Row {
	var rows []Row
	for _, c := range r.Checks() {
		status := "pass"
		if !c.Result.Passed {
			status = "fail"
		}
		rows = append(rows, Row{
			Kind:    "check",
			Dataset: c.Dataset,
			Name:    c.Check,
			Status:  status,
			Message: strings.Join(c.Result.Errors, "; "),
		})
	}
	for _, wn := range r.Warnings {
		rows = append(rows, Row{
			Kind:    "warning",
			Dataset: wn.Dataset,
			Level:   string(wn.Level),
			Message: wn.Message,
		})
	}
	return rows
}

// SaveCSV writes the CSV export next to the markdown report.
func (w *Writer) SaveCSV(r *domain.ValidationReport) (string, error) {
	rows := Rows(r)
	if rows == nil {
		rows = []Row{}
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encoding csv: %w", err)
	}
	return w.write(FileName(r, ".csv"), data)
}

func (w *Writer) write(name string, data []byte) (string, error) {
	if err := w.fs.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("creating reports dir: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := afero.WriteFile(w.fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	log.Debugw("report written", "path", path)
	return path, nil
}
