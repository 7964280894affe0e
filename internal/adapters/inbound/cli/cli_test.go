package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	goparquet "github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odagate/odagate/internal/adapters/inbound/cli"
	"github.com/odagate/odagate/internal/domain"
)

const catalog = `datasets:
  - name: financing_view
    key_columns: [year, donor_code]
    required_columns: [year, donor_code, donor_name, value_usd_constant]
    critical_donors: [4]
seek:
  enabled: false
`

type row struct {
	Year      int64   `parquet:"year"`
	DonorCode int32   `parquet:"donor_code"`
	DonorName string  `parquet:"donor_name"`
	Value     float64 `parquet:"value_usd_constant"`
}

// newProject creates a project with a one-dataset catalog. When withData is
// false the dataset file is missing.
func newProject(t *testing.T, withData bool) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".odagate.yaml"), []byte(catalog), 0o644))
	if !withData {
		return dir
	}
	path := filepath.Join(dir, "data", "cache", "financing_view.parquet")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	fh, err := os.Create(path)
	require.NoError(t, err)
	w := goparquet.NewGenericWriter[row](fh)
	_, err = w.Write([]row{
		{Year: 2024, DonorCode: 4, DonorName: "France", Value: 100},
		{Year: 2024, DonorCode: 5, DonorName: "Germany", Value: 200},
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, fh.Close())
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "odagate dev")
}

func TestValidateCommand_PassingRelease(t *testing.T) {
	dir := newProject(t, true)

	out, err := run(t, "validate", "dec_2024", "--project", dir, "--csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Release dec_2024")
	assert.Contains(t, out, "PASSED")

	reports, err := filepath.Glob(filepath.Join(dir, "data", "reports", "validation_dec_2024_*"))
	require.NoError(t, err)
	assert.Len(t, reports, 2, "markdown and csv")
	assert.FileExists(t, filepath.Join(dir, "data", "manifests", "financing_view.json"))

	out, err = run(t, "history", "--project", dir, "--json")
	require.NoError(t, err)
	var entries []domain.RunEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "dec_2024", entries[0].Release)
	assert.True(t, entries[0].Passed)
}

func TestValidateCommand_DryRunJSON(t *testing.T) {
	dir := newProject(t, true)

	out, err := run(t, "validate", "dec_2024", "--project", dir, "--dry-run", "--no-report", "--json")
	require.NoError(t, err)

	var res domain.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Passed)
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.ReportPath)
	assert.NoFileExists(t, filepath.Join(dir, "data", "manifests", "financing_view.json"))
}

func TestValidateCommand_MissingDataFails(t *testing.T) {
	dir := newProject(t, false)

	out, err := run(t, "validate", "dec_2024", "--project", dir, "--no-report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing check")
	assert.Contains(t, out, "File not found")
}

func TestValidateCommand_RejectsBadRelease(t *testing.T) {
	_, err := run(t, "validate", "2024/12", "--project", newProject(t, true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path separator")
}

func TestDatasetCommand(t *testing.T) {
	dir := newProject(t, true)

	out, err := run(t, "dataset", "financing_view", "dec_2024", "--project", dir, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"financing_view"`)

	_, err = run(t, "dataset", "nope", "--project", dir)
	assert.ErrorIs(t, err, domain.ErrUnknownDataset)
}

func TestSeekCommand_MissingFileFails(t *testing.T) {
	out, err := run(t, "seek", "dec_2024", "--project", newProject(t, false), "--dry-run")
	require.Error(t, err)
	assert.Contains(t, out, "Failed to fetch SEEK data")
}

func TestManifestCommands(t *testing.T) {
	dir := newProject(t, true)

	_, err := run(t, "manifest", "show", "financing_view", "--project", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no manifest recorded")

	_, err = run(t, "dataset", "financing_view", "dec_2024", "--project", dir)
	require.NoError(t, err)

	out, err := run(t, "manifest", "list", "--project", dir)
	require.NoError(t, err)
	assert.Equal(t, "financing_view\n", out)

	out, err = run(t, "manifest", "show", "financing_view", "--project", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "donor_name")
	assert.Contains(t, out, "dec_2024")

	out, err = run(t, "manifest", "releases", "financing_view", "--project", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "dec_2024")
}

func TestSettings_EnvironmentIsValidated(t *testing.T) {
	t.Setenv("ODAGATE_RUN_PARALLELISM", "0")
	_, err := run(t, "validate", "--project", newProject(t, true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid settings")
}

func TestSettings_UnknownLogLevel(t *testing.T) {
	_, err := run(t, "version", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid settings")
}

func TestInitCmd_CreatesCatalog(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created .odagate.yaml")

	data, err := os.ReadFile(filepath.Join(dir, ".odagate.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "financing_view")
	assert.Contains(t, string(data), "sectors_view")

	_, err = run(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run(t, "init", dir, "--force")
	assert.NoError(t, err)
}
