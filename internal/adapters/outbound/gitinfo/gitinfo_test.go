package gitinfo_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odagate/odagate/internal/adapters/outbound/gitinfo"
)

func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{}"), 0644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("manifest.json")
	require.NoError(t, err)
	hash, err := wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@test.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestGitInfo_IsGitRepo(t *testing.T) {
	dir, _ := initRepo(t)
	gi := gitinfo.New()
	assert.True(t, gi.IsGitRepo(dir))
	assert.False(t, gi.IsGitRepo(t.TempDir()))
}

func TestGitInfo_CommitHash_ReturnsHash(t *testing.T) {
	dir, want := initRepo(t)

	hash, err := gitinfo.New().CommitHash(dir)
	require.NoError(t, err)
	assert.Len(t, hash, 40, "should be a full SHA-1 hash")
	assert.Equal(t, want, hash)
}

func TestGitInfo_CommitHash_FromSubdirectory(t *testing.T) {
	dir, want := initRepo(t)
	sub := filepath.Join(dir, "manifests")
	require.NoError(t, os.MkdirAll(sub, 0755))

	hash, err := gitinfo.New().CommitHash(sub)
	require.NoError(t, err)
	assert.Equal(t, want, hash)
}

func TestGitInfo_CommitHash_NotGitRepo(t *testing.T) {
	_, err := gitinfo.New().CommitHash(t.TempDir())
	assert.Error(t, err)
}

func TestGitInfo_IsDirty(t *testing.T) {
	dir, _ := initRepo(t)
	gi := gitinfo.New()

	dirty, err := gi.IsDirty(dir)
	require.NoError(t, err)
	assert.False(t, dirty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{"a":1}`), 0644))
	dirty, err = gi.IsDirty(dir)
	require.NoError(t, err)
	assert.True(t, dirty)
}
