// Package manifeststore persists release manifests as JSON files.
package manifeststore

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/afero"

	"github.com/odagate/odagate/internal/domain/manifest"
)

var log = logging.Logger("odagate/manifeststore")

// SeekFile is the fixed file name of the SEEK manifest.
const SeekFile = manifest.SeekName + ".json"

// Store implements domain.ManifestStore with one {dataset}.json per dataset
// under a single directory.
type Store struct {
	fs  afero.Fs
	dir string
}

func New(fsys afero.Fs, dir string) *Store {
	return &Store{fs: fsys, dir: dir}
}

// Dir returns the manifests directory.
func (s *Store) Dir() string { return s.dir }

// Load reads a dataset manifest. Returns (nil, nil) if none has been saved.
func (s *Store) Load(dataset string) (*manifest.Manifest, error) {
	data, err := s.read(dataset + ".json")
	if err != nil || data == nil {
		return nil, err
	}
	m, err := manifest.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("loading manifest %s: %w", dataset, err)
	}
	return m, nil
}

// Save writes a dataset manifest, creating the directory as needed.
func (s *Store) Save(m *manifest.Manifest) error {
	if m == nil || m.Dataset == "" {
		return fmt.Errorf("saving manifest: dataset name is empty")
	}
	return s.write(m.Dataset+".json", m)
}

// LoadSeek reads the SEEK manifest. Returns (nil, nil) if none has been saved.
func (s *Store) LoadSeek() (*manifest.SeekManifest, error) {
	data, err := s.read(SeekFile)
	if err != nil || data == nil {
		return nil, err
	}
	m, err := manifest.DecodeSeek(data)
	if err != nil {
		return nil, fmt.Errorf("loading SEEK manifest: %w", err)
	}
	return m, nil
}

func (s *Store) SaveSeek(m *manifest.SeekManifest) error {
	if m == nil {
		return fmt.Errorf("saving SEEK manifest: manifest is nil")
	}
	return s.write(SeekFile, m)
}

// List returns the names of saved dataset manifests, sorted. The SEEK
// manifest is not included.
func (s *Store) List() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing manifests: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || name == SeekFile {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) read(name string) ([]byte, error) {
	path := filepath.Join(s.dir, name)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil // first run
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// write replaces the file through a temporary sibling so a failed write
// never leaves a truncated manifest behind.
func (s *Store) write(name string, v any) error {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating manifests dir: %w", err)
	}
	data, err := manifest.Encode(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	log.Debugw("manifest saved", "path", path, "bytes", len(data))
	return nil
}
