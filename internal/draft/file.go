package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps one JSON file per user under dir.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("draft dir is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create draft dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory drafts are written to.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file holding uid's draft.
func (s *FileStore) Path(uid string) string {
	return filepath.Join(s.dir, fileName(uid))
}

func (s *FileStore) Load(_ context.Context, uid string) (*Draft, error) {
	d, err := readDraftFile(s.Path(uid))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("read draft %s: %w", uid, err)
	}
	return d, nil
}

// Save writes the draft atomically by writing to a temp file then renaming.
func (s *FileStore) Save(_ context.Context, d Draft) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path(d.UID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename to final path: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, uid string) error {
	if err := os.Remove(s.Path(uid)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete draft %s: %w", uid, err)
	}
	return nil
}

// List returns every readable draft, newest first. Malformed files are
// skipped.
func (s *FileStore) List(_ context.Context) ([]Draft, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read draft dir %s: %w", s.dir, err)
	}
	var out []Draft
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isDraftFile(name) {
			continue
		}
		d, err := readDraftFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		out = append(out, *d)
	}
	sortNewest(out)
	return out, nil
}

func isDraftFile(name string) bool {
	return strings.HasPrefix(name, "paciente-draft-") && strings.HasSuffix(name, ".json")
}

func readDraftFile(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func sortNewest(ds []Draft) {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].SavedAt.After(ds[j].SavedAt) })
}
