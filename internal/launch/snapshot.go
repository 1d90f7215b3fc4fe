package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNoSnapshot is returned by LoadLatest when the directory holds no snapshot.
var ErrNoSnapshot = errors.New("no launch snapshot found")

// Snapshots keeps copies of remotely fetched launch CSVs on disk so a later
// start can proceed when the remote source is unreachable.
type Snapshots struct {
	dir      string
	maxFiles int
}

// NewSnapshots stores files in dir and keeps at most maxFiles of them.
func NewSnapshots(dir string, maxFiles int) *Snapshots {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Snapshots{
		dir:      dir,
		maxFiles: maxFiles,
	}
}

// Dir returns the snapshot directory.
func (s *Snapshots) Dir() string {
	return s.dir
}

// Write saves data to a timestamped file and prunes the oldest files beyond maxFiles.
func (s *Snapshots) Write(data []byte, ts time.Time) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("launches_%d.csv", ts.Unix()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return s.prune()
}

// LoadLatest reads the newest snapshot and returns its data and timestamp.
func (s *Snapshots) LoadLatest() ([]byte, time.Time, error) {
	files, err := s.list()
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(files) == 0 {
		return nil, time.Time{}, ErrNoSnapshot
	}

	latest := files[len(files)-1]
	data, err := os.ReadFile(filepath.Join(s.dir, latest.name))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading snapshot: %w", err)
	}
	return data, latest.ts, nil
}

type snapshotFile struct {
	name string
	ts   time.Time
}

// list returns snapshot files sorted oldest first.
func (s *Snapshots) list() ([]snapshotFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing snapshot dir: %w", err)
	}

	var files []snapshotFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "launches_") || !strings.HasSuffix(name, ".csv") {
			continue
		}
		unix, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, "launches_"), ".csv"), 10, 64)
		if err != nil {
			continue
		}
		files = append(files, snapshotFile{name: name, ts: time.Unix(unix, 0)})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ts.Before(files[j].ts)
	})
	return files, nil
}

func (s *Snapshots) prune() error {
	files, err := s.list()
	if err != nil {
		return err
	}
	if len(files) <= s.maxFiles {
		return nil
	}

	for _, f := range files[:len(files)-s.maxFiles] {
		if err := os.Remove(filepath.Join(s.dir, f.name)); err != nil {
			return fmt.Errorf("pruning snapshot %s: %w", f.name, err)
		}
	}
	return nil
}
