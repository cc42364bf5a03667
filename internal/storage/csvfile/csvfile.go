// Package csvfile stores simulation records as a flat CSV file
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/chrissnell/solarclear/internal/csvio"
	"github.com/chrissnell/solarclear/internal/log"
	"github.com/chrissnell/solarclear/internal/storage"
	"github.com/chrissnell/solarclear/internal/types"
)

// Storage keeps one CSV file of records sorted by timestamp
type Storage struct {
	path string
	mu   sync.Mutex
}

// New returns a CSV storage writing to path. The parent directory must exist.
func New(path string) (*Storage, error) {
	dir := filepath.Dir(path)
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("CSV storage directory %s is not usable: %v", dir, err)
	}
	return &Storage{path: path}, nil
}

// Name identifies the backend in logs and health reports
func (s *Storage) Name() string {
	return "csv"
}

// StartStorageEngine starts the batch loop
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.RecordBatch {
	return storage.StartEngine(ctx, wg, s.StoreBatch, s.Name())
}

// StoreBatch merges the batch into the file, dropping existing rows inside
// the batch's time span. The file is rewritten through a temporary file and
// renamed into place.
func (s *Storage) StoreBatch(ctx context.Context, b types.RecordBatch) error {
	from, to, ok := b.Span()
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := csvio.ReadRecordsFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	merged := make([]types.SimulationRecord, 0, len(existing)+len(b.Records))
	for _, r := range existing {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			merged = append(merged, r)
		}
	}
	merged = append(merged, b.Records...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })

	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := csvio.WriteRecordsFile(tmp, merged); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("could not replace %s: %w", s.path, err)
	}

	log.Infow("stored simulation records", "backend", s.Name(), "run_id", b.RunID, "records", len(b.Records), "path", s.path)
	return nil
}

// CheckHealth reports whether the target directory is still writable
func (s *Storage) CheckHealth(ctx context.Context) *storage.HealthData {
	f, err := os.CreateTemp(filepath.Dir(s.path), ".solarclear-health-*")
	if err != nil {
		return storage.CreateHealthData("unhealthy", "CSV directory not writable", err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return storage.CreateHealthData("healthy", "CSV file writable: "+s.path, nil)
}
