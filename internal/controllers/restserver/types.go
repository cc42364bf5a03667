package restserver

import (
	"context"
	"sync"

	"github.com/chrissnell/solarclear/internal/analysis"
	"github.com/chrissnell/solarclear/internal/storage"
	"github.com/chrissnell/solarclear/internal/types"
)

// RecordSource supplies the records served by the API
type RecordSource interface {
	Latest(ctx context.Context) (runID string, records []types.SimulationRecord, err error)
}

// LatestRun holds the most recent run in memory
type LatestRun struct {
	mu      sync.RWMutex
	runID   string
	records []types.SimulationRecord
}

// Set replaces the held run
func (l *LatestRun) Set(runID string, records []types.SimulationRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runID = runID
	l.records = records
}

// Latest implements RecordSource
func (l *LatestRun) Latest(_ context.Context) (string, []types.SimulationRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.runID, l.records, nil
}

// RecordsResponse is the body of GET /api/v1/records
type RecordsResponse struct {
	RunID   string                   `json:"run_id,omitempty"`
	Count   int                      `json:"count"`
	Records []types.SimulationRecord `json:"records"`
}

// SummaryResponse is the body of GET /api/v1/summary
type SummaryResponse struct {
	RunID string `json:"run_id,omitempty"`
	analysis.Summary
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status  string                        `json:"status"`
	Storage map[string]storage.HealthData `json:"storage,omitempty"`
}
