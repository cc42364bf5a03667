package csvfile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrissnell/solarclear/internal/csvio"
	"github.com/chrissnell/solarclear/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreBatchMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset_final_analisis_pv.csv")
	s, err := New(path)
	require.NoError(t, err)

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	rec := func(h int, power float64) types.SimulationRecord {
		return types.SimulationRecord{Timestamp: base.Add(time.Duration(h) * time.Hour), SimulatedPowerWatt: power}
	}

	ctx := context.Background()
	require.NoError(t, s.StoreBatch(ctx, types.RecordBatch{Records: []types.SimulationRecord{rec(3, 3), rec(4, 4)}}))
	require.NoError(t, s.StoreBatch(ctx, types.RecordBatch{Records: []types.SimulationRecord{rec(0, 0), rec(1, 1), rec(3, 30)}}))

	got, err := csvio.ReadRecordsFile(path)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, []float64{0, 1, 30, 4}, []float64{
		got[0].SimulatedPowerWatt, got[1].SimulatedPowerWatt, got[2].SimulatedPowerWatt, got[3].SimulatedPowerWatt,
	})

	assert.Equal(t, "healthy", s.CheckHealth(ctx).Status)
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "out.csv"))
	assert.Error(t, err)
}
