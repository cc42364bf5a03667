package storage

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/solarclear/internal/log"
	"github.com/chrissnell/solarclear/internal/types"
)

// ProcessBatches provides a standard pattern for processing record batches
// from a channel. The processor's result is sent on the batch's Done channel.
func ProcessBatches(ctx context.Context, wg *sync.WaitGroup, batchChan <-chan types.RecordBatch, processor func(context.Context, types.RecordBatch) error, name string) {
	defer wg.Done()

	for {
		select {
		case b := <-batchChan:
			err := processor(ctx, b)
			if err != nil {
				log.Errorf("%s batch processor error: %v", name, err)
			}
			if b.Done != nil {
				b.Done <- err
			}
		case <-ctx.Done():
			log.Infof("cancellation request received. Cancelling %s batch processor", name)
			return
		}
	}
}

// StartEngine launches an engine's batch loop and returns its input channel
func StartEngine(ctx context.Context, wg *sync.WaitGroup, processor func(context.Context, types.RecordBatch) error, name string) chan<- types.RecordBatch {
	log.Infof("starting %s storage engine...", name)
	batchChan := make(chan types.RecordBatch, 1)
	wg.Add(1)
	go ProcessBatches(ctx, wg, batchChan, processor, name)
	return batchChan
}

// CreateHealthData creates a basic health data structure
func CreateHealthData(status, message string, err error) *HealthData {
	health := &HealthData{
		LastCheck: time.Now(),
		Status:    status,
		Message:   message,
	}

	if err != nil {
		health.Error = err.Error()
	}

	return health
}
