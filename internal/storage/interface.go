// Package storage defines the interface implemented by simulation record
// storage backends.
package storage

import (
	"context"
	"sync"

	"github.com/chrissnell/solarclear/internal/types"
)

// StorageEngineInterface is an interface that provides a few standardized
// methods for various storage backends
type StorageEngineInterface interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- types.RecordBatch
	CheckHealth(context.Context) *HealthData
	Name() string
}
