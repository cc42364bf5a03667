package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/solarclear/internal/controllers/restserver"
	"github.com/chrissnell/solarclear/pkg/config"
	"go.uber.org/zap"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
	Len() int
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a controller manager. The REST controller is
// created only when a server block is configured.
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, server *config.ServerData, source restserver.RecordSource, health restserver.HealthSource, logger *zap.SugaredLogger) (ControllerManager, error) {
	cm := &controllerManager{
		ctx:         ctx,
		wg:          wg,
		logger:      logger,
		controllers: make([]Controller, 0),
	}

	if server != nil {
		rest, err := restserver.NewController(ctx, wg, *server, source, health, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating controller: %w", err)
		}
		cm.controllers = append(cm.controllers, rest)
	}

	return cm, nil
}

type controllerManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	logger      *zap.SugaredLogger
	controllers []Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %w", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}

// Len is the number of controllers that will be started
func (c *controllerManager) Len() int {
	return len(c.controllers)
}
