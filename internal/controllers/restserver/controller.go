package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/solarclear/internal/log"
	"github.com/chrissnell/solarclear/internal/storage"
	"github.com/chrissnell/solarclear/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HealthSource reports the health of the storage backends
type HealthSource interface {
	CheckHealth(ctx context.Context) map[string]storage.HealthData
}

// Controller represents the REST server controller
type Controller struct {
	ctx          context.Context
	wg           *sync.WaitGroup
	serverConfig config.ServerData
	Server       http.Server
	Source       RecordSource
	Health       HealthSource
	logger       *zap.SugaredLogger
	handlers     *Handlers
}

// NewController creates a new REST server controller. health may be nil when
// no storage backend is configured.
func NewController(ctx context.Context, wg *sync.WaitGroup, sc config.ServerData, source RecordSource, health HealthSource, logger *zap.SugaredLogger) (*Controller, error) {
	if source == nil {
		return nil, fmt.Errorf("REST server needs a record source")
	}
	if logger == nil {
		logger = log.GetSugaredLogger()
	}

	ctrl := &Controller{
		ctx:          ctx,
		wg:           wg,
		serverConfig: sc,
		Source:       source,
		Health:       health,
		logger:       logger,
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if sc.ListenAddr == "" {
		logger.Info("server.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		sc.ListenAddr = "0.0.0.0"
	}

	if sc.Port == 0 {
		logger.Info("server.port not provided; defaulting to 8080")
		sc.Port = 8080
	}
	ctrl.serverConfig = sc

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", sc.ListenAddr, sc.Port)
	ctrl.Server.Handler = ctrl.Router()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server and stops it when the controller's
// context is cancelled.
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %v...", c.Server.Addr)
	c.wg.Add(2)

	go func() {
		defer c.wg.Done()

		var err error
		if c.serverConfig.Cert != "" && c.serverConfig.Key != "" {
			err = c.Server.ListenAndServeTLS(c.serverConfig.Cert, c.serverConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Server.Shutdown(shutdownCtx); err != nil {
			c.logger.Errorf("REST server shutdown error: %v", err)
		}
	}()

	return nil
}

// Router configures the HTTP router with all endpoints
func (c *Controller) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(c.logger))

	router.HandleFunc("/api/v1/records", c.handlers.GetRecords).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/summary", c.handlers.GetSummary).Methods(http.MethodGet)

	router.HandleFunc("/healthz", c.handlers.GetHealth).Methods(http.MethodGet)

	return router
}
