package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/takurot/baseball-speedgun/internal/config"
	"github.com/takurot/baseball-speedgun/internal/logger"
	"github.com/takurot/baseball-speedgun/internal/metrics"
	"github.com/takurot/baseball-speedgun/internal/sse"
	"github.com/takurot/baseball-speedgun/internal/store/sqlite"
)

// ProvideMetricsManager provides the Prometheus metrics manager.
func ProvideMetricsManager(i do.Injector) (*metrics.Manager, error) {
	return metrics.NewManager(), nil
}

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	metricsManager := do.MustInvoke[*metrics.Manager](i)

	manager := sse.NewManager(log.Logger)
	manager.SetClientCountHook(metricsManager.SetSSEClients)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "speedgun.db")
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
