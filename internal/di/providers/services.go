package providers

import (
	"github.com/samber/do/v2"

	"github.com/takurot/baseball-speedgun/internal/auth"
	"github.com/takurot/baseball-speedgun/internal/config"
	"github.com/takurot/baseball-speedgun/internal/logger"
	"github.com/takurot/baseball-speedgun/internal/metrics"
	"github.com/takurot/baseball-speedgun/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, log.Logger), nil
}

// ProvideRecordService provides the reading submission and undo service.
func ProvideRecordService(i do.Injector) (*service.RecordService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	metricsManager := do.MustInvoke[*metrics.Manager](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecordService(storeHandle.Store, sseHandle.Manager, metricsManager, log.Logger), nil
}

// ProvideRankingService provides the ranking and player detail service.
func ProvideRankingService(i do.Injector) (*service.RankingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRankingService(storeHandle.Store, log.Logger), nil
}

// ProvideShareService provides the share snapshot service.
func ProvideShareService(i do.Injector) (*service.ShareService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	metricsManager := do.MustInvoke[*metrics.Manager](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewShareService(storeHandle.Store, sseHandle.Manager, metricsManager, cfg.Share.ChartMaxPoints, log.Logger), nil
}
