package api

import "github.com/takurot/baseball-speedgun/internal/service"

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth    *service.AuthService
	Session *service.SessionService
	Record  *service.RecordService
	Ranking *service.RankingService
	Share   *service.ShareService
}
