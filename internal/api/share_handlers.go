package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/takurot/baseball-speedgun/internal/domain"
	"github.com/takurot/baseball-speedgun/internal/service"
)

func (s *Server) registerShareRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createShare",
		Method:      http.MethodPost,
		Path:        "/api/v1/shares",
		Summary:     "Create a share snapshot",
		Description: "Freezes the current ranking for the selected period into a public link, replacing any earlier share the owner had.",
		Tags:        []string{"Shares"},
	}, s.handleCreateShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMyShare",
		Method:      http.MethodGet,
		Path:        "/api/v1/shares/mine",
		Summary:     "Get own share",
		Description: "Returns the caller's active share snapshot, if any.",
		Tags:        []string{"Shares"},
	}, s.handleGetMyShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteShare",
		Method:      http.MethodDelete,
		Path:        "/api/v1/shares/{id}",
		Summary:     "Disable a share",
		Description: "Removes a share snapshot so its link stops resolving.",
		Tags:        []string{"Shares"},
	}, s.handleDeleteShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "resolveShare",
		Method:      http.MethodGet,
		Path:        "/api/v1/shares/{id}/view",
		Summary:     "View a share",
		Description: "Public, read-only view of a share snapshot. Expired links return 410 Gone.",
		Tags:        []string{"Shares"},
	}, s.handleResolveShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "resolveShareChart",
		Method:      http.MethodGet,
		Path:        "/api/v1/shares/{id}/players/{name}/chart",
		Summary:     "View a shared player chart",
		Description: "Public chart series for one player inside a share snapshot.",
		Tags:        []string{"Shares"},
	}, s.handleResolveShareChart)
}

// CreateShareRequest selects what goes into the snapshot.
type CreateShareRequest struct {
	Period string `json:"period,omitempty" validate:"omitempty,oneof=all 30d 7d" doc:"Period captured in the snapshot (default all)"`
	Expiry string `json:"expiry,omitempty" validate:"omitempty,oneof=7d 30d none" doc:"Link lifetime (default none)"`
}

// CreateShareInput wraps the share request for Huma.
type CreateShareInput struct {
	Body CreateShareRequest
}

// ShareResponse carries a share snapshot plus its public URL.
type ShareResponse struct {
	Share domain.Share `json:"share" doc:"Snapshot contents"`
	URL   string       `json:"url" doc:"Public link to the snapshot"`
}

// ShareOutput wraps the share response for Huma.
type ShareOutput struct {
	Body ShareResponse
}

// ShareIDInput identifies one share.
type ShareIDInput struct {
	ID string `path:"id" maxLength:"100" doc:"Share ID"`
}

// PublicShareOutput is the read-only public view. Served uncached so
// expiry takes effect immediately.
type PublicShareOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         domain.Share
}

// ShareChartInput identifies a player chart inside a share.
type ShareChartInput struct {
	ID   string `path:"id" maxLength:"100" doc:"Share ID"`
	Name string `path:"name" maxLength:"100" doc:"Player name"`
}

// ShareChartOutput wraps a shared chart series for Huma.
type ShareChartOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         domain.ShareChart
}

func (s *Server) handleCreateShare(ctx context.Context, input *CreateShareInput) (*ShareOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.Share.CreateShare(ctx, userID, service.CreateShareRequest{
		Period: domain.Period(input.Body.Period),
		Expiry: domain.ShareExpiry(input.Body.Expiry),
	})
	if err != nil {
		return nil, err
	}

	return &ShareOutput{Body: ShareResponse{
		Share: resp.Share,
		URL:   s.shareURL(resp.Share.ID),
	}}, nil
}

func (s *Server) handleGetMyShare(ctx context.Context, _ *struct{}) (*ShareOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	share, err := s.services.Share.GetMyShare(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ShareOutput{Body: ShareResponse{
		Share: *share,
		URL:   s.shareURL(share.ID),
	}}, nil
}

func (s *Server) handleDeleteShare(ctx context.Context, input *ShareIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Share.DisableShare(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Share disabled"}}, nil
}

func (s *Server) handleResolveShare(ctx context.Context, input *ShareIDInput) (*PublicShareOutput, error) {
	share, err := s.services.Share.ResolveShare(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &PublicShareOutput{
		CacheControl: CacheNoStore,
		Body:         *share,
	}, nil
}

func (s *Server) handleResolveShareChart(ctx context.Context, input *ShareChartInput) (*ShareChartOutput, error) {
	chart, err := s.services.Share.ResolveShareChart(ctx, input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	return &ShareChartOutput{
		CacheControl: CacheNoStore,
		Body:         *chart,
	}, nil
}

// shareURL builds the public link for a share. Falls back to a relative
// path when no public URL is configured.
func (s *Server) shareURL(shareID string) string {
	base := strings.TrimSuffix(s.cfg.Server.PublicURL, "/")
	return base + "/api/v1/shares/" + shareID + "/view"
}
