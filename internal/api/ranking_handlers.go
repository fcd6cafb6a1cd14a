package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/takurot/baseball-speedgun/internal/domain"
	"github.com/takurot/baseball-speedgun/internal/service"
)

func (s *Server) registerRankingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRanking",
		Method:      http.MethodGet,
		Path:        "/api/v1/ranking",
		Summary:     "Get ranking",
		Description: "Returns the tie-aware player ranking with aggregate stats, filtered by search text and period.",
		Tags:        []string{"Ranking"},
	}, s.handleGetRanking)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlayerDetail",
		Method:      http.MethodGet,
		Path:        "/api/v1/players/{name}",
		Summary:     "Get player detail",
		Description: "Returns one player's date records, chart series and stats for the selected period.",
		Tags:        []string{"Players"},
	}, s.handleGetPlayerDetail)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePlayer",
		Method:      http.MethodDelete,
		Path:        "/api/v1/players/{name}",
		Summary:     "Delete player",
		Description: "Removes a player and all of their records. This cannot be undone.",
		Tags:        []string{"Players"},
	}, s.handleDeletePlayer)
}

// RankingInput carries the ranking view selectors.
type RankingInput struct {
	Period string `query:"period" enum:"all,30d,7d" doc:"Period filter (default all)"`
	Search string `query:"search" doc:"Case-insensitive name filter"`
	Sort   string `query:"sort" enum:"speed,updated,name" doc:"Display sort (default speed)"`
}

// RankingOutput wraps the ranking response for Huma.
type RankingOutput struct {
	Body service.RankingResponse
}

// PlayerDetailInput selects one player's detail view.
type PlayerDetailInput struct {
	Name   string `path:"name" maxLength:"100" doc:"Player name"`
	Period string `query:"period" enum:"all,30d,7d" doc:"Period filter (default all)"`
	Sort   string `query:"sort" enum:"date,speed" doc:"Record sort (default date)"`
}

// PlayerDetailOutput wraps the player detail response for Huma.
type PlayerDetailOutput struct {
	Body service.PlayerDetailResponse
}

// DeletePlayerInput identifies the player to remove.
type DeletePlayerInput struct {
	Name string `path:"name" maxLength:"100" doc:"Player name"`
}

func (s *Server) handleGetRanking(ctx context.Context, input *RankingInput) (*RankingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.Ranking.GetRanking(ctx, userID, service.RankingQuery{
		Period: domain.Period(input.Period),
		Search: input.Search,
		Sort:   domain.SortMode(input.Sort),
	})
	if err != nil {
		return nil, err
	}

	return &RankingOutput{Body: *resp}, nil
}

func (s *Server) handleGetPlayerDetail(ctx context.Context, input *PlayerDetailInput) (*PlayerDetailOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.Ranking.GetPlayerDetail(ctx, userID, input.Name, service.DetailQuery{
		Period: domain.Period(input.Period),
		Sort:   domain.RecordSort(input.Sort),
	})
	if err != nil {
		return nil, err
	}

	return &PlayerDetailOutput{Body: *resp}, nil
}

func (s *Server) handleDeletePlayer(ctx context.Context, input *DeletePlayerInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Record.DeletePlayer(ctx, userID, input.Name); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Player deleted"}}, nil
}
