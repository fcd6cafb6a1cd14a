package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/takurot/baseball-speedgun/internal/service"
)

func (s *Server) registerRecordRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "submitReading",
		Method:      http.MethodPost,
		Path:        "/api/v1/records",
		Summary:     "Submit a reading",
		Description: "Records a measured speed for a player on a calendar date. A slower reading on an already-recorded date leaves the day's record in place but still refreshes the player's updated date.",
		Tags:        []string{"Records"},
	}, s.handleSubmitReading)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRecord",
		Method:      http.MethodDelete,
		Path:        "/api/v1/players/{name}/records/{date}",
		Summary:     "Delete a record",
		Description: "Removes one date record, recomputes the player's best from the remaining records, and returns a short-lived undo token.",
		Tags:        []string{"Records"},
	}, s.handleDeleteRecord)

	huma.Register(s.api, huma.Operation{
		OperationID: "undoDelete",
		Method:      http.MethodPost,
		Path:        "/api/v1/records/undo",
		Summary:     "Undo a record deletion",
		Description: "Restores the record a delete returned a token for, merging it with any changes made since. Fails once the undo window has closed.",
		Tags:        []string{"Records"},
	}, s.handleUndoDelete)
}

// SubmitReadingRequest is the request body for a speed reading.
type SubmitReadingRequest struct {
	Name  string  `json:"name" validate:"required,max=100" doc:"Player name"`
	Speed float64 `json:"speed" validate:"required,gte=50,lte=200" doc:"Speed in km/h"`
	Date  string  `json:"date" validate:"required" doc:"Measurement date (YYYY-MM-DD)"`
}

// SubmitReadingInput wraps the reading request for Huma.
type SubmitReadingInput struct {
	Body SubmitReadingRequest
}

// SubmitReadingOutput wraps the submission result for Huma.
type SubmitReadingOutput struct {
	Body service.SubmitReadingResponse
}

// DeleteRecordInput identifies the record to remove.
type DeleteRecordInput struct {
	Name string `path:"name" maxLength:"100" doc:"Player name"`
	Date string `path:"date" doc:"Record date (YYYY-MM-DD)"`
}

// DeleteRecordOutput wraps the deletion result for Huma.
type DeleteRecordOutput struct {
	Body service.DeleteRecordResponse
}

// UndoDeleteRequest carries the undo token from the delete response.
type UndoDeleteRequest struct {
	UndoToken string `json:"undo_token" validate:"required" doc:"Token returned by the delete"`
}

// UndoDeleteInput wraps the undo request for Huma.
type UndoDeleteInput struct {
	Body UndoDeleteRequest
}

// UndoDeleteOutput wraps the restored state for Huma.
type UndoDeleteOutput struct {
	Body service.UndoDeleteResponse
}

func (s *Server) handleSubmitReading(ctx context.Context, input *SubmitReadingInput) (*SubmitReadingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.Record.SubmitReading(ctx, userID, service.SubmitReadingRequest{
		Name:  input.Body.Name,
		Speed: input.Body.Speed,
		Date:  input.Body.Date,
	})
	if err != nil {
		return nil, err
	}

	return &SubmitReadingOutput{Body: *resp}, nil
}

func (s *Server) handleDeleteRecord(ctx context.Context, input *DeleteRecordInput) (*DeleteRecordOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.Record.DeleteRecord(ctx, userID, input.Name, input.Date)
	if err != nil {
		return nil, err
	}

	return &DeleteRecordOutput{Body: *resp}, nil
}

func (s *Server) handleUndoDelete(ctx context.Context, input *UndoDeleteInput) (*UndoDeleteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.Record.UndoDelete(ctx, userID, service.UndoDeleteRequest{
		UndoToken: input.Body.UndoToken,
	})
	if err != nil {
		return nil, err
	}

	return &UndoDeleteOutput{Body: *resp}, nil
}
