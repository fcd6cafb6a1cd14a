package api

import (
	"encoding/json/v2"
	"net/http"
)

// handleSSEStream serves the live event stream. Registered directly on
// the chi router because huma buffers response bodies.
//
// EventSource cannot set headers, so the access token may also arrive
// as a "token" query parameter.
func (s *Server) handleSSEStream(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		if token := r.URL.Query().Get("token"); token != "" {
			user, _, verifyErr := s.services.Auth.VerifyAccessToken(r.Context(), token)
			if verifyErr == nil {
				userID = user.ID
				err = nil
			}
		}
	}
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.MarshalWrite(w, APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   "Authentication required",
		})
		return
	}

	s.sseHandler.Stream(w, r, userID)
}
