package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"stay-web/internal/apiclient"
	"stay-web/internal/middleware"
	"stay-web/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends v as a JSON body
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// respondLoginRequired points at the login screen. The token cookie is
// cleared only when the session lost its token.
func respondLoginRequired(w http.ResponseWriter, r *http.Request) {
	middleware.ClearStaleToken(w, r)
	respondJSON(w, http.StatusUnauthorized, ErrorResponse{Redirect: services.LoginPath})
}

// respondAPIError maps a client or validation error onto a response
func respondAPIError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		respondLoginRequired(w, r)
		return
	}

	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		respondError(w, validationErr.Message, http.StatusUnprocessableEntity)
		return
	}

	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		respondError(w, httpErr.Message, httpErr.Status)
		return
	}

	log.Error().Err(err).Msg("Backend request failed")
	respondError(w, apiclient.Message(err), http.StatusBadGateway)
}

func parseID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", param, raw)
	}
	return id, nil
}
