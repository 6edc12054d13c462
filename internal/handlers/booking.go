package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"stay-web/internal/apiclient"
	"stay-web/internal/models"
	"stay-web/internal/services"

	"github.com/rs/zerolog/log"
)

// BookingHandler serves booking creation and the bookings page
type BookingHandler struct {
	client        *apiclient.Client
	redirectDelay time.Duration
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(client *apiclient.Client, redirectDelay time.Duration) *BookingHandler {
	return &BookingHandler{
		client:        client,
		redirectDelay: redirectDelay,
	}
}

// BookResponse is the outcome of a booking submission
type BookResponse struct {
	Booking         *models.Booking `json:"booking,omitempty"`
	Quote           *services.Quote `json:"quote,omitempty"`
	Error           string          `json:"error,omitempty"`
	Redirect        string          `json:"redirect,omitempty"`
	RedirectAfterMS int64           `json:"redirect_after_ms,omitempty"`
}

// Book handles POST /api/listings/{id}/book
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	form := services.NewBookingForm()
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := h.client.Listing(ctx, id)
	if err != nil {
		log.Error().Err(err).Int64("listing_id", id).Msg("Failed to load listing for booking")
		respondAPIError(w, r, err)
		return
	}

	// one flow per request, so submissions never overlap here
	flow := services.NewBookingFlow(h.client, *listing, h.redirectDelay)
	if err := flow.SetForm(form); err != nil {
		respondAPIError(w, r, err)
		return
	}
	quote := flow.Quote()

	out := flow.Submit(ctx)
	switch {
	case out.Redirect == services.LoginPath:
		respondLoginRequired(w, r)
	case out.State == services.StateSucceeded:
		respondJSON(w, http.StatusOK, BookResponse{
			Booking:         out.Booking,
			Quote:           &quote,
			Redirect:        out.Redirect,
			RedirectAfterMS: out.RedirectAfter.Milliseconds(),
		})
	default:
		respondJSON(w, http.StatusUnprocessableEntity, BookResponse{Error: out.Message})
	}
}

// List handles GET /api/bookings
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.client.UserBookings(r.Context())
	if err != nil {
		respondAPIError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, bookings)
}
