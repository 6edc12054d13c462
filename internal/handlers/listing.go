package handlers

import (
	"net/http"
	"strconv"

	"stay-web/internal/apiclient"
	"stay-web/internal/models"
)

// ListingHandler serves the search and listing detail pages
type ListingHandler struct {
	client *apiclient.Client
}

// NewListingHandler creates a new listing handler
func NewListingHandler(client *apiclient.Client) *ListingHandler {
	return &ListingHandler{client: client}
}

// Search handles GET /api/listings
func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	params, err := searchParams(r)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	listings, err := h.client.Listings(r.Context(), params)
	if err != nil {
		respondAPIError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, listings)
}

// Get handles GET /api/listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	listing, err := h.client.Listing(r.Context(), id)
	if err != nil {
		respondAPIError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, listing)
}

func searchParams(r *http.Request) (models.SearchParams, error) {
	q := r.URL.Query()
	params := models.SearchParams{Location: q.Get("location")}

	for key, dst := range map[string]**models.Date{"checkIn": &params.CheckIn, "checkOut": &params.CheckOut} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			return params, err
		}
		*dst = &d
	}

	if raw := q.Get("guests"); raw != "" {
		guests, err := strconv.Atoi(raw)
		if err != nil {
			return params, err
		}
		params.Guests = guests
	}

	return params, nil
}
