package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"stay-web/internal/apiclient"
	"stay-web/internal/models"
	"stay-web/internal/services"

	"github.com/rs/zerolog/log"
)

const maxImageBytes = 10 << 20

// HostHandler serves the host dashboard
type HostHandler struct {
	client *apiclient.Client
	images services.ImageStore
}

// NewHostHandler creates a new host handler. images may be nil.
func NewHostHandler(client *apiclient.Client, images services.ImageStore) *HostHandler {
	return &HostHandler{
		client: client,
		images: images,
	}
}

func (h *HostHandler) dashboard() *services.HostDashboard {
	return services.NewHostDashboard(h.client, h.images)
}

// List handles GET /api/host/listings
func (h *HostHandler) List(w http.ResponseWriter, r *http.Request) {
	d := h.dashboard()
	if err := d.Load(r.Context()); err != nil {
		respondAPIError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, d.Listings())
}

// Create handles POST /api/host/listings.
// It accepts a JSON body, or a multipart form with an optional "image" file.
func (h *HostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		req   models.CreateListingRequest
		image *services.ImageFile
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		var err error
		req, image, err = parseListingForm(r)
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}
		if err != nil {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if image != nil {
			if f, ok := image.Body.(io.Closer); ok {
				defer f.Close()
			}
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	listing, err := h.dashboard().Create(r.Context(), req, image)
	if err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Failed to create listing")
		if errors.Is(err, services.ErrUploadsDisabled) {
			respondError(w, "Image uploads are not available", http.StatusBadRequest)
			return
		}
		respondAPIError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, listing)
}

// Delete handles DELETE /api/host/listings/{id}
func (h *HostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.dashboard().Delete(r.Context(), id); err != nil {
		respondAPIError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseListingForm(r *http.Request) (models.CreateListingRequest, *services.ImageFile, error) {
	var req models.CreateListingRequest
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return req, nil, fmt.Errorf("invalid form: %w", err)
	}

	req.Title = r.FormValue("title")
	req.Description = r.FormValue("description")
	req.Location = r.FormValue("location")
	req.ImageURL = r.FormValue("image_url")

	var err error
	if req.PricePerNight, err = formFloat(r, "price_per_night"); err != nil {
		return req, nil, err
	}
	if req.Bathrooms, err = formFloat(r, "bathrooms"); err != nil {
		return req, nil, err
	}
	if req.MaxGuests, err = formInt(r, "max_guests"); err != nil {
		return req, nil, err
	}
	if req.Bedrooms, err = formInt(r, "bedrooms"); err != nil {
		return req, nil, err
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return req, nil, nil
	}
	if err != nil {
		return req, nil, fmt.Errorf("invalid image: %w", err)
	}

	return req, &services.ImageFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, nil
}

func formFloat(r *http.Request, key string) (float64, error) {
	raw := r.FormValue(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

func formInt(r *http.Request, key string) (int, error) {
	raw := r.FormValue(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", key)
	}
	return v, nil
}
