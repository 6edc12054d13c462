package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"stay-web/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrUploadsDisabled is returned when an image is given but no store is configured
var ErrUploadsDisabled = errors.New("image uploads are not configured")

// HostAPI is the part of the API client the host dashboard needs
type HostAPI interface {
	HostListings(ctx context.Context) ([]models.Listing, error)
	CreateListing(ctx context.Context, req models.CreateListingRequest) (*models.Listing, error)
	DeleteListing(ctx context.Context, id int64) error
}

// ImageFile is a local image to publish with a new listing
type ImageFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// ImageStore publishes listing images and returns their public URL
type ImageStore interface {
	Upload(ctx context.Context, img ImageFile) (string, error)
}

// HostDashboard holds the host's listing collection
type HostDashboard struct {
	api    HostAPI
	images ImageStore

	mu       sync.RWMutex
	listings []models.Listing
}

// NewHostDashboard creates a dashboard. images may be nil.
func NewHostDashboard(api HostAPI, images ImageStore) *HostDashboard {
	return &HostDashboard{api: api, images: images}
}

// Load replaces the collection with the host's listings from the backend
func (d *HostDashboard) Load(ctx context.Context) error {
	listings, err := d.api.HostListings(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.listings = listings
	d.mu.Unlock()
	return nil
}

// Listings returns a copy of the current collection
func (d *HostDashboard) Listings() []models.Listing {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.Listing, len(d.listings))
	copy(out, d.listings)
	return out
}

// Delete removes a listing on the backend, then from the local collection
func (d *HostDashboard) Delete(ctx context.Context, id int64) error {
	if err := d.api.DeleteListing(ctx, id); err != nil {
		return err
	}

	d.mu.Lock()
	kept := d.listings[:0]
	for _, l := range d.listings {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	d.listings = kept
	d.mu.Unlock()

	log.Info().Int64("listing_id", id).Msg("Listing deleted")
	return nil
}

// Create publishes a listing, uploading image first when given
func (d *HostDashboard) Create(ctx context.Context, req models.CreateListingRequest, image *ImageFile) (*models.Listing, error) {
	// validate before uploading so a rejected form leaves no orphaned object
	check := req
	if image != nil {
		check.ImageURL = image.Name
	}
	if err := Validate(check); err != nil {
		return nil, err
	}

	if image != nil {
		if d.images == nil {
			return nil, ErrUploadsDisabled
		}
		url, err := d.images.Upload(ctx, *image)
		if err != nil {
			return nil, fmt.Errorf("failed to upload listing image: %w", err)
		}
		req.ImageURL = url
	}

	listing, err := d.api.CreateListing(ctx, req)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.listings = append(d.listings, *listing)
	d.mu.Unlock()

	log.Info().
		Int64("listing_id", listing.ID).
		Str("title", listing.Title).
		Msg("Listing created")
	return listing, nil
}
