package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"stay-web/internal/models"
)

// Listings searches listings. Empty search fields are omitted.
func (c *Client) Listings(ctx context.Context, params models.SearchParams) ([]models.Listing, error) {
	var listings []models.Listing
	err := c.do(ctx, call{
		op:       "get listings",
		method:   http.MethodGet,
		path:     "/listings",
		query:    params.Values(),
		fallback: "Failed to fetch listings",
	}, &listings)
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return listings, nil
}

// Listing fetches a single listing
func (c *Client) Listing(ctx context.Context, id int64) (*models.Listing, error) {
	var listing models.Listing
	err := c.do(ctx, call{
		op:       "get listing",
		method:   http.MethodGet,
		path:     "/listings/" + strconv.FormatInt(id, 10),
		fallback: "Failed to fetch listing",
	}, &listing)
	if err != nil {
		return nil, err
	}
	if err := requireID("get listing", "listing", listing.ID); err != nil {
		return nil, err
	}
	return &listing, nil
}

// CreateListing publishes a new listing owned by the caller
func (c *Client) CreateListing(ctx context.Context, req models.CreateListingRequest) (*models.Listing, error) {
	var listing models.Listing
	err := c.do(ctx, call{
		op:       "create listing",
		method:   http.MethodPost,
		path:     "/listings",
		body:     req,
		fallback: "Failed to create listing",
	}, &listing)
	if err != nil {
		return nil, err
	}
	if err := requireID("create listing", "listing", listing.ID); err != nil {
		return nil, err
	}
	return &listing, nil
}

// DeleteListing removes one of the caller's listings
func (c *Client) DeleteListing(ctx context.Context, id int64) error {
	return c.do(ctx, call{
		op:       "delete listing",
		method:   http.MethodDelete,
		path:     "/listings/" + strconv.FormatInt(id, 10),
		fallback: "Failed to delete listing",
	}, nil)
}

// HostListings returns the listings owned by the caller
func (c *Client) HostListings(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	err := c.do(ctx, call{
		op:       "get host listings",
		method:   http.MethodGet,
		path:     "/listings/host/listings",
		fallback: "Failed to fetch host listings",
	}, &listings)
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return listings, nil
}
