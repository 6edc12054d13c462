package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"stay-web/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// backfillLimit bounds concurrent listing lookups during back-fill
const backfillLimit = 4

// CreateBooking submits a booking request
func (c *Client) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	var booking models.Booking
	err := c.do(ctx, call{
		op:         "create booking",
		method:     http.MethodPost,
		path:       "/bookings",
		body:       req,
		fallback:   "Failed to create booking",
		withStatus: true,
	}, &booking)
	if err != nil {
		return nil, err
	}
	if err := requireID("create booking", "booking", booking.ID); err != nil {
		return nil, err
	}
	return &booking, nil
}

// UserBookings returns the caller's bookings, each with its listing
// embedded when it can be resolved.
func (c *Client) UserBookings(ctx context.Context) ([]models.Booking, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		op:       "get bookings",
		method:   http.MethodGet,
		path:     "/bookings",
		query:    url.Values{"include": {"listing"}},
		fallback: "Failed to fetch bookings",
	}, &raw)
	if err != nil {
		return nil, err
	}

	bookings, err := decodeBookings(raw)
	if err != nil {
		return nil, &ParseError{Op: "get bookings", Err: err}
	}

	c.backfillListings(ctx, bookings)
	return bookings, nil
}

// bookingsEnvelope is the wrapped form of the bookings response
type bookingsEnvelope struct {
	Bookings []models.Booking `json:"bookings"`
}

// decodeBookings accepts either a bare JSON array or {"bookings": [...]}
func decodeBookings(raw []byte) ([]models.Booking, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty bookings payload")
	}

	var bookings []models.Booking
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &bookings); err != nil {
			return nil, err
		}
	case '{':
		var env bookingsEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		bookings = env.Bookings
	default:
		return nil, fmt.Errorf("unexpected bookings payload starting with %q", trimmed[0])
	}

	for _, b := range bookings {
		if b.ID <= 0 {
			return nil, errors.New("booking payload has no id")
		}
	}

	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// backfillListings fetches the listing of every booking that lacks one.
// Lookup failures are logged and leave the booking without a listing.
func (c *Client) backfillListings(ctx context.Context, bookings []models.Booking) {
	missing := make(map[int64][]int)
	for i, b := range bookings {
		if b.ListingID != 0 && b.Listing == nil {
			missing[b.ListingID] = append(missing[b.ListingID], i)
		}
	}
	if len(missing) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(backfillLimit)

	for listingID, indexes := range missing {
		g.Go(func() error {
			listing, err := c.Listing(ctx, listingID)
			if err != nil {
				log.Warn().
					Err(err).
					Int64("listing_id", listingID).
					Msg("Failed to back-fill booking listing")
				return nil
			}
			// each index belongs to exactly one goroutine
			for _, i := range indexes {
				l := *listing
				bookings[i].Listing = &l
			}
			return nil
		})
	}

	_ = g.Wait()
}
