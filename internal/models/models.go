package models

import (
	"net/url"
	"strconv"
	"time"
)

// User represents an authenticated principal
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Listing represents a bookable property
type Listing struct {
	ID            int64     `json:"id"`
	HostID        int64     `json:"host_id"`
	HostName      string    `json:"host_name"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	PricePerNight float64   `json:"price_per_night"`
	ImageURL      string    `json:"image_url"`
	MaxGuests     int       `json:"max_guests"`
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     float64   `json:"bathrooms"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BookingStatus is the server-assigned lifecycle state of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking represents a reservation of a listing for a date range
type Booking struct {
	ID           int64         `json:"id"`
	ListingID    int64         `json:"listing_id"`
	UserID       int64         `json:"user_id"`
	CheckInDate  Date          `json:"check_in_date"`
	CheckOutDate Date          `json:"check_out_date"`
	TotalPrice   float64       `json:"total_price"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Listing      *Listing      `json:"listing,omitempty"`
}

// CreateListingRequest is the payload for POST /listings
type CreateListingRequest struct {
	Title         string  `json:"title" validate:"required"`
	Description   string  `json:"description" validate:"required"`
	Location      string  `json:"location" validate:"required"`
	PricePerNight float64 `json:"price_per_night" validate:"gte=0"`
	ImageURL      string  `json:"image_url" validate:"required"`
	MaxGuests     int     `json:"max_guests" validate:"gte=1"`
	Bedrooms      int     `json:"bedrooms" validate:"gte=1"`
	Bathrooms     float64 `json:"bathrooms" validate:"gte=1"`
}

// CreateBookingRequest is the payload for POST /bookings
type CreateBookingRequest struct {
	ListingID    int64   `json:"listing_id"`
	CheckInDate  Date    `json:"check_in_date"`
	CheckOutDate Date    `json:"check_out_date"`
	TotalPrice   float64 `json:"total_price"`
}

// LoginRequest is the payload for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the payload for POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// SearchParams filters the listing search
type SearchParams struct {
	Location string
	CheckIn  *Date
	CheckOut *Date
	Guests   int
}

// Values encodes the non-empty search parameters as a query string
func (p SearchParams) Values() url.Values {
	v := url.Values{}
	if p.Location != "" {
		v.Set("location", p.Location)
	}
	if p.CheckIn != nil && !p.CheckIn.IsZero() {
		v.Set("checkIn", p.CheckIn.String())
	}
	if p.CheckOut != nil && !p.CheckOut.IsZero() {
		v.Set("checkOut", p.CheckOut.String())
	}
	if p.Guests > 0 {
		v.Set("guests", strconv.Itoa(p.Guests))
	}
	return v
}
