package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stay-web/internal/apiclient"
	"stay-web/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	// LoginPath is where unauthenticated callers are sent
	LoginPath = "/login"
	// BookingsPath is where a confirmed booking leads
	BookingsPath = "/bookings"

	defaultRedirectDelay = 2 * time.Second
)

// BookingState is a step of the booking flow
type BookingState int

const (
	StateIdle BookingState = iota
	StateValidating
	StateAuthChecking
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s BookingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateAuthChecking:
		return "auth_checking"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("BookingState(%d)", int(s))
	}
}

// busy reports whether a submission is in flight
func (s BookingState) busy() bool {
	return s == StateValidating || s == StateAuthChecking || s == StateSubmitting
}

var (
	ErrMissingDates       = errors.New("missing dates")
	ErrInvalidRange       = errors.New("invalid date range")
	ErrGuestCountInvalid  = errors.New("invalid guest count")
	ErrStaleListingPrice  = errors.New("stale listing price")
	ErrSubmissionInFlight = errors.New("booking already in progress")
)

// BookingAPI is the part of the API client the booking flow needs
type BookingAPI interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error)
}

// BookingForm is the transient booking form state
type BookingForm struct {
	CheckIn  models.Date `json:"check_in"`
	CheckOut models.Date `json:"check_out"`
	Guests   int         `json:"guests"`
}

// NewBookingForm returns an empty form for one guest
func NewBookingForm() BookingForm {
	return BookingForm{Guests: 1}
}

// Nights returns the whole nights between check-in and check-out
func Nights(checkIn, checkOut models.Date) int {
	return checkIn.DaysUntil(checkOut)
}

// TotalPrice returns the price of a stay
func TotalPrice(nights int, pricePerNight float64) float64 {
	return float64(nights) * pricePerNight
}

// ValidateBooking checks the form against a listing's capacity
func ValidateBooking(form BookingForm, maxGuests int) error {
	if form.CheckIn.IsZero() || form.CheckOut.IsZero() {
		return &ValidationError{Kind: ErrMissingDates, Message: "Please select check-in and check-out dates"}
	}
	if !form.CheckOut.After(form.CheckIn) {
		return &ValidationError{Kind: ErrInvalidRange, Message: "Check-out date must be after check-in date"}
	}
	if form.Guests < 1 {
		return &ValidationError{Kind: ErrGuestCountInvalid, Message: "Number of guests must be at least 1"}
	}
	if form.Guests > maxGuests {
		return &ValidationError{
			Kind:    ErrGuestCountInvalid,
			Message: fmt.Sprintf("Maximum number of guests allowed is %d", maxGuests),
		}
	}
	return nil
}

// Quote is the derived price of the current form
type Quote struct {
	Nights        int     `json:"nights"`
	PricePerNight float64 `json:"price_per_night"`
	Total         float64 `json:"total"`
}

// BookingOutcome is the result of one submission.
// Redirect, when set, is a navigation the caller should perform after RedirectAfter.
type BookingOutcome struct {
	State         BookingState    `json:"-"`
	Booking       *models.Booking `json:"booking,omitempty"`
	Err           error           `json:"-"`
	Message       string          `json:"error,omitempty"`
	Redirect      string          `json:"redirect,omitempty"`
	RedirectAfter time.Duration   `json:"-"`
}

// BookingFlow drives booking a single listing
type BookingFlow struct {
	api           BookingAPI
	listing       models.Listing
	redirectDelay time.Duration

	mu        sync.Mutex
	state     BookingState
	form      BookingForm
	message   string
	confirmed *models.Booking
}

// NewBookingFlow creates a flow for listing. A non-positive redirectDelay
// uses the default.
func NewBookingFlow(api BookingAPI, listing models.Listing, redirectDelay time.Duration) *BookingFlow {
	if redirectDelay <= 0 {
		redirectDelay = defaultRedirectDelay
	}
	return &BookingFlow{
		api:           api,
		listing:       listing,
		redirectDelay: redirectDelay,
		state:         StateIdle,
		form:          NewBookingForm(),
	}
}

// State returns the current step
func (f *BookingFlow) State() BookingState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Form returns a copy of the current form
func (f *BookingFlow) Form() BookingForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// Message returns the error text of the last submission, if any
func (f *BookingFlow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Confirmed returns the booking created by the last successful submission
func (f *BookingFlow) Confirmed() *models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmed
}

func (f *BookingFlow) SetCheckIn(d models.Date) error {
	return f.edit(func(form *BookingForm) { form.CheckIn = d })
}

func (f *BookingFlow) SetCheckOut(d models.Date) error {
	return f.edit(func(form *BookingForm) { form.CheckOut = d })
}

func (f *BookingFlow) SetGuests(n int) error {
	return f.edit(func(form *BookingForm) { form.Guests = n })
}

// SetForm replaces the whole form
func (f *BookingFlow) SetForm(form BookingForm) error {
	return f.edit(func(cur *BookingForm) { *cur = form })
}

func (f *BookingFlow) edit(apply func(*BookingForm)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.busy() {
		return ErrSubmissionInFlight
	}
	apply(&f.form)
	f.state = StateIdle
	f.message = ""
	return nil
}

// Quote prices the current form. It is zero until the dates form a valid range.
func (f *BookingFlow) Quote() Quote {
	form := f.Form()
	if form.CheckIn.IsZero() || form.CheckOut.IsZero() {
		return Quote{PricePerNight: f.listing.PricePerNight}
	}

	nights := Nights(form.CheckIn, form.CheckOut)
	if nights < 1 {
		return Quote{PricePerNight: f.listing.PricePerNight}
	}

	return Quote{
		Nights:        nights,
		PricePerNight: f.listing.PricePerNight,
		Total:         TotalPrice(nights, f.listing.PricePerNight),
	}
}

// Disabled reports whether the book action should be unavailable
func (f *BookingFlow) Disabled() bool {
	return f.ButtonLabel() != "Book Now"
}

// ButtonLabel describes the book action for the current form
func (f *BookingFlow) ButtonLabel() string {
	f.mu.Lock()
	state, form := f.state, f.form
	f.mu.Unlock()

	switch {
	case state.busy():
		return "Booking..."
	case form.CheckIn.IsZero() || form.CheckOut.IsZero():
		return "Select dates to book"
	case form.Guests < 1:
		return "Select number of guests"
	case form.Guests > f.listing.MaxGuests:
		return fmt.Sprintf("Maximum %d guests allowed", f.listing.MaxGuests)
	case Nights(form.CheckIn, form.CheckOut) < 1:
		return "Invalid dates"
	default:
		return "Book Now"
	}
}

// Submit validates the form, checks authentication and creates the booking.
// Only one submission runs at a time; a concurrent call gets ErrSubmissionInFlight.
func (f *BookingFlow) Submit(ctx context.Context) BookingOutcome {
	f.mu.Lock()
	if f.state.busy() {
		state := f.state
		f.mu.Unlock()
		return BookingOutcome{State: state, Err: ErrSubmissionInFlight, Message: "A booking is already being submitted"}
	}
	form := f.form
	f.state = StateValidating
	f.message = ""
	f.confirmed = nil
	f.mu.Unlock()

	if err := ValidateBooking(form, f.listing.MaxGuests); err != nil {
		return f.fail(StateIdle, err)
	}

	f.setState(StateAuthChecking)
	user, err := f.api.CurrentUser(ctx)
	if err != nil {
		log.Warn().Err(err).Int64("listing_id", f.listing.ID).Msg("Failed to check current user")
	}
	if err != nil || user == nil {
		return f.redirectToLogin()
	}

	f.setState(StateSubmitting)

	nights := Nights(form.CheckIn, form.CheckOut)
	if nights < 1 {
		return f.fail(StateFailed, &ValidationError{Kind: ErrInvalidRange, Message: "Minimum stay is 1 night"})
	}
	total := TotalPrice(nights, f.listing.PricePerNight)
	if total <= 0 {
		return f.fail(StateFailed, &ValidationError{Kind: ErrStaleListingPrice, Message: "Invalid total price"})
	}

	booking, err := f.api.CreateBooking(ctx, models.CreateBookingRequest{
		ListingID:    f.listing.ID,
		CheckInDate:  form.CheckIn,
		CheckOutDate: form.CheckOut,
		TotalPrice:   total,
	})
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return f.redirectToLogin()
		}
		log.Error().
			Err(err).
			Int64("listing_id", f.listing.ID).
			Int64("user_id", user.ID).
			Msg("Failed to create booking")
		return f.fail(StateFailed, err)
	}

	log.Info().
		Int64("booking_id", booking.ID).
		Int64("listing_id", f.listing.ID).
		Int64("user_id", user.ID).
		Int("nights", nights).
		Float64("total_price", total).
		Msg("Booking created")

	f.mu.Lock()
	f.state = StateSucceeded
	f.form = NewBookingForm()
	f.confirmed = booking
	f.mu.Unlock()

	return BookingOutcome{
		State:         StateSucceeded,
		Booking:       booking,
		Redirect:      BookingsPath,
		RedirectAfter: f.redirectDelay,
	}
}

func (f *BookingFlow) setState(s BookingState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// fail reports err and returns the flow to idle
func (f *BookingFlow) fail(reported BookingState, err error) BookingOutcome {
	msg := apiclient.Message(err)

	f.mu.Lock()
	f.state = StateIdle
	f.message = msg
	f.mu.Unlock()

	return BookingOutcome{State: reported, Err: err, Message: msg}
}

// redirectToLogin ends the submission without an error message
func (f *BookingFlow) redirectToLogin() BookingOutcome {
	f.setState(StateIdle)
	return BookingOutcome{State: StateIdle, Err: apiclient.ErrUnauthorized, Redirect: LoginPath}
}
