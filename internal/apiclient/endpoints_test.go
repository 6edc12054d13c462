package apiclient

import (
	"net/http"
	"sync/atomic"
	"testing"

	"stay-web/internal/models"

	"github.com/stretchr/testify/require"
)

func TestUserBookings_BareList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bookings", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "listing", r.URL.Query().Get("include"))
		w.Write([]byte(`[
			{"id": 1, "listing_id": 10, "status": "pending", "listing": {"id": 10, "title": "Cabin"}},
			{"id": 2, "listing_id": 0, "status": "cancelled"}
		]`))
	})
	c := newTestClient(t, mux)
	ctx, _ := withToken("tok")

	bookings, err := c.UserBookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	require.Equal(t, "Cabin", bookings[0].Listing.Title)
	require.Nil(t, bookings[1].Listing)
}

func TestUserBookings_EnvelopeWithBackfill(t *testing.T) {
	var listingCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bookings", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bookings": [
			{"id": 1, "listing_id": 10},
			{"id": 2, "listing_id": 10},
			{"id": 3, "listing_id": 11},
			{"id": 4, "listing_id": 12}
		]}`))
	})
	mux.HandleFunc("GET /listings/{id}", func(w http.ResponseWriter, r *http.Request) {
		listingCalls.Add(1)
		switch r.PathValue("id") {
		case "10":
			writeJSON(w, http.StatusOK, models.Listing{ID: 10, Title: "Cabin"})
		case "11":
			writeJSON(w, http.StatusOK, models.Listing{ID: 11, Title: "Villa"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newTestClient(t, mux)
	ctx, _ := withToken("tok")

	bookings, err := c.UserBookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 4)
	require.Equal(t, "Cabin", bookings[0].Listing.Title)
	require.Equal(t, "Cabin", bookings[1].Listing.Title)
	require.Equal(t, "Villa", bookings[2].Listing.Title)
	require.Nil(t, bookings[3].Listing, "failed back-fill keeps the booking")
	require.Equal(t, int32(3), listingCalls.Load(), "one lookup per distinct listing")
}

func TestDecodeBookings(t *testing.T) {
	bookings, err := decodeBookings([]byte(`{}`))
	require.NoError(t, err)
	require.NotNil(t, bookings)
	require.Empty(t, bookings)

	_, err = decodeBookings([]byte(`"nope"`))
	require.Error(t, err)

	_, err = decodeBookings([]byte(`[{"listing_id": 3}]`))
	require.Error(t, err)

	_, err = decodeBookings(nil)
	require.Error(t, err)
}

func TestCreateBooking_SendsPayload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /bookings", func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateBookingRequest
		require.NoError(t, jsonDecode(r, &req))
		require.Equal(t, int64(4), req.ListingID)
		require.Equal(t, "2024-06-01", req.CheckInDate.String())
		require.Equal(t, 300.0, req.TotalPrice)
		writeJSON(w, http.StatusCreated, models.Booking{ID: 99, ListingID: 4, Status: models.BookingPending})
	})
	c := newTestClient(t, mux)
	ctx, _ := withToken("tok")

	in, _ := models.ParseDate("2024-06-01")
	out, _ := models.ParseDate("2024-06-04")
	booking, err := c.CreateBooking(ctx, models.CreateBookingRequest{
		ListingID: 4, CheckInDate: in, CheckOutDate: out, TotalPrice: 300,
	})
	require.NoError(t, err)
	require.Equal(t, int64(99), booking.ID)
}

func TestLoginStoresToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		require.NoError(t, jsonDecode(r, &req))
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Wrong password"})
			return
		}
		writeJSON(w, http.StatusOK, models.AuthResponse{User: &models.User{ID: 5, Email: req.Email}, Token: "fresh"})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, models.User{ID: 5, Email: "a@b.c"})
	})
	c := newTestClient(t, mux)
	ctx, sess := withToken("")

	_, err := c.Login(ctx, models.LoginRequest{Email: "a@b.c", Password: "bad"})
	require.Equal(t, "Wrong password", Message(err))
	require.False(t, sess.Authenticated(ctx))

	user, err := c.Login(ctx, models.LoginRequest{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, int64(5), user.ID)
	require.Equal(t, "fresh", sess.Token(ctx))

	me, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "a@b.c", me.Email)
}

func TestRegisterFallbackMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, mux)
	ctx, _ := withToken("")

	_, err := c.Register(ctx, models.RegisterRequest{Email: "a@b.c", Password: "secret1", Name: "A"})
	require.Equal(t, "Registration failed", Message(err))
}

func TestLogout(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	})
	c := newTestClient(t, mux)

	ctx, sess := withToken("tok")
	require.NoError(t, c.Logout(ctx))
	require.False(t, sess.Authenticated(ctx))

	status.Store(http.StatusUnauthorized)
	ctx, sess = withToken("stale")
	require.NoError(t, c.Logout(ctx))
	require.False(t, sess.Authenticated(ctx))

	status.Store(http.StatusInternalServerError)
	ctx, sess = withToken("tok")
	require.Equal(t, "Logout failed", Message(c.Logout(ctx)))
	require.True(t, sess.Authenticated(ctx), "token kept when logout fails")
}

func TestCurrentUser_ServerErrorMeansNoUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c := newTestClient(t, mux)
	ctx, sess := withToken("tok")

	user, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	require.Nil(t, user)
	require.True(t, sess.Authenticated(ctx), "only 401 clears the token")
}
