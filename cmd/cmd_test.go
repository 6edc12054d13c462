package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"stay-web/internal/apiclient"
	"stay-web/internal/config"
	"stay-web/internal/models"

	"github.com/stretchr/testify/require"
)

type testBackend struct {
	bookingPosts atomic.Int32
}

func (b *testBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer good" {
			write(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return false
		}
		return true
	}
	listing := models.Listing{ID: 4, Title: "Seaside flat", Location: "Lisbon", PricePerNight: 100, MaxGuests: 3}

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			write(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
			return
		}
		write(w, http.StatusOK, models.AuthResponse{User: &models.User{ID: 1, Name: "Ana", Email: req.Email}, Token: "good"})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			write(w, http.StatusOK, models.User{ID: 1, Name: "Ana", Email: "ana@example.com"})
		}
	})
	mux.HandleFunc("GET /listings", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Lisbon", r.URL.Query().Get("location"))
		write(w, http.StatusOK, []models.Listing{listing})
	})
	mux.HandleFunc("GET /listings/{id}", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, listing)
	})
	mux.HandleFunc("POST /bookings", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		b.bookingPosts.Add(1)
		var req models.CreateBookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, 300.0, req.TotalPrice)
		write(w, http.StatusCreated, models.Booking{ID: 50, ListingID: 4, TotalPrice: req.TotalPrice, Status: models.BookingPending})
	})
	mux.HandleFunc("GET /bookings", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			write(w, http.StatusOK, []models.Booking{{ID: 50, ListingID: 4, TotalPrice: 300, Status: models.BookingPending, Listing: &listing}})
		}
	})
	return mux
}

func newTestApp(t *testing.T, session config.SessionConfig) (*app, *bytes.Buffer, *testBackend) {
	t.Helper()

	backend := &testBackend{}
	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	cfg := &config.Config{
		Session: session,
		Booking: config.BookingConfig{RedirectDelay: time.Millisecond},
	}
	out := &bytes.Buffer{}
	a := newApp(cfg, client, out)
	t.Cleanup(a.close)
	return a, out, backend
}

func memorySession() config.SessionConfig {
	return config.SessionConfig{Backend: "memory"}
}

func TestRun_UnknownCommand(t *testing.T) {
	a, out, _ := newTestApp(t, memorySession())

	err := a.run(context.Background(), []string{"fly"})
	require.Error(t, err)
	require.Equal(t, `unknown command "fly"`, apiclient.Message(err))
	require.Contains(t, out.String(), "host-create")
}

func TestLoginThenBook(t *testing.T) {
	a, out, backend := newTestApp(t, memorySession())
	ctx := context.Background()

	require.NoError(t, a.run(ctx, []string{"whoami"}))
	require.Contains(t, out.String(), "Not logged in")

	err := a.run(ctx, []string{"login", "-email", "ana@example.com", "-password", "wrong"})
	require.Equal(t, "Invalid email or password", apiclient.Message(err))

	require.NoError(t, a.run(ctx, []string{"login", "-email", "ana@example.com", "-password", "secret"}))
	require.Contains(t, out.String(), "Logged in as Ana")

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"book", "-id", "4", "-check-in", "2024-06-01", "-check-out", "2024-06-04", "-guests", "2"}))
	require.Contains(t, out.String(), "3 nights")
	require.Contains(t, out.String(), "Booking confirmed! Reservation #50")
	require.Contains(t, out.String(), "Seaside flat")
	require.Equal(t, int32(1), backend.bookingPosts.Load())
}

func TestBook_RequiresLogin(t *testing.T) {
	a, _, backend := newTestApp(t, memorySession())

	err := a.run(context.Background(), []string{"book", "-id", "4", "-check-in", "2024-06-01", "-check-out", "2024-06-04"})
	require.Error(t, err)
	require.Contains(t, apiclient.Message(err), "stay-web login")
	require.Zero(t, backend.bookingPosts.Load())
}

func TestBook_ValidationMessages(t *testing.T) {
	a, _, backend := newTestApp(t, memorySession())
	ctx := context.Background()

	err := a.run(ctx, []string{"book", "-id", "4"})
	require.Equal(t, "Please select check-in and check-out dates", apiclient.Message(err))

	err = a.run(ctx, []string{"book", "-id", "4", "-check-in", "2024-06-01", "-check-out", "2024-06-04", "-guests", "9"})
	require.Equal(t, "Maximum number of guests allowed is 3", apiclient.Message(err))

	err = a.run(ctx, []string{"book", "-id", "4", "-check-in", "June 1st"})
	require.Contains(t, apiclient.Message(err), "dates must look like")

	err = a.run(ctx, []string{"book"})
	require.Equal(t, "-id is required", apiclient.Message(err))

	require.Zero(t, backend.bookingPosts.Load())
}

func TestListings(t *testing.T) {
	a, out, _ := newTestApp(t, memorySession())

	require.NoError(t, a.run(context.Background(), []string{"listings", "-location", "Lisbon"}))
	require.Contains(t, out.String(), "Seaside flat")
	require.Contains(t, out.String(), "$100.00")
}

func TestFileSessionSurvivesRestart(t *testing.T) {
	sess := config.SessionConfig{Backend: "file", File: filepath.Join(t.TempDir(), "session.yaml")}
	ctx := context.Background()

	a, _, _ := newTestApp(t, sess)
	require.NoError(t, a.run(ctx, []string{"login", "-email", "ana@example.com", "-password", "secret"}))

	// same backend URL, fresh process state
	b := newApp(a.cfg, a.client, &bytes.Buffer{})
	require.NoError(t, b.run(ctx, []string{"whoami"}))
	require.Contains(t, b.out.(*bytes.Buffer).String(), "ana@example.com")
}

func TestLoginValidatesLocally(t *testing.T) {
	a, _, _ := newTestApp(t, memorySession())

	err := a.run(context.Background(), []string{"login", "-email", "not-an-email", "-password", "x"})
	require.Equal(t, "email must be a valid email address", apiclient.Message(err))
}

func TestUnknownSessionBackend(t *testing.T) {
	a, _, _ := newTestApp(t, config.SessionConfig{Backend: "etcd"})

	err := a.run(context.Background(), []string{"whoami"})
	require.ErrorContains(t, err, `unknown session backend "etcd"`)
}
