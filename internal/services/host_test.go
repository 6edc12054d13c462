package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"stay-web/internal/apiclient"
	"stay-web/internal/models"

	"github.com/stretchr/testify/require"
)

type hostAPIMock struct {
	listFn   func(ctx context.Context) ([]models.Listing, error)
	createFn func(ctx context.Context, req models.CreateListingRequest) (*models.Listing, error)
	deleteFn func(ctx context.Context, id int64) error
}

var _ HostAPI = (*hostAPIMock)(nil)

func (m *hostAPIMock) HostListings(ctx context.Context) ([]models.Listing, error) {
	return m.listFn(ctx)
}

func (m *hostAPIMock) CreateListing(ctx context.Context, req models.CreateListingRequest) (*models.Listing, error) {
	return m.createFn(ctx, req)
}

func (m *hostAPIMock) DeleteListing(ctx context.Context, id int64) error {
	return m.deleteFn(ctx, id)
}

type imageStoreMock struct {
	uploadFn func(ctx context.Context, img ImageFile) (string, error)
	calls    int
}

func (m *imageStoreMock) Upload(ctx context.Context, img ImageFile) (string, error) {
	m.calls++
	return m.uploadFn(ctx, img)
}

func validListingRequest() models.CreateListingRequest {
	return models.CreateListingRequest{
		Title:         "Cabin",
		Description:   "Quiet cabin by the lake",
		Location:      "Tahoe",
		PricePerNight: 120,
		ImageURL:      "https://img.example.com/cabin.jpg",
		MaxGuests:     4,
		Bedrooms:      2,
		Bathrooms:     1.5,
	}
}

func TestHostDashboard_DeleteRemovesLocally(t *testing.T) {
	var deleted []int64
	api := &hostAPIMock{
		listFn: func(ctx context.Context) ([]models.Listing, error) {
			return []models.Listing{{ID: 1}, {ID: 2}, {ID: 3}}, nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	d := NewHostDashboard(api, nil)
	require.NoError(t, d.Load(context.Background()))

	require.NoError(t, d.Delete(context.Background(), 2))
	require.Equal(t, []int64{2}, deleted)
	require.Equal(t, []models.Listing{{ID: 1}, {ID: 3}}, d.Listings())
}

func TestHostDashboard_DeleteFailureKeepsListing(t *testing.T) {
	api := &hostAPIMock{
		listFn: func(ctx context.Context) ([]models.Listing, error) {
			return []models.Listing{{ID: 1}}, nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			return &apiclient.HTTPError{Status: 403, Message: "Not your listing"}
		},
	}
	d := NewHostDashboard(api, nil)
	require.NoError(t, d.Load(context.Background()))

	err := d.Delete(context.Background(), 1)
	require.Equal(t, "Not your listing", apiclient.Message(err))
	require.Len(t, d.Listings(), 1)
}

func TestHostDashboard_ListingsIsACopy(t *testing.T) {
	api := &hostAPIMock{
		listFn: func(ctx context.Context) ([]models.Listing, error) {
			return []models.Listing{{ID: 1, Title: "a"}}, nil
		},
	}
	d := NewHostDashboard(api, nil)
	require.NoError(t, d.Load(context.Background()))

	got := d.Listings()
	got[0].Title = "changed"
	require.Equal(t, "a", d.Listings()[0].Title)
}

func TestHostDashboard_CreateValidation(t *testing.T) {
	api := &hostAPIMock{
		createFn: func(ctx context.Context, req models.CreateListingRequest) (*models.Listing, error) {
			t.Fatal("invalid listing must not be sent")
			return nil, nil
		},
	}
	d := NewHostDashboard(api, nil)

	req := validListingRequest()
	req.Title = ""
	_, err := d.Create(context.Background(), req, nil)
	require.ErrorIs(t, err, ErrInvalidPayload)
	require.Equal(t, "title is required", apiclient.Message(err))

	req = validListingRequest()
	req.MaxGuests = 0
	_, err = d.Create(context.Background(), req, nil)
	require.Equal(t, "max guests must be at least 1", apiclient.Message(err))

	req = validListingRequest()
	req.PricePerNight = -5
	_, err = d.Create(context.Background(), req, nil)
	require.Equal(t, "price per night must be at least 0", apiclient.Message(err))
}

func TestHostDashboard_CreateWithImage(t *testing.T) {
	var sent models.CreateListingRequest
	api := &hostAPIMock{
		createFn: func(ctx context.Context, req models.CreateListingRequest) (*models.Listing, error) {
			sent = req
			return &models.Listing{ID: 10, Title: req.Title, ImageURL: req.ImageURL}, nil
		},
	}
	images := &imageStoreMock{
		uploadFn: func(ctx context.Context, img ImageFile) (string, error) {
			require.Equal(t, "cabin.png", img.Name)
			return "https://cdn.example.com/listings/abc.png", nil
		},
	}
	d := NewHostDashboard(api, images)

	req := validListingRequest()
	req.ImageURL = ""
	listing, err := d.Create(context.Background(), req, &ImageFile{Name: "cabin.png", Body: strings.NewReader("png")})
	require.NoError(t, err)
	require.Equal(t, int64(10), listing.ID)
	require.Equal(t, "https://cdn.example.com/listings/abc.png", sent.ImageURL)
	require.Len(t, d.Listings(), 1)
}

func TestHostDashboard_CreateImageErrors(t *testing.T) {
	api := &hostAPIMock{}
	img := &ImageFile{Name: "a.jpg", Body: strings.NewReader("x")}

	_, err := NewHostDashboard(api, nil).Create(context.Background(), validListingRequest(), img)
	require.ErrorIs(t, err, ErrUploadsDisabled)

	images := &imageStoreMock{
		uploadFn: func(ctx context.Context, img ImageFile) (string, error) {
			return "", errors.New("access denied")
		},
	}
	_, err = NewHostDashboard(api, images).Create(context.Background(), validListingRequest(), img)
	require.ErrorContains(t, err, "access denied")

	bad := validListingRequest()
	bad.Location = ""
	_, err = NewHostDashboard(api, images).Create(context.Background(), bad, img)
	require.ErrorIs(t, err, ErrInvalidPayload)
	require.Equal(t, 1, images.calls, "no upload for a rejected form")
}

func TestValidate_AuthPayloads(t *testing.T) {
	err := Validate(models.LoginRequest{Email: "not-an-email", Password: "x"})
	require.Equal(t, "email must be a valid email address", apiclient.Message(err))

	err = Validate(models.RegisterRequest{Email: "a@b.co", Password: "123", Name: "A"})
	require.Equal(t, "password must be at least 6 characters", apiclient.Message(err))

	require.NoError(t, Validate(models.RegisterRequest{Email: "a@b.co", Password: "123456", Name: "A"}))
}
