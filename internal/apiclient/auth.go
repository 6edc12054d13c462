package apiclient

import (
	"context"
	"errors"
	"net/http"

	"stay-web/internal/models"
	"stay-web/internal/session"

	"github.com/rs/zerolog/log"
)

// Login authenticates with email and password and stores the issued token
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	return c.authenticate(ctx, call{
		op:       "login",
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     req,
		fallback: "Invalid email or password",
		public:   true,
	})
}

// Register creates an account and stores the issued token
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	return c.authenticate(ctx, call{
		op:       "register",
		method:   http.MethodPost,
		path:     "/auth/register",
		body:     req,
		fallback: "Registration failed",
		public:   true,
	})
}

func (c *Client) authenticate(ctx context.Context, cl call) (*models.User, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, cl, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &ParseError{Op: cl.op, Err: errors.New("response has no user")}
	}

	if resp.Token != "" {
		sess := session.FromContext(ctx)
		if sess == nil {
			log.Warn().Str("op", cl.op).Msg("No session in context, token dropped")
		} else if err := sess.SetToken(ctx, resp.Token); err != nil {
			return nil, err
		}
	}

	return resp.User, nil
}

// Logout ends the session on the backend and clears the stored token.
// A 401 means the session was already gone and counts as success.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, call{
		op:       "logout",
		method:   http.MethodPost,
		path:     "/auth/logout",
		fallback: "Logout failed",
	}, nil)
	if err != nil && !errors.Is(err, ErrUnauthorized) {
		return err
	}

	if sess := session.FromContext(ctx); sess != nil {
		return sess.Clear(ctx)
	}
	return nil
}

// CurrentUser returns the authenticated user, or nil when there is none.
// No request is sent without a token. Any non-2xx answer means no user;
// only transport and decoding failures are returned as errors.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	sess := session.FromContext(ctx)
	if sess == nil || !sess.Authenticated(ctx) {
		return nil, nil
	}

	var user models.User
	err := c.do(ctx, call{
		op:       "get current user",
		method:   http.MethodGet,
		path:     "/auth/me",
		fallback: "Failed to fetch current user",
	}, &user)
	if err != nil {
		var httpErr *HTTPError
		if errors.Is(err, ErrUnauthorized) || errors.As(err, &httpErr) {
			return nil, nil
		}
		return nil, err
	}
	if user.ID <= 0 {
		return nil, nil
	}

	return &user, nil
}
