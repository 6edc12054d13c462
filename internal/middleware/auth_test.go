package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stay-web/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func tokenEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(session.FromContext(r.Context()).Token(r.Context())))
	})
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSession_TokenSources(t *testing.T) {
	h := Session(tokenEcho())

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc", "", "abc"},
		{"case insensitive scheme", "bearer abc", "", "abc"},
		{"cookie fallback", "", "from-cookie", "from-cookie"},
		{"header wins", "Bearer abc", "from-cookie", "abc"},
		{"basic auth ignored", "Basic Zm9vOmJhcg==", "", ""},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestRequireToken(t *testing.T) {
	h := Session(RequireToken(tokenEcho()))

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"Authorization required","redirect":"/login"}`, rec.Body.String())

	expired := signed(t, time.Now().Add(-time.Hour))
	require.Equal(t, http.StatusUnauthorized, do("Bearer "+expired).Code)

	valid := signed(t, time.Now().Add(time.Hour))
	rec = do("Bearer " + valid)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, valid, rec.Body.String())
}

func TestSession_ExpiredCookieIsCleared(t *testing.T) {
	h := Session(tokenEcho())

	do := func(cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: cookie})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do(signed(t, time.Now().Add(-time.Hour)))
	require.Empty(t, rec.Body.String())
	require.Equal(t, []string{TokenCookie + "=; Path=/; Max-Age=0; HttpOnly; SameSite=Lax"}, rec.Header().Values("Set-Cookie"))

	valid := signed(t, time.Now().Add(time.Hour))
	rec = do(valid)
	require.Equal(t, valid, rec.Body.String())
	require.Empty(t, rec.Header().Values("Set-Cookie"))
}

func TestClearStaleToken(t *testing.T) {
	run := func(token string, clear bool) *httptest.ResponseRecorder {
		h := Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if clear {
				session.FromContext(r.Context()).Clear(r.Context())
			}
			ClearStaleToken(w, r)
			ClearStaleToken(w, r)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Empty(t, run("live", false).Header().Values("Set-Cookie"))
	require.Len(t, run("live", true).Header().Values("Set-Cookie"), 1)
}
