package middleware

import (
	"net/http"
	"strings"

	"stay-web/internal/session"
)

// TokenCookie is the browser cookie holding the bearer token
const TokenCookie = "jwt_token"

// Session attaches a per-request session seeded from the Authorization
// header, falling back to the token cookie.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		fromCookie := false
		if token == "" {
			if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
				token, fromCookie = c.Value, true
			}
		}

		s := session.New(session.NewMemoryStore(token))
		if fromCookie && !s.Authenticated(r.Context()) {
			// expired JWT
			ClearTokenCookie(w)
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}

// RequireToken rejects requests that carry no token at all
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		if s == nil || !s.Authenticated(r.Context()) {
			respondUnauthorized(w, "Authorization required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// respondUnauthorized sends a 401 pointing the caller at the login screen
func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `","redirect":"/login"}`))
}

// SetTokenCookie hands the bearer token to the browser
func SetTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie expires the browser's token cookie
func ClearTokenCookie(w http.ResponseWriter) {
	if cookieCleared(w) {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearStaleToken expires the token cookie once the request's session holds
// no usable token, i.e. after a 401 or when the token had already expired.
// A session that still has its token keeps the cookie.
func ClearStaleToken(w http.ResponseWriter, r *http.Request) {
	if s := session.FromContext(r.Context()); s != nil && s.Authenticated(r.Context()) {
		return
	}
	ClearTokenCookie(w)
}

func cookieCleared(w http.ResponseWriter) bool {
	for _, v := range w.Header().Values("Set-Cookie") {
		if strings.HasPrefix(v, TokenCookie+"=;") {
			return true
		}
	}
	return false
}
