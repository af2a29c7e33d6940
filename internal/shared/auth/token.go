package auth

import (
	"net/http"
	"strings"
)

// CookieName is the cookie carrying the session token.
const CookieName = "jwt"

// ExtractBearerToken extracts the JWT token from the Authorization header.
func ExtractBearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	return ExtractBearerTokenFromHeader(r.Header.Get("Authorization"))
}

// ExtractBearerTokenFromHeader strips the "Bearer " prefix, in any case.
func ExtractBearerTokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	const bearerPrefix = "bearer "
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// ExtractTokenFromQuery extracts a token from a URL query parameter.
func ExtractTokenFromQuery(r *http.Request, paramName string) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get(paramName))
}

// ExtractToken looks at the Authorization header, then at the session
// cookie. The "loggedout" placeholder written on logout never counts.
func ExtractToken(r *http.Request) string {
	if token := ExtractBearerToken(r); token != "" {
		return token
	}
	if r == nil {
		return ""
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	if value := strings.TrimSpace(cookie.Value); value != LoggedOutValue {
		return value
	}
	return ""
}

// LoggedOutValue replaces the session cookie on logout.
const LoggedOutValue = "loggedout"
