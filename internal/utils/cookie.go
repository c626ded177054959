package utils

import "net/http"

// Cookie names for the two session tokens.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// SessionCookie builds an HttpOnly session cookie for a signed token.
// Max-Age matches the token's TTL so the browser drops the cookie when the
// token would no longer verify anyway.
func SessionCookie(name, value string, maxAgeSec int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAgeSec,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearedCookie returns a cookie that immediately expires the named session
// cookie on the client.
func ClearedCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
