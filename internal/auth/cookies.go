package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	// AccessCookieName carries the access token.
	AccessCookieName = "token"
	// RefreshCookieName carries the refresh token.
	RefreshCookieName = "refreshToken"
)

// CookieWriter sets and clears the token cookies. In production the cookies
// are Secure and SameSite=None so a separately hosted front end can send them;
// elsewhere they are SameSite=Strict.
type CookieWriter struct {
	Production bool
}

// SetTokens writes both token cookies.
func (w CookieWriter) SetTokens(c echo.Context, accessToken, refreshToken string) {
	c.SetCookie(w.cookie(AccessCookieName, accessToken, AccessTokenExpiry))
	c.SetCookie(w.cookie(RefreshCookieName, refreshToken, RefreshTokenExpiry))
}

// Clear expires both token cookies.
func (w CookieWriter) Clear(c echo.Context) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		ck := w.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
}

func (w CookieWriter) cookie(name, value string, ttl time.Duration) *http.Cookie {
	sameSite := http.SameSiteStrictMode
	if w.Production {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   w.Production,
		SameSite: sameSite,
		MaxAge:   int(ttl / time.Second),
	}
}
