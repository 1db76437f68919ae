package security

import (
	"net/http"
	"time"
)

// AuthTokenCookie carries the participant token. The token is the only
// credential: possession of it scopes the holder to exactly the room whose
// connected set contains it.
const AuthTokenCookie = "x-auth-token"

func GetAuthToken(r *http.Request) string {
	cookie, err := r.Cookie(AuthTokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetAuthToken installs the token cookie. Secure is dropped in development
// so plain-HTTP local setups keep working.
func SetAuthToken(w http.ResponseWriter, token string, secure bool, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func ClearAuthToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}
