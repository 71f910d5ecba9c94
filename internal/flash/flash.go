// Package flash carries a one-shot status message across a redirect. The
// message rides on the response as a cookie and is consumed by exactly the
// next render that pops it.
package flash

import (
	"encoding/base64"
	"net/http"
)

const cookieName = "flash"

// Set attaches a pending message to the response. Base64 keeps quotes and
// spaces inside the cookie value legal.
func Set(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.URLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
	})
}

// Pop returns the pending message, if any, and clears it so repeated
// renders come back empty.
func Pop(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	decoded, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}
