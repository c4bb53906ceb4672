package web

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const flashCookie = "flash"

// setFlash stores a one-shot message shown by the next rendered page.
func setFlash(w http.ResponseWriter, kind, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    kind + ":" + base64.RawURLEncoding.EncodeToString([]byte(msg)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// pageData builds the base template data and consumes the flash message.
func pageData(w http.ResponseWriter, r *http.Request, title string) PageData {
	pd := PageData{Title: title, Path: r.URL.Path}
	if v := GetViewer(r.Context()); v != nil {
		pd.User = v.User()
	}

	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return pd
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	kind, encoded, ok := strings.Cut(cookie.Value, ":")
	if !ok {
		return pd
	}
	msg, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return pd
	}
	switch kind {
	case "error":
		pd.Error = string(msg)
	case "success":
		pd.Success = string(msg)
	}
	return pd
}

// done redirects back after a mutation, flashing its outcome.
func done(w http.ResponseWriter, r *http.Request, back string, err error, success string) {
	if err != nil {
		setFlash(w, "error", errorText(err))
	} else if success != "" {
		setFlash(w, "success", success)
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
