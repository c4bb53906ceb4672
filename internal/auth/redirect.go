package auth

import (
	"net/url"
	"strings"
)

// LoginRedirect builds the login URL that returns to current afterwards,
// e.g. /login?redirect=/admin/projects.
func LoginRedirect(loginPath, current string) string {
	if current == "" || current == loginPath || !isLocalPath(current) {
		return loginPath
	}
	return loginPath + "?redirect=" + strings.ReplaceAll(url.QueryEscape(current), "%2F", "/")
}

// SafeRedirect returns target when it is a local absolute path, otherwise fallback.
func SafeRedirect(target, fallback string) string {
	if !isLocalPath(target) {
		return fallback
	}
	return target
}

func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}
