// Package links decides which URLs are safe to hand to the renderer and
// what kind of embed they describe.
package links

import (
	"net/url"
	"strings"
)

var relativePrefixes = []string{"./", "../", "/"}

// Valid reports whether s parses as an absolute http or https URL
func Valid(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// SanitizeString returns s unchanged if it is safe to render
func SanitizeString(s string) (string, bool) {
	if s == "" {
		return "", false
	}

	for _, prefix := range relativePrefixes {
		if strings.HasPrefix(s, prefix) {
			return "", false
		}
	}

	if !Valid(s) {
		return "", false
	}
	return s, true
}

// Sanitize coerces an unsafe or missing URL to nil
func Sanitize(s *string) *string {
	if s == nil {
		return nil
	}
	clean, ok := SanitizeString(*s)
	if !ok {
		return nil
	}
	return &clean
}

// Hostname returns the host part of s without port, or "" if s does not parse
func Hostname(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
