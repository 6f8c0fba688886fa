package links

import (
	"net/url"
	"strings"
)

// Kind is the rendering class of an embedded URL
type Kind int

const (
	KindGeneric Kind = iota
	KindImage
	KindSocialPost
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindSocialPost:
		return "social"
	default:
		return "generic"
	}
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// Hosts that serve images behind extension-less paths
var imageHostMarkers = []string{"imagedelivery.net", "/original"}

var socialHosts = []string{"twitter.com", "x.com"}

// Aliases rewritten to their canonical host before fetching
var hostAliases = map[string]string{
	"x.com": "twitter.com",
}

// Classify decides how an embed URL is rendered. Social posts win over
// images so a tweet URL is always shown as a tweet.
func Classify(s string) Kind {
	if IsSocialPost(s) {
		return KindSocialPost
	}
	if IsImage(s) {
		return KindImage
	}
	return KindGeneric
}

func IsImage(s string) bool {
	lower := strings.ToLower(s)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, marker := range imageHostMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func IsSocialPost(s string) bool {
	host := strings.ToLower(Hostname(s))
	for _, social := range socialHosts {
		if matchesHost(host, social) {
			return true
		}
	}
	return false
}

// Canonical rewrites aliased hosts (x.com) to their canonical form
// (twitter.com), keeping any subdomain, path and query.
func Canonical(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	host := strings.ToLower(u.Hostname())
	for alias, canonical := range hostAliases {
		if !matchesHost(host, alias) {
			continue
		}
		newHost := strings.TrimSuffix(host, alias) + canonical
		if port := u.Port(); port != "" {
			newHost += ":" + port
		}
		u.Host = newHost
		return u.String()
	}
	return s
}

// TweetID returns the last path segment of a tweet URL
func TweetID(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.TrimSuffix(u.Path, "/"), "/")
	id := segments[len(segments)-1]
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}

func matchesHost(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
