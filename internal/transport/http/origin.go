package http

import (
	"net/url"
	"path"
	"strings"
)

// allowsAnyOrigin reports whether the pattern list is the "*" wildcard.
func allowsAnyOrigin(patterns []string) bool {
	for _, p := range patterns {
		if p == "*" {
			return true
		}
	}
	return len(patterns) == 0
}

// originAllowed matches the host of origin against host patterns such as
// "chat.example.com" or "*.example.com", the same way the socket upgrade does.
func originAllowed(origin string, patterns []string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, p := range patterns {
		if ok, _ := path.Match(strings.ToLower(p), host); ok {
			return true
		}
	}
	return false
}
