package discovery

import (
	"fmt"
	"net/url"
	"strings"
)

// JoinURL joins base with the given path segments, leaving exactly one slash
// at every join point. Empty and "/" segments are skipped.
func JoinURL(base string, segments ...string) string {
	joined := base
	for _, segment := range segments {
		if segment == "" || segment == "/" {
			continue
		}
		if joined == "" {
			joined = segment
			continue
		}
		joined = strings.TrimRight(joined, "/") + "/" + strings.TrimLeft(segment, "/")
	}
	return joined
}

// Origin returns the scheme://host part of rawURL.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url must be absolute: %s", rawURL)
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}
