package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		segments []string
		want     string
	}{
		{"no segments", "https://example.com", nil, "https://example.com"},
		{"single", "https://example.com", []string{"api"}, "https://example.com/api"},
		{"duplicate slashes", "https://example.com/", []string{"/mount/", "/api/uploads"}, "https://example.com/mount/api/uploads"},
		{"skips empty and root", "https://example.com", []string{"", "/", "api"}, "https://example.com/api"},
		{"keeps trailing slash of last", "https://example.com", []string{"mount", "api/"}, "https://example.com/mount/api/"},
		{"empty base", "", []string{"/mount", "api"}, "/mount/api"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinURL(tt.base, tt.segments...))
		})
	}
}

func TestOrigin(t *testing.T) {
	got, err := Origin("https://example.com:8443/some/page?x=1")
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com:8443", got)

	_, err = Origin("/relative/path")
	assert.Error(t, err)
}
