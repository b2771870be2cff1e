package node

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bitrise-io/go-mediaupload/media"
	"github.com/bitrise-io/go-mediaupload/stepconf"
	"github.com/bitrise-io/go-mediaupload/upload"
)

// Well-known component DIDs.
const (
	DiscussKitDID = "z8ia1WEiBZ7hxURf6LwH21Wpg99vophFwSJdu"
	PaymentKitDID = "z2qaCNvKMv5GjouKdcDWexv6WqtHbpNPQDnAk"
	MediaKitDID   = "z8ia1mAXo8ZE7ytGF36L5uBf9kD2kenhqFGp9"
	SnapKitDID    = "z2qaEE3vhcouzhZVntfX3WbcvtL1uQhjXKr72"
)

var componentNames = map[string]string{
	"discuss-kit": DiscussKitDID,
	"payment-kit": PaymentKitDID,
	"media-kit":   MediaKitDID,
	"snap-kit":    SnapKitDID,
}

// ComponentDID maps a well-known component name to its DID. Anything else
// is returned unchanged.
func ComponentDID(nameOrDID string) string {
	if did, ok := componentNames[strings.ToLower(nameOrDID)]; ok {
		return did
	}
	return nameOrDID
}

// ComponentCredentials address one component of a blocklet.
type ComponentCredentials struct {
	URL          string          `env:"BLOCKLET_URL,required"`
	AccessKey    stepconf.Secret `env:"BLOCKLET_ACCESS_KEY,required"`
	ComponentDID string          `env:"BLOCKLET_COMPONENT_DID"`
}

// Validate ...
func (c ComponentCredentials) Validate() error {
	if !media.IsURL(c.URL) {
		return fmt.Errorf("invalid blocklet URL: %q", c.URL)
	}
	if c.AccessKey == "" {
		return errors.New("access key is required")
	}
	if c.ComponentDID == "" {
		return errors.New("component DID is required")
	}
	return nil
}

// Authenticator returns the bearer token authenticator of the access key.
func (c ComponentCredentials) Authenticator() upload.Authenticator {
	return upload.BearerToken(c.AccessKey)
}

// TwitterCredentials are the browser session tokens of an account.
type TwitterCredentials struct {
	SessionToken stepconf.Secret `env:"TWITTER_SESSION_TOKEN,required"`
	CSRFToken    stepconf.Secret `env:"TWITTER_CSRF_TOKEN"`
}

// Authenticator ...
func (c TwitterCredentials) Authenticator() upload.Authenticator {
	return upload.SessionCookies{AuthToken: string(c.SessionToken), CSRFToken: string(c.CSRFToken)}
}
