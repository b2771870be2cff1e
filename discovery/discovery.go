// Package discovery resolves the absolute API base of a blocklet component
// or server service from the discovery documents the host publishes.
// Documents are fetched on every call and never cached, so a relocated
// component is picked up by the very next request.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/hashicorp/go-cleanhttp"
)

// DefaultTimeout bounds a single discovery request.
const DefaultTimeout = 30 * time.Second

const maxErrorBodySize = 1024

// Doer ...
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver looks up mount paths. It holds no state between calls.
type Resolver struct {
	client Doer
	logger log.Logger
}

// NewResolver creates a Resolver backed by a pooled client with DefaultTimeout.
// Discovery requests are never retried.
func NewResolver(logger log.Logger) *Resolver {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = DefaultTimeout
	return NewResolverWithClient(client, logger)
}

// NewResolverWithClient ...
func NewResolverWithClient(client Doer, logger log.Logger) *Resolver {
	return &Resolver{
		client: client,
		logger: logger,
	}
}

// Resolve fetches the manifest of serviceBaseURL and returns the absolute URL
// of relativePath under the mount point of componentID.
func (r *Resolver) Resolve(ctx context.Context, serviceBaseURL, componentID, relativePath string) (string, error) {
	origin, err := Origin(serviceBaseURL)
	if err != nil {
		return "", &DiscoveryError{URL: serviceBaseURL, Err: err}
	}

	manifestURL := origin + ManifestPath
	r.logger.Debugf("Fetching manifest: %s", manifestURL)

	var manifest Manifest
	if err := r.fetchJSON(ctx, manifestURL, &manifest); err != nil {
		return "", err
	}

	component, ok := manifest.Find(componentID)
	if !ok {
		return "", &ComponentNotFoundError{ComponentID: componentID, BaseURL: serviceBaseURL}
	}
	r.logger.Debugf("Component %s mounted at: %s", componentID, component.MountPoint)

	return JoinURL(origin, component.MountPoint, relativePath), nil
}

// ResolveService fetches the DID document of serviceBaseURL and returns the
// absolute URL of relativePath under the path of the first service of serviceType.
func (r *Resolver) ResolveService(ctx context.Context, serviceBaseURL, serviceType, relativePath string) (string, error) {
	origin, err := Origin(serviceBaseURL)
	if err != nil {
		return "", &DiscoveryError{URL: serviceBaseURL, Err: err}
	}

	documentURL := origin + WellKnownPath
	r.logger.Debugf("Fetching DID document: %s", documentURL)

	var document WellKnown
	if err := r.fetchJSON(ctx, documentURL, &document); err != nil {
		return "", err
	}

	service, ok := document.Find(serviceType)
	if !ok {
		return "", &ServiceNotFoundError{ServiceType: serviceType, BaseURL: serviceBaseURL}
	}

	return JoinURL(origin, service.Path, relativePath), nil
}

func (r *Resolver) fetchJSON(ctx context.Context, documentURL string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return &DiscoveryError{URL: documentURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return &DiscoveryError{URL: documentURL, Err: err}
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			r.logger.Warnf("close response body: %s", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		r.logger.Debugf("Discovery response (%d): %s", resp.StatusCode, body)
		return &DiscoveryError{
			URL:        documentURL,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &DiscoveryError{
			URL:        documentURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	return nil
}
