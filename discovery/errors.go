package discovery

import "fmt"

// DiscoveryError is returned when a discovery document can't be fetched or decoded.
// StatusCode is zero if no HTTP response was received.
type DiscoveryError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *DiscoveryError) Error() string {
	if e.StatusCode != 0 && e.Err == nil {
		return fmt.Sprintf("failed to fetch discovery document: %d %s, %s", e.StatusCode, e.Status, e.URL)
	}
	return fmt.Sprintf("failed to fetch discovery document %s: %s", e.URL, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// ComponentNotFoundError is returned when the manifest has no entry for the component.
type ComponentNotFoundError struct {
	ComponentID string
	BaseURL     string
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component %s not found in: %s", e.ComponentID, e.BaseURL)
}

// ServiceNotFoundError is returned when the DID document has no service of the requested type.
type ServiceNotFoundError struct {
	ServiceType string
	BaseURL     string
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("service of type %s not found in: %s", e.ServiceType, e.BaseURL)
}
