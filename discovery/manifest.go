package discovery

// ManifestPath is the well-known document listing a blocklet's mounted components.
const ManifestPath = "/__blocklet__.js?type=json"

// WellKnownPath is the DID document listing the services of a server.
const WellKnownPath = "/.well-known/did.json"

// ComponentMountPoint ...
type ComponentMountPoint struct {
	DID        string `json:"did"`
	Name       string `json:"name,omitempty"`
	Title      string `json:"title,omitempty"`
	MountPoint string `json:"mountPoint"`
}

// Manifest is the subset of the blocklet manifest the resolver needs.
type Manifest struct {
	ComponentMountPoints []ComponentMountPoint `json:"componentMountPoints"`
}

// Find returns the first mount point with the given DID.
// Entries are not unique by construction, later duplicates are ignored.
func (m Manifest) Find(did string) (ComponentMountPoint, bool) {
	for _, component := range m.ComponentMountPoints {
		if component.DID == did {
			return component, true
		}
	}
	return ComponentMountPoint{}, false
}

// Service ...
type Service struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Path string `json:"path"`
}

// WellKnown is the subset of the DID document the resolver needs.
type WellKnown struct {
	Services []Service `json:"services"`
}

// Find returns the first service with the given type.
func (w WellKnown) Find(serviceType string) (Service, bool) {
	for _, service := range w.Services {
		if service.Type == serviceType {
			return service, true
		}
	}
	return Service{}, false
}
