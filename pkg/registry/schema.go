// pkg/registry/schema.go
package registry

import _ "embed"

// Catalog is the seed document the activity registry is built from.
type Catalog struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity is one catalog entry. Name is the registry key.
type Activity struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule,omitempty"`
	MaxParticipants int      `json:"maxParticipants"`
	Participants    []string `json:"participants"`
}

//go:embed catalog.schema.json
var catalogSchema []byte

//go:embed default_catalog.json
var defaultCatalog []byte

// Schema returns the JSON schema catalogs are validated against.
func Schema() []byte {
	return catalogSchema
}
