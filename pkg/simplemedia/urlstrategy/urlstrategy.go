// Package urlstrategy generates the stable URLs under which completed
// artifacts are served. The artifact location contract is always
// "<owner_name>/<filename>"; strategies only differ in the base they
// prepend.
package urlstrategy

import (
	"fmt"
	"strings"
)

// URLStrategy defines the interface for URL generation strategies
type URLStrategy interface {
	// MediaURL creates the public URL for a stored artifact
	MediaURL(ownerName, filename string) string
}

// OwnerPathStrategy serves artifacts from the application itself under
// baseURL, e.g. "https://media.example.com/media/alice/abc123.jpg".
type OwnerPathStrategy struct {
	BaseURL string
}

// NewOwnerPathStrategy creates an application-served URL strategy
func NewOwnerPathStrategy(baseURL string) *OwnerPathStrategy {
	return &OwnerPathStrategy{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *OwnerPathStrategy) MediaURL(ownerName, filename string) string {
	return fmt.Sprintf("%s/%s/%s", s.BaseURL, ownerName, filename)
}

// CDNStrategy points directly at a CDN distribution that mirrors the
// storage layout.
type CDNStrategy struct {
	CDNBaseURL string
}

// NewCDNStrategy creates a CDN-backed URL strategy
func NewCDNStrategy(cdnBaseURL string) *CDNStrategy {
	return &CDNStrategy{CDNBaseURL: strings.TrimSuffix(cdnBaseURL, "/")}
}

func (s *CDNStrategy) MediaURL(ownerName, filename string) string {
	return fmt.Sprintf("%s/%s/%s", s.CDNBaseURL, ownerName, filename)
}
