package applets

import (
	"fmt"
	"strings"
)

// Manifest describes one installable applet: where its UI lives and which
// backend services it may invoke.
type Manifest struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string   `yaml:"version,omitempty" json:"version,omitempty"`
	Author      string   `yaml:"author,omitempty" json:"author,omitempty"`
	Icon        string   `yaml:"icon,omitempty" json:"icon,omitempty"`
	Entry       string   `yaml:"entry" json:"entry"`
	Permissions []string `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Validate checks the fields every manifest must carry.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("manifest id is required")
	}
	if strings.ContainsAny(m.ID, " /\\") {
		return fmt.Errorf("manifest id %q must not contain spaces or slashes", m.ID)
	}
	if m.Title == "" {
		return fmt.Errorf("manifest %s: title is required", m.ID)
	}
	if m.Entry == "" {
		return fmt.Errorf("manifest %s: entry is required", m.ID)
	}
	return nil
}

// Allows reports whether the applet may invoke tools of the given service.
// Permissions name whole services ("net", "page"); a tool ID like
// "net.fetch" is checked by its service prefix.
func (m *Manifest) Allows(toolID string) bool {
	serviceID := toolID
	if i := strings.IndexByte(toolID, '.'); i >= 0 {
		serviceID = toolID[:i]
	}
	for _, p := range m.Permissions {
		if p == serviceID {
			return true
		}
	}
	return false
}
