package applets

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the manifests of every known applet. Applets register at
// boot via the seeder; the invoke transport consults the registry to scope
// what each connection may call.
type Registry struct {
	manifests sync.Map
}

// NewRegistry creates an empty applet registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Save validates and stores a manifest, replacing any previous version.
func (r *Registry) Save(m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.manifests.Store(m.ID, m)
	return nil
}

// Get retrieves a manifest by applet ID.
func (r *Registry) Get(appletID string) (*Manifest, bool) {
	val, ok := r.manifests.Load(appletID)
	if !ok {
		return nil, false
	}
	return val.(*Manifest), true
}

// Remove deletes a manifest.
func (r *Registry) Remove(appletID string) {
	r.manifests.Delete(appletID)
}

// List returns all manifests ordered by ID.
func (r *Registry) List() []*Manifest {
	var out []*Manifest
	r.manifests.Range(func(_, value interface{}) bool {
		out = append(out, value.(*Manifest))
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Allowed reports whether the applet may invoke the tool. Unknown applets
// may invoke nothing.
func (r *Registry) Allowed(appletID, toolID string) error {
	m, ok := r.Get(appletID)
	if !ok {
		return fmt.Errorf("unknown applet %q", appletID)
	}
	if !m.Allows(toolID) {
		return fmt.Errorf("applet %q has no permission for %q", appletID, toolID)
	}
	return nil
}

// Stats returns registry statistics.
func (r *Registry) Stats() map[string]interface{} {
	var total int
	r.manifests.Range(func(_, _ interface{}) bool {
		total++
		return true
	})
	return map[string]interface{}{
		"total_applets": total,
	}
}
