package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ResourceKind distinguishes machines from workers
type ResourceKind string

const (
	ResourceKindMachine ResourceKind = "machine"
	ResourceKindWorker  ResourceKind = "worker"
)

// ResourceCatalogEntry is a static shop-floor resource
type ResourceCatalogEntry struct {
	ID   string       `json:"id" yaml:"id"`
	Kind ResourceKind `json:"kind" yaml:"kind"`
	Role Role         `json:"role,omitempty" yaml:"role,omitempty"`
	Name string       `json:"name,omitempty" yaml:"name,omitempty"`
}

// ResourceCatalog is the validated, read-only set of shop-floor resources
type ResourceCatalog struct {
	entries []ResourceCatalogEntry
	byID    map[string]ResourceCatalogEntry
}

// NewResourceCatalog validates entries and builds a catalog sorted by id
func NewResourceCatalog(entries []ResourceCatalogEntry) (*ResourceCatalog, error) {
	c := &ResourceCatalog{
		entries: make([]ResourceCatalogEntry, 0, len(entries)),
		byID:    make(map[string]ResourceCatalogEntry, len(entries)),
	}

	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: resource without id", ErrInvalidShopFloor)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate resource %q", ErrInvalidShopFloor, e.ID)
		}
		switch e.Kind {
		case ResourceKindWorker:
			if !e.Role.IsValid() {
				return nil, fmt.Errorf("%w: worker %q has unknown role %q", ErrInvalidShopFloor, e.ID, e.Role)
			}
		case ResourceKindMachine:
			if e.Role != "" {
				return nil, fmt.Errorf("%w: machine %q must not carry a role", ErrInvalidShopFloor, e.ID)
			}
		default:
			return nil, fmt.Errorf("%w: resource %q has unknown kind %q", ErrInvalidShopFloor, e.ID, e.Kind)
		}
		c.byID[e.ID] = e
		c.entries = append(c.entries, e)
	}

	slices.SortFunc(c.entries, func(a, b ResourceCatalogEntry) int {
		return strings.Compare(a.ID, b.ID)
	})
	return c, nil
}

// Entries returns the catalog sorted by id
func (c *ResourceCatalog) Entries() []ResourceCatalogEntry {
	return slices.Clone(c.entries)
}

// Lookup finds a resource by id
func (c *ResourceCatalog) Lookup(id string) (ResourceCatalogEntry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// CountByRole returns how many workers carry each role
func (c *ResourceCatalog) CountByRole() map[Role]int {
	counts := make(map[Role]int)
	for _, e := range c.entries {
		if e.Kind == ResourceKindWorker {
			counts[e.Role]++
		}
	}
	return counts
}

// Resource is a catalog entry with a per-pass availability cursor
type Resource struct {
	ResourceCatalogEntry
	AvailableFrom time.Time
}

// ResourcePool holds the mutable cursors for one scheduling pass. It is built fresh for every pass
// and never shared between passes.
type ResourcePool struct {
	byID   map[string]*Resource
	byRole map[Role][]*Resource
}

// NewResourcePool resets every resource in the catalog to baseline
func NewResourcePool(catalog *ResourceCatalog, baseline time.Time) *ResourcePool {
	p := &ResourcePool{
		byID:   make(map[string]*Resource, len(catalog.entries)),
		byRole: make(map[Role][]*Resource),
	}
	start := Day(baseline)
	for _, e := range catalog.entries {
		r := &Resource{ResourceCatalogEntry: e, AvailableFrom: start}
		p.byID[e.ID] = r
		if e.Kind == ResourceKindWorker {
			p.byRole[e.Role] = append(p.byRole[e.Role], r)
		}
	}
	return p
}

// Get returns a resource by id
func (p *ResourcePool) Get(id string) (*Resource, bool) {
	r, ok := p.byID[id]
	return r, ok
}

// Workers returns the workers of a role sorted by id
func (p *ResourcePool) Workers(role Role) []*Resource {
	return p.byRole[role]
}

// Reserve advances the cursor of a resource to end. Cursors never move backwards.
func (p *ResourcePool) Reserve(id string, end time.Time) {
	if r, ok := p.byID[id]; ok {
		r.AvailableFrom = laterOf(r.AvailableFrom, Day(end))
	}
}
