// Package shopfloor loads the routing table and resource catalog from YAML.
package shopfloor

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Rakishiii/production-scheduler/internal/domain"
)

//go:embed shopfloor.yaml
var defaultDocument []byte

// Document is the on-disk shape of a shop floor
type Document struct {
	WorkHoursPerDay float64                       `yaml:"workHoursPerDay"`
	Routing         []domain.Stage                `yaml:"routing"`
	Resources       []domain.ResourceCatalogEntry `yaml:"resources"`
}

// Default returns the built-in shop floor
func Default() (*domain.ShopFloor, error) {
	return Parse(defaultDocument)
}

// Load reads a shop floor file; an empty path selects the built-in default
func Load(path string) (*domain.ShopFloor, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shop floor file: %w", err)
	}

	shop, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return shop, nil
}

// Parse decodes and validates a shop floor document. Unknown keys are rejected so a typo
// in a stage field cannot silently drop a requirement.
func Parse(data []byte) (*domain.ShopFloor, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidShopFloor, err)
	}

	if doc.WorkHoursPerDay == 0 {
		doc.WorkHoursPerDay = domain.DefaultWorkHoursPerDay
	}

	routing, err := domain.NewRouting(doc.Routing)
	if err != nil {
		return nil, err
	}
	catalog, err := domain.NewResourceCatalog(doc.Resources)
	if err != nil {
		return nil, err
	}
	return domain.NewShopFloor(routing, catalog, doc.WorkHoursPerDay)
}
