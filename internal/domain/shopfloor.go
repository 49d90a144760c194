package domain

import "fmt"

// DefaultWorkHoursPerDay is an eight hour shift net of the lunch break
const DefaultWorkHoursPerDay = 7.0

// ShopFloor bundles the routing, the resource catalog and the shift length
type ShopFloor struct {
	Routing         *Routing
	Catalog         *ResourceCatalog
	WorkHoursPerDay float64
}

// NewShopFloor cross-validates routing and catalog. Every bound machine must exist in the catalog.
func NewShopFloor(routing *Routing, catalog *ResourceCatalog, workHoursPerDay float64) (*ShopFloor, error) {
	if routing == nil || catalog == nil {
		return nil, fmt.Errorf("%w: routing and catalog are required", ErrInvalidShopFloor)
	}
	if workHoursPerDay <= 0 || workHoursPerDay > 24 {
		return nil, fmt.Errorf("%w: work hours per day must be in (0, 24]", ErrInvalidShopFloor)
	}

	for _, st := range routing.stages {
		if !st.IsMachineBound() {
			continue
		}
		entry, ok := catalog.Lookup(st.MachineID)
		if !ok || entry.Kind != ResourceKindMachine {
			return nil, fmt.Errorf("%w: stage %q is bound to unknown machine %q", ErrInvalidShopFloor, st.Name, st.MachineID)
		}
	}

	return &ShopFloor{
		Routing:         routing,
		Catalog:         catalog,
		WorkHoursPerDay: workHoursPerDay,
	}, nil
}
