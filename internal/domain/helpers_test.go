package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func standardStages() []Stage {
	return []Stage{
		{Name: "CNC Cutting", Weight: 15, MachineID: "M01", Requirements: []RoleRequirement{{Role: RoleCNCOperator, Count: 1}}, HoursPerUnit: 1.5},
		{Name: "CNC Edging", Weight: 15, MachineID: "M02", Requirements: []RoleRequirement{{Role: RoleCNCOperator, Count: 1}}, HoursPerUnit: 1.5},
		{Name: "CNC Routing", Weight: 15, MachineID: "M03", Requirements: []RoleRequirement{{Role: RoleCNCOperator, Count: 1}}, HoursPerUnit: 1.5},
		{Name: "Assembly", Weight: 40, Requirements: []RoleRequirement{{Role: RoleCarpenter, Count: 2}, {Role: RoleHelper, Count: 1}}, HoursPerUnit: 4},
		{Name: "Quality Assurance", Weight: 5, Requirements: []RoleRequirement{{Role: RoleCarpenter, Count: 1}}, HoursPerUnit: 0.5},
		{Name: "Packing", Weight: 10, Requirements: []RoleRequirement{{Role: RoleHelper, Count: 1}}, HoursPerUnit: 1},
	}
}

func standardCatalogEntries() []ResourceCatalogEntry {
	entries := []ResourceCatalogEntry{
		{ID: "M01", Kind: ResourceKindMachine, Name: "M01 CNC Cutting"},
		{ID: "M02", Kind: ResourceKindMachine, Name: "M02 CNC Edging"},
		{ID: "M03", Kind: ResourceKindMachine, Name: "M03 CNC Routing"},
	}
	for i := 1; i <= 17; i++ {
		role := RoleHelper
		switch {
		case i <= 3:
			role = RoleCNCOperator
		case i <= 9:
			role = RoleCarpenter
		}
		entries = append(entries, ResourceCatalogEntry{ID: fmt.Sprintf("W%02d", i), Kind: ResourceKindWorker, Role: role})
	}
	return entries
}

func testRouting(t *testing.T) *Routing {
	t.Helper()
	routing, err := NewRouting(standardStages())
	require.NoError(t, err)
	return routing
}

func testShopFloor(t *testing.T) *ShopFloor {
	t.Helper()
	return testShopFloorWith(t, standardStages(), standardCatalogEntries())
}

func testShopFloorWith(t *testing.T, stages []Stage, entries []ResourceCatalogEntry) *ShopFloor {
	t.Helper()
	routing, err := NewRouting(stages)
	require.NoError(t, err)
	catalog, err := NewResourceCatalog(entries)
	require.NoError(t, err)
	shop, err := NewShopFloor(routing, catalog, DefaultWorkHoursPerDay)
	require.NoError(t, err)
	return shop
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDay(s)
	require.NoError(t, err)
	return d
}

func testOrder(t *testing.T, id string, quantity int, start, completion string) *Order {
	t.Helper()
	order, err := NewOrder(id, "ACME", "Tall Cabinet", "Oak", quantity, day(t, start), day(t, completion), testRouting(t))
	require.NoError(t, err)
	order.ClearDomainEvents()
	return order
}
