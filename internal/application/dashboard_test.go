package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rakishiii/production-scheduler/internal/domain"
)

func TestBuildDashboard(t *testing.T) {
	routing := testShop(t).Routing

	inFlight := testOrder(t, "ORD-1", 10, 4)
	inFlight.CompletedStages = []string{"CNC Cutting", "CNC Edging"}
	inFlight.ActiveStageProgress = 50

	fresh := testOrder(t, "ORD-2", 10, 58)
	fresh.CabinetType = "Shelves"

	done := testOrder(t, "ORD-3", 4, 2)
	done.CabinetType = "Shelves"
	done.CompletedStages = routing.Names()

	orders := []*domain.Order{inFlight, fresh, done}
	for _, o := range orders {
		o.Normalize(routing)
		o.ApplyPriority(today)
	}

	d := BuildDashboard(orders, routing, today)

	assert.Equal(t, 3, d.TotalOrders)
	assert.Equal(t, 2, d.ActiveOrders)
	assert.Equal(t, 1, d.CompletedOrders)
	assert.Equal(t, 1, d.DueSoon)
	assert.Equal(t, 24, d.TotalUnits)
	assert.Equal(t, 20, d.PendingUnits)
	assert.Equal(t, int64(10*15000+14*7000), d.EstimatedSales)

	require.Len(t, d.PriorityBreakdown, 3)
	assert.Equal(t, BreakdownDTO{Label: "HIGH", Count: 1, Percent: 50}, d.PriorityBreakdown[0])
	assert.Equal(t, BreakdownDTO{Label: "LOW", Count: 1, Percent: 50}, d.PriorityBreakdown[2])

	require.Len(t, d.CabinetTypeBreakdown, 2)
	assert.Equal(t, BreakdownDTO{Label: "Shelves", Count: 2, Percent: 67}, d.CabinetTypeBreakdown[0])
}

func TestStageLoads(t *testing.T) {
	routing := testShop(t).Routing

	inFlight := testOrder(t, "ORD-1", 10, 4)
	inFlight.CompletedStages = []string{"CNC Cutting", "CNC Edging"}
	inFlight.ActiveStageProgress = 50
	inFlight.Normalize(routing)
	fresh := testOrder(t, "ORD-2", 10, 58)

	loads := StageLoads([]*domain.Order{inFlight, fresh}, routing)
	require.Len(t, loads, 6)

	tests := []struct {
		stage       string
		utilization int
		remaining   float64
		share       int
	}{
		{"CNC Cutting", 50, 150, 9},
		{"CNC Edging", 50, 150, 9},
		{"CNC Routing", 25, 225, 14},
		{"Assembly", 0, 800, 49},
		{"Quality Assurance", 0, 100, 6},
		{"Packing", 0, 200, 12},
	}
	for i, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			assert.Equal(t, tt.stage, loads[i].Stage)
			assert.Equal(t, tt.utilization, loads[i].Utilization)
			assert.InDelta(t, tt.remaining, loads[i].RemainingLoad, 0.001)
			assert.Equal(t, tt.share, loads[i].Share)
		})
	}
}

func TestStageLoads_Empty(t *testing.T) {
	loads := StageLoads(nil, testShop(t).Routing)
	require.Len(t, loads, 6)
	for _, l := range loads {
		assert.Zero(t, l.Utilization)
		assert.Zero(t, l.Share)
	}
}
