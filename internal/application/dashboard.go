package application

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/Rakishiii/production-scheduler/internal/domain"
)

// DueSoonWindowDays is how close a completion date must be for an active order to count as due soon
const DueSoonWindowDays = 7

// UnitPrices are the list prices per cabinet used for the sales estimate
var UnitPrices = map[string]int64{
	"Tall Cabinet":    15000,
	"Hanging Cabinet": 10000,
	"Shelves":         7000,
}

// BuildDashboard summarizes orders that are already normalized and prioritized at ref
func BuildDashboard(orders []*domain.Order, routing *domain.Routing, ref time.Time) *DashboardDTO {
	d := &DashboardDTO{
		ReferenceDate: domain.FormatDay(ref),
		TotalOrders:   len(orders),
	}

	priorityCounts := map[domain.Priority]int{}
	typeCounts := map[string]int{}
	for _, o := range orders {
		d.TotalUnits += o.Quantity
		d.EstimatedSales += int64(o.Quantity) * UnitPrices[o.CabinetType]

		cabinet := o.CabinetType
		if cabinet == "" {
			cabinet = "Unspecified"
		}
		typeCounts[cabinet]++

		if o.IsComplete() {
			d.CompletedOrders++
			continue
		}
		d.ActiveOrders++
		d.PendingUnits += o.Quantity
		priorityCounts[o.Priority]++
		if days := o.DaysRemaining(ref); days >= 0 && days <= DueSoonWindowDays {
			d.DueSoon++
		}
	}

	for _, p := range []domain.Priority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow} {
		d.PriorityBreakdown = append(d.PriorityBreakdown, BreakdownDTO{
			Label:   string(p),
			Count:   priorityCounts[p],
			Percent: percentOf(priorityCounts[p], d.ActiveOrders),
		})
	}

	d.CabinetTypeBreakdown = make([]BreakdownDTO, 0, len(typeCounts))
	for label, count := range typeCounts {
		d.CabinetTypeBreakdown = append(d.CabinetTypeBreakdown, BreakdownDTO{
			Label:   label,
			Count:   count,
			Percent: percentOf(count, d.TotalOrders),
		})
	}
	slices.SortFunc(d.CabinetTypeBreakdown, func(a, b BreakdownDTO) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})

	d.Stages = StageLoads(orders, routing)
	return d
}

// StageLoads computes per-stage utilization and remaining work. Utilization is the
// quantity-weighted mean completion of the stage across orders; remaining load is quantity times
// the weight points of the stage still outstanding.
func StageLoads(orders []*domain.Order, routing *domain.Routing) []StageLoadDTO {
	stages := routing.Stages()
	loads := make([]StageLoadDTO, len(stages))

	totalQty := 0
	for _, o := range orders {
		totalQty += orderWeight(o)
	}
	if totalQty == 0 {
		totalQty = 1
	}

	totalLoad := 0.0
	for i, st := range stages {
		weighted := 0.0
		remaining := 0.0
		for _, o := range orders {
			pct := stageCompletion(o, i, st.Name)
			qty := float64(orderWeight(o))
			weighted += pct * qty
			remaining += float64(st.Weight) * (100 - pct) / 100 * qty
		}
		loads[i] = StageLoadDTO{
			Stage:         st.Name,
			Utilization:   int(math.Max(0, math.Min(100, math.Round(weighted/float64(totalQty))))),
			RemainingLoad: math.Round(remaining*100) / 100,
		}
		totalLoad += remaining
	}

	if totalLoad == 0 {
		totalLoad = 1
	}
	for i := range loads {
		loads[i].Share = int(math.Round(loads[i].RemainingLoad / totalLoad * 100))
	}
	return loads
}

// stageCompletion is 100 for a completed stage, the active progress for the next stage, else 0
func stageCompletion(o *domain.Order, position int, stage string) float64 {
	switch {
	case position < len(o.CompletedStages):
		return 100
	case stage == o.NextStage:
		return o.ActiveStageProgress
	default:
		return 0
	}
}

func orderWeight(o *domain.Order) int {
	if o.Quantity <= 0 {
		return 1
	}
	return o.Quantity
}

func percentOf(count, total int) int {
	if total == 0 {
		total = 1
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
