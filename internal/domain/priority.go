package domain

// Priority is the dispatch tier of an order
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Priority windows in calendar days before the requested completion date
const (
	HighPriorityWindowDays   = 7
	MediumPriorityWindowDays = 21
)

// Machine quotas per tier
const (
	HighMachineQuota   = 6
	MediumMachineQuota = 3
	LowMachineQuota    = 1
)

// Rank orders tiers for dispatch: HIGH < MEDIUM < LOW. Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// IsValid checks if the priority is a known tier
func (p Priority) IsValid() bool {
	return p.Rank() < 3
}

// PriorityFor maps days remaining until completion to a tier and machine quota
func PriorityFor(daysRemaining int) (Priority, int) {
	switch {
	case daysRemaining <= HighPriorityWindowDays:
		return PriorityHigh, HighMachineQuota
	case daysRemaining <= MediumPriorityWindowDays:
		return PriorityMedium, MediumMachineQuota
	default:
		return PriorityLow, LowMachineQuota
	}
}

// OrderStatus is the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "In Progress"
	OrderStatusCompleted  OrderStatus = "Completed"
)
