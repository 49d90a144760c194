package application

import "time"

// OrderDTO represents an order in responses
type OrderDTO struct {
	OrderID             string                   `json:"orderId"`
	CustomerName        string                   `json:"customerName"`
	CabinetType         string                   `json:"cabinetType"`
	Color               string                   `json:"color"`
	Quantity            int                      `json:"quantity"`
	StartDate           string                   `json:"startDate"`
	CompletionDate      string                   `json:"completionDate"`
	CompletedStages     []string                 `json:"completedStages"`
	NextStage           string                   `json:"nextStage"`
	ActiveStageProgress float64                  `json:"activeStageProgress"`
	Progress            float64                  `json:"progress"`
	Status              string                   `json:"status"`
	Priority            string                   `json:"priority"`
	MachineQuota        int                      `json:"machineQuota"`
	DaysRemaining       int                      `json:"daysRemaining"`
	Schedule            map[string]AssignmentDTO `json:"schedule,omitempty"`
	HasShortfall        bool                     `json:"hasShortfall,omitempty"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
}

// AssignmentDTO represents one scheduled stage
type AssignmentDTO struct {
	OrderID      string   `json:"orderId"`
	Stage        string   `json:"stage"`
	ResourceIDs  []string `json:"resourceIds"`
	Resource     string   `json:"resource"`
	MachineID    string   `json:"machineId"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	DurationDays int      `json:"durationDays"`
}

// ShortfallDTO represents a stage the pass could not staff
type ShortfallDTO struct {
	OrderID   string `json:"orderId"`
	Stage     string `json:"stage"`
	Role      string `json:"role,omitempty"`
	MachineID string `json:"machineId,omitempty"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
	Reason    string `json:"reason"`
}

// ScheduleDTO is the result of one scheduling pass
type ScheduleDTO struct {
	ReferenceDate string                              `json:"referenceDate"`
	DispatchOrder []string                            `json:"dispatchOrder"`
	Schedule      map[string]map[string]AssignmentDTO `json:"schedule"`
	Assignments   []AssignmentDTO                     `json:"assignments"`
	Shortfalls    []ShortfallDTO                      `json:"shortfalls"`
}

// OrderListDTO is the order backlog together with its schedule
type OrderListDTO struct {
	ReferenceDate string          `json:"referenceDate"`
	Orders        []OrderDTO      `json:"orders"`
	Assignments   []AssignmentDTO `json:"assignments"`
	Shortfalls    []ShortfallDTO  `json:"shortfalls"`
}

// BreakdownDTO is one row of a count breakdown
type BreakdownDTO struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// StageLoadDTO is the utilization and outstanding work of one stage
type StageLoadDTO struct {
	Stage         string  `json:"stage"`
	Utilization   int     `json:"utilization"`
	RemainingLoad float64 `json:"remainingLoad"`
	Share         int     `json:"share"`
}

// DashboardDTO summarizes the backlog on a reference date
type DashboardDTO struct {
	ReferenceDate        string         `json:"referenceDate"`
	TotalOrders          int            `json:"totalOrders"`
	ActiveOrders         int            `json:"activeOrders"`
	CompletedOrders      int            `json:"completedOrders"`
	DueSoon              int            `json:"dueSoon"`
	TotalUnits           int            `json:"totalUnits"`
	PendingUnits         int            `json:"pendingUnits"`
	EstimatedSales       int64          `json:"estimatedSales"`
	PriorityBreakdown    []BreakdownDTO `json:"priorityBreakdown"`
	CabinetTypeBreakdown []BreakdownDTO `json:"cabinetTypeBreakdown"`
	Stages               []StageLoadDTO `json:"stages"`
	Shortfalls           int            `json:"shortfalls"`
}

// AbsenceDTO represents an absence in responses
type AbsenceDTO struct {
	AbsenceID  string    `json:"absenceId"`
	Date       string    `json:"date"`
	ResourceID string    `json:"resourceId"`
	Role       string    `json:"role,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ResourceDTO represents a shop-floor resource
type ResourceDTO struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Role string `json:"role,omitempty"`
	Name string `json:"name,omitempty"`
}

// RoleRequirementDTO is the headcount of one role on a stage
type RoleRequirementDTO struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

// StageDTO represents one routing entry
type StageDTO struct {
	Name         string               `json:"name"`
	Weight       int                  `json:"weight"`
	MachineID    string               `json:"machineId"`
	Requirements []RoleRequirementDTO `json:"requirements"`
	HoursPerUnit float64              `json:"hoursPerUnit"`
}

// RoutingDTO is the process routing with the shift length it is planned against
type RoutingDTO struct {
	WorkHoursPerDay float64    `json:"workHoursPerDay"`
	Stages          []StageDTO `json:"stages"`
}
