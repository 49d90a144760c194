package application

import "time"

// CreateOrderCommand creates a new production order starting today
type CreateOrderCommand struct {
	CustomerName   string
	CabinetType    string
	Color          string
	Quantity       int
	CompletionDate time.Time
}

// ListOrdersQuery lists orders as seen on a reference date. An empty date means today.
type ListOrdersQuery struct {
	Date string
}

// GetOrderQuery retrieves an order by ID
type GetOrderQuery struct {
	OrderID string
	Date    string
}

// DeleteOrderCommand deletes an order
type DeleteOrderCommand struct {
	OrderID string
}

// MarkStageCompleteCommand completes the order's current stage
type MarkStageCompleteCommand struct {
	OrderID string
	Stage   string
}

// UpdateStageProgressCommand sets the partial progress of the order's current stage
type UpdateStageProgressCommand struct {
	OrderID string
	Stage   string
	Percent float64
}

// GetScheduleQuery runs a scheduling pass
type GetScheduleQuery struct {
	Date string
}

// GetDashboardQuery summarizes the backlog
type GetDashboardQuery struct {
	Date string
}

// CreateAbsenceCommand records a resource absence for one day
type CreateAbsenceCommand struct {
	ResourceID string
	Date       time.Time
	Reason     string
}

// ListAbsencesQuery lists absences, optionally for one resource
type ListAbsencesQuery struct {
	ResourceID string
}

// DeleteAbsenceCommand deletes an absence
type DeleteAbsenceCommand struct {
	AbsenceID string
}
