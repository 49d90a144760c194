package application

import (
	"time"

	"github.com/Rakishiii/production-scheduler/internal/domain"
)

// ToOrderDTO converts a domain Order to OrderDTO as seen on referenceDate
func ToOrderDTO(order *domain.Order, referenceDate time.Time) *OrderDTO {
	if order == nil {
		return nil
	}

	completed := make([]string, len(order.CompletedStages))
	copy(completed, order.CompletedStages)

	return &OrderDTO{
		OrderID:             order.OrderID,
		CustomerName:        order.CustomerName,
		CabinetType:         order.CabinetType,
		Color:               order.Color,
		Quantity:            order.Quantity,
		StartDate:           formatDay(order.StartDate),
		CompletionDate:      formatDay(order.CompletionDate),
		CompletedStages:     completed,
		NextStage:           order.NextStage,
		ActiveStageProgress: order.ActiveStageProgress,
		Progress:            order.Progress,
		Status:              string(order.Status),
		Priority:            string(order.Priority),
		MachineQuota:        order.MachineQuota,
		DaysRemaining:       order.DaysRemaining(referenceDate),
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
}

// ToAssignmentDTO converts a StageAssignment to AssignmentDTO
func ToAssignmentDTO(a domain.StageAssignment) AssignmentDTO {
	machine := a.MachineID
	if machine == "" {
		machine = domain.MachineNone
	}
	ids := make([]string, len(a.ResourceIDs))
	copy(ids, a.ResourceIDs)

	return AssignmentDTO{
		OrderID:      a.OrderID,
		Stage:        a.Stage,
		ResourceIDs:  ids,
		Resource:     a.ResourceLabel(),
		MachineID:    machine,
		Start:        domain.FormatDay(a.Start),
		End:          domain.FormatDay(a.End),
		DurationDays: a.DurationDays,
	}
}

// ToShortfallDTO converts a CapacityShortfall to ShortfallDTO
func ToShortfallDTO(s domain.CapacityShortfall) ShortfallDTO {
	return ShortfallDTO{
		OrderID:   s.OrderID,
		Stage:     s.Stage,
		Role:      string(s.Role),
		MachineID: s.MachineID,
		Required:  s.Required,
		Available: s.Available,
		Reason:    s.Reason,
	}
}

// ToScheduleDTO converts a ScheduleResult to ScheduleDTO
func ToScheduleDTO(result *domain.ScheduleResult) *ScheduleDTO {
	dto := &ScheduleDTO{
		ReferenceDate: domain.FormatDay(result.ReferenceDate),
		DispatchOrder: append([]string{}, result.DispatchOrder...),
		Schedule:      make(map[string]map[string]AssignmentDTO, len(result.Timelines)),
		Assignments:   make([]AssignmentDTO, 0, len(result.Assignments)),
		Shortfalls:    make([]ShortfallDTO, 0, len(result.Shortfalls)),
	}

	for orderID, timeline := range result.Timelines {
		dto.Schedule[orderID] = toTimelineDTO(timeline)
	}
	for _, a := range result.Assignments {
		dto.Assignments = append(dto.Assignments, ToAssignmentDTO(a))
	}
	for _, s := range result.Shortfalls {
		dto.Shortfalls = append(dto.Shortfalls, ToShortfallDTO(s))
	}
	return dto
}

func toTimelineDTO(timeline map[string]domain.StageAssignment) map[string]AssignmentDTO {
	out := make(map[string]AssignmentDTO, len(timeline))
	for stage, a := range timeline {
		out[stage] = ToAssignmentDTO(a)
	}
	return out
}

// ToAbsenceDTO converts an AbsenceRecord to AbsenceDTO
func ToAbsenceDTO(a *domain.AbsenceRecord) *AbsenceDTO {
	if a == nil {
		return nil
	}
	return &AbsenceDTO{
		AbsenceID:  a.AbsenceID,
		Date:       domain.FormatDay(a.Date),
		ResourceID: a.ResourceID,
		Role:       string(a.Role),
		Reason:     a.Reason,
		CreatedAt:  a.CreatedAt,
	}
}

// ToResourceDTO converts a catalog entry to ResourceDTO
func ToResourceDTO(e domain.ResourceCatalogEntry) ResourceDTO {
	return ResourceDTO{
		ID:   e.ID,
		Kind: string(e.Kind),
		Role: string(e.Role),
		Name: e.Name,
	}
}

// ToRoutingDTO converts the shop floor routing to RoutingDTO
func ToRoutingDTO(shop *domain.ShopFloor) *RoutingDTO {
	stages := shop.Routing.Stages()
	dto := &RoutingDTO{
		WorkHoursPerDay: shop.WorkHoursPerDay,
		Stages:          make([]StageDTO, 0, len(stages)),
	}

	for _, st := range stages {
		reqs := make([]RoleRequirementDTO, 0, len(st.Requirements))
		for _, r := range st.Requirements {
			reqs = append(reqs, RoleRequirementDTO{Role: string(r.Role), Count: r.Count})
		}
		machine := st.MachineID
		if machine == "" {
			machine = domain.MachineNone
		}
		dto.Stages = append(dto.Stages, StageDTO{
			Name:         st.Name,
			Weight:       st.Weight,
			MachineID:    machine,
			Requirements: reqs,
			HoursPerUnit: st.HoursPerUnit,
		})
	}
	return dto
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return domain.FormatDay(t)
}
