package domain

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"
)

// Shortfall reasons
const (
	ShortfallNoQualifiedResource = "no_qualified_resource"
	ShortfallMachineUnavailable  = "machine_unavailable"
)

// StageAssignment is one scheduled stage of one order
type StageAssignment struct {
	OrderID      string    `json:"orderId"`
	Stage        string    `json:"stage"`
	ResourceIDs  []string  `json:"resourceIds"`
	MachineID    string    `json:"machineId"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DurationDays int       `json:"durationDays"`
}

// ResourceLabel joins the assigned resource ids with commas
func (a StageAssignment) ResourceLabel() string {
	return strings.Join(a.ResourceIDs, ",")
}

// CapacityShortfall records a stage that received no assignment
type CapacityShortfall struct {
	OrderID   string `json:"orderId"`
	Stage     string `json:"stage"`
	Role      Role   `json:"role,omitempty"`
	MachineID string `json:"machineId,omitempty"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
	Reason    string `json:"reason"`
}

// ScheduleResult is the output of one scheduling pass
type ScheduleResult struct {
	ReferenceDate time.Time                             `json:"referenceDate"`
	Timelines     map[string]map[string]StageAssignment `json:"timelines"`
	Assignments   []StageAssignment                     `json:"assignments"`
	Shortfalls    []CapacityShortfall                   `json:"shortfalls"`
	DispatchOrder []string                              `json:"dispatchOrder"`
}

// HasShortfall reports whether any stage of the order went unscheduled
func (r *ScheduleResult) HasShortfall(orderID string) bool {
	for _, s := range r.Shortfalls {
		if s.OrderID == orderID {
			return true
		}
	}
	return false
}

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithSkipCompleted leaves fully completed orders out of the pass
func WithSkipCompleted(skip bool) SchedulerOption {
	return func(s *Scheduler) {
		s.skipCompleted = skip
	}
}

// WithStagePrecedence makes each stage of an order start no earlier than the end of the
// previous scheduled stage of the same order
func WithStagePrecedence(enabled bool) SchedulerOption {
	return func(s *Scheduler) {
		s.stagePrecedence = enabled
	}
}

// Scheduler runs greedy, single-pass stage scheduling over a shop floor
type Scheduler struct {
	shop            *ShopFloor
	skipCompleted   bool
	stagePrecedence bool
}

// NewScheduler creates a Scheduler for the shop floor
func NewScheduler(shop *ShopFloor, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{shop: shop}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DurationDays converts a stage workload into whole working days, at least one
func DurationDays(hoursPerUnit float64, quantity int, workHoursPerDay float64) int {
	days := int(math.Floor(hoursPerUnit * float64(quantity) / workHoursPerDay))
	return max(1, days)
}

// DispatchOrder stably sorts orders by priority tier, then requested completion date
func DispatchOrder(orders []*Order) []*Order {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b *Order) int {
		if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
			return c
		}
		return a.CompletionDate.Compare(b.CompletionDate)
	})
	return sorted
}

// Schedule runs one pass. Orders are expected to be normalized and prioritized; they are not
// modified. The resource pool is rebuilt from referenceDate on every call.
func (s *Scheduler) Schedule(orders []*Order, absences []AbsenceRecord, referenceDate time.Time) *ScheduleResult {
	ref := Day(referenceDate)
	pass := &schedulingPass{
		shop:       s.shop,
		precedence: s.stagePrecedence,
		pool:       NewResourcePool(s.shop.Catalog, ref),
		absences:   NewAbsenceIndex(absences),
		result: &ScheduleResult{
			ReferenceDate: ref,
			Timelines:     make(map[string]map[string]StageAssignment),
			Assignments:   make([]StageAssignment, 0),
			Shortfalls:    make([]CapacityShortfall, 0),
			DispatchOrder: make([]string, 0, len(orders)),
		},
	}

	for _, order := range DispatchOrder(orders) {
		if s.skipCompleted && order.IsComplete() {
			continue
		}
		pass.scheduleOrder(order)
	}

	return pass.result
}

type schedulingPass struct {
	shop       *ShopFloor
	precedence bool
	pool       *ResourcePool
	absences   *AbsenceIndex
	result     *ScheduleResult
}

func (p *schedulingPass) scheduleOrder(order *Order) {
	p.result.DispatchOrder = append(p.result.DispatchOrder, order.OrderID)
	timeline := make(map[string]StageAssignment)
	p.result.Timelines[order.OrderID] = timeline

	notBefore := Day(order.StartDate)
	for _, stage := range p.shop.Routing.stages {
		days := DurationDays(stage.HoursPerUnit, order.Quantity, p.shop.WorkHoursPerDay)

		var (
			assignment StageAssignment
			ok         bool
		)
		if stage.IsTeam() {
			assignment, ok = p.assignTeam(order, stage, notBefore, days)
		} else {
			assignment, ok = p.assignSingle(order, stage, notBefore, days)
		}
		if !ok {
			continue
		}
		if p.precedence {
			notBefore = assignment.End
		}

		timeline[stage.Name] = assignment
		p.result.Assignments = append(p.result.Assignments, assignment)

		for _, id := range assignment.ResourceIDs {
			p.pool.Reserve(id, assignment.End)
		}
		if stage.IsMachineBound() {
			p.pool.Reserve(stage.MachineID, assignment.End)
		}
	}
}

func (p *schedulingPass) assignSingle(order *Order, stage Stage, notBefore time.Time, days int) (StageAssignment, bool) {
	req := stage.Requirements[0]

	var machine *Resource
	if stage.IsMachineBound() {
		m, ok := p.pool.Get(stage.MachineID)
		if !ok {
			p.shortfall(order, stage, req, 0, ShortfallMachineUnavailable)
			return StageAssignment{}, false
		}
		machine = m
	}

	candidates := p.pool.Workers(req.Role)
	if len(candidates) == 0 {
		p.shortfall(order, stage, req, 0, ShortfallNoQualifiedResource)
		return StageAssignment{}, false
	}

	var (
		best      *Resource
		bestStart time.Time
	)
	// candidates are sorted by id, so strict comparison keeps the lowest id on ties
	for _, c := range candidates {
		earliest := laterOf(notBefore, c.AvailableFrom)
		ids := []string{c.ID}
		if machine != nil {
			earliest = laterOf(earliest, machine.AvailableFrom)
			ids = append(ids, machine.ID)
		}
		start := p.absences.EarliestClearStart(ids, earliest, days)
		if best == nil || start.Before(bestStart) {
			best, bestStart = c, start
		}
	}

	machineID := MachineNone
	if machine != nil {
		machineID = machine.ID
	}
	return p.assignment(order, stage, []string{best.ID}, machineID, bestStart, days), true
}

func (p *schedulingPass) assignTeam(order *Order, stage Stage, notBefore time.Time, days int) (StageAssignment, bool) {
	type ranked struct {
		res   *Resource
		start time.Time
	}

	selected := make(map[string]bool)
	members := make([]*Resource, 0, stage.Headcount())
	teamStart := notBefore

	for _, req := range stage.Requirements {
		pool := make([]ranked, 0)
		for _, w := range p.pool.Workers(req.Role) {
			if selected[w.ID] {
				continue
			}
			start := p.absences.EarliestClearStart([]string{w.ID}, laterOf(notBefore, w.AvailableFrom), days)
			pool = append(pool, ranked{res: w, start: start})
		}
		if len(pool) < req.Count {
			p.shortfall(order, stage, req, len(pool), ShortfallNoQualifiedResource)
			return StageAssignment{}, false
		}

		slices.SortStableFunc(pool, func(a, b ranked) int {
			if c := a.start.Compare(b.start); c != 0 {
				return c
			}
			return strings.Compare(a.res.ID, b.res.ID)
		})
		for _, r := range pool[:req.Count] {
			selected[r.res.ID] = true
			members = append(members, r.res)
			teamStart = laterOf(teamStart, r.start)
		}
	}

	// raise teamStart until every member is free and present for the whole window
	for {
		raised := false
		for _, m := range members {
			start := p.absences.EarliestClearStart([]string{m.ID}, laterOf(teamStart, m.AvailableFrom), days)
			if start.After(teamStart) {
				teamStart = start
				raised = true
			}
		}
		if !raised {
			break
		}
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return p.assignment(order, stage, ids, MachineNone, teamStart, days), true
}

func (p *schedulingPass) assignment(order *Order, stage Stage, ids []string, machineID string, start time.Time, days int) StageAssignment {
	return StageAssignment{
		OrderID:      order.OrderID,
		Stage:        stage.Name,
		ResourceIDs:  ids,
		MachineID:    machineID,
		Start:        start,
		End:          AddDays(start, days),
		DurationDays: days,
	}
}

func (p *schedulingPass) shortfall(order *Order, stage Stage, req RoleRequirement, available int, reason string) {
	sf := CapacityShortfall{
		OrderID:   order.OrderID,
		Stage:     stage.Name,
		Role:      req.Role,
		Required:  req.Count,
		Available: available,
		Reason:    reason,
	}
	if reason == ShortfallMachineUnavailable {
		sf.MachineID = stage.MachineID
	}
	p.result.Shortfalls = append(p.result.Shortfalls, sf)
}
