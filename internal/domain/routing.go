package domain

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrInvalidRouting   = errors.New("invalid process routing")
	ErrInvalidShopFloor = errors.New("invalid shop floor")
)

// StageNone marks an order whose routing is fully complete
const StageNone = "none"

// MachineNone is rendered when a stage has no bound machine
const MachineNone = "none"

// Role is the closed set of worker skills the shop schedules against
type Role string

const (
	RoleCNCOperator Role = "CNC Operator"
	RoleCarpenter   Role = "Carpenter"
	RoleHelper      Role = "Helper"
)

// Roles lists every schedulable role
var Roles = []Role{RoleCNCOperator, RoleCarpenter, RoleHelper}

// IsValid reports whether the role belongs to the closed set
func (r Role) IsValid() bool {
	switch r {
	case RoleCNCOperator, RoleCarpenter, RoleHelper:
		return true
	}
	return false
}

// ParseRole converts a string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RoleRequirement is the number of workers of one role a stage needs
type RoleRequirement struct {
	Role  Role `json:"role" yaml:"role"`
	Count int  `json:"count" yaml:"count"`
}

// Stage is one entry of the process routing
type Stage struct {
	Name         string            `json:"name" yaml:"name"`
	Weight       int               `json:"weight" yaml:"weight"`
	MachineID    string            `json:"machineId,omitempty" yaml:"machine,omitempty"`
	Requirements []RoleRequirement `json:"requirements" yaml:"requirements"`
	HoursPerUnit float64           `json:"hoursPerUnit" yaml:"hoursPerUnit"`
}

// IsMachineBound reports whether the stage runs on a specific machine
func (s Stage) IsMachineBound() bool {
	return s.MachineID != ""
}

// IsTeam reports whether the stage is staffed by more than one worker
func (s Stage) IsTeam() bool {
	total := 0
	for _, req := range s.Requirements {
		total += req.Count
	}
	return total > 1
}

// Headcount is the total number of workers the stage needs
func (s Stage) Headcount() int {
	total := 0
	for _, req := range s.Requirements {
		total += req.Count
	}
	return total
}

// Routing is the validated, ordered stage table every order follows
type Routing struct {
	stages []Stage
	index  map[string]int
}

// NewRouting validates the stage table and builds a Routing
func NewRouting(stages []Stage) (*Routing, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: no stages", ErrInvalidRouting)
	}

	r := &Routing{
		stages: make([]Stage, len(stages)),
		index:  make(map[string]int, len(stages)),
	}

	totalWeight := 0
	for i, st := range stages {
		if st.Name == "" || st.Name == StageNone {
			return nil, fmt.Errorf("%w: stage %d has an invalid name %q", ErrInvalidRouting, i, st.Name)
		}
		if _, dup := r.index[st.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate stage %q", ErrInvalidRouting, st.Name)
		}
		if st.Weight <= 0 {
			return nil, fmt.Errorf("%w: stage %q weight must be positive", ErrInvalidRouting, st.Name)
		}
		if st.HoursPerUnit <= 0 {
			return nil, fmt.Errorf("%w: stage %q hours per unit must be positive", ErrInvalidRouting, st.Name)
		}
		if len(st.Requirements) == 0 {
			return nil, fmt.Errorf("%w: stage %q requires at least one role", ErrInvalidRouting, st.Name)
		}
		seen := make(map[Role]bool, len(st.Requirements))
		for _, req := range st.Requirements {
			if !req.Role.IsValid() {
				return nil, fmt.Errorf("%w: stage %q has unknown role %q", ErrInvalidRouting, st.Name, req.Role)
			}
			if req.Count <= 0 {
				return nil, fmt.Errorf("%w: stage %q role %q count must be positive", ErrInvalidRouting, st.Name, req.Role)
			}
			if seen[req.Role] {
				return nil, fmt.Errorf("%w: stage %q lists role %q twice", ErrInvalidRouting, st.Name, req.Role)
			}
			seen[req.Role] = true
		}
		if st.IsMachineBound() && st.IsTeam() {
			return nil, fmt.Errorf("%w: machine-bound stage %q must be single-resource", ErrInvalidRouting, st.Name)
		}

		st.Requirements = append([]RoleRequirement(nil), st.Requirements...)
		r.stages[i] = st
		r.index[st.Name] = i
		totalWeight += st.Weight
	}

	if totalWeight != 100 {
		return nil, fmt.Errorf("%w: stage weights sum to %d, want 100", ErrInvalidRouting, totalWeight)
	}

	return r, nil
}

// Stages returns a copy of the stage table in execution order
func (r *Routing) Stages() []Stage {
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// Len returns the number of stages
func (r *Routing) Len() int {
	return len(r.stages)
}

// Names returns the stage names in execution order
func (r *Routing) Names() []string {
	names := make([]string, len(r.stages))
	for i, st := range r.stages {
		names[i] = st.Name
	}
	return names
}

// Stage looks up a stage by name
func (r *Routing) Stage(name string) (Stage, bool) {
	i, ok := r.index[name]
	if !ok {
		return Stage{}, false
	}
	return r.stages[i], true
}

// Weight returns the completion weight of a stage, 0 if unknown
func (r *Routing) Weight(name string) int {
	st, ok := r.Stage(name)
	if !ok {
		return 0
	}
	return st.Weight
}

// SanitizePrefix keeps the longest leading run of completed that matches the routing position by
// position. Anything after the first mismatch (unknown or out-of-order stage) is discarded.
func (r *Routing) SanitizePrefix(completed []string) []string {
	prefix := make([]string, 0, len(r.stages))
	for i, name := range completed {
		if i >= len(r.stages) || r.stages[i].Name != name {
			break
		}
		prefix = append(prefix, name)
	}
	return prefix
}

// NextStage returns the stage following a completed prefix of length k, or StageNone
func (r *Routing) NextStage(k int) string {
	if k >= len(r.stages) {
		return StageNone
	}
	return r.stages[k].Name
}

// CompletedWeight sums the weights of the first k stages
func (r *Routing) CompletedWeight(k int) int {
	total := 0
	for i := 0; i < k && i < len(r.stages); i++ {
		total += r.stages[i].Weight
	}
	return total
}
