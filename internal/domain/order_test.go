package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewOrder tests order creation
func TestNewOrder(t *testing.T) {
	routing := testRouting(t)
	order, err := NewOrder("ORD-1", "ACME", "Tall Cabinet", "Oak", 10, day(t, "2025-03-01"), day(t, "2025-03-05"), routing)

	require.NoError(t, err)
	assert.Equal(t, "ORD-1", order.OrderID)
	assert.Empty(t, order.CompletedStages)
	assert.Equal(t, "CNC Cutting", order.NextStage)
	assert.Equal(t, 0.0, order.Progress)
	assert.Equal(t, OrderStatusInProgress, order.Status)
	assert.Equal(t, PriorityHigh, order.Priority)
	assert.Equal(t, HighMachineQuota, order.MachineQuota)
	require.Len(t, order.GetDomainEvents(), 1)
	assert.Equal(t, "production.order.created", order.GetDomainEvents()[0].EventType())
}

func TestNewOrder_Validation(t *testing.T) {
	routing := testRouting(t)

	_, err := NewOrder("ORD-1", "ACME", "Shelves", "White", 0, day(t, "2025-03-01"), day(t, "2025-03-05"), routing)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewOrder("ORD-1", "ACME", "Shelves", "White", 5, day(t, "2025-03-01"), day(t, "0001-01-01"), routing)
	assert.ErrorIs(t, err, ErrInvalidCompletion)
}

func TestOrder_Normalize(t *testing.T) {
	routing := testRouting(t)

	tests := []struct {
		name             string
		completed        []string
		active           float64
		expectedProgress float64
		expectedNext     string
		expectedStatus   OrderStatus
		expectedActive   float64
	}{
		{
			name:             "Partial routing stage",
			completed:        []string{"CNC Cutting", "CNC Edging"},
			active:           50,
			expectedProgress: 37.5,
			expectedNext:     "CNC Routing",
			expectedStatus:   OrderStatusInProgress,
			expectedActive:   50,
		},
		{
			name:             "Active progress clamped to 99",
			completed:        []string{"CNC Cutting", "CNC Edging", "CNC Routing", "Assembly", "Quality Assurance"},
			active:           150,
			expectedProgress: 99,
			expectedNext:     "Packing",
			expectedStatus:   OrderStatusInProgress,
			expectedActive:   99,
		},
		{
			name:             "Negative active progress",
			completed:        nil,
			active:           -10,
			expectedProgress: 0,
			expectedNext:     "CNC Cutting",
			expectedStatus:   OrderStatusInProgress,
			expectedActive:   0,
		},
		{
			name:             "Completed routing forces active progress to zero",
			completed:        routing.Names(),
			active:           60,
			expectedProgress: 100,
			expectedNext:     StageNone,
			expectedStatus:   OrderStatusCompleted,
			expectedActive:   0,
		},
		{
			name:             "Invalid list is sanitized",
			completed:        []string{"CNC Cutting", "Packing", "CNC Edging"},
			active:           33,
			expectedProgress: 19.95,
			expectedNext:     "CNC Edging",
			expectedStatus:   OrderStatusInProgress,
			expectedActive:   33,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{CompletedStages: tt.completed, ActiveStageProgress: tt.active}
			order.Normalize(routing)

			assert.InDelta(t, tt.expectedProgress, order.Progress, 0.001)
			assert.Equal(t, tt.expectedNext, order.NextStage)
			assert.Equal(t, tt.expectedStatus, order.Status)
			assert.Equal(t, tt.expectedActive, order.ActiveStageProgress)
			assert.Equal(t, routing.SanitizePrefix(tt.completed), order.CompletedStages)
		})
	}
}

func TestMigrateLegacyProgress(t *testing.T) {
	routing := testRouting(t)

	tests := []struct {
		name           string
		completed      []string
		status         OrderStatus
		raw            float64
		expectedDone   int
		expectedNext   string
		expectedActive float64
		expectedProg   float64
		expectedStatus OrderStatus
	}{
		{"Solves partial stage", []string{"CNC Cutting", "CNC Edging"}, "", 37.5, 2, "CNC Routing", 50, 37.5, OrderStatusInProgress},
		{"Raw below completed weight keeps zero", []string{"CNC Cutting", "CNC Edging"}, "", 20, 2, "CNC Routing", 0, 30, OrderStatusInProgress},
		{"Raw beyond stage clamps to 99", []string{"CNC Cutting"}, "", 80, 1, "CNC Edging", 99, 29.85, OrderStatusInProgress},
		{"Bare record inside first stage", nil, "", 7.5, 0, "CNC Cutting", 50, 7.5, OrderStatusInProgress},
		{"Bare record on a stage boundary", nil, "", 45, 3, "Assembly", 0, 45, OrderStatusInProgress},
		{"Bare record inside assembly", nil, "", 60, 3, "Assembly", 37.5, 60, OrderStatusInProgress},
		{"Bare record at 100", nil, "", 100, 6, StageNone, 0, 100, OrderStatusCompleted},
		{"Bare record marked completed", nil, OrderStatusCompleted, 90, 6, StageNone, 0, 100, OrderStatusCompleted},
		{"Bare record at zero", nil, "", 0, 0, "CNC Cutting", 0, 0, OrderStatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{CompletedStages: tt.completed, Status: tt.status}
			MigrateLegacyProgress(order, routing, tt.raw)

			assert.Len(t, order.CompletedStages, tt.expectedDone)
			assert.Equal(t, tt.expectedNext, order.NextStage)
			assert.InDelta(t, tt.expectedActive, order.ActiveStageProgress, 0.001)
			assert.InDelta(t, tt.expectedProg, order.Progress, 0.001)
			assert.Equal(t, tt.expectedStatus, order.Status)
		})
	}
}

func TestOrder_ApplyPriority(t *testing.T) {
	ref := day(t, "2025-03-01")

	tests := []struct {
		name          string
		completion    string
		completed     bool
		expected      Priority
		expectedQuota int
	}{
		{"Overdue", "2025-02-20", false, PriorityHigh, 6},
		{"Seven days", "2025-03-08", false, PriorityHigh, 6},
		{"Eight days", "2025-03-09", false, PriorityMedium, 3},
		{"Twenty one days", "2025-03-22", false, PriorityMedium, 3},
		{"Twenty two days", "2025-03-23", false, PriorityLow, 1},
		{"Completed order", "2025-03-02", true, PriorityLow, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{CompletionDate: day(t, tt.completion), Status: OrderStatusInProgress}
			if tt.completed {
				order.Status = OrderStatusCompleted
			}
			order.ApplyPriority(ref)

			assert.Equal(t, tt.expected, order.Priority)
			assert.Equal(t, tt.expectedQuota, order.MachineQuota)
		})
	}
}

func TestOrder_MarkStageComplete(t *testing.T) {
	routing := testRouting(t)
	order := testOrder(t, "ORD-1", 10, "2025-03-01", "2025-03-20")

	previous := order.Progress
	for k, stage := range routing.Names() {
		require.NoError(t, order.MarkStageComplete(routing, stage))

		assert.Equal(t, routing.Names()[:k+1], order.CompletedStages, "completed stages must stay a routing prefix")
		assert.GreaterOrEqual(t, order.Progress, previous)
		assert.Equal(t, 0.0, order.ActiveStageProgress)
		assert.Equal(t, k == routing.Len()-1, order.IsComplete())
		assert.Equal(t, order.IsComplete(), order.Progress == 100)
		previous = order.Progress
	}

	events := order.GetDomainEvents()
	require.Len(t, events, routing.Len()+1)
	assert.Equal(t, "production.order.completed", events[len(events)-1].EventType())

	err := order.MarkStageComplete(routing, "Packing")
	assert.ErrorIs(t, err, ErrOrderAlreadyComplete)
}

func TestOrder_MarkStageComplete_OutOfSequence(t *testing.T) {
	routing := testRouting(t)
	order := testOrder(t, "ORD-1", 10, "2025-03-01", "2025-03-20")
	require.NoError(t, order.MarkStageComplete(routing, "CNC Cutting"))
	require.NoError(t, order.UpdateActiveProgress(routing, "CNC Edging", 40))
	order.ClearDomainEvents()

	before := *order
	before.CompletedStages = append([]string(nil), order.CompletedStages...)

	for _, stage := range []string{"CNC Routing", "CNC Cutting", "Painting"} {
		err := order.MarkStageComplete(routing, stage)
		assert.ErrorIs(t, err, ErrInvalidStage)
	}

	assert.Equal(t, before.CompletedStages, order.CompletedStages)
	assert.Equal(t, before.Progress, order.Progress)
	assert.Equal(t, before.ActiveStageProgress, order.ActiveStageProgress)
	assert.Empty(t, order.GetDomainEvents())
}

func TestOrder_UpdateActiveProgress(t *testing.T) {
	routing := testRouting(t)

	tests := []struct {
		name        string
		setup       func(*Order)
		stage       string
		percent     float64
		expectedErr error
		expected    float64
	}{
		{
			name:     "Partial progress on the first stage",
			stage:    "CNC Cutting",
			percent:  50,
			expected: 7.5,
		},
		{
			name:        "Wrong stage",
			stage:       "Assembly",
			percent:     50,
			expectedErr: ErrInvalidStage,
		},
		{
			name:        "Above range",
			stage:       "CNC Cutting",
			percent:     100,
			expectedErr: ErrOutOfRange,
		},
		{
			name:        "Below range",
			stage:       "CNC Cutting",
			percent:     -1,
			expectedErr: ErrOutOfRange,
		},
		{
			name: "Moving backwards",
			setup: func(o *Order) {
				_ = o.UpdateActiveProgress(routing, "CNC Cutting", 60)
			},
			stage:       "CNC Cutting",
			percent:     20,
			expectedErr: ErrOutOfRange,
			expected:    9,
		},
		{
			name: "Completed order",
			setup: func(o *Order) {
				for _, st := range routing.Names() {
					_ = o.MarkStageComplete(routing, st)
				}
			},
			stage:       "Packing",
			percent:     10,
			expectedErr: ErrOrderAlreadyComplete,
			expected:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := testOrder(t, "ORD-1", 10, "2025-03-01", "2025-03-20")
			if tt.setup != nil {
				tt.setup(order)
			}

			err := order.UpdateActiveProgress(routing, tt.stage, tt.percent)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
			assert.InDelta(t, tt.expected, order.Progress, 0.001)
		})
	}
}

func TestOrder_ProgressIsMonotonic(t *testing.T) {
	routing := testRouting(t)
	order := testOrder(t, "ORD-1", 10, "2025-03-01", "2025-03-20")

	type step struct {
		complete bool
		percent  float64
	}
	steps := []step{
		{percent: 10}, {percent: 99}, {complete: true},
		{percent: 5}, {percent: 5}, {complete: true},
		{complete: true}, {percent: 80}, {percent: 30}, {complete: true},
		{complete: true}, {percent: 50}, {complete: true},
	}

	previous := order.Progress
	for _, s := range steps {
		if s.complete {
			_ = order.MarkStageComplete(routing, order.NextStage)
		} else {
			_ = order.UpdateActiveProgress(routing, order.NextStage, s.percent)
		}
		assert.GreaterOrEqual(t, order.Progress, previous)
		previous = order.Progress
	}
	assert.True(t, order.IsComplete())
}
