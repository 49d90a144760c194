package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rakishiii/production-scheduler/internal/domain"
	"github.com/Rakishiii/production-scheduler/internal/infrastructure/shopfloor"
	apperrors "github.com/Rakishiii/production-scheduler/pkg/errors"
	"github.com/Rakishiii/production-scheduler/pkg/metrics"
	"github.com/Rakishiii/production-scheduler/pkg/resilience"
	pkgtesting "github.com/Rakishiii/production-scheduler/pkg/testing"
)

type stubOrderRepo struct {
	SaveFn     func(ctx context.Context, order *domain.Order) error
	FindByIDFn func(ctx context.Context, orderID string) (*domain.Order, error)
	FindAllFn  func(ctx context.Context) ([]*domain.Order, error)
	DeleteFn   func(ctx context.Context, order *domain.Order) error
}

func (s *stubOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	if s.FindByIDFn != nil {
		return s.FindByIDFn(ctx, orderID)
	}
	return nil, nil
}

func (s *stubOrderRepo) FindAll(ctx context.Context) ([]*domain.Order, error) {
	if s.FindAllFn != nil {
		return s.FindAllFn(ctx)
	}
	return nil, nil
}

func (s *stubOrderRepo) Delete(ctx context.Context, order *domain.Order) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, order)
	}
	return nil
}

type stubAbsenceRepo struct {
	SaveFn           func(ctx context.Context, absence *domain.AbsenceRecord) error
	FindByIDFn       func(ctx context.Context, absenceID string) (*domain.AbsenceRecord, error)
	FindAllFn        func(ctx context.Context) ([]domain.AbsenceRecord, error)
	FindByResourceFn func(ctx context.Context, resourceID string) ([]domain.AbsenceRecord, error)
	DeleteFn         func(ctx context.Context, absenceID string) error
}

func (s *stubAbsenceRepo) Save(ctx context.Context, absence *domain.AbsenceRecord) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, absence)
	}
	return nil
}

func (s *stubAbsenceRepo) FindByID(ctx context.Context, absenceID string) (*domain.AbsenceRecord, error) {
	if s.FindByIDFn != nil {
		return s.FindByIDFn(ctx, absenceID)
	}
	return nil, nil
}

func (s *stubAbsenceRepo) FindAll(ctx context.Context) ([]domain.AbsenceRecord, error) {
	if s.FindAllFn != nil {
		return s.FindAllFn(ctx)
	}
	return nil, nil
}

func (s *stubAbsenceRepo) FindByResource(ctx context.Context, resourceID string) ([]domain.AbsenceRecord, error) {
	if s.FindByResourceFn != nil {
		return s.FindByResourceFn(ctx, resourceID)
	}
	return nil, nil
}

func (s *stubAbsenceRepo) Delete(ctx context.Context, absenceID string) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, absenceID)
	}
	return nil
}

var today = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func testShop(t *testing.T) *domain.ShopFloor {
	t.Helper()
	shop, err := shopfloor.Default()
	require.NoError(t, err)
	return shop
}

func newTestService(t *testing.T, orders domain.OrderRepository, absences domain.AbsenceRepository, opts ...ServiceOption) *ProductionApplicationService {
	t.Helper()
	shop := testShop(t)
	opts = append([]ServiceOption{WithClock(pkgtesting.FixedClock(2025, time.March, 3))}, opts...)
	return NewProductionApplicationService(
		orders, absences, shop, domain.NewScheduler(shop),
		metrics.New(metrics.DefaultConfig("test")), pkgtesting.DiscardLogger(), opts...,
	)
}

func testOrder(t *testing.T, id string, qty int, completionInDays int) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, "Acme", "Tall Cabinet", "Oak", qty, today, today.AddDate(0, 0, completionInDays), testShop(t).Routing)
	require.NoError(t, err)
	order.ClearDomainEvents()
	return order
}

func requireAppError(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.HTTPStatus)
}

func TestProductionService_CreateOrder(t *testing.T) {
	var saved *domain.Order
	repo := &stubOrderRepo{
		SaveFn: func(_ context.Context, order *domain.Order) error {
			saved = order
			return nil
		},
	}
	service := newTestService(t, repo, &stubAbsenceRepo{})

	dto, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		CustomerName:   "Acme",
		CabinetType:    "Hanging Cabinet",
		Color:          "White",
		Quantity:       12,
		CompletionDate: today.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.True(t, strings.HasPrefix(dto.OrderID, "ORD-"))
	assert.Equal(t, "2025-03-03", dto.StartDate)
	assert.Equal(t, "2025-03-10", dto.CompletionDate)
	assert.Equal(t, "HIGH", dto.Priority)
	assert.Equal(t, 6, dto.MachineQuota)
	assert.Equal(t, "CNC Cutting", dto.NextStage)
	assert.Equal(t, "In Progress", dto.Status)
	assert.Len(t, saved.GetDomainEvents(), 1)
}

func TestProductionService_CreateOrderQuantityLimits(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantErr  bool
	}{
		{"Below minimum", 2, true},
		{"Minimum", 3, false},
		{"Maximum", 50, false},
		{"Above maximum", 51, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saves := 0
			repo := &stubOrderRepo{SaveFn: func(context.Context, *domain.Order) error { saves++; return nil }}
			service := newTestService(t, repo, &stubAbsenceRepo{})

			_, err := service.CreateOrder(context.Background(), CreateOrderCommand{
				CustomerName: "Acme", CabinetType: "Shelves", Color: "Oak",
				Quantity: tt.quantity, CompletionDate: today.AddDate(0, 0, 30),
			})
			if tt.wantErr {
				requireAppError(t, err, apperrors.CodeValidationError, http.StatusBadRequest)
				assert.Zero(t, saves)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, saves)
		})
	}
}

func TestProductionService_ListOrders(t *testing.T) {
	late := testOrder(t, "ORD-LATE", 7, 60)
	soon := testOrder(t, "ORD-SOON", 7, 5)
	repo := &stubOrderRepo{
		FindAllFn: func(context.Context) ([]*domain.Order, error) {
			return []*domain.Order{late, soon}, nil
		},
	}
	service := newTestService(t, repo, &stubAbsenceRepo{})

	list, err := service.ListOrders(context.Background(), ListOrdersQuery{})
	require.NoError(t, err)

	assert.Equal(t, "2025-03-03", list.ReferenceDate)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, "ORD-SOON", list.Orders[0].OrderID)
	assert.Equal(t, "HIGH", list.Orders[0].Priority)
	assert.Equal(t, "LOW", list.Orders[1].Priority)
	assert.Len(t, list.Assignments, 12)
	assert.Empty(t, list.Shortfalls)

	cutting, ok := list.Orders[0].Schedule["CNC Cutting"]
	require.True(t, ok)
	assert.Equal(t, "M01", cutting.MachineID)
	assert.Equal(t, "2025-03-03", cutting.Start)
	assert.Equal(t, 1, cutting.DurationDays)
	assert.False(t, list.Orders[0].HasShortfall)
}

func TestProductionService_ListOrdersWithDateOverride(t *testing.T) {
	order := testOrder(t, "ORD-1", 5, 30)
	repo := &stubOrderRepo{
		FindAllFn: func(context.Context) ([]*domain.Order, error) { return []*domain.Order{order}, nil },
	}
	service := newTestService(t, repo, &stubAbsenceRepo{})

	list, err := service.ListOrders(context.Background(), ListOrdersQuery{Date: "2025-03-25"})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "2025-03-25", list.ReferenceDate)
	assert.Equal(t, 8, list.Orders[0].DaysRemaining)
	assert.Equal(t, "MEDIUM", list.Orders[0].Priority)
}

func TestProductionService_ReferenceDate(t *testing.T) {
	t.Run("Invalid date", func(t *testing.T) {
		service := newTestService(t, &stubOrderRepo{}, &stubAbsenceRepo{})
		_, err := service.GetSchedule(context.Background(), GetScheduleQuery{Date: "03/04/2025"})
		requireAppError(t, err, apperrors.CodeValidationError, http.StatusBadRequest)
	})

	t.Run("Override disabled", func(t *testing.T) {
		service := newTestService(t, &stubOrderRepo{}, &stubAbsenceRepo{}, WithDateOverride(false))
		_, err := service.GetDashboard(context.Background(), GetDashboardQuery{Date: "2025-03-04"})
		requireAppError(t, err, apperrors.CodeBadRequest, http.StatusBadRequest)

		_, err = service.GetDashboard(context.Background(), GetDashboardQuery{})
		assert.NoError(t, err)
	})
}

func TestProductionService_MarkStageComplete(t *testing.T) {
	tests := []struct {
		name       string
		stage      string
		setup      func(o *domain.Order)
		wantCode   string
		wantStatus int
	}{
		{"Next stage", "CNC Cutting", nil, "", 0},
		{"Out of order", "Assembly", nil, apperrors.CodeInvalidStage, http.StatusConflict},
		{"Unknown stage", "Painting", nil, apperrors.CodeInvalidStage, http.StatusConflict},
		{
			"Already complete", "Packing",
			func(o *domain.Order) { o.CompletedStages = testShop(t).Routing.Names() },
			apperrors.CodeOrderAlreadyComplete, http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := testOrder(t, "ORD-1", 10, 14)
			if tt.setup != nil {
				tt.setup(order)
			}
			saves := 0
			repo := &stubOrderRepo{
				FindByIDFn: func(context.Context, string) (*domain.Order, error) { return order, nil },
				SaveFn:     func(context.Context, *domain.Order) error { saves++; return nil },
			}
			service := newTestService(t, repo, &stubAbsenceRepo{})

			dto, err := service.MarkStageComplete(context.Background(), MarkStageCompleteCommand{OrderID: "ORD-1", Stage: tt.stage})
			if tt.wantCode != "" {
				requireAppError(t, err, tt.wantCode, tt.wantStatus)
				assert.Zero(t, saves)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, saves)
			assert.Equal(t, []string{"CNC Cutting"}, dto.CompletedStages)
			assert.Equal(t, "CNC Edging", dto.NextStage)
			assert.InDelta(t, 15.0, dto.Progress, 0.001)
		})
	}
}

func TestProductionService_MarkStageCompleteNotFound(t *testing.T) {
	service := newTestService(t, &stubOrderRepo{}, &stubAbsenceRepo{})

	_, err := service.MarkStageComplete(context.Background(), MarkStageCompleteCommand{OrderID: "missing", Stage: "CNC Cutting"})
	requireAppError(t, err, apperrors.CodeNotFound, http.StatusNotFound)
}

func TestProductionService_UpdateStageProgress(t *testing.T) {
	order := testOrder(t, "ORD-1", 10, 14)
	order.CompletedStages = []string{"CNC Cutting", "CNC Edging"}
	repo := &stubOrderRepo{
		FindByIDFn: func(context.Context, string) (*domain.Order, error) { return order, nil },
	}
	service := newTestService(t, repo, &stubAbsenceRepo{})

	dto, err := service.UpdateStageProgress(context.Background(), UpdateStageProgressCommand{OrderID: "ORD-1", Stage: "CNC Routing", Percent: 50})
	require.NoError(t, err)
	assert.InDelta(t, 37.5, dto.Progress, 0.001)

	_, err = service.UpdateStageProgress(context.Background(), UpdateStageProgressCommand{OrderID: "ORD-1", Stage: "CNC Routing", Percent: 120})
	requireAppError(t, err, apperrors.CodeValidationError, http.StatusBadRequest)

	_, err = service.UpdateStageProgress(context.Background(), UpdateStageProgressCommand{OrderID: "ORD-1", Stage: "CNC Routing", Percent: 20})
	requireAppError(t, err, apperrors.CodeValidationError, http.StatusBadRequest)
	assert.InDelta(t, 50.0, order.ActiveStageProgress, 0.001)
}

func TestProductionService_DeleteOrder(t *testing.T) {
	order := testOrder(t, "ORD-1", 10, 14)
	var deleted *domain.Order
	repo := &stubOrderRepo{
		FindByIDFn: func(context.Context, string) (*domain.Order, error) { return order, nil },
		DeleteFn: func(_ context.Context, o *domain.Order) error {
			deleted = o
			return nil
		},
	}
	service := newTestService(t, repo, &stubAbsenceRepo{})

	require.NoError(t, service.DeleteOrder(context.Background(), DeleteOrderCommand{OrderID: "ORD-1"}))
	require.NotNil(t, deleted)
	events := deleted.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "production.order.deleted", events[0].EventType())
}

func TestProductionService_RepositoryFailure(t *testing.T) {
	repo := &stubOrderRepo{
		FindAllFn: func(context.Context) ([]*domain.Order, error) { return nil, errors.New("connection reset") },
	}
	service := newTestService(t, repo, &stubAbsenceRepo{})

	_, err := service.GetSchedule(context.Background(), GetScheduleQuery{})
	require.Error(t, err)
	assert.False(t, apperrors.IsAppError(err))
	assert.Contains(t, err.Error(), "failed to load orders")
}

func TestProductionService_GuardRetriesReads(t *testing.T) {
	calls := 0
	repo := &stubOrderRepo{
		FindAllFn: func(context.Context) ([]*domain.Order, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("transient")
			}
			return []*domain.Order{}, nil
		},
	}
	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("mongodb"), nil, nil)
	retry := resilience.DefaultRetryConfig()
	retry.InitialDelay = time.Millisecond
	service := newTestService(t, repo, &stubAbsenceRepo{}, WithGuard(resilience.NewGuard(breaker, retry)))

	schedule, err := service.GetSchedule(context.Background(), GetScheduleQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Empty(t, schedule.Assignments)
}

func TestProductionService_CreateAbsence(t *testing.T) {
	t.Run("Role copied from catalog", func(t *testing.T) {
		var saved *domain.AbsenceRecord
		absences := &stubAbsenceRepo{SaveFn: func(_ context.Context, a *domain.AbsenceRecord) error { saved = a; return nil }}
		service := newTestService(t, &stubOrderRepo{}, absences)

		dto, err := service.CreateAbsence(context.Background(), CreateAbsenceCommand{ResourceID: "W04", Date: today, Reason: "leave"})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "Carpenter", dto.Role)
		assert.Equal(t, "2025-03-03", dto.Date)
		assert.True(t, strings.HasPrefix(dto.AbsenceID, "ABS-"))
	})

	t.Run("Unknown resource", func(t *testing.T) {
		service := newTestService(t, &stubOrderRepo{}, &stubAbsenceRepo{})
		_, err := service.CreateAbsence(context.Background(), CreateAbsenceCommand{ResourceID: "W99", Date: today})
		requireAppError(t, err, apperrors.CodeValidationError, http.StatusBadRequest)
	})

	t.Run("Duplicate", func(t *testing.T) {
		absences := &stubAbsenceRepo{SaveFn: func(context.Context, *domain.AbsenceRecord) error {
			return fmt.Errorf("%w: W04", domain.ErrAbsenceExists)
		}}
		service := newTestService(t, &stubOrderRepo{}, absences)
		_, err := service.CreateAbsence(context.Background(), CreateAbsenceCommand{ResourceID: "W04", Date: today})
		requireAppError(t, err, apperrors.CodeConflict, http.StatusConflict)
	})
}

func TestProductionService_AbsenceBlocksSchedule(t *testing.T) {
	order := testOrder(t, "ORD-1", 7, 10)
	orders := &stubOrderRepo{
		FindAllFn: func(context.Context) ([]*domain.Order, error) { return []*domain.Order{order}, nil },
	}
	absences := &stubAbsenceRepo{
		FindAllFn: func(context.Context) ([]domain.AbsenceRecord, error) {
			return []domain.AbsenceRecord{{AbsenceID: "A1", ResourceID: "M01", Date: today}}, nil
		},
	}
	service := newTestService(t, orders, absences)

	schedule, err := service.GetSchedule(context.Background(), GetScheduleQuery{})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", schedule.Schedule["ORD-1"]["CNC Cutting"].Start)
}

func TestProductionService_DeleteAbsenceNotFound(t *testing.T) {
	service := newTestService(t, &stubOrderRepo{}, &stubAbsenceRepo{})

	err := service.DeleteAbsence(context.Background(), DeleteAbsenceCommand{AbsenceID: "ABS-1"})
	requireAppError(t, err, apperrors.CodeNotFound, http.StatusNotFound)
}

func TestProductionService_StaticCatalog(t *testing.T) {
	service := newTestService(t, &stubOrderRepo{}, &stubAbsenceRepo{})

	resources := service.ListResources()
	assert.Len(t, resources, 20)
	assert.Equal(t, "M01", resources[0].ID)

	routing := service.GetRouting()
	assert.Equal(t, 7.0, routing.WorkHoursPerDay)
	require.Len(t, routing.Stages, 6)
	assert.Equal(t, "none", routing.Stages[3].MachineID)
	assert.Len(t, routing.Stages[3].Requirements, 2)
}
