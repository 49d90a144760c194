package application

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Rakishiii/production-scheduler/internal/domain"
	"github.com/Rakishiii/production-scheduler/pkg/errors"
	"github.com/Rakishiii/production-scheduler/pkg/logging"
	"github.com/Rakishiii/production-scheduler/pkg/metrics"
	"github.com/Rakishiii/production-scheduler/pkg/resilience"
	"github.com/Rakishiii/production-scheduler/pkg/tracing"
)

const tracerName = "production-scheduler/application"

// Order quantity limits accepted by the service
const (
	MinOrderQuantity = 3
	MaxOrderQuantity = 50
)

func init() {
	errors.RegisterDomainError(domain.ErrInvalidStage, errors.CodeInvalidStage, http.StatusConflict)
	errors.RegisterDomainError(domain.ErrOrderAlreadyComplete, errors.CodeOrderAlreadyComplete, http.StatusConflict)
	errors.RegisterDomainError(domain.ErrOutOfRange, errors.CodeValidationError, http.StatusBadRequest)
	errors.RegisterDomainError(domain.ErrInvalidQuantity, errors.CodeValidationError, http.StatusBadRequest)
	errors.RegisterDomainError(domain.ErrInvalidCompletion, errors.CodeValidationError, http.StatusBadRequest)
	errors.RegisterDomainError(domain.ErrUnknownResource, errors.CodeValidationError, http.StatusBadRequest)
	errors.RegisterDomainError(domain.ErrInvalidAbsence, errors.CodeValidationError, http.StatusBadRequest)
	errors.RegisterDomainError(domain.ErrAbsenceExists, errors.CodeConflict, http.StatusConflict)
}

// ProductionApplicationService handles order, schedule and absence use cases
type ProductionApplicationService struct {
	orders        domain.OrderRepository
	absences      domain.AbsenceRepository
	shop          *domain.ShopFloor
	scheduler     *domain.Scheduler
	guard         *resilience.Guard
	metrics       *metrics.Metrics
	logger        *logging.Logger
	clock         func() time.Time
	allowOverride bool
}

// ServiceOption configures a ProductionApplicationService
type ServiceOption func(*ProductionApplicationService)

// WithClock replaces time.Now as the source of "today"
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *ProductionApplicationService) { s.clock = clock }
}

// WithGuard routes repository reads through a circuit breaker and retry policy
func WithGuard(guard *resilience.Guard) ServiceOption {
	return func(s *ProductionApplicationService) { s.guard = guard }
}

// WithDateOverride controls whether callers may pass an explicit reference date
func WithDateOverride(allowed bool) ServiceOption {
	return func(s *ProductionApplicationService) { s.allowOverride = allowed }
}

// NewProductionApplicationService creates a new ProductionApplicationService
func NewProductionApplicationService(
	orders domain.OrderRepository,
	absences domain.AbsenceRepository,
	shop *domain.ShopFloor,
	scheduler *domain.Scheduler,
	m *metrics.Metrics,
	logger *logging.Logger,
	opts ...ServiceOption,
) *ProductionApplicationService {
	s := &ProductionApplicationService{
		orders:        orders,
		absences:      absences,
		shop:          shop,
		scheduler:     scheduler,
		metrics:       m,
		logger:        logger.WithComponent("production-service"),
		clock:         time.Now,
		allowOverride: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder creates a new order starting today
func (s *ProductionApplicationService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*OrderDTO, error) {
	if cmd.Quantity < MinOrderQuantity || cmd.Quantity > MaxOrderQuantity {
		return nil, errors.ErrValidation(fmt.Sprintf("quantity must be between %d and %d", MinOrderQuantity, MaxOrderQuantity)).
			WithDetail("quantity", fmt.Sprint(cmd.Quantity))
	}

	today := domain.Day(s.clock())
	order, err := domain.NewOrder(newID("ORD"), cmd.CustomerName, cmd.CabinetType, cmd.Color, cmd.Quantity, today, cmd.CompletionDate, s.shop.Routing)
	if err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.orders.Save(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to save order", "orderId", order.OrderID)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.metrics.RecordOrderCreated(string(order.Priority), order.CabinetType)
	s.logger.WithContext(ctx).Info("Created order", "orderId", order.OrderID, "priority", order.Priority, "quantity", order.Quantity)
	return ToOrderDTO(order, today), nil
}

// ListOrders returns the backlog normalized and prioritized at the reference date, sorted by
// completion date, with each order's planned stages
func (s *ProductionApplicationService) ListOrders(ctx context.Context, query ListOrdersQuery) (*OrderListDTO, error) {
	ref, err := s.referenceDate(query.Date)
	if err != nil {
		return nil, err
	}

	orders, result, err := s.plan(ctx, ref)
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b *domain.Order) int {
		if c := a.CompletionDate.Compare(b.CompletionDate); c != 0 {
			return c
		}
		return strings.Compare(a.OrderID, b.OrderID)
	})

	schedule := ToScheduleDTO(result)
	list := &OrderListDTO{
		ReferenceDate: schedule.ReferenceDate,
		Orders:        make([]OrderDTO, 0, len(sorted)),
		Assignments:   schedule.Assignments,
		Shortfalls:    schedule.Shortfalls,
	}
	for _, order := range sorted {
		dto := ToOrderDTO(order, ref)
		dto.Schedule = schedule.Schedule[order.OrderID]
		dto.HasShortfall = result.HasShortfall(order.OrderID)
		list.Orders = append(list.Orders, *dto)
	}
	return list, nil
}

// GetOrder retrieves an order by ID
func (s *ProductionApplicationService) GetOrder(ctx context.Context, query GetOrderQuery) (*OrderDTO, error) {
	ref, err := s.referenceDate(query.Date)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, query.OrderID)
	if err != nil {
		return nil, err
	}

	order.ApplyPriority(ref)
	return ToOrderDTO(order, ref), nil
}

// DeleteOrder removes an order
func (s *ProductionApplicationService) DeleteOrder(ctx context.Context, cmd DeleteOrderCommand) error {
	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return err
	}

	order.MarkDeleted()
	if err := s.orders.Delete(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to delete order", "orderId", cmd.OrderID)
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.logger.WithContext(ctx).Info("Deleted order", "orderId", cmd.OrderID)
	return nil
}

// MarkStageComplete completes the order's current stage
func (s *ProductionApplicationService) MarkStageComplete(ctx context.Context, cmd MarkStageCompleteCommand) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if err := order.MarkStageComplete(s.shop.Routing, cmd.Stage); err != nil {
		return nil, errors.MapDomainError(err)
	}

	today := domain.Day(s.clock())
	order.ApplyPriority(today)

	if err := s.orders.Save(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to save order", "orderId", cmd.OrderID)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.metrics.RecordStageCompleted(cmd.Stage, order.IsComplete())
	s.logger.WithContext(ctx).Info("Completed stage", "orderId", cmd.OrderID, "stage", cmd.Stage, "progress", order.Progress)
	return ToOrderDTO(order, today), nil
}

// UpdateStageProgress sets the partial progress of the order's current stage
func (s *ProductionApplicationService) UpdateStageProgress(ctx context.Context, cmd UpdateStageProgressCommand) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if err := order.UpdateActiveProgress(s.shop.Routing, cmd.Stage, cmd.Percent); err != nil {
		return nil, errors.MapDomainError(err)
	}

	today := domain.Day(s.clock())
	order.ApplyPriority(today)

	if err := s.orders.Save(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to save order", "orderId", cmd.OrderID)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.WithContext(ctx).Info("Updated stage progress", "orderId", cmd.OrderID, "stage", cmd.Stage, "percent", cmd.Percent)
	return ToOrderDTO(order, today), nil
}

// GetSchedule runs a scheduling pass over the whole backlog
func (s *ProductionApplicationService) GetSchedule(ctx context.Context, query GetScheduleQuery) (*ScheduleDTO, error) {
	ref, err := s.referenceDate(query.Date)
	if err != nil {
		return nil, err
	}

	_, result, err := s.plan(ctx, ref)
	if err != nil {
		return nil, err
	}
	return ToScheduleDTO(result), nil
}

// GetDashboard summarizes the backlog at the reference date
func (s *ProductionApplicationService) GetDashboard(ctx context.Context, query GetDashboardQuery) (*DashboardDTO, error) {
	ref, err := s.referenceDate(query.Date)
	if err != nil {
		return nil, err
	}

	orders, result, err := s.plan(ctx, ref)
	if err != nil {
		return nil, err
	}

	dashboard := BuildDashboard(orders, s.shop.Routing, ref)
	dashboard.Shortfalls = len(result.Shortfalls)
	return dashboard, nil
}

// CreateAbsence records that a catalog resource is unavailable for a day
func (s *ProductionApplicationService) CreateAbsence(ctx context.Context, cmd CreateAbsenceCommand) (*AbsenceDTO, error) {
	absence, err := domain.NewAbsenceRecord(newID("ABS"), s.shop.Catalog, cmd.ResourceID, cmd.Date, cmd.Reason)
	if err != nil {
		return nil, errors.MapDomainError(err).WithDetail("resourceId", cmd.ResourceID)
	}

	if err := s.absences.Save(ctx, absence); err != nil {
		if appErr := errors.MapDomainError(err); appErr.Code == errors.CodeConflict {
			return nil, appErr
		}
		s.logger.WithError(err).Error("Failed to save absence", "resourceId", cmd.ResourceID)
		return nil, fmt.Errorf("failed to save absence: %w", err)
	}

	s.metrics.RecordAbsence(string(absence.Role))
	s.logger.WithContext(ctx).Info("Recorded absence", "absenceId", absence.AbsenceID, "resourceId", absence.ResourceID, "date", domain.FormatDay(absence.Date))
	return ToAbsenceDTO(absence), nil
}

// ListAbsences lists absences ordered by day
func (s *ProductionApplicationService) ListAbsences(ctx context.Context, query ListAbsencesQuery) ([]AbsenceDTO, error) {
	absences, err := resilience.Call(ctx, s.guard, func(ctx context.Context) ([]domain.AbsenceRecord, error) {
		if query.ResourceID != "" {
			return s.absences.FindByResource(ctx, query.ResourceID)
		}
		return s.absences.FindAll(ctx)
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to list absences")
		return nil, fmt.Errorf("failed to list absences: %w", err)
	}

	dtos := make([]AbsenceDTO, 0, len(absences))
	for i := range absences {
		dtos = append(dtos, *ToAbsenceDTO(&absences[i]))
	}
	return dtos, nil
}

// DeleteAbsence removes an absence
func (s *ProductionApplicationService) DeleteAbsence(ctx context.Context, cmd DeleteAbsenceCommand) error {
	absence, err := s.absences.FindByID(ctx, cmd.AbsenceID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get absence", "absenceId", cmd.AbsenceID)
		return fmt.Errorf("failed to get absence: %w", err)
	}
	if absence == nil {
		return errors.ErrNotFoundWithID("absence", cmd.AbsenceID)
	}

	if err := s.absences.Delete(ctx, cmd.AbsenceID); err != nil {
		s.logger.WithError(err).Error("Failed to delete absence", "absenceId", cmd.AbsenceID)
		return fmt.Errorf("failed to delete absence: %w", err)
	}

	s.logger.WithContext(ctx).Info("Deleted absence", "absenceId", cmd.AbsenceID)
	return nil
}

// ListResources returns the shop-floor catalog
func (s *ProductionApplicationService) ListResources() []ResourceDTO {
	entries := s.shop.Catalog.Entries()
	dtos := make([]ResourceDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, ToResourceDTO(e))
	}
	return dtos
}

// GetRouting returns the process routing
func (s *ProductionApplicationService) GetRouting() *RoutingDTO {
	return ToRoutingDTO(s.shop)
}

// plan loads the backlog, normalizes and prioritizes every order at ref, and runs one pass
func (s *ProductionApplicationService) plan(ctx context.Context, ref time.Time) ([]*domain.Order, *domain.ScheduleResult, error) {
	orders, err := resilience.Call(ctx, s.guard, s.orders.FindAll)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load orders")
		return nil, nil, fmt.Errorf("failed to load orders: %w", err)
	}
	absences, err := resilience.Call(ctx, s.guard, s.absences.FindAll)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load absences")
		return nil, nil, fmt.Errorf("failed to load absences: %w", err)
	}

	for _, order := range orders {
		order.Normalize(s.shop.Routing)
		order.ApplyPriority(ref)
	}

	day := domain.FormatDay(ref)
	ctx, span := tracing.StartSpan(ctx, tracerName, "schedule.pass",
		attribute.String("schedule.reference_date", day),
	)
	start := time.Now()
	result := s.scheduler.Schedule(orders, absences, ref)
	duration := time.Since(start)
	span.SetAttributes(tracing.ScheduleSpanAttributes(day, len(orders), len(result.Assignments), len(result.Shortfalls))...)
	tracing.EndSpan(span, nil)

	s.metrics.RecordSchedulePass(len(orders), len(result.Shortfalls), duration)
	for _, a := range result.Assignments {
		s.metrics.RecordStageAssignment(a.Stage)
	}
	for _, sf := range result.Shortfalls {
		s.metrics.RecordCapacityShortfall(sf.Stage, sf.Reason)
	}
	s.logger.SchedulePass(ctx, day, len(orders), len(result.Assignments), len(result.Shortfalls), duration)

	return orders, result, nil
}

func (s *ProductionApplicationService) loadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := resilience.Call(ctx, s.guard, func(ctx context.Context) (*domain.Order, error) {
		return s.orders.FindByID(ctx, orderID)
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to get order", "orderId", orderID)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, errors.ErrNotFoundWithID("order", orderID)
	}

	order.Normalize(s.shop.Routing)
	return order, nil
}

func (s *ProductionApplicationService) referenceDate(raw string) (time.Time, error) {
	if raw == "" {
		return domain.Day(s.clock()), nil
	}
	if !s.allowOverride {
		return time.Time{}, errors.ErrBadRequest("reference date override is disabled")
	}

	ref, err := domain.ParseDay(raw)
	if err != nil {
		return time.Time{}, errors.ErrValidation("invalid date, expected YYYY-MM-DD").WithDetail("date", raw)
	}
	return ref, nil
}

func newID(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
