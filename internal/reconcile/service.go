package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/internal/orders"
	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox/payloads"
	"github.com/marcoalvarez/boostgrid-backend/pkg/secsers"
)

const (
	defaultPageSize = 200
)

type providerGateway interface {
	OrderStatus(ctx context.Context, providerOrderID string) (*secsers.OrderStatusSnapshot, error)
	OrderStatusBatch(ctx context.Context, providerOrderIDs []string) (map[string]secsers.OrderStatusSnapshot, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SweepResult summarizes one reconciliation pass over open provider orders.
type SweepResult struct {
	Candidates int
	Synced     int
	Changed    int
	Failed     int
}

// OrderStatusDTO is the order's provider-facing state after a refresh.
type OrderStatusDTO struct {
	OrderNumber int64           `json:"order_number"`
	Status      string          `json:"status"`
	Charge      decimal.Decimal `json:"charge"`
	Currency    string          `json:"currency"`
	StartCount  *int            `json:"start_count,omitempty"`
	Remains     *int            `json:"remains,omitempty"`
	Changed     bool            `json:"changed"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Service converges local provider orders with the panel's view of them.
// The sweep and on-demand refreshes may race on the same order; the
// status-claiming update keeps the loser from emitting a duplicate event.
type Service interface {
	// SweepOnce reconciles every open provider order in one pass. Individual
	// order failures are collected; the sweep keeps going.
	SweepOnce(ctx context.Context) (*SweepResult, error)
	// RefreshOrder reconciles a single order right now. A non-nil requester
	// scopes the lookup to that user's own orders.
	RefreshOrder(ctx context.Context, orderID uuid.UUID, requester *uuid.UUID) (*OrderStatusDTO, error)
}

type service struct {
	repo         orders.Repository
	gateway      providerGateway
	outbox       outboxPublisher
	tx           txRunner
	logg         *logger.Logger
	openStatuses []string
	pageSize     int
}

// NewService wires a reconciliation service with the required dependencies.
func NewService(repo orders.Repository, gateway providerGateway, outboxSvc outboxPublisher, tx txRunner, logg *logger.Logger, openStatuses []string, pageSize int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("provider gateway required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if len(openStatuses) == 0 {
		return nil, fmt.Errorf("open statuses required")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &service{
		repo:         repo,
		gateway:      gateway,
		outbox:       outboxSvc,
		tx:           tx,
		logg:         logg,
		openStatuses: openStatuses,
		pageSize:     pageSize,
	}, nil
}

func (s *service) SweepOnce(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}

	open, err := s.repo.ListOpenProvider(ctx, s.openStatuses, s.pageSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open orders")
	}
	result.Candidates = len(open)
	if len(open) == 0 {
		return result, nil
	}

	var errs error
	for start := 0; start < len(open); start += secsers.StatusBatchLimit {
		end := start + secsers.StatusBatchLimit
		if end > len(open) {
			end = len(open)
		}
		chunk := open[start:end]

		ids := make([]string, 0, len(chunk))
		for i := range chunk {
			ids = append(ids, *chunk[i].ProviderOrderID)
		}
		snapshots, err := s.gateway.OrderStatusBatch(ctx, ids)
		if err != nil {
			// A dead panel fails the whole chunk; keep sweeping the rest.
			errs = multierr.Append(errs, err)
			result.Failed += len(chunk)
			continue
		}

		for i := range chunk {
			order := &chunk[i]
			snap, ok := snapshots[*order.ProviderOrderID]
			if !ok {
				result.Failed++
				errs = multierr.Append(errs, fmt.Errorf("order %d: panel returned no snapshot", order.OrderNumber))
				continue
			}
			if snap.Error != "" {
				result.Failed++
				errs = multierr.Append(errs, fmt.Errorf("order %d: %s", order.OrderNumber, snap.Error))
				continue
			}

			changed, err := s.applySnapshot(ctx, order, snapshotFrom(snap))
			if err != nil {
				result.Failed++
				errs = multierr.Append(errs, fmt.Errorf("order %d: %w", order.OrderNumber, err))
				continue
			}
			result.Synced++
			if changed {
				result.Changed++
			}
		}
	}

	reportCtx := s.logg.WithFields(ctx, map[string]any{
		"candidates": result.Candidates,
		"synced":     result.Synced,
		"changed":    result.Changed,
		"failed":     result.Failed,
	})
	s.logg.Info(reportCtx, "order reconcile sweep complete")
	return result, errs
}

func (s *service) RefreshOrder(ctx context.Context, orderID uuid.UUID, requester *uuid.UUID) (*OrderStatusDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.loadOrder(ctx, orderID, requester)
	if err != nil {
		return nil, err
	}
	if order.Provider != enums.OrderProviderSecsers || order.ProviderOrderID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not tracked at the provider")
	}

	snap, err := s.gateway.OrderStatus(ctx, *order.ProviderOrderID)
	if err != nil {
		return nil, err
	}

	changed, err := s.applySnapshot(ctx, order, snapshotFrom(*snap))
	if err != nil {
		return nil, err
	}

	fresh, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return newOrderStatusDTO(fresh, changed), nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID, requester *uuid.UUID) (*models.Order, error) {
	var order *models.Order
	var err error
	if requester != nil {
		order, err = s.repo.FindByIDForUser(ctx, orderID, *requester)
	} else {
		order, err = s.repo.FindByID(ctx, orderID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// applySnapshot persists the provider's view when the status string moved.
// The update claims the transition from the status this pass read, so when a
// sweep and a refresh race only the first writer emits the change event.
func (s *service) applySnapshot(ctx context.Context, order *models.Order, snap orders.Snapshot) (bool, error) {
	updates, changed := orders.SnapshotUpdates(order, snap)
	if !changed {
		return false, nil
	}

	applied := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := s.repo.WithTx(tx).ClaimStatusUpdate(ctx, order.ID, order.Status, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if !claimed {
			// A concurrent pass already applied this transition.
			return nil
		}
		applied = true

		newStatus, _ := updates["status"].(string)
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderStatusChangedEvent{
				OrderNumber:    order.OrderNumber,
				UserID:         order.UserID,
				PreviousStatus: order.Status,
				Status:         newStatus,
				Remains:        snap.Remains,
				ObservedAt:     time.Now().UTC(),
			},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return false, err
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply provider snapshot")
	}
	return applied, nil
}

func snapshotFrom(snap secsers.OrderStatusSnapshot) orders.Snapshot {
	return orders.Snapshot{
		Status:     snap.Status,
		Charge:     snap.Charge,
		StartCount: snap.StartCount,
		Remains:    snap.Remains,
		Currency:   snap.Currency,
	}
}

func newOrderStatusDTO(order *models.Order, changed bool) *OrderStatusDTO {
	return &OrderStatusDTO{
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Charge:      order.Charge,
		Currency:    order.Currency,
		StartCount:  order.StartCount,
		Remains:     order.Remains,
		Changed:     changed,
		UpdatedAt:   order.UpdatedAt,
	}
}
