package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/internal/catalog"
	"github.com/marcoalvarez/boostgrid-backend/internal/wallet"
	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox/payloads"
	"github.com/marcoalvarez/boostgrid-backend/pkg/secsers"
	"github.com/marcoalvarez/boostgrid-backend/pkg/visibility"
)

type catalogRepository interface {
	FindServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	FindServiceChain(ctx context.Context, serviceID uuid.UUID) (*catalog.ServiceChain, error)
}

type walletService interface {
	AllocateOrderNumber(ctx context.Context, tx *gorm.DB) (int64, error)
	RecordPendingCharge(ctx context.Context, tx *gorm.DB, input wallet.RecordPendingChargeInput) (*models.Transaction, error)
	SettleCharge(ctx context.Context, tx *gorm.DB, reference string) (*models.Transaction, error)
	VoidCharge(ctx context.Context, tx *gorm.DB, reference string) (*models.Transaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

type providerGateway interface {
	AddOrder(ctx context.Context, input secsers.AddOrderInput) (*secsers.PlacedOrder, error)
	Refill(ctx context.Context, providerOrderID string) (*secsers.RefillHandle, error)
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns order placement and the admin approval surface. Every charge
// against a balance goes through the wallet inside the same transaction that
// moves the order, so an order row and its transaction row never disagree.
type Service interface {
	// CreateOrder places an order for the given user. Manual services park
	// the order for admin approval with a pending charge; provider services
	// are paid at placement.
	CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, query ListQuery) (*OrderList, error)
	// RequestRefill forwards a refill request to the provider for orders the
	// user owns on refill-capable services.
	RequestRefill(ctx context.Context, userID, orderID uuid.UUID) (*RefillDTO, error)

	ListAdmin(ctx context.Context, query AdminListQuery) (*AdminOrderList, error)
	// Confirm settles the pending charge and completes a manual order. The
	// order is only completed if the user can pay at this moment.
	Confirm(ctx context.Context, input ConfirmInput) (*OrderDTO, error)
	// Reject voids the pending charge and closes a manual order. The balance
	// is never touched.
	Reject(ctx context.Context, input RejectInput) (*OrderDTO, error)
}

type service struct {
	repo     Repository
	catalog  catalogRepository
	wallet   walletService
	gateway  providerGateway
	outbox   outboxPublisher
	tx       txRunner
	logg     *logger.Logger
	currency string
}

// NewService wires an orders service with the required dependencies.
func NewService(repo Repository, catalogRepo catalogRepository, walletSvc walletService, gateway providerGateway, outboxSvc outboxPublisher, tx txRunner, logg *logger.Logger, currency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if walletSvc == nil {
		return nil, fmt.Errorf("wallet service required")
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
	if strings.TrimSpace(currency) == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &service{
		repo:     repo,
		catalog:  catalogRepo,
		wallet:   walletSvc,
		gateway:  gateway,
		outbox:   outboxSvc,
		tx:       tx,
		logg:     logg,
		currency: currency,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderInput) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	link := strings.TrimSpace(req.Link)
	if link == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "link required")
	}

	chain, err := s.catalog.FindServiceChain(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}

	if err := visibility.EnsureServiceOrderable(visibility.ServiceOrderInput{
		Service:         chain.Service,
		Title:           chain.Title,
		Platform:        chain.Platform,
		Category:        chain.Category,
		Quantity:        req.Quantity,
		Runs:            req.Runs,
		IntervalMinutes: req.IntervalMinutes,
	}); err != nil {
		return nil, err
	}

	svc := chain.Service
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		ServiceID:       svc.ID,
		Link:            link,
		Quantity:        req.Quantity,
		Runs:            req.Runs,
		IntervalMinutes: req.IntervalMinutes,
		Charge:          svc.UserPrice.Mul(decimal.NewFromInt(int64(req.Quantity))),
		Currency:        s.currency,
		Provider:        svc.Provider,
	}

	switch svc.Provider {
	case enums.OrderProviderManual:
		err = s.createManual(ctx, order)
	case enums.OrderProviderSecsers:
		err = s.createProvider(ctx, order, svc)
	default:
		err = pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("service has unknown provider %q", svc.Provider))
	}
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(s.logg.WithField(ctx, "provider", string(order.Provider)), "order created")
	return newOrderDTO(order, svc.Name), nil
}

// createManual parks the order for admin approval. The charge is recorded as
// pending only; the balance does not move until an admin confirms.
func (s *service) createManual(ctx context.Context, order *models.Order) error {
	order.Status = string(enums.OrderStatusPendingApproval)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.wallet.AllocateOrderNumber(ctx, tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		_, err = s.wallet.RecordPendingCharge(ctx, tx, wallet.RecordPendingChargeInput{
			UserID:      order.UserID,
			Amount:      order.Charge,
			Reference:   ChargeReference(order.ID),
			OrderNumber: order.OrderNumber,
		})
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create manual order")
	}
	return nil
}

// createProvider pays the panel at placement time. The panel call happens
// before the local transaction, so a placement that fails locally can leave
// an accepted panel order behind; that case is logged for the operator.
func (s *service) createProvider(ctx context.Context, order *models.Order, svc *models.Service) error {
	if svc.ProviderServiceID == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "service is not linked to a provider service")
	}

	// Pre-screen the balance before paying the panel. The conditional deduct
	// inside the transaction below is still the authoritative check.
	balance, err := s.wallet.Balance(ctx, order.UserID)
	if err != nil {
		return err
	}
	if balance.LessThan(order.Charge) {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient balance")
	}

	placed, err := s.gateway.AddOrder(ctx, secsers.AddOrderInput{
		ServiceID: *svc.ProviderServiceID,
		Link:      order.Link,
		Quantity:  order.Quantity,
		Runs:      order.Runs,
		Interval:  order.IntervalMinutes,
	})
	if err != nil {
		return err
	}

	order.Status = string(enums.OrderStatusPending)
	order.ProviderOrderID = &placed.OrderID

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.wallet.AllocateOrderNumber(ctx, tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if _, err := s.wallet.RecordPendingCharge(ctx, tx, wallet.RecordPendingChargeInput{
			UserID:      order.UserID,
			Amount:      order.Charge,
			Reference:   ChargeReference(order.ID),
			OrderNumber: order.OrderNumber,
		}); err != nil {
			return err
		}

		_, err = s.wallet.SettleCharge(ctx, tx, ChargeReference(order.ID))
		return err
	})
	if err != nil {
		// The panel accepted the order but nothing was persisted locally.
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"provider_order_id": placed.OrderID,
			"user_id":           order.UserID.String(),
		}), "provider order placed but not persisted")
		if typed := pkgerrors.As(err); typed != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create provider order")
	}
	return nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return newOrderDTO(order, s.serviceName(ctx, order.ServiceID)), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, query ListQuery) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if query.Status != nil {
		trimmed := strings.TrimSpace(*query.Status)
		if trimmed == "" {
			query.Status = nil
		} else {
			query.Status = &trimmed
		}
	}

	list, err := s.repo.ListByUser(ctx, userID, query)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "list orders")
	}
	return list, nil
}

func (s *service) RequestRefill(ctx context.Context, userID, orderID uuid.UUID) (*RefillDTO, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Provider != enums.OrderProviderSecsers || order.ProviderOrderID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no provider reference")
	}

	svc, err := s.catalog.FindServiceByID(ctx, order.ServiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if !svc.Refill {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "service does not support refill")
	}

	handle, err := s.gateway.Refill(ctx, *order.ProviderOrderID)
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderNumber(ctx, order.OrderNumber), "refill requested")
	return &RefillDTO{OrderNumber: order.OrderNumber, RefillID: handle.RefillID}, nil
}

func (s *service) ListAdmin(ctx context.Context, query AdminListQuery) (*AdminOrderList, error) {
	if query.Filters.Status != nil {
		trimmed := strings.TrimSpace(*query.Filters.Status)
		if trimmed == "" {
			query.Filters.Status = nil
		} else {
			query.Filters.Status = &trimmed
		}
	}

	list, err := s.repo.ListAdmin(ctx, query)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "list orders")
	}

	if needle := strings.ToLower(strings.TrimSpace(query.Filters.Search)); needle != "" {
		list.Orders = filterAdminOrders(list.Orders, needle)
	}
	return list, nil
}

// filterAdminOrders narrows a page to rows matching the search term. The
// match runs over the already-filtered page, so a page can come back shorter
// than the limit while the cursor still advances through the full set.
func filterAdminOrders(rows []AdminOrderSummary, needle string) []AdminOrderSummary {
	matched := make([]AdminOrderSummary, 0, len(rows))
	for _, row := range rows {
		haystacks := []string{
			strconv.FormatInt(row.OrderNumber, 10),
			strings.ToLower(row.UserEmail),
			strings.ToLower(row.Username),
			strings.ToLower(row.ServiceName),
		}
		for _, haystack := range haystacks {
			if strings.Contains(haystack, needle) {
				matched = append(matched, row)
				break
			}
		}
	}
	return matched
}

func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*OrderDTO, error) {
	var confirmed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadManualPending(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}

		updates := map[string]any{"status": string(enums.OrderStatusCompleted)}
		if notes := trimmedNote(input.Notes); notes != nil {
			updates["admin_notes"] = *notes
			order.AdminNotes = notes
		}
		claimed, err := repo.ClaimStatusUpdate(ctx, order.ID, string(enums.OrderStatusPendingApproval), updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order was updated concurrently")
		}

		if _, err := s.wallet.SettleCharge(ctx, tx, ChargeReference(order.ID)); err != nil {
			return err
		}

		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.OrderConfirmedEvent{
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				Charge:      order.Charge,
				Currency:    order.Currency,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order confirmed")
		}

		order.Status = string(enums.OrderStatusCompleted)
		confirmed = order
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
	}

	s.logg.Info(s.logg.WithOrderNumber(ctx, confirmed.OrderNumber), "manual order confirmed")
	return newOrderDTO(confirmed, s.serviceName(ctx, confirmed.ServiceID)), nil
}

func (s *service) Reject(ctx context.Context, input RejectInput) (*OrderDTO, error) {
	var rejected *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadManualPending(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}

		updates := map[string]any{"status": string(enums.OrderStatusRejected)}
		if reason := trimmedNote(input.Reason); reason != nil {
			updates["admin_notes"] = *reason
			order.AdminNotes = reason
		}
		claimed, err := repo.ClaimStatusUpdate(ctx, order.ID, string(enums.OrderStatusPendingApproval), updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order was updated concurrently")
		}

		if _, err := s.wallet.VoidCharge(ctx, tx, ChargeReference(order.ID)); err != nil {
			return err
		}

		reason := ""
		if order.AdminNotes != nil {
			reason = *order.AdminNotes
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRejected,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.OrderRejectedEvent{
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				Reason:      reason,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order rejected")
		}

		order.Status = string(enums.OrderStatusRejected)
		rejected = order
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject order")
	}

	s.logg.Info(s.logg.WithOrderNumber(ctx, rejected.OrderNumber), "manual order rejected")
	return newOrderDTO(rejected, s.serviceName(ctx, rejected.ServiceID)), nil
}

// loadManualPending fetches the order and checks the approval preconditions.
// Terminal orders report the state they are stuck in so the admin sees what
// happened on a double click.
func loadManualPending(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Provider != enums.OrderProviderManual {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only manual orders can be approved or rejected")
	}
	if order.Status != string(enums.OrderStatusPendingApproval) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is already %s", order.Status))
	}
	return order, nil
}

func trimmedNote(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// serviceName resolves the display name for DTOs. A lookup failure only
// blanks the name; the order payload itself is already committed.
func (s *service) serviceName(ctx context.Context, serviceID uuid.UUID) string {
	svc, err := s.catalog.FindServiceByID(ctx, serviceID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "service_id", serviceID.String()), "service name lookup failed")
		return ""
	}
	return svc.Name
}
