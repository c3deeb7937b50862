package orders

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	"github.com/marcoalvarez/boostgrid-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ClaimStatusUpdate(ctx context.Context, id uuid.UUID, fromStatus string, updates map[string]any) (bool, error) {
	if len(updates) == 0 {
		return false, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListOpenProvider(ctx context.Context, statuses []string, limit int) ([]models.Order, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx).
		Where("provider = ?", enums.OrderProviderSecsers).
		Where("provider_order_id IS NOT NULL").
		Where("status IN ?", statuses).
		Order("created_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.Order
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, query ListQuery) (*OrderList, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Table("orders o").
		Select(strings.Join([]string{
			"o.id",
			"o.order_number",
			"o.service_id",
			"s.name AS service_name",
			"o.link",
			"o.quantity",
			"o.runs",
			"o.interval_minutes",
			"o.charge",
			"o.currency",
			"o.provider",
			"o.provider_order_id",
			"o.status",
			"o.start_count",
			"o.remains",
			"o.created_at",
			"o.updated_at",
		}, ", ")).
		Joins("JOIN services s ON s.id = o.service_id").
		Where("o.user_id = ?", userID)

	if query.Status != nil {
		qb = qb.Where("o.status = ?", *query.Status)
	}
	if cursor != nil {
		qb = qb.Where("(o.created_at < ?) OR (o.created_at = ? AND o.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("o.created_at DESC").Order("o.id DESC").Limit(limitWithBuffer)

	var records []orderRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, err
	}

	rows := records
	nextCursor := ""
	if len(records) > pageSize {
		rows = records[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.CursorFromRow(last.CreatedAt, last.ID)
	}

	entries := make([]OrderDTO, 0, len(rows))
	for _, record := range rows {
		entries = append(entries, record.toDTO())
	}
	return &OrderList{Orders: entries, NextCursor: nextCursor}, nil
}

func (r *repository) ListAdmin(ctx context.Context, query AdminListQuery) (*AdminOrderList, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Table("orders o").
		Select(strings.Join([]string{
			"o.id",
			"o.order_number",
			"o.user_id",
			"u.email AS user_email",
			"u.username",
			"o.service_id",
			"s.name AS service_name",
			"o.link",
			"o.quantity",
			"o.runs",
			"o.interval_minutes",
			"o.charge",
			"o.currency",
			"o.provider",
			"o.provider_order_id",
			"o.status",
			"o.start_count",
			"o.remains",
			"o.admin_notes",
			"o.created_at",
			"o.updated_at",
		}, ", ")).
		Joins("JOIN users u ON u.id = o.user_id").
		Joins("JOIN services s ON s.id = o.service_id")

	filters := query.Filters
	if filters.Status != nil {
		qb = qb.Where("o.status = ?", *filters.Status)
	}
	if filters.UserID != nil {
		qb = qb.Where("o.user_id = ?", *filters.UserID)
	}
	if filters.ServiceID != nil {
		qb = qb.Where("o.service_id = ?", *filters.ServiceID)
	}
	if filters.Provider != nil {
		qb = qb.Where("o.provider = ?", *filters.Provider)
	}
	if cursor != nil {
		qb = qb.Where("(o.created_at < ?) OR (o.created_at = ? AND o.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("o.created_at DESC").Order("o.id DESC").Limit(limitWithBuffer)

	var records []adminOrderRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, err
	}

	rows := records
	nextCursor := ""
	if len(records) > pageSize {
		rows = records[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.CursorFromRow(last.CreatedAt, last.ID)
	}

	entries := make([]AdminOrderSummary, 0, len(rows))
	for _, record := range rows {
		entries = append(entries, record.toSummary())
	}
	return &AdminOrderList{Orders: entries, NextCursor: nextCursor}, nil
}

type orderRecord struct {
	ID              uuid.UUID
	OrderNumber     int64
	ServiceID       uuid.UUID
	ServiceName     string
	Link            string
	Quantity        int
	Runs            sql.NullInt64
	IntervalMinutes sql.NullInt64
	Charge          decimal.Decimal
	Currency        string
	Provider        string
	ProviderOrderID sql.NullString
	Status          string
	StartCount      sql.NullInt64
	Remains         sql.NullInt64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r orderRecord) toDTO() OrderDTO {
	dto := OrderDTO{
		ID:          r.ID,
		OrderNumber: r.OrderNumber,
		ServiceID:   r.ServiceID,
		ServiceName: r.ServiceName,
		Link:        r.Link,
		Quantity:    r.Quantity,
		Charge:      r.Charge,
		Currency:    r.Currency,
		Provider:    enums.OrderProvider(r.Provider),
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	dto.Runs = nullableInt(r.Runs)
	dto.IntervalMinutes = nullableInt(r.IntervalMinutes)
	dto.StartCount = nullableInt(r.StartCount)
	dto.Remains = nullableInt(r.Remains)
	if r.ProviderOrderID.Valid {
		value := r.ProviderOrderID.String
		dto.ProviderOrderID = &value
	}
	return dto
}

type adminOrderRecord struct {
	orderRecord
	UserID     uuid.UUID
	UserEmail  string
	Username   string
	AdminNotes sql.NullString
}

func (r adminOrderRecord) toSummary() AdminOrderSummary {
	summary := AdminOrderSummary{
		OrderDTO:  r.orderRecord.toDTO(),
		UserID:    r.UserID,
		UserEmail: r.UserEmail,
		Username:  r.Username,
	}
	if r.AdminNotes.Valid {
		value := r.AdminNotes.String
		summary.AdminNotes = &value
	}
	return summary
}

func nullableInt(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}
