package wallet

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

// Names of the counters the wallet allocates human-facing numbers from.
const (
	CounterOrders   = "orders"
	CounterDeposits = "deposits"
)

// Repository manages persistence for ledger transactions, user balances,
// and the named counters behind order and deposit numbering.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	FindTransactionByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	// UpdateTransactionStatus flips the status only while the row still
	// holds from; the boolean reports whether this caller won the claim.
	UpdateTransactionStatus(ctx context.Context, id uuid.UUID, from, to enums.TransactionStatus) (bool, error)
	AddToBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	// DeductFromBalance subtracts amount only when the current balance
	// covers it; the boolean reports whether the deduction applied.
	DeductFromBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	NextCounterValue(ctx context.Context, name string) (int64, error)
	ListTransactions(ctx context.Context, query TransactionListQuery) (*TransactionList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindTransactionByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		Take(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, from, to enums.TransactionStatus) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE transactions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?",
		to, id, from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) AddToBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE users SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL",
		amount, userID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) DeductFromBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE users SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL AND balance >= ?",
		amount, userID, amount,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Balance decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("balance").
		Where("id = ?", userID).
		Take(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Balance, nil
}

func (r *repository) NextCounterValue(ctx context.Context, name string) (int64, error) {
	var next int64
	res := r.db.WithContext(ctx).Raw(
		"UPDATE counters SET value = value + 1, updated_at = CURRENT_TIMESTAMP WHERE name = ? RETURNING value",
		name,
	).Scan(&next)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return next, nil
}

func (r *repository) ListTransactions(ctx context.Context, query TransactionListQuery) (*TransactionList, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Table("transactions t").
		Select(strings.Join([]string{
			"t.id",
			"t.user_id",
			"u.username",
			"t.type",
			"t.method",
			"t.amount",
			"t.status",
			"t.reference",
			"t.order_number",
			"t.note",
			"t.created_at",
		}, ", ")).
		Joins("JOIN users u ON u.id = t.user_id")

	if query.UserID != nil {
		qb = qb.Where("t.user_id = ?", *query.UserID)
	}

	filter := query.Filters
	if filter.Type != nil {
		qb = qb.Where("t.type = ?", *filter.Type)
	}
	if filter.Status != nil {
		qb = qb.Where("t.status = ?", *filter.Status)
	}
	if filter.Method != nil {
		qb = qb.Where("t.method = ?", *filter.Method)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(u.username) LIKE ? OR LOWER(t.reference) LIKE ?)", pattern, pattern)
	}

	if cursor != nil {
		qb = qb.Where("(t.created_at < ?) OR (t.created_at = ? AND t.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("t.created_at DESC").Order("t.id DESC").Limit(limitWithBuffer)

	var records []transactionRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, err
	}

	rows := records
	nextCursor := ""
	if len(records) > pageSize {
		rows = records[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	entries := make([]TransactionSummary, 0, len(rows))
	for _, record := range rows {
		entries = append(entries, record.toSummary())
	}

	return &TransactionList{
		Transactions: entries,
		NextCursor:   nextCursor,
	}, nil
}

type transactionRecord struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Username    string
	Type        string
	Method      string
	Amount      decimal.Decimal
	Status      string
	Reference   sql.NullString
	OrderNumber sql.NullInt64
	Note        sql.NullString
	CreatedAt   time.Time
}

func (r transactionRecord) toSummary() TransactionSummary {
	summary := TransactionSummary{
		ID:        r.ID,
		UserID:    r.UserID,
		Username:  r.Username,
		Type:      enums.TransactionType(r.Type),
		Method:    r.Method,
		Amount:    r.Amount,
		Status:    enums.TransactionStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}
	if r.Reference.Valid {
		value := r.Reference.String
		summary.Reference = &value
	}
	if r.OrderNumber.Valid {
		value := r.OrderNumber.Int64
		summary.OrderNumber = &value
	}
	if r.Note.Valid {
		value := r.Note.String
		summary.Note = &value
	}
	return summary
}
