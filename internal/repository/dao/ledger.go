package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Balance struct {
	Base

	ChildID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uni_balances_child_id"`
	Child   *Child    `gorm:"foreignKey:ChildID;constraint:OnDelete:RESTRICT"`

	AmountCents int64 `gorm:"not null;default:0;check:chk_balances_amount_nonneg,amount_cents >= 0"`
	LastCheckin *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Checkin struct {
	Base

	ChildID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uni_checkins_child_day,priority:1"`
	Child   *Child    `gorm:"foreignKey:ChildID;constraint:OnDelete:RESTRICT"`
	StaffID uuid.UUID `gorm:"type:uuid;not null;index"`
	Staff   *User     `gorm:"foreignKey:StaffID;constraint:OnDelete:RESTRICT"`

	CheckinTime time.Time `gorm:"not null;index"`
	CheckinDate time.Time `gorm:"type:date;not null;uniqueIndex:uni_checkins_child_day,priority:2"`
}

type TransactionType string

const (
	TransactionCredit     TransactionType = "credit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionDeposit    TransactionType = "deposit"
)

type Transaction struct {
	Base

	ChildID uuid.UUID `gorm:"type:uuid;not null;index"`
	Child   *Child    `gorm:"foreignKey:ChildID;constraint:OnDelete:RESTRICT"`

	Type        TransactionType `gorm:"type:varchar(16);not null;index;check:chk_transactions_type,type IN ('credit','withdrawal','deposit')"`
	AmountCents int64           `gorm:"not null;check:chk_transactions_amount_nonneg,amount_cents >= 0"`
	Description string          `gorm:"type:text;not null;default:''"`

	CreatedAt time.Time `gorm:"not null;index"`
}

func (Transaction) TableName() string {
	return "transactions"
}

type LedgerDAO struct {
	db *gorm.DB
}

func NewLedgerDAO(db *gorm.DB) *LedgerDAO {
	return &LedgerDAO{
		db: db,
	}
}

// EnsureBalance creates a zero balance for the child unless one exists and
// returns the row locked for update. The insert is an upsert on the unique
// child_id index, so two racing callers still end up with a single row.
func (d *LedgerDAO) EnsureBalance(ctx context.Context, childID uuid.UUID) (Balance, error) {
	fresh := Balance{ChildID: childID}
	result := conn(ctx, d.db).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "child_id"}}, DoNothing: true}).
		Create(&fresh)
	if result.Error != nil {
		if foreignKeyViolation(result.Error) {
			return Balance{}, ErrChildNotFound
		}

		return Balance{}, result.Error
	}

	return d.LockBalance(ctx, childID)
}

func (d *LedgerDAO) LockBalance(ctx context.Context, childID uuid.UUID) (Balance, error) {
	var balance Balance

	result := conn(ctx, d.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&balance, "child_id = ?", childID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Balance{}, ErrBalanceNotFound
		}

		return Balance{}, result.Error
	}

	return balance, nil
}

func (d *LedgerDAO) FindBalance(ctx context.Context, childID uuid.UUID) (Balance, error) {
	var balance Balance

	result := conn(ctx, d.db).First(&balance, "child_id = ?", childID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Balance{}, ErrBalanceNotFound
		}

		return Balance{}, result.Error
	}

	return balance, nil
}

func (d *LedgerDAO) FindBalances(ctx context.Context, childIDs []uuid.UUID) ([]Balance, error) {
	var balances []Balance
	if len(childIDs) == 0 {
		return balances, nil
	}

	result := conn(ctx, d.db).Where("child_id IN ?", childIDs).Find(&balances)
	if result.Error != nil {
		return nil, result.Error
	}

	return balances, nil
}

// AdjustBalance moves the balance by delta cents. The WHERE guard and the
// non-negative check constraint both refuse an overdraft.
func (d *LedgerDAO) AdjustBalance(ctx context.Context, childID uuid.UUID, delta int64, checkinAt *time.Time) (Balance, error) {
	updates := map[string]any{
		"amount_cents": gorm.Expr("amount_cents + ?", delta),
		"updated_at":   time.Now().UTC(),
	}
	if checkinAt != nil {
		updates["last_checkin"] = *checkinAt
	}

	result := conn(ctx, d.db).Model(&Balance{}).
		Where("child_id = ? AND amount_cents + ? >= 0", childID, delta).
		UpdateColumns(updates)
	if result.Error != nil {
		if _, ok := checkViolation(result.Error); ok {
			return Balance{}, ErrInsufficientFunds
		}
		if outOfRange(result.Error) {
			return Balance{}, ErrAmountOutOfRange
		}

		return Balance{}, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := d.FindBalance(ctx, childID); err != nil {
			return Balance{}, err
		}

		return Balance{}, ErrInsufficientFunds
	}

	return d.FindBalance(ctx, childID)
}

func (d *LedgerDAO) LastCheckin(ctx context.Context, childID uuid.UUID) (Checkin, error) {
	var checkin Checkin

	result := conn(ctx, d.db).Where("child_id = ?", childID).Order("checkin_time DESC").First(&checkin)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Checkin{}, ErrCheckinNotFound
		}

		return Checkin{}, result.Error
	}

	return checkin, nil
}

func (d *LedgerDAO) InsertCheckin(ctx context.Context, checkin Checkin) (Checkin, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&checkin)
	if result.Error != nil {
		if constraint, ok := uniqueViolation(result.Error); ok && constraint == "uni_checkins_child_day" {
			return Checkin{}, ErrDuplicateCheckinDay
		}

		return Checkin{}, result.Error
	}

	return checkin, nil
}

func (d *LedgerDAO) InsertTransaction(ctx context.Context, txn Transaction) (Transaction, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&txn)
	if result.Error != nil {
		return Transaction{}, result.Error
	}

	return txn, nil
}

type TransactionFilter struct {
	From    *time.Time
	To      *time.Time
	ChildID *uuid.UUID
	Type    string
}

func (d *LedgerDAO) ListTransactions(ctx context.Context, f TransactionFilter, limit, offset int) ([]Transaction, int64, error) {
	q := dateWindow(conn(ctx, d.db).Model(&Transaction{}), "created_at", f.From, f.To)
	if f.ChildID != nil {
		q = q.Where("child_id = ?", *f.ChildID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset = clampPage(limit, offset)

	var txns []Transaction
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&txns).Error; err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}
