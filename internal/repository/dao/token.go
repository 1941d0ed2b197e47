package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenDeposit struct {
	Base

	UserID     *uuid.UUID `gorm:"type:uuid;index"`
	User       *User      `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	RecordedBy uuid.UUID  `gorm:"type:uuid;not null"`
	Recorder   *User      `gorm:"foreignKey:RecordedBy;constraint:OnDelete:RESTRICT"`

	TokensDeposited int       `gorm:"not null;check:chk_token_deposits_tokens_nonneg,tokens_deposited >= 0"`
	DepositDate     time.Time `gorm:"not null;index"`
	Notes           string    `gorm:"type:text;not null;default:''"`

	CreatedAt time.Time `gorm:"not null"`
}

type VendorTokenTurnin struct {
	Base

	VendorID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Vendor     *User     `gorm:"foreignKey:VendorID;constraint:OnDelete:RESTRICT"`
	RecordedBy uuid.UUID `gorm:"type:uuid;not null"`
	Recorder   *User     `gorm:"foreignKey:RecordedBy;constraint:OnDelete:RESTRICT"`

	TokensSubmitted int       `gorm:"not null;check:chk_vendor_turnins_tokens_nonneg,tokens_submitted >= 0"`
	MarketDate      time.Time `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
}

type TokenDAO struct {
	db *gorm.DB
}

func NewTokenDAO(db *gorm.DB) *TokenDAO {
	return &TokenDAO{
		db: db,
	}
}

func (d *TokenDAO) InsertDeposit(ctx context.Context, deposit TokenDeposit) (TokenDeposit, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&deposit)
	if result.Error != nil {
		if foreignKeyViolation(result.Error) {
			return TokenDeposit{}, ErrUserNotFound
		}

		return TokenDeposit{}, result.Error
	}

	return deposit, nil
}

func (d *TokenDAO) InsertTurnin(ctx context.Context, turnin VendorTokenTurnin) (VendorTokenTurnin, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&turnin)
	if result.Error != nil {
		if foreignKeyViolation(result.Error) {
			return VendorTokenTurnin{}, ErrUserNotFound
		}

		return VendorTokenTurnin{}, result.Error
	}

	return turnin, nil
}

func (d *TokenDAO) ListDeposits(ctx context.Context, from, to *time.Time, limit, offset int) ([]TokenDeposit, int64, error) {
	q := dateWindow(conn(ctx, d.db).Model(&TokenDeposit{}), "deposit_date", from, to).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset = clampPage(limit, offset)

	var deposits []TokenDeposit
	if err := q.Order("deposit_date DESC, id DESC").Limit(limit).Offset(offset).Find(&deposits).Error; err != nil {
		return nil, 0, err
	}

	return deposits, total, nil
}

// ListTurnins preloads the vendor so reports can show a name.
func (d *TokenDAO) ListTurnins(ctx context.Context, from, to *time.Time, limit, offset int) ([]VendorTokenTurnin, int64, error) {
	q := dateWindow(conn(ctx, d.db).Model(&VendorTokenTurnin{}), "market_date", from, to).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset = clampPage(limit, offset)

	var turnins []VendorTokenTurnin
	if err := q.Preload("Vendor").Order("market_date DESC, id DESC").Limit(limit).Offset(offset).Find(&turnins).Error; err != nil {
		return nil, 0, err
	}

	return turnins, total, nil
}

// dateWindow applies a half-open [from, to) filter on column.
func dateWindow(q *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where(column+" >= ?", *from)
	}
	if to != nil {
		q = q.Where(column+" < ?", *to)
	}

	return q
}
