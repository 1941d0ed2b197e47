package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QRCode struct {
	Base

	Code    string     `gorm:"type:varchar(16);not null;uniqueIndex:uni_qr_codes_code"`
	ChildID *uuid.UUID `gorm:"type:uuid;uniqueIndex:uni_qr_codes_child_id"`
	Child   *Child     `gorm:"foreignKey:ChildID;constraint:OnDelete:SET NULL"`

	Printed   bool `gorm:"not null;default:false;index"`
	PrintedAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
}

type QRCodeDAO struct {
	db *gorm.DB
}

func NewQRCodeDAO(db *gorm.DB) *QRCodeDAO {
	return &QRCodeDAO{
		db: db,
	}
}

// InsertIgnoringDuplicates inserts codes, silently skipping any whose code
// already exists. It returns the rows that were actually written.
func (d *QRCodeDAO) InsertIgnoringDuplicates(ctx context.Context, codes []QRCode) ([]QRCode, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(codes))
	for i := range codes {
		if codes[i].ID == uuid.Nil {
			codes[i].ID = uuid.New()
		}
		ids = append(ids, codes[i].ID)
	}

	result := conn(ctx, d.db).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&codes)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	return d.FindByIDs(ctx, ids)
}

func (d *QRCodeDAO) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]QRCode, error) {
	var codes []QRCode
	if len(ids) == 0 {
		return codes, nil
	}

	result := conn(ctx, d.db).Preload("Child").Where("id IN ?", ids).Order("created_at ASC, code ASC").Find(&codes)
	if result.Error != nil {
		return nil, result.Error
	}

	return codes, nil
}

func (d *QRCodeDAO) FindByCode(ctx context.Context, code string) (QRCode, error) {
	var qr QRCode

	result := conn(ctx, d.db).Preload("Child").First(&qr, "code = ?", code)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return QRCode{}, ErrQRCodeNotFound
		}

		return QRCode{}, result.Error
	}

	return qr, nil
}

func (d *QRCodeDAO) FindByChildID(ctx context.Context, childID uuid.UUID) (QRCode, error) {
	var qr QRCode

	result := conn(ctx, d.db).First(&qr, "child_id = ?", childID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return QRCode{}, ErrQRCodeNotFound
		}

		return QRCode{}, result.Error
	}

	return qr, nil
}

// Assign links an unassigned code to a child. The unique index on child_id
// refuses a second code for the same child.
func (d *QRCodeDAO) Assign(ctx context.Context, code string, childID uuid.UUID) (QRCode, error) {
	result := conn(ctx, d.db).Model(&QRCode{}).
		Where("code = ? AND child_id IS NULL", code).
		Update("child_id", childID)
	if result.Error != nil {
		if _, ok := uniqueViolation(result.Error); ok {
			return QRCode{}, ErrChildHasQRCode
		}
		if foreignKeyViolation(result.Error) {
			return QRCode{}, ErrChildNotFound
		}

		return QRCode{}, result.Error
	}

	qr, err := d.FindByCode(ctx, code)
	if err != nil {
		return QRCode{}, err
	}
	if result.RowsAffected == 0 && (qr.ChildID == nil || *qr.ChildID != childID) {
		return QRCode{}, ErrQRCodeTaken
	}

	return qr, nil
}

func (d *QRCodeDAO) Unassign(ctx context.Context, code string) (QRCode, error) {
	result := conn(ctx, d.db).Model(&QRCode{}).Where("code = ?", code).Update("child_id", nil)
	if result.Error != nil {
		return QRCode{}, result.Error
	}
	if result.RowsAffected == 0 {
		return QRCode{}, ErrQRCodeNotFound
	}

	return d.FindByCode(ctx, code)
}

func (d *QRCodeDAO) MarkPrinted(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	result := conn(ctx, d.db).Model(&QRCode{}).Where("id IN ?", ids).
		UpdateColumns(map[string]any{"printed": true, "printed_at": at})

	return result.Error
}

func (d *QRCodeDAO) List(ctx context.Context, printed, assigned *bool, limit, offset int) ([]QRCode, int64, error) {
	q := conn(ctx, d.db).Model(&QRCode{})
	if printed != nil {
		q = q.Where("printed = ?", *printed)
	}
	if assigned != nil {
		if *assigned {
			q = q.Where("child_id IS NOT NULL")
		} else {
			q = q.Where("child_id IS NULL")
		}
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset = clampPage(limit, offset)

	var codes []QRCode
	if err := q.Preload("Child").Order("created_at DESC, code ASC").Limit(limit).Offset(offset).Find(&codes).Error; err != nil {
		return nil, 0, err
	}

	return codes, total, nil
}
