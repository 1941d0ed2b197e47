package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Child struct {
	Base

	ParentID uuid.UUID `gorm:"type:uuid;not null;index"`
	Parent   *User     `gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT"`

	Name         string     `gorm:"not null"`
	Gender       string     `gorm:"type:varchar(10);not null;check:chk_children_gender,gender IN ('male','female','other')"`
	DateOfBirth  *time.Time `gorm:"type:date"`
	CheckinCount int        `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type ChildDAO struct {
	db *gorm.DB
}

func NewChildDAO(db *gorm.DB) *ChildDAO {
	return &ChildDAO{
		db: db,
	}
}

func (d *ChildDAO) Insert(ctx context.Context, child Child) (Child, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&child)
	if result.Error != nil {
		if foreignKeyViolation(result.Error) {
			return Child{}, ErrParentNotFound
		}

		return Child{}, result.Error
	}

	return child, nil
}

func (d *ChildDAO) FindByID(ctx context.Context, id uuid.UUID) (Child, error) {
	var child Child

	result := conn(ctx, d.db).First(&child, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Child{}, ErrChildNotFound
		}

		return Child{}, result.Error
	}

	return child, nil
}

// LockByID loads the child with a row lock. Every ledger mutation takes this
// lock first, which serializes concurrent operations on the same child.
func (d *ChildDAO) LockByID(ctx context.Context, id uuid.UUID) (Child, error) {
	var child Child

	result := conn(ctx, d.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&child, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Child{}, ErrChildNotFound
		}

		return Child{}, result.Error
	}

	return child, nil
}

func (d *ChildDAO) FindByParentID(ctx context.Context, parentID uuid.UUID) ([]Child, error) {
	var children []Child

	result := conn(ctx, d.db).Where("parent_id = ?", parentID).Order("created_at ASC, id ASC").Find(&children)
	if result.Error != nil {
		return nil, result.Error
	}

	return children, nil
}

func (d *ChildDAO) IncrementCheckinCount(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, d.db).Model(&Child{}).Where("id = ?", id).
		UpdateColumns(map[string]any{
			"checkin_count": gorm.Expr("checkin_count + 1"),
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChildNotFound
	}

	return nil
}
