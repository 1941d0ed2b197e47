package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuditLog struct {
	Base

	ActorID *uuid.UUID `gorm:"type:uuid;index"`
	Actor   *User      `gorm:"foreignKey:ActorID;constraint:OnDelete:RESTRICT"`

	Action     string            `gorm:"type:varchar(64);not null;index"`
	EntityType string            `gorm:"type:varchar(32);not null"`
	EntityID   string            `gorm:"type:varchar(64);not null;index"`
	Details    datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;index"`
}

type AuditDAO struct {
	db *gorm.DB
}

func NewAuditDAO(db *gorm.DB) *AuditDAO {
	return &AuditDAO{
		db: db,
	}
}

func (d *AuditDAO) Insert(ctx context.Context, entry AuditLog) (AuditLog, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&entry)
	if result.Error != nil {
		return AuditLog{}, result.Error
	}

	return entry, nil
}

func (d *AuditDAO) List(ctx context.Context, action string, limit, offset int) ([]AuditLog, int64, error) {
	q := conn(ctx, d.db).Model(&AuditLog{})
	if action != "" {
		q = q.Where("action = ?", action)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset = clampPage(limit, offset)

	var entries []AuditLog
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
