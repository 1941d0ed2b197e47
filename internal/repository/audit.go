package repository

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/repository/dao"
)

type AuditDAO interface {
	Insert(ctx context.Context, entry dao.AuditLog) (dao.AuditLog, error)
	List(ctx context.Context, action string, limit, offset int) ([]dao.AuditLog, int64, error)
}

type AuditRepository struct {
	dao AuditDAO
}

func NewAuditRepository(dao AuditDAO) *AuditRepository {
	return &AuditRepository{
		dao: dao,
	}
}

func (r *AuditRepository) Create(ctx context.Context, entry domain.AuditLog) (domain.AuditLog, error) {
	created, err := r.dao.Insert(ctx, dao.AuditLog{
		Base:       dao.Base{ID: entry.ID},
		ActorID:    entry.ActorID,
		Action:     string(entry.Action),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    datatypes.JSONMap(entry.Details),
	})
	if err != nil {
		return domain.AuditLog{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return auditToDomain(created), nil
}

func (r *AuditRepository) List(ctx context.Context, q domain.AuditQuery) (domain.Paged[domain.AuditLog], error) {
	found, total, err := r.dao.List(ctx, string(q.Action), q.Limit, q.Offset)
	if err != nil {
		return domain.Paged[domain.AuditLog]{}, fmt.Errorf("r.dao.List -> %w", err)
	}

	entries := make([]domain.AuditLog, 0, len(found))
	for _, e := range found {
		entries = append(entries, auditToDomain(e))
	}

	return domain.Paged[domain.AuditLog]{Total: total, Data: entries}, nil
}

func auditToDomain(e dao.AuditLog) domain.AuditLog {
	return domain.AuditLog{
		ID:         e.ID,
		ActorID:    e.ActorID,
		Action:     domain.AuditAction(e.Action),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    map[string]any(e.Details),
		CreatedAt:  e.CreatedAt,
	}
}
