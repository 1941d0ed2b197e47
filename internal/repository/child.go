package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/repository/dao"
)

var (
	ErrChildNotFound  = dao.ErrChildNotFound
	ErrParentNotFound = dao.ErrParentNotFound
)

type ChildDAO interface {
	Insert(ctx context.Context, child dao.Child) (dao.Child, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Child, error)
	LockByID(ctx context.Context, id uuid.UUID) (dao.Child, error)
	FindByParentID(ctx context.Context, parentID uuid.UUID) ([]dao.Child, error)
	IncrementCheckinCount(ctx context.Context, id uuid.UUID) error
}

type ChildRepository struct {
	dao ChildDAO
}

func NewChildRepository(dao ChildDAO) *ChildRepository {
	return &ChildRepository{
		dao: dao,
	}
}

func (r *ChildRepository) Create(ctx context.Context, child domain.Child) (domain.Child, error) {
	created, err := r.dao.Insert(ctx, dao.Child{
		Base:        dao.Base{ID: child.ID},
		ParentID:    child.ParentID,
		Name:        child.Name,
		Gender:      string(child.Gender),
		DateOfBirth: child.DateOfBirth,
	})
	if err != nil {
		return domain.Child{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *ChildRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Child, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Child{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

// Lock loads the child and holds its row lock until the surrounding
// transaction ends.
func (r *ChildRepository) Lock(ctx context.Context, id uuid.UUID) (domain.Child, error) {
	found, err := r.dao.LockByID(ctx, id)
	if err != nil {
		return domain.Child{}, fmt.Errorf("r.dao.LockByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *ChildRepository) FindByParentID(ctx context.Context, parentID uuid.UUID) ([]domain.Child, error) {
	found, err := r.dao.FindByParentID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByParentID -> %w", err)
	}

	children := make([]domain.Child, 0, len(found))
	for _, c := range found {
		children = append(children, r.daoToDomain(c))
	}

	return children, nil
}

func (r *ChildRepository) IncrementCheckinCount(ctx context.Context, id uuid.UUID) error {
	if err := r.dao.IncrementCheckinCount(ctx, id); err != nil {
		return fmt.Errorf("r.dao.IncrementCheckinCount -> %w", err)
	}

	return nil
}

func (r *ChildRepository) daoToDomain(c dao.Child) domain.Child {
	return domain.Child{
		ID:           c.ID,
		ParentID:     c.ParentID,
		Name:         c.Name,
		Gender:       domain.Gender(c.Gender),
		DateOfBirth:  c.DateOfBirth,
		CheckinCount: c.CheckinCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
