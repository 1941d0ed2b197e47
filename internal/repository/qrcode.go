package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/repository/dao"
)

var (
	ErrQRCodeNotFound = dao.ErrQRCodeNotFound
	ErrQRCodeTaken    = dao.ErrQRCodeTaken
	ErrChildHasQRCode = dao.ErrChildHasQRCode
)

type QRCodeDAO interface {
	InsertIgnoringDuplicates(ctx context.Context, codes []dao.QRCode) ([]dao.QRCode, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]dao.QRCode, error)
	FindByCode(ctx context.Context, code string) (dao.QRCode, error)
	FindByChildID(ctx context.Context, childID uuid.UUID) (dao.QRCode, error)
	Assign(ctx context.Context, code string, childID uuid.UUID) (dao.QRCode, error)
	Unassign(ctx context.Context, code string) (dao.QRCode, error)
	MarkPrinted(ctx context.Context, ids []uuid.UUID, at time.Time) error
	List(ctx context.Context, printed, assigned *bool, limit, offset int) ([]dao.QRCode, int64, error)
}

type QRCodeRepository struct {
	dao QRCodeDAO
}

func NewQRCodeRepository(dao QRCodeDAO) *QRCodeRepository {
	return &QRCodeRepository{
		dao: dao,
	}
}

// CreateMany inserts the given codes and returns those actually written;
// codes that collide with an existing one are skipped.
func (r *QRCodeRepository) CreateMany(ctx context.Context, codes []string) ([]domain.QRCode, error) {
	rows := make([]dao.QRCode, 0, len(codes))
	for _, c := range codes {
		rows = append(rows, dao.QRCode{Code: c})
	}

	created, err := r.dao.InsertIgnoringDuplicates(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("r.dao.InsertIgnoringDuplicates -> %w", err)
	}

	return qrCodesToDomain(created), nil
}

func (r *QRCodeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.QRCode, error) {
	found, err := r.dao.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByIDs -> %w", err)
	}

	return qrCodesToDomain(found), nil
}

func (r *QRCodeRepository) FindByCode(ctx context.Context, code string) (domain.QRCode, error) {
	found, err := r.dao.FindByCode(ctx, code)
	if err != nil {
		return domain.QRCode{}, fmt.Errorf("r.dao.FindByCode -> %w", err)
	}

	return qrCodeToDomain(found), nil
}

func (r *QRCodeRepository) FindByChildID(ctx context.Context, childID uuid.UUID) (domain.QRCode, error) {
	found, err := r.dao.FindByChildID(ctx, childID)
	if err != nil {
		return domain.QRCode{}, fmt.Errorf("r.dao.FindByChildID -> %w", err)
	}

	return qrCodeToDomain(found), nil
}

func (r *QRCodeRepository) Assign(ctx context.Context, code string, childID uuid.UUID) (domain.QRCode, error) {
	assigned, err := r.dao.Assign(ctx, code, childID)
	if err != nil {
		return domain.QRCode{}, fmt.Errorf("r.dao.Assign -> %w", err)
	}

	return qrCodeToDomain(assigned), nil
}

func (r *QRCodeRepository) Unassign(ctx context.Context, code string) (domain.QRCode, error) {
	released, err := r.dao.Unassign(ctx, code)
	if err != nil {
		return domain.QRCode{}, fmt.Errorf("r.dao.Unassign -> %w", err)
	}

	return qrCodeToDomain(released), nil
}

func (r *QRCodeRepository) MarkPrinted(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if err := r.dao.MarkPrinted(ctx, ids, at); err != nil {
		return fmt.Errorf("r.dao.MarkPrinted -> %w", err)
	}

	return nil
}

func (r *QRCodeRepository) List(ctx context.Context, q domain.QRCodeQuery) (domain.Paged[domain.QRCode], error) {
	found, total, err := r.dao.List(ctx, q.Printed, q.Assigned, q.Limit, q.Offset)
	if err != nil {
		return domain.Paged[domain.QRCode]{}, fmt.Errorf("r.dao.List -> %w", err)
	}

	return domain.Paged[domain.QRCode]{Total: total, Data: qrCodesToDomain(found)}, nil
}

func qrCodesToDomain(rows []dao.QRCode) []domain.QRCode {
	codes := make([]domain.QRCode, 0, len(rows))
	for _, q := range rows {
		codes = append(codes, qrCodeToDomain(q))
	}

	return codes
}

func qrCodeToDomain(q dao.QRCode) domain.QRCode {
	code := domain.QRCode{
		ID:        q.ID,
		Code:      q.Code,
		ChildID:   q.ChildID,
		Printed:   q.Printed,
		PrintedAt: q.PrintedAt,
		CreatedAt: q.CreatedAt,
	}
	if q.Child != nil {
		code.ChildName = q.Child.Name
	}

	return code
}
