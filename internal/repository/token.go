package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/repository/dao"
)

type TokenDAO interface {
	InsertDeposit(ctx context.Context, deposit dao.TokenDeposit) (dao.TokenDeposit, error)
	InsertTurnin(ctx context.Context, turnin dao.VendorTokenTurnin) (dao.VendorTokenTurnin, error)
	ListDeposits(ctx context.Context, from, to *time.Time, limit, offset int) ([]dao.TokenDeposit, int64, error)
	ListTurnins(ctx context.Context, from, to *time.Time, limit, offset int) ([]dao.VendorTokenTurnin, int64, error)
}

type TokenRepository struct {
	dao TokenDAO
}

func NewTokenRepository(dao TokenDAO) *TokenRepository {
	return &TokenRepository{
		dao: dao,
	}
}

func (r *TokenRepository) CreateDeposit(ctx context.Context, d domain.TokenDeposit) (domain.TokenDeposit, error) {
	created, err := r.dao.InsertDeposit(ctx, dao.TokenDeposit{
		Base:            dao.Base{ID: d.ID},
		UserID:          d.UserID,
		RecordedBy:      d.RecordedBy,
		TokensDeposited: d.TokensDeposited,
		DepositDate:     d.DepositDate,
		Notes:           d.Notes,
	})
	if err != nil {
		return domain.TokenDeposit{}, fmt.Errorf("r.dao.InsertDeposit -> %w", err)
	}

	return depositToDomain(created), nil
}

func (r *TokenRepository) CreateTurnin(ctx context.Context, t domain.VendorTokenTurnin) (domain.VendorTokenTurnin, error) {
	created, err := r.dao.InsertTurnin(ctx, dao.VendorTokenTurnin{
		Base:            dao.Base{ID: t.ID},
		VendorID:        t.VendorID,
		RecordedBy:      t.RecordedBy,
		TokensSubmitted: t.TokensSubmitted,
		MarketDate:      t.MarketDate,
	})
	if err != nil {
		return domain.VendorTokenTurnin{}, fmt.Errorf("r.dao.InsertTurnin -> %w", err)
	}

	return turninToDomain(created), nil
}

func (r *TokenRepository) ListDeposits(ctx context.Context, q domain.TokenQuery) (domain.Paged[domain.TokenDeposit], error) {
	found, total, err := r.dao.ListDeposits(ctx, q.From, q.To, q.Limit, q.Offset)
	if err != nil {
		return domain.Paged[domain.TokenDeposit]{}, fmt.Errorf("r.dao.ListDeposits -> %w", err)
	}

	deposits := make([]domain.TokenDeposit, 0, len(found))
	for _, d := range found {
		deposits = append(deposits, depositToDomain(d))
	}

	return domain.Paged[domain.TokenDeposit]{Total: total, Data: deposits}, nil
}

func (r *TokenRepository) ListTurnins(ctx context.Context, q domain.TokenQuery) (domain.Paged[domain.VendorTokenTurnin], error) {
	found, total, err := r.dao.ListTurnins(ctx, q.From, q.To, q.Limit, q.Offset)
	if err != nil {
		return domain.Paged[domain.VendorTokenTurnin]{}, fmt.Errorf("r.dao.ListTurnins -> %w", err)
	}

	turnins := make([]domain.VendorTokenTurnin, 0, len(found))
	for _, t := range found {
		turnins = append(turnins, turninToDomain(t))
	}

	return domain.Paged[domain.VendorTokenTurnin]{Total: total, Data: turnins}, nil
}

func depositToDomain(d dao.TokenDeposit) domain.TokenDeposit {
	return domain.TokenDeposit{
		ID:              d.ID,
		UserID:          d.UserID,
		RecordedBy:      d.RecordedBy,
		TokensDeposited: d.TokensDeposited,
		DepositDate:     d.DepositDate,
		Notes:           d.Notes,
		CreatedAt:       d.CreatedAt,
	}
}

func turninToDomain(t dao.VendorTokenTurnin) domain.VendorTokenTurnin {
	turnin := domain.VendorTokenTurnin{
		ID:              t.ID,
		VendorID:        t.VendorID,
		RecordedBy:      t.RecordedBy,
		TokensSubmitted: t.TokensSubmitted,
		MarketDate:      t.MarketDate,
		CreatedAt:       t.CreatedAt,
	}
	if t.Vendor != nil {
		turnin.VendorName = t.Vendor.Name
	}

	return turnin
}
