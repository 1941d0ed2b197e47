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
	ErrBalanceNotFound     = dao.ErrBalanceNotFound
	ErrCheckinNotFound     = dao.ErrCheckinNotFound
	ErrDuplicateCheckinDay = dao.ErrDuplicateCheckinDay
	ErrInsufficientFunds   = dao.ErrInsufficientFunds
	ErrAmountOutOfRange    = dao.ErrAmountOutOfRange
)

type LedgerDAO interface {
	EnsureBalance(ctx context.Context, childID uuid.UUID) (dao.Balance, error)
	LockBalance(ctx context.Context, childID uuid.UUID) (dao.Balance, error)
	FindBalance(ctx context.Context, childID uuid.UUID) (dao.Balance, error)
	FindBalances(ctx context.Context, childIDs []uuid.UUID) ([]dao.Balance, error)
	AdjustBalance(ctx context.Context, childID uuid.UUID, delta int64, checkinAt *time.Time) (dao.Balance, error)
	LastCheckin(ctx context.Context, childID uuid.UUID) (dao.Checkin, error)
	InsertCheckin(ctx context.Context, checkin dao.Checkin) (dao.Checkin, error)
	InsertTransaction(ctx context.Context, txn dao.Transaction) (dao.Transaction, error)
	ListTransactions(ctx context.Context, f dao.TransactionFilter, limit, offset int) ([]dao.Transaction, int64, error)
}

type LedgerRepository struct {
	dao LedgerDAO
}

func NewLedgerRepository(dao LedgerDAO) *LedgerRepository {
	return &LedgerRepository{
		dao: dao,
	}
}

// EnsureBalance is the single create-if-absent primitive for balances. It is
// idempotent under concurrency and returns the row locked.
func (r *LedgerRepository) EnsureBalance(ctx context.Context, childID uuid.UUID) (domain.Balance, error) {
	b, err := r.dao.EnsureBalance(ctx, childID)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("r.dao.EnsureBalance -> %w", err)
	}

	return balanceToDomain(b), nil
}

func (r *LedgerRepository) LockBalance(ctx context.Context, childID uuid.UUID) (domain.Balance, error) {
	b, err := r.dao.LockBalance(ctx, childID)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("r.dao.LockBalance -> %w", err)
	}

	return balanceToDomain(b), nil
}

func (r *LedgerRepository) FindBalance(ctx context.Context, childID uuid.UUID) (domain.Balance, error) {
	b, err := r.dao.FindBalance(ctx, childID)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("r.dao.FindBalance -> %w", err)
	}

	return balanceToDomain(b), nil
}

// FindBalances returns balances keyed by child id. Children without a
// balance row are absent from the map.
func (r *LedgerRepository) FindBalances(ctx context.Context, childIDs []uuid.UUID) (map[uuid.UUID]domain.Balance, error) {
	found, err := r.dao.FindBalances(ctx, childIDs)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindBalances -> %w", err)
	}

	balances := make(map[uuid.UUID]domain.Balance, len(found))
	for _, b := range found {
		balances[b.ChildID] = balanceToDomain(b)
	}

	return balances, nil
}

func (r *LedgerRepository) AdjustBalance(ctx context.Context, childID uuid.UUID, delta int64, checkinAt *time.Time) (domain.Balance, error) {
	b, err := r.dao.AdjustBalance(ctx, childID, delta, checkinAt)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("r.dao.AdjustBalance -> %w", err)
	}

	return balanceToDomain(b), nil
}

func (r *LedgerRepository) LastCheckin(ctx context.Context, childID uuid.UUID) (domain.Checkin, error) {
	c, err := r.dao.LastCheckin(ctx, childID)
	if err != nil {
		return domain.Checkin{}, fmt.Errorf("r.dao.LastCheckin -> %w", err)
	}

	return checkinToDomain(c), nil
}

func (r *LedgerRepository) CreateCheckin(ctx context.Context, checkin domain.Checkin) (domain.Checkin, error) {
	day, err := time.ParseInLocation(time.DateOnly, checkin.CheckinDate, time.UTC)
	if err != nil {
		return domain.Checkin{}, fmt.Errorf("time.ParseInLocation -> %w", err)
	}

	created, err := r.dao.InsertCheckin(ctx, dao.Checkin{
		Base:        dao.Base{ID: checkin.ID},
		ChildID:     checkin.ChildID,
		StaffID:     checkin.StaffID,
		CheckinTime: checkin.CheckinTime,
		CheckinDate: day,
	})
	if err != nil {
		return domain.Checkin{}, fmt.Errorf("r.dao.InsertCheckin -> %w", err)
	}

	return checkinToDomain(created), nil
}

func (r *LedgerRepository) CreateTransaction(ctx context.Context, txn domain.Transaction) (domain.Transaction, error) {
	created, err := r.dao.InsertTransaction(ctx, dao.Transaction{
		Base:        dao.Base{ID: txn.ID},
		ChildID:     txn.ChildID,
		Type:        dao.TransactionType(txn.Type),
		AmountCents: txn.AmountCents,
		Description: txn.Description,
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("r.dao.InsertTransaction -> %w", err)
	}

	return transactionToDomain(created), nil
}

func (r *LedgerRepository) ListTransactions(ctx context.Context, q domain.TransactionQuery) (domain.Paged[domain.Transaction], error) {
	found, total, err := r.dao.ListTransactions(ctx, dao.TransactionFilter{
		From:    q.From,
		To:      q.To,
		ChildID: q.ChildID,
		Type:    string(q.Type),
	}, q.Limit, q.Offset)
	if err != nil {
		return domain.Paged[domain.Transaction]{}, fmt.Errorf("r.dao.ListTransactions -> %w", err)
	}

	txns := make([]domain.Transaction, 0, len(found))
	for _, t := range found {
		txns = append(txns, transactionToDomain(t))
	}

	return domain.Paged[domain.Transaction]{Total: total, Data: txns}, nil
}

func balanceToDomain(b dao.Balance) domain.Balance {
	return domain.Balance{
		ID:          b.ID,
		ChildID:     b.ChildID,
		AmountCents: b.AmountCents,
		LastCheckin: b.LastCheckin,
		UpdatedAt:   b.UpdatedAt,
	}
}

func checkinToDomain(c dao.Checkin) domain.Checkin {
	return domain.Checkin{
		ID:          c.ID,
		ChildID:     c.ChildID,
		StaffID:     c.StaffID,
		CheckinTime: c.CheckinTime,
		CheckinDate: c.CheckinDate.Format(time.DateOnly),
	}
}

func transactionToDomain(t dao.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:          t.ID,
		ChildID:     t.ChildID,
		Type:        domain.TransactionType(t.Type),
		AmountCents: t.AmountCents,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}
