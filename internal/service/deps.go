package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ChildRepository interface {
	Create(ctx context.Context, child domain.Child) (domain.Child, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Child, error)
	Lock(ctx context.Context, id uuid.UUID) (domain.Child, error)
	FindByParentID(ctx context.Context, parentID uuid.UUID) ([]domain.Child, error)
	IncrementCheckinCount(ctx context.Context, id uuid.UUID) error
}

type LedgerRepository interface {
	EnsureBalance(ctx context.Context, childID uuid.UUID) (domain.Balance, error)
	LockBalance(ctx context.Context, childID uuid.UUID) (domain.Balance, error)
	FindBalance(ctx context.Context, childID uuid.UUID) (domain.Balance, error)
	FindBalances(ctx context.Context, childIDs []uuid.UUID) (map[uuid.UUID]domain.Balance, error)
	AdjustBalance(ctx context.Context, childID uuid.UUID, delta int64, checkinAt *time.Time) (domain.Balance, error)
	LastCheckin(ctx context.Context, childID uuid.UUID) (domain.Checkin, error)
	CreateCheckin(ctx context.Context, checkin domain.Checkin) (domain.Checkin, error)
	CreateTransaction(ctx context.Context, txn domain.Transaction) (domain.Transaction, error)
	ListTransactions(ctx context.Context, q domain.TransactionQuery) (domain.Paged[domain.Transaction], error)
}

type TokenRepository interface {
	CreateDeposit(ctx context.Context, d domain.TokenDeposit) (domain.TokenDeposit, error)
	CreateTurnin(ctx context.Context, t domain.VendorTokenTurnin) (domain.VendorTokenTurnin, error)
	ListDeposits(ctx context.Context, q domain.TokenQuery) (domain.Paged[domain.TokenDeposit], error)
	ListTurnins(ctx context.Context, q domain.TokenQuery) (domain.Paged[domain.VendorTokenTurnin], error)
}

type AuditRepository interface {
	Create(ctx context.Context, entry domain.AuditLog) (domain.AuditLog, error)
	List(ctx context.Context, q domain.AuditQuery) (domain.Paged[domain.AuditLog], error)
}

type QRCodeRepository interface {
	CreateMany(ctx context.Context, codes []string) ([]domain.QRCode, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.QRCode, error)
	FindByCode(ctx context.Context, code string) (domain.QRCode, error)
	FindByChildID(ctx context.Context, childID uuid.UUID) (domain.QRCode, error)
	Assign(ctx context.Context, code string, childID uuid.UUID) (domain.QRCode, error)
	Unassign(ctx context.Context, code string) (domain.QRCode, error)
	MarkPrinted(ctx context.Context, ids []uuid.UUID, at time.Time) error
	List(ctx context.Context, q domain.QRCodeQuery) (domain.Paged[domain.QRCode], error)
}

type ReportRepository interface {
	Children(ctx context.Context, q domain.ChildQuery) (domain.Paged[domain.ChildOverview], error)
	Checkins(ctx context.Context, q domain.CheckinQuery) (domain.Paged[domain.CheckinOverview], error)
	Summary(ctx context.Context, from, to *time.Time) (domain.Summary, error)
}

// EventPublisher delivers committed ledger events. Implementations must not
// block the caller on a slow broker and never report failure back.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent)
}

type LedgerRecorder interface {
	CheckinRecorded()
	CooldownRejected()
	BalanceMoved(txType domain.TransactionType, cents int64)
}

type QRCodeRecorder interface {
	CodesGenerated(n int)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.LedgerEvent) {}

type nopRecorder struct{}

func (nopRecorder) CheckinRecorded()                           {}
func (nopRecorder) CooldownRejected()                          {}
func (nopRecorder) BalanceMoved(domain.TransactionType, int64) {}
func (nopRecorder) CodesGenerated(int)                         {}
