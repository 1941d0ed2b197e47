package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

// ReportService is read-only.
type ReportService struct {
	reports ReportRepository
	ledger  LedgerRepository
	tokens  TokenRepository
	audit   AuditRepository
	paging  Paging
}

func NewReportService(reports ReportRepository, ledger LedgerRepository, tokens TokenRepository, audit AuditRepository, paging Paging) *ReportService {
	return &ReportService{
		reports: reports,
		ledger:  ledger,
		tokens:  tokens,
		audit:   audit,
		paging:  paging,
	}
}

func (s *ReportService) Children(ctx context.Context, q domain.ChildQuery) (domain.Paged[domain.ChildOverview], error) {
	q.Page = s.paging.clamp(q.Page)
	q.Unpaged = false

	return s.children(ctx, q)
}

// ExportChildren applies the same filter and sort as Children but returns
// every match.
func (s *ReportService) ExportChildren(ctx context.Context, q domain.ChildQuery) ([]domain.ChildOverview, error) {
	q.Page = domain.Page{}
	q.Unpaged = true

	rows, err := s.children(ctx, q)
	if err != nil {
		return nil, err
	}

	return rows.Data, nil
}

func (s *ReportService) children(ctx context.Context, q domain.ChildQuery) (domain.Paged[domain.ChildOverview], error) {
	q.SortBy = domain.ParseChildSortKey(string(q.SortBy))
	q.Order = domain.ParseSortOrder(string(q.Order))

	rows, err := s.reports.Children(ctx, q)
	if err != nil {
		return domain.Paged[domain.ChildOverview]{}, fmt.Errorf("s.reports.Children -> %w", err)
	}

	return rows, nil
}

func (s *ReportService) Checkins(ctx context.Context, q domain.CheckinQuery) (domain.Paged[domain.CheckinOverview], error) {
	q.Page = s.paging.clamp(q.Page)
	q.Unpaged = false

	return s.checkins(ctx, q)
}

func (s *ReportService) ExportCheckins(ctx context.Context, q domain.CheckinQuery) ([]domain.CheckinOverview, error) {
	q.Page = domain.Page{}
	q.Unpaged = true

	rows, err := s.checkins(ctx, q)
	if err != nil {
		return nil, err
	}

	return rows.Data, nil
}

func (s *ReportService) checkins(ctx context.Context, q domain.CheckinQuery) (domain.Paged[domain.CheckinOverview], error) {
	if q.From.IsZero() || q.To.IsZero() {
		return domain.Paged[domain.CheckinOverview]{}, fmt.Errorf("%w: from and to are required", ErrValidation)
	}
	if !q.From.Before(q.To) {
		return domain.Paged[domain.CheckinOverview]{}, fmt.Errorf("%w: from must be before to", ErrValidation)
	}

	rows, err := s.reports.Checkins(ctx, q)
	if err != nil {
		return domain.Paged[domain.CheckinOverview]{}, fmt.Errorf("s.reports.Checkins -> %w", err)
	}

	return rows, nil
}

func (s *ReportService) Transactions(ctx context.Context, q domain.TransactionQuery) (domain.Paged[domain.Transaction], error) {
	if q.Type != "" && !q.Type.Valid() {
		return domain.Paged[domain.Transaction]{}, fmt.Errorf("%w: unknown transaction type %q", ErrValidation, q.Type)
	}
	if err := checkRange(q.From, q.To); err != nil {
		return domain.Paged[domain.Transaction]{}, err
	}
	q.Page = s.paging.clamp(q.Page)

	txns, err := s.ledger.ListTransactions(ctx, q)
	if err != nil {
		return domain.Paged[domain.Transaction]{}, fmt.Errorf("s.ledger.ListTransactions -> %w", err)
	}

	return txns, nil
}

func (s *ReportService) VendorReturns(ctx context.Context, q domain.TokenQuery) (domain.Paged[domain.VendorTokenTurnin], error) {
	if err := checkRange(q.From, q.To); err != nil {
		return domain.Paged[domain.VendorTokenTurnin]{}, err
	}
	q.Page = s.paging.clamp(q.Page)

	turnins, err := s.tokens.ListTurnins(ctx, q)
	if err != nil {
		return domain.Paged[domain.VendorTokenTurnin]{}, fmt.Errorf("s.tokens.ListTurnins -> %w", err)
	}

	return turnins, nil
}

func (s *ReportService) TokenDeposits(ctx context.Context, q domain.TokenQuery) (domain.Paged[domain.TokenDeposit], error) {
	if err := checkRange(q.From, q.To); err != nil {
		return domain.Paged[domain.TokenDeposit]{}, err
	}
	q.Page = s.paging.clamp(q.Page)

	deposits, err := s.tokens.ListDeposits(ctx, q)
	if err != nil {
		return domain.Paged[domain.TokenDeposit]{}, fmt.Errorf("s.tokens.ListDeposits -> %w", err)
	}

	return deposits, nil
}

func (s *ReportService) AuditLogs(ctx context.Context, q domain.AuditQuery) (domain.Paged[domain.AuditLog], error) {
	q.Page = s.paging.clamp(q.Page)

	entries, err := s.audit.List(ctx, q)
	if err != nil {
		return domain.Paged[domain.AuditLog]{}, fmt.Errorf("s.audit.List -> %w", err)
	}

	return entries, nil
}

func (s *ReportService) Summary(ctx context.Context, from, to *time.Time) (domain.Summary, error) {
	if err := checkRange(from, to); err != nil {
		return domain.Summary{}, err
	}

	summary, err := s.reports.Summary(ctx, from, to)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("s.reports.Summary -> %w", err)
	}

	return summary, nil
}

func checkRange(from, to *time.Time) error {
	if from != nil && to != nil && !from.Before(*to) {
		return fmt.Errorf("%w: from must be before to", ErrValidation)
	}

	return nil
}
