package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

type ChildService struct {
	children ChildRepository
	ledger   LedgerRepository
	qrCodes  QRCodeRepository
	paging   Paging
}

func NewChildService(children ChildRepository, ledger LedgerRepository, qrCodes QRCodeRepository, paging Paging) *ChildService {
	return &ChildService{
		children: children,
		ledger:   ledger,
		qrCodes:  qrCodes,
		paging:   paging,
	}
}

// ListOwn returns the caller's children with their balances.
func (s *ChildService) ListOwn(ctx context.Context, caller domain.Caller) ([]domain.ChildDetail, error) {
	if !caller.Registered() {
		return nil, ErrUnregistered
	}

	family, err := s.children.FindByParentID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("s.children.FindByParentID -> %w", err)
	}

	ids := make([]uuid.UUID, 0, len(family))
	for _, c := range family {
		ids = append(ids, c.ID)
	}

	balances, err := s.ledger.FindBalances(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("s.ledger.FindBalances -> %w", err)
	}

	details := make([]domain.ChildDetail, 0, len(family))
	for _, c := range family {
		balance, ok := balances[c.ID]
		if !ok {
			balance = domain.Balance{ChildID: c.ID}
		}
		details = append(details, domain.ChildDetail{
			Child:    c,
			Siblings: domain.SiblingsOf(c, family),
			Balance:  balance,
		})
	}

	return details, nil
}

// Get returns a child's detail. Parents may only see their own children.
func (s *ChildService) Get(ctx context.Context, caller domain.Caller, childID uuid.UUID) (domain.ChildDetail, error) {
	child, err := s.visible(ctx, caller, childID)
	if err != nil {
		return domain.ChildDetail{}, err
	}

	return s.detail(ctx, child)
}

func (s *ChildService) Transactions(ctx context.Context, caller domain.Caller, childID uuid.UUID, page domain.Page) (domain.Paged[domain.Transaction], error) {
	child, err := s.visible(ctx, caller, childID)
	if err != nil {
		return domain.Paged[domain.Transaction]{}, err
	}

	txns, err := s.ledger.ListTransactions(ctx, domain.TransactionQuery{
		Page:    s.paging.clamp(page),
		ChildID: &child.ID,
	})
	if err != nil {
		return domain.Paged[domain.Transaction]{}, fmt.Errorf("s.ledger.ListTransactions -> %w", err)
	}

	return txns, nil
}

// Lookup resolves a scanned card to the child it is assigned to.
func (s *ChildService) Lookup(ctx context.Context, caller domain.Caller, code string) (domain.ChildDetail, error) {
	if err := domain.Authorize(caller.Role, domain.StaffRoles...); err != nil {
		return domain.ChildDetail{}, err
	}

	qr, err := s.qrCodes.FindByCode(ctx, code)
	if err != nil {
		return domain.ChildDetail{}, fmt.Errorf("s.qrCodes.FindByCode -> %w", err)
	}
	if !qr.Assigned() {
		return domain.ChildDetail{}, fmt.Errorf("code %s -> %w", qr.Code, ErrChildNotFound)
	}

	child, err := s.children.FindByID(ctx, *qr.ChildID)
	if err != nil {
		return domain.ChildDetail{}, fmt.Errorf("s.children.FindByID -> %w", err)
	}

	return s.detail(ctx, child)
}

func (s *ChildService) visible(ctx context.Context, caller domain.Caller, childID uuid.UUID) (domain.Child, error) {
	child, err := s.children.FindByID(ctx, childID)
	if err != nil {
		return domain.Child{}, fmt.Errorf("s.children.FindByID -> %w", err)
	}

	if !caller.Role.IsStaff() && (!caller.Registered() || child.ParentID != caller.UserID) {
		return domain.Child{}, ErrForbidden
	}

	return child, nil
}

func (s *ChildService) detail(ctx context.Context, child domain.Child) (domain.ChildDetail, error) {
	family, err := s.children.FindByParentID(ctx, child.ParentID)
	if err != nil {
		return domain.ChildDetail{}, fmt.Errorf("s.children.FindByParentID -> %w", err)
	}

	balance, err := s.ledger.FindBalance(ctx, child.ID)
	switch {
	case errors.Is(err, ErrBalanceNotFound):
		balance = domain.Balance{ChildID: child.ID}
	case err != nil:
		return domain.ChildDetail{}, fmt.Errorf("s.ledger.FindBalance -> %w", err)
	}

	detail := domain.ChildDetail{
		Child:    child,
		Siblings: domain.SiblingsOf(child, family),
		Balance:  balance,
	}

	qr, err := s.qrCodes.FindByChildID(ctx, child.ID)
	switch {
	case err == nil:
		detail.QRCode = qr.Code
	case !errors.Is(err, ErrQRCodeNotFound):
		return domain.ChildDetail{}, fmt.Errorf("s.qrCodes.FindByChildID -> %w", err)
	}

	return detail, nil
}
