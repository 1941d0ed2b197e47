package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietanh2810/kids-ledger-api/internal/config"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

// LedgerRules are the tunable ledger invariants.
type LedgerRules struct {
	Cooldown      time.Duration
	CheckinCredit int64
	Location      *time.Location
}

func LedgerRulesFromConfig(conf *config.LedgerConfig) (LedgerRules, error) {
	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		return LedgerRules{}, fmt.Errorf("time.LoadLocation -> %w", err)
	}

	return LedgerRules{
		Cooldown:      time.Duration(conf.CooldownHours * float64(time.Hour)),
		CheckinCredit: conf.CheckinCreditCents,
		Location:      loc,
	}, nil
}

type CreateChildInput struct {
	Name        string
	Gender      domain.Gender
	DateOfBirth *time.Time
	ParentID    *uuid.UUID
}

type VendorReturnInput struct {
	VendorID        uuid.UUID
	TokensSubmitted int
	MarketDate      *time.Time
}

type TokenDepositInput struct {
	UserID          *uuid.UUID
	TokensDeposited int
	DepositDate     *time.Time
	Notes           string
}

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

type LedgerService struct {
	rules     LedgerRules
	tx        Transactor
	children  ChildRepository
	ledger    LedgerRepository
	tokens    TokenRepository
	users     UserFinder
	qrCodes   QRCodeRepository
	audit     AuditRepository
	publisher EventPublisher
	recorder  LedgerRecorder
	now       func() time.Time
}

func NewLedgerService(
	rules LedgerRules,
	tx Transactor,
	children ChildRepository,
	ledger LedgerRepository,
	tokens TokenRepository,
	users UserFinder,
	qrCodes QRCodeRepository,
	audit AuditRepository,
	publisher EventPublisher,
	recorder LedgerRecorder,
) *LedgerService {
	if rules.Location == nil {
		rules.Location = time.UTC
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &LedgerService{
		rules:     rules,
		tx:        tx,
		children:  children,
		ledger:    ledger,
		tokens:    tokens,
		users:     users,
		qrCodes:   qrCodes,
		audit:     audit,
		publisher: publisher,
		recorder:  recorder,
		now:       time.Now,
	}
}

// CreateChild registers a child together with its zero balance. A parent
// always creates for themself; staff must name the parent.
func (s *LedgerService) CreateChild(ctx context.Context, caller domain.Caller, in CreateChildInput) (domain.Child, domain.Balance, error) {
	var parentID uuid.UUID
	switch domain.ChildCreationFor(caller.Role) {
	case domain.CreateOwnChild:
		if !caller.Registered() {
			return domain.Child{}, domain.Balance{}, ErrUnregistered
		}
		parentID = caller.UserID
	case domain.CreateForParent:
		if in.ParentID == nil || *in.ParentID == uuid.Nil {
			return domain.Child{}, domain.Balance{}, fmt.Errorf("%w: parentId is required", ErrValidation)
		}
		parentID = *in.ParentID
	default:
		return domain.Child{}, domain.Balance{}, ErrForbidden
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Child{}, domain.Balance{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !validGender(in.Gender) {
		return domain.Child{}, domain.Balance{}, fmt.Errorf("%w: gender must be one of male, female, other", ErrValidation)
	}

	var (
		child   domain.Child
		balance domain.Balance
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		child, err = s.children.Create(ctx, domain.Child{
			ParentID:    parentID,
			Name:        name,
			Gender:      in.Gender,
			DateOfBirth: in.DateOfBirth,
		})
		if err != nil {
			return fmt.Errorf("s.children.Create -> %w", err)
		}

		balance, err = s.ensureBalance(ctx, child.ID)
		if err != nil {
			return err
		}

		return s.record(ctx, domain.NewAudit(caller, domain.AuditChildCreate, "child", child.ID.String(), map[string]any{
			"name":     child.Name,
			"parentId": parentID.String(),
		}))
	})
	if err != nil {
		return domain.Child{}, domain.Balance{}, fmt.Errorf("s.tx.InTx -> %w", err)
	}

	return child, balance, nil
}

// CheckIn credits a child for attending. The cooldown is checked against the
// most recent check-in before anything is written; the per-day unique key on
// check-ins backs it up.
func (s *LedgerService) CheckIn(ctx context.Context, caller domain.Caller, childID uuid.UUID) (domain.ChildDetail, error) {
	if err := domain.Authorize(caller.Role, domain.StaffRoles...); err != nil {
		return domain.ChildDetail{}, err
	}
	if !caller.Registered() {
		return domain.ChildDetail{}, ErrUnregistered
	}

	now := s.now().UTC()

	var detail domain.ChildDetail
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		child, err := s.children.Lock(ctx, childID)
		if err != nil {
			return fmt.Errorf("s.children.Lock -> %w", err)
		}

		var last *time.Time
		prev, err := s.ledger.LastCheckin(ctx, child.ID)
		switch {
		case err == nil:
			last = &prev.CheckinTime
		case !errors.Is(err, ErrCheckinNotFound):
			return fmt.Errorf("s.ledger.LastCheckin -> %w", err)
		}

		if err = domain.CheckCooldown(last, now, s.rules.Cooldown); err != nil {
			return err
		}

		if _, err = s.ensureBalance(ctx, child.ID); err != nil {
			return err
		}

		_, err = s.ledger.CreateCheckin(ctx, domain.Checkin{
			ChildID:     child.ID,
			StaffID:     caller.UserID,
			CheckinTime: now,
			CheckinDate: domain.CalendarDay(now, s.rules.Location),
		})
		if err != nil {
			return fmt.Errorf("s.ledger.CreateCheckin -> %w", err)
		}

		balance, err := s.ledger.AdjustBalance(ctx, child.ID, s.rules.CheckinCredit, &now)
		if err != nil {
			return fmt.Errorf("s.ledger.AdjustBalance -> %w", err)
		}

		if err = s.children.IncrementCheckinCount(ctx, child.ID); err != nil {
			return fmt.Errorf("s.children.IncrementCheckinCount -> %w", err)
		}
		child.CheckinCount++

		txn, err := s.ledger.CreateTransaction(ctx, domain.Transaction{
			ChildID:     child.ID,
			Type:        domain.TransactionCredit,
			AmountCents: s.rules.CheckinCredit,
			Description: "Check-in credit recorded by " + actorName(caller),
		})
		if err != nil {
			return fmt.Errorf("s.ledger.CreateTransaction -> %w", err)
		}

		err = s.record(ctx, domain.NewAudit(caller, domain.AuditCheckin, "child", child.ID.String(), map[string]any{
			"transactionId": txn.ID.String(),
			"amountCents":   txn.AmountCents,
			"checkinDate":   domain.CalendarDay(now, s.rules.Location),
		}))
		if err != nil {
			return err
		}

		detail, err = s.detail(ctx, child, balance)

		return err
	})
	if err != nil {
		var cooldown *domain.CooldownError
		if errors.As(err, &cooldown) {
			s.recorder.CooldownRejected()
		}

		return domain.ChildDetail{}, fmt.Errorf("s.tx.InTx -> %w", err)
	}

	s.recorder.CheckinRecorded()
	s.recorder.BalanceMoved(domain.TransactionCredit, s.rules.CheckinCredit)
	s.publish(ctx, caller, domain.TransactionCredit, detail.Balance, s.rules.CheckinCredit, now)

	return detail, nil
}

// Withdraw debits a child's balance. It never creates a balance and never
// withdraws partially.
func (s *LedgerService) Withdraw(ctx context.Context, caller domain.Caller, childID uuid.UUID, amountCents int64) (domain.Balance, domain.Transaction, error) {
	return s.move(ctx, caller, childID, domain.TransactionWithdrawal, amountCents)
}

// Deposit credits a child's balance, creating it first when absent.
func (s *LedgerService) Deposit(ctx context.Context, caller domain.Caller, childID uuid.UUID, amountCents int64) (domain.Balance, domain.Transaction, error) {
	return s.move(ctx, caller, childID, domain.TransactionDeposit, amountCents)
}

func (s *LedgerService) move(ctx context.Context, caller domain.Caller, childID uuid.UUID, txType domain.TransactionType, amountCents int64) (domain.Balance, domain.Transaction, error) {
	if err := domain.Authorize(caller.Role, domain.StaffRoles...); err != nil {
		return domain.Balance{}, domain.Transaction{}, err
	}
	if !caller.Registered() {
		return domain.Balance{}, domain.Transaction{}, ErrUnregistered
	}
	if amountCents <= 0 {
		return domain.Balance{}, domain.Transaction{}, fmt.Errorf("%w: amountCents must be a positive integer", ErrValidation)
	}
	if amountCents > domain.MaxMoveCents {
		return domain.Balance{}, domain.Transaction{}, fmt.Errorf("%w: amountCents must be at most %d", ErrValidation, domain.MaxMoveCents)
	}

	var (
		balance domain.Balance
		txn     domain.Transaction
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		child, err := s.children.Lock(ctx, childID)
		if err != nil {
			return fmt.Errorf("s.children.Lock -> %w", err)
		}

		action := domain.AuditDeposit
		if txType == domain.TransactionWithdrawal {
			action = domain.AuditWithdraw
			balance, err = s.ledger.LockBalance(ctx, child.ID)
			if err != nil {
				return fmt.Errorf("s.ledger.LockBalance -> %w", err)
			}
			if balance.AmountCents < amountCents {
				return ErrInsufficientFunds
			}
		} else if _, err = s.ensureBalance(ctx, child.ID); err != nil {
			return err
		}

		balance, err = s.ledger.AdjustBalance(ctx, child.ID, txType.Sign()*amountCents, nil)
		if err != nil {
			return fmt.Errorf("s.ledger.AdjustBalance -> %w", err)
		}

		txn, err = s.ledger.CreateTransaction(ctx, domain.Transaction{
			ChildID:     child.ID,
			Type:        txType,
			AmountCents: amountCents,
			Description: describe(txType, caller),
		})
		if err != nil {
			return fmt.Errorf("s.ledger.CreateTransaction -> %w", err)
		}

		return s.record(ctx, domain.NewAudit(caller, action, "child", child.ID.String(), map[string]any{
			"transactionId": txn.ID.String(),
			"amountCents":   amountCents,
			"balanceCents":  balance.AmountCents,
		}))
	})
	if err != nil {
		return domain.Balance{}, domain.Transaction{}, fmt.Errorf("s.tx.InTx -> %w", err)
	}

	s.recorder.BalanceMoved(txType, amountCents)
	s.publish(ctx, caller, txType, balance, amountCents, txn.CreatedAt)

	return balance, txn, nil
}

// VendorReturn records tokens a vendor handed back. No balance changes.
func (s *LedgerService) VendorReturn(ctx context.Context, caller domain.Caller, in VendorReturnInput) (domain.VendorTokenTurnin, error) {
	if err := domain.Authorize(caller.Role, domain.StaffRoles...); err != nil {
		return domain.VendorTokenTurnin{}, err
	}
	if !caller.Registered() {
		return domain.VendorTokenTurnin{}, ErrUnregistered
	}
	if in.TokensSubmitted < 0 {
		return domain.VendorTokenTurnin{}, fmt.Errorf("%w: tokensSubmitted must not be negative", ErrValidation)
	}

	marketDate := s.now().UTC()
	if in.MarketDate != nil {
		marketDate = *in.MarketDate
	}

	var turnin domain.VendorTokenTurnin
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		vendor, err := s.users.FindByID(ctx, in.VendorID)
		if err != nil {
			return fmt.Errorf("s.users.FindByID -> %w", err)
		}
		if vendor.Role != domain.RoleVendor {
			return fmt.Errorf("%w: user %s is not a vendor", ErrValidation, vendor.ID)
		}

		turnin, err = s.tokens.CreateTurnin(ctx, domain.VendorTokenTurnin{
			VendorID:        vendor.ID,
			RecordedBy:      caller.UserID,
			TokensSubmitted: in.TokensSubmitted,
			MarketDate:      marketDate,
		})
		if err != nil {
			return fmt.Errorf("s.tokens.CreateTurnin -> %w", err)
		}
		turnin.VendorName = vendor.Name

		return s.record(ctx, domain.NewAudit(caller, domain.AuditVendorReturn, "vendor_token_turnin", turnin.ID.String(), map[string]any{
			"vendorId":        vendor.ID.String(),
			"tokensSubmitted": in.TokensSubmitted,
			"marketDate":      marketDate.Format(time.DateOnly),
		}))
	})
	if err != nil {
		return domain.VendorTokenTurnin{}, fmt.Errorf("s.tx.InTx -> %w", err)
	}

	return turnin, nil
}

// TokenDeposit records physical tokens handed in at the desk, optionally on
// behalf of a user. No balance changes.
func (s *LedgerService) TokenDeposit(ctx context.Context, caller domain.Caller, in TokenDepositInput) (domain.TokenDeposit, error) {
	if err := domain.Authorize(caller.Role, domain.StaffRoles...); err != nil {
		return domain.TokenDeposit{}, err
	}
	if !caller.Registered() {
		return domain.TokenDeposit{}, ErrUnregistered
	}
	if in.TokensDeposited < 0 {
		return domain.TokenDeposit{}, fmt.Errorf("%w: tokensDeposited must not be negative", ErrValidation)
	}

	depositDate := s.now().UTC()
	if in.DepositDate != nil {
		depositDate = *in.DepositDate
	}

	var deposit domain.TokenDeposit
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if in.UserID != nil {
			if _, err := s.users.FindByID(ctx, *in.UserID); err != nil {
				return fmt.Errorf("s.users.FindByID -> %w", err)
			}
		}

		var err error
		deposit, err = s.tokens.CreateDeposit(ctx, domain.TokenDeposit{
			UserID:          in.UserID,
			RecordedBy:      caller.UserID,
			TokensDeposited: in.TokensDeposited,
			DepositDate:     depositDate,
			Notes:           strings.TrimSpace(in.Notes),
		})
		if err != nil {
			return fmt.Errorf("s.tokens.CreateDeposit -> %w", err)
		}

		details := map[string]any{"tokensDeposited": in.TokensDeposited}
		if in.UserID != nil {
			details["userId"] = in.UserID.String()
		}

		return s.record(ctx, domain.NewAudit(caller, domain.AuditTokenDeposit, "token_deposit", deposit.ID.String(), details))
	})
	if err != nil {
		return domain.TokenDeposit{}, fmt.Errorf("s.tx.InTx -> %w", err)
	}

	return deposit, nil
}

// ensureBalance is the one place a balance is lazily created.
func (s *LedgerService) ensureBalance(ctx context.Context, childID uuid.UUID) (domain.Balance, error) {
	balance, err := s.ledger.EnsureBalance(ctx, childID)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("s.ledger.EnsureBalance -> %w", err)
	}

	return balance, nil
}

func (s *LedgerService) record(ctx context.Context, entry domain.AuditLog) error {
	if _, err := s.audit.Create(ctx, entry); err != nil {
		return fmt.Errorf("s.audit.Create -> %w", err)
	}

	return nil
}

func (s *LedgerService) detail(ctx context.Context, child domain.Child, balance domain.Balance) (domain.ChildDetail, error) {
	family, err := s.children.FindByParentID(ctx, child.ParentID)
	if err != nil {
		return domain.ChildDetail{}, fmt.Errorf("s.children.FindByParentID -> %w", err)
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

func (s *LedgerService) publish(ctx context.Context, caller domain.Caller, txType domain.TransactionType, balance domain.Balance, amountCents int64, at time.Time) {
	event := domain.LedgerEvent{
		Type:         txType,
		ChildID:      balance.ChildID,
		AmountCents:  amountCents,
		BalanceCents: balance.AmountCents,
		OccurredAt:   at,
	}
	if caller.Registered() {
		id := caller.UserID
		event.ActorID = &id
	}

	zap.L().Debug("ledger event", zap.String("type", string(txType)), zap.String("childId", balance.ChildID.String()))
	s.publisher.Publish(context.WithoutCancel(ctx), event)
}

func validGender(g domain.Gender) bool {
	for _, known := range domain.Genders {
		if g == known {
			return true
		}
	}

	return false
}

func actorName(caller domain.Caller) string {
	if caller.Name != "" {
		return caller.Name
	}
	if caller.Email != "" {
		return caller.Email
	}

	return caller.SubjectID
}

func describe(txType domain.TransactionType, caller domain.Caller) string {
	switch txType {
	case domain.TransactionWithdrawal:
		return "Withdrawal by " + actorName(caller)
	case domain.TransactionDeposit:
		return "Deposit by " + actorName(caller)
	default:
		return "Credit by " + actorName(caller)
	}
}
