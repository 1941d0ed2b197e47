package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxMoveCents caps a single deposit or withdrawal.
const MaxMoveCents int64 = 100_000_000

type TransactionType string

const (
	TransactionCredit     TransactionType = "credit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionDeposit    TransactionType = "deposit"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionCredit, TransactionWithdrawal, TransactionDeposit:
		return true
	}

	return false
}

// Sign is the direction a transaction of this type moves the balance.
func (t TransactionType) Sign() int64 {
	if t == TransactionWithdrawal {
		return -1
	}

	return 1
}

type Balance struct {
	ID          uuid.UUID  `json:"id"`
	ChildID     uuid.UUID  `json:"childId"`
	AmountCents int64      `json:"amountCents"`
	LastCheckin *time.Time `json:"lastCheckin,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Checkin struct {
	ID          uuid.UUID `json:"id"`
	ChildID     uuid.UUID `json:"childId"`
	StaffID     uuid.UUID `json:"staffId"`
	CheckinTime time.Time `json:"checkinTime"`
	CheckinDate string    `json:"checkinDate"`
}

// Transaction is the audit-grade record of one balance mutation. AmountCents
// is a magnitude; the sign comes from Type.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	ChildID     uuid.UUID       `json:"childId"`
	Type        TransactionType `json:"type"`
	AmountCents int64           `json:"amountCents"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CooldownError reports a check-in attempted before the cooldown elapsed.
type CooldownError struct {
	RemainingHours float64
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("child checked in too recently, wait %.2f more hours", e.RemainingHours)
}

// CheckCooldown returns a *CooldownError when less than cooldown has passed
// since last. Exactly cooldown elapsed is allowed.
func CheckCooldown(last *time.Time, now time.Time, cooldown time.Duration) error {
	if last == nil {
		return nil
	}

	elapsed := now.Sub(*last)
	if elapsed >= cooldown {
		return nil
	}

	remaining := (cooldown - elapsed).Hours()

	return &CooldownError{RemainingHours: math.Round(remaining*100) / 100}
}

// CalendarDay is the per-day key a check-in is stored under.
func CalendarDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}
