package domain

import (
	"time"

	"github.com/google/uuid"
)

// VendorTokenTurnin records physical tokens a vendor handed back after a
// market day. Tokens are counted, not money, and never touch a Balance.
type VendorTokenTurnin struct {
	ID              uuid.UUID `json:"id"`
	VendorID        uuid.UUID `json:"vendorId"`
	VendorName      string    `json:"vendorName,omitempty"`
	RecordedBy      uuid.UUID `json:"recordedBy"`
	TokensSubmitted int       `json:"tokensSubmitted"`
	MarketDate      time.Time `json:"marketDate"`
	CreatedAt       time.Time `json:"createdAt"`
}

// TokenDeposit records physical tokens brought back to the desk.
type TokenDeposit struct {
	ID              uuid.UUID  `json:"id"`
	UserID          *uuid.UUID `json:"userId,omitempty"`
	RecordedBy      uuid.UUID  `json:"recordedBy"`
	TokensDeposited int        `json:"tokensDeposited"`
	DepositDate     time.Time  `json:"depositDate"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
