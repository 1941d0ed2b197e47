package request

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

type CreateChildRequest struct {
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"dateOfBirth,omitempty" format:"YYYY-MM-DD"`
	ParentID    string `json:"parentId,omitempty"`
}

func (req *CreateChildRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Gender, validation.Required, validation.In("male", "female", "other")),
		validation.Field(&req.DateOfBirth, validation.Date(DateLayout)),
		validation.Field(&req.ParentID, is.UUID),
	)
}

// BalanceMoveRequest is the body of both withdraw and deposit.
type BalanceMoveRequest struct {
	ChildID     string `json:"childId"`
	AmountCents int64  `json:"amountCents"`
}

func (req *BalanceMoveRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ChildID, validation.Required, is.UUID),
		validation.Field(&req.AmountCents, validation.Required.Error("must be a positive integer"), validation.Min(int64(1)).Error("must be a positive integer"),
			validation.Max(domain.MaxMoveCents).Error(fmt.Sprintf("must be at most %d", domain.MaxMoveCents))),
	)
}

type VendorReturnRequest struct {
	VendorID        string `json:"vendorId"`
	TokensSubmitted *int   `json:"tokensSubmitted"`
	MarketDate      string `json:"marketDate,omitempty"`
}

func (req *VendorReturnRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.VendorID, validation.Required, is.UUID),
		validation.Field(&req.TokensSubmitted, validation.By(present), validation.Min(0)),
		validation.Field(&req.MarketDate, validation.By(dateOrInstant)),
	)
}

type TokenDepositRequest struct {
	UserID          string `json:"userId,omitempty"`
	TokensDeposited *int   `json:"tokensDeposited"`
	DepositDate     string `json:"depositDate,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

func (req *TokenDepositRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.UserID, is.UUID),
		validation.Field(&req.TokensDeposited, validation.By(present), validation.Min(0)),
		validation.Field(&req.DepositDate, validation.By(dateOrInstant)),
		validation.Field(&req.Notes, validation.Length(0, 500)),
	)
}

var errMissing = errors.New("is required")

func present(value any) error {
	if n, _ := value.(*int); n == nil {
		return errMissing
	}

	return nil
}
