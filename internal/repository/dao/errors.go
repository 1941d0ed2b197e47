package dao

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserEmailExists     = errors.New("user already exists")
	ErrUserSubjectExists   = errors.New("user already registered")
	ErrChildNotFound       = errors.New("child not found")
	ErrParentNotFound      = errors.New("parent not found")
	ErrBalanceNotFound     = errors.New("balance not found")
	ErrCheckinNotFound     = errors.New("checkin not found")
	ErrDuplicateCheckinDay = errors.New("child already checked in on this day")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAmountOutOfRange    = errors.New("amount out of range")
	ErrQRCodeNotFound      = errors.New("qr code not found")
	ErrQRCodeTaken         = errors.New("qr code already assigned")
	ErrChildHasQRCode      = errors.New("child already has a qr code")
)
