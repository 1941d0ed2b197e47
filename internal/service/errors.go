package service

import (
	"errors"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/repository"
)

var (
	ErrUserNotFound        = repository.ErrUserNotFound
	ErrUserEmailExists     = repository.ErrUserEmailExists
	ErrUserSubjectExists   = repository.ErrUserSubjectExists
	ErrChildNotFound       = repository.ErrChildNotFound
	ErrParentNotFound      = repository.ErrParentNotFound
	ErrBalanceNotFound     = repository.ErrBalanceNotFound
	ErrCheckinNotFound     = repository.ErrCheckinNotFound
	ErrInsufficientFunds   = repository.ErrInsufficientFunds
	ErrAmountOutOfRange    = repository.ErrAmountOutOfRange
	ErrDuplicateCheckinDay = repository.ErrDuplicateCheckinDay
	ErrQRCodeNotFound      = repository.ErrQRCodeNotFound
	ErrQRCodeTaken         = repository.ErrQRCodeTaken
	ErrChildHasQRCode      = repository.ErrChildHasQRCode

	ErrForbidden = domain.ErrForbidden

	ErrValidation   = errors.New("invalid input")
	ErrUnregistered = errors.New("caller has not registered")
	ErrClaimSync    = errors.New("role saved but identity provider claim was not updated, reconcile manually")
)
