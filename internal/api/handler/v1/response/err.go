package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/service"
)

// Err is the body of every non-2xx response: {"error": "..."}. Err itself is
// only logged, never sent.
type Err struct {
	Err            error    `json:"-"`
	HTTPStatusCode int      `json:"-"`
	Message        string   `json:"error"`
	RemainingHours *float64 `json:"remainingHours,omitempty"`
}

func (e *Err) Error() string {
	return e.Message
}

func RenderErr(ctx *gin.Context, e *Err) {
	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("requestId", requestid.Get(ctx)),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Error(e.Err),
		)
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func ErrBadRequest(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		Message:        err.Error(),
	}
}

func ErrUnauthenticated(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusUnauthorized,
		Message:        "unauthenticated",
	}
}

func ErrPermissionDenied(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusForbidden,
		Message:        "forbidden",
	}
}

func ErrNotFound(resource, key string, value any) *Err {
	return &Err{
		HTTPStatusCode: http.StatusNotFound,
		Message:        fmt.Sprintf("%v with %v=%v not found", resource, key, value),
	}
}

func ErrConflict(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusConflict,
		Message:        err.Error(),
	}
}

func ErrTooSoon(err *domain.CooldownError) *Err {
	hours := err.RemainingHours

	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusTooManyRequests,
		Message:        fmt.Sprintf("Please wait %.2f more hours before checking in again", hours),
		RemainingHours: &hours,
	}
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		Message:        http.StatusText(http.StatusInternalServerError),
	}
}

// FromService maps a service error onto the HTTP error taxonomy. Anything it
// does not recognise is a 500 whose detail only reaches the log.
func FromService(err error) *Err {
	var cooldown *domain.CooldownError
	switch {
	case errors.As(err, &cooldown):
		return ErrTooSoon(cooldown)
	case errors.Is(err, service.ErrForbidden):
		return ErrPermissionDenied(err)
	case errors.Is(err, service.ErrUnregistered):
		return &Err{
			Err:            err,
			HTTPStatusCode: http.StatusForbidden,
			Message:        "register before using this endpoint",
		}
	case errors.Is(err, service.ErrValidation):
		return ErrBadRequest(err)
	case errors.Is(err, service.ErrInsufficientFunds):
		return ErrBadRequest(service.ErrInsufficientFunds)
	case errors.Is(err, service.ErrAmountOutOfRange):
		return ErrBadRequest(service.ErrAmountOutOfRange)
	case errors.Is(err, service.ErrUserNotFound):
		return notFound(service.ErrUserNotFound)
	case errors.Is(err, service.ErrParentNotFound):
		return notFound(service.ErrParentNotFound)
	case errors.Is(err, service.ErrChildNotFound):
		return notFound(service.ErrChildNotFound)
	case errors.Is(err, service.ErrBalanceNotFound):
		return notFound(service.ErrBalanceNotFound)
	case errors.Is(err, service.ErrQRCodeNotFound):
		return notFound(service.ErrQRCodeNotFound)
	case errors.Is(err, service.ErrUserEmailExists):
		return ErrConflict(service.ErrUserEmailExists)
	case errors.Is(err, service.ErrUserSubjectExists):
		return ErrConflict(service.ErrUserSubjectExists)
	case errors.Is(err, service.ErrQRCodeTaken):
		return ErrConflict(service.ErrQRCodeTaken)
	case errors.Is(err, service.ErrChildHasQRCode):
		return ErrConflict(service.ErrChildHasQRCode)
	case errors.Is(err, service.ErrDuplicateCheckinDay):
		return ErrConflict(service.ErrDuplicateCheckinDay)
	case errors.Is(err, service.ErrClaimSync):
		return &Err{
			Err:            err,
			HTTPStatusCode: http.StatusInternalServerError,
			Message:        service.ErrClaimSync.Error(),
		}
	default:
		return ErrInternalServerError(err)
	}
}

func notFound(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusNotFound,
		Message:        err.Error(),
	}
}
