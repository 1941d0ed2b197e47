package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/kids-ledger-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

const (
	callerKey   = "caller"
	identityKey = "identity"
)

var errMissingBearer = errors.New("missing bearer token")

type TokenVerifier interface {
	Verify(raw string) (domain.Identity, error)
}

type CallerResolver interface {
	Resolve(ctx context.Context, identity domain.Identity) (domain.Caller, error)
}

type Authenticator struct {
	verifier TokenVerifier
	resolver CallerResolver
}

func NewAuthenticator(verifier TokenVerifier, resolver CallerResolver) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		resolver: resolver,
	}
}

// VerifyBearer rejects the request with 401 unless it carries a valid bearer
// token, then stores the identity and the resolved caller on the context.
func (a *Authenticator) VerifyBearer() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, ok := bearer(ctx.GetHeader("Authorization"))
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthenticated(errMissingBearer))
			return
		}

		identity, err := a.verifier.Verify(raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthenticated(err))
			return
		}

		caller, err := a.resolver.Resolve(ctx.Request.Context(), identity)
		if err != nil {
			err = fmt.Errorf("middleware.VerifyBearer -> a.resolver.Resolve -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}

		ctx.Set(identityKey, identity)
		ctx.Set(callerKey, caller)
		ctx.Next()
	}
}

// RequireRole must run after VerifyBearer.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		caller, ok := CallerFrom(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthenticated(errMissingBearer))
			return
		}
		if err := domain.Authorize(caller.Role, roles...); err != nil {
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
			return
		}

		ctx.Next()
	}
}

func CallerFrom(ctx *gin.Context) (domain.Caller, bool) {
	v, ok := ctx.Get(callerKey)
	if !ok {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)

	return caller, ok
}

func IdentityFrom(ctx *gin.Context) (domain.Identity, bool) {
	v, ok := ctx.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)

	return identity, ok
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)

	return token, token != ""
}
