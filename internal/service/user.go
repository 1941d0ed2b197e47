package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

// ClaimUpdater writes the role claim at the identity provider.
type ClaimUpdater interface {
	SetRole(ctx context.Context, subjectID string, role domain.Role) error
}

type UserService struct {
	repo   UserRepository
	tx     Transactor
	audit  AuditRepository
	claims ClaimUpdater
	paging Paging
}

func NewUserService(repo UserRepository, tx Transactor, audit AuditRepository, claims ClaimUpdater, paging Paging) *UserService {
	return &UserService{
		repo:   repo,
		tx:     tx,
		audit:  audit,
		claims: claims,
		paging: paging,
	}
}

func (s *UserService) Me(ctx context.Context, caller domain.Caller) (domain.User, error) {
	if !caller.Registered() {
		return domain.User{}, ErrUnregistered
	}

	user, err := s.repo.FindByID(ctx, caller.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, caller domain.Caller, p Profile) (domain.User, error) {
	if !caller.Registered() {
		return domain.User{}, ErrUnregistered
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", ErrValidation)
	}

	user, err := s.repo.UpdateProfile(ctx, domain.User{
		ID:           caller.UserID,
		Name:         name,
		Phone:        strings.TrimSpace(p.Phone),
		AddressLine1: strings.TrimSpace(p.AddressLine1),
		AddressLine2: strings.TrimSpace(p.AddressLine2),
		City:         strings.TrimSpace(p.City),
		State:        strings.TrimSpace(p.State),
		PostalCode:   strings.TrimSpace(p.PostalCode),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.UpdateProfile -> %w", err)
	}

	return user, nil
}

func (s *UserService) List(ctx context.Context, q domain.UserQuery) (domain.Paged[domain.User], error) {
	q.Page = s.paging.clamp(q.Page)

	users, err := s.repo.List(ctx, q)
	if err != nil {
		return domain.Paged[domain.User]{}, fmt.Errorf("s.repo.List -> %w", err)
	}

	return users, nil
}

// ChangeRole persists the new role and then updates the provider claim. The
// two steps are not atomic: when the claim update fails the saved role is
// kept and ErrClaimSync is returned for an operator to reconcile.
func (s *UserService) ChangeRole(ctx context.Context, caller domain.Caller, userID uuid.UUID, role domain.Role) (domain.User, error) {
	if err := domain.Authorize(caller.Role, domain.RoleAdmin); err != nil {
		return domain.User{}, err
	}
	if _, ok := domain.ParseRole(string(role)); !ok {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	var user domain.User
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		before, err := s.repo.FindByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("s.repo.FindByID -> %w", err)
		}

		user, err = s.repo.UpdateRole(ctx, userID, role)
		if err != nil {
			return fmt.Errorf("s.repo.UpdateRole -> %w", err)
		}

		_, err = s.audit.Create(ctx, domain.NewAudit(caller, domain.AuditRoleChange, "user", userID.String(), map[string]any{
			"from": string(before.Role),
			"to":   string(role),
		}))
		if err != nil {
			return fmt.Errorf("s.audit.Create -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("s.tx.InTx -> %w", err)
	}

	// The role is committed; a dropped client must not abort the claim update.
	if err = s.claims.SetRole(context.WithoutCancel(ctx), user.SubjectID, role); err != nil {
		zap.L().Error("role claim out of sync",
			zap.String("userId", user.ID.String()),
			zap.String("subjectId", user.SubjectID),
			zap.String("role", string(role)),
			zap.Error(err))

		return user, fmt.Errorf("%w: %v", ErrClaimSync, err)
	}

	return user, nil
}
