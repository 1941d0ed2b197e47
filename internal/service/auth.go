package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	FindBySubjectID(ctx context.Context, subjectID string) (domain.User, error)
	UpdateProfile(ctx context.Context, user domain.User) (domain.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) (domain.User, error)
	List(ctx context.Context, q domain.UserQuery) (domain.Paged[domain.User], error)
}

type Profile struct {
	Name         string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
}

type AuthService struct {
	repo UserRepository
}

func NewAuthService(repo UserRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

// Resolve turns a verified identity into the request's caller. The persisted
// role wins; the provider's claim is only used until the user registers.
func (s *AuthService) Resolve(ctx context.Context, identity domain.Identity) (domain.Caller, error) {
	caller := domain.Caller{
		SubjectID: identity.SubjectID,
		Email:     identity.Email,
	}

	user, err := s.repo.FindBySubjectID(ctx, identity.SubjectID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return domain.Caller{}, fmt.Errorf("s.repo.FindBySubjectID -> %w", err)
		}

		if role, ok := domain.ParseRole(identity.RoleClaim); ok {
			caller.Role = role
		}

		return caller, nil
	}

	caller.UserID = user.ID
	caller.Name = user.Name
	caller.Email = user.Email
	caller.Role = user.Role

	return caller, nil
}

// Register creates the user row for a verified identity. A recognised role
// claim is kept; anything else registers a parent.
func (s *AuthService) Register(ctx context.Context, identity domain.Identity, p Profile) (domain.User, error) {
	if identity.Email == "" {
		return domain.User{}, fmt.Errorf("%w: identity carries no email", ErrValidation)
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", ErrValidation)
	}

	role, ok := domain.ParseRole(identity.RoleClaim)
	if !ok {
		role = domain.RoleParent
	}

	user, err := s.repo.Create(ctx, domain.User{
		SubjectID:    identity.SubjectID,
		Email:        strings.ToLower(strings.TrimSpace(identity.Email)),
		Name:         name,
		Phone:        strings.TrimSpace(p.Phone),
		AddressLine1: strings.TrimSpace(p.AddressLine1),
		AddressLine2: strings.TrimSpace(p.AddressLine2),
		City:         strings.TrimSpace(p.City),
		State:        strings.TrimSpace(p.State),
		PostalCode:   strings.TrimSpace(p.PostalCode),
		Role:         role,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return user, nil
}
