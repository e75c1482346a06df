package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/cache"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

// UserService holds the admin-only account operations
type UserService struct {
	users    UserStore
	cache    cache.ProductCache
	validate *validator.Validate
	log      *zap.Logger
}

// NewUserService creates a new user administration service
func NewUserService(users UserStore, productCache cache.ProductCache, validate *validator.Validate, log *zap.Logger) *UserService {
	return &UserService{users: users, cache: productCache, validate: validate, log: log}
}

// ListUsers returns every account
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// UpdateRoles replaces a user's role set. An admin cannot drop their own
// admin role.
func (s *UserService) UpdateRoles(ctx context.Context, actorID, userID uuid.UUID, req models.RolesUpdateRequest) (*models.User, error) {
	if err := Validate(s.validate, req); err != nil {
		return nil, err
	}

	roles, err := models.ParseRoles(req.Roles)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "Invalid roles", err)
	}
	if actorID == userID && !roles.Has(models.RoleAdmin) {
		return nil, apperr.ErrSelfAction
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	updated, err := s.users.Update(ctx, *user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User roles changed",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", userID.String()),
		zap.Strings("roles", roles.Strings()))

	return updated, nil
}

// SetStatus activates or deactivates an account
func (s *UserService) SetStatus(ctx context.Context, actorID, userID uuid.UUID, req models.StatusUpdateRequest) (*models.User, error) {
	if err := Validate(s.validate, req); err != nil {
		return nil, err
	}
	if actorID == userID && !*req.IsActive {
		return nil, apperr.ErrSelfAction
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.IsActive = *req.IsActive

	updated, err := s.users.Update(ctx, *user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User status changed",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("active", updated.IsActive))

	return updated, nil
}

// DeleteUser retires an account. Its orders, conversations and listings are
// kept; the listings are taken out of the catalog.
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return apperr.ErrSelfAction
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)

	s.log.Info("User deleted",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", userID.String()))

	return nil
}
