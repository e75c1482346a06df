package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/config"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

// AuthService handles authentication and account self-service
type AuthService struct {
	users     UserStore
	jwtConfig config.JWT
	validate  *validator.Validate
	log       *zap.Logger
	now       Clock
}

// NewAuthService creates a new authentication service
func NewAuthService(users UserStore, jwtConfig config.JWT, validate *validator.Validate, log *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtConfig: jwtConfig,
		validate:  validate,
		log:       log,
		now:       time.Now,
	}
}

// SetClock replaces the time source.
func (s *AuthService) SetClock(now Clock) { s.now = now }

// Claims represents JWT claims
type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Register creates an account. Only user and farmer may be self-assigned.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := Validate(s.validate, req); err != nil {
		return nil, err
	}

	roles := models.Roles{models.RoleUser}
	if len(req.Roles) > 0 {
		parsed, err := models.ParseRoles(req.Roles)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInvalidArgument, "Invalid roles", err)
		}
		for _, r := range parsed {
			if !r.SelfAssignable() {
				return nil, apperr.InvalidArgf("Role %s cannot be requested at registration", r)
			}
		}
		roles = parsed
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashedPassword),
		Name:         strings.TrimSpace(req.Name),
		Roles:        roles,
		IsActive:     true,
	}

	createdUser, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User registered",
		zap.String("user_id", createdUser.ID.String()),
		zap.Strings("roles", createdUser.Roles.Strings()))

	return createdUser, nil
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error) {
	if err := Validate(s.validate, req); err != nil {
		return "", nil, err
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return "", nil, apperr.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, apperr.ErrInvalidCredentials
	}

	// Checked after the password so the account state is not revealed to
	// someone who does not know it.
	if !user.IsActive {
		return "", nil, apperr.ErrAccountInactive
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return "", nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now

	token, err := s.generateToken(user.ID, user.Roles)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// generateToken generates a JWT token for a user
func (s *AuthService) generateToken(userID uuid.UUID, roles models.Roles) (string, error) {
	now := s.now()
	expirationTime := now.Add(time.Duration(s.jwtConfig.ExpiresIn) * time.Hour)

	claims := &Claims{
		UserID: userID.String(),
		Roles:  roles.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	// Time-based claims are checked against the service clock below.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, apperr.MessageOf(apperr.ErrInvalidToken), err)
	}

	if !token.Valid {
		return nil, apperr.ErrInvalidToken
	}

	now := s.now()
	if !claims.VerifyExpiresAt(now, true) || !claims.VerifyNotBefore(now, false) {
		return nil, apperr.ErrInvalidToken
	}

	return claims, nil
}

// Authenticate resolves a token to the current state of its user. Roles and
// the active flag come from the store, not from the token.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, apperr.MessageOf(apperr.ErrInvalidToken), err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil, apperr.ErrInvalidToken
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperr.ErrAccountInactive
	}

	return user, nil
}

// Me returns the caller's account
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ChangePassword changes a user's password
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req models.ChangePasswordRequest) error {
	if err := Validate(s.validate, req); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return apperr.ErrWrongPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hashedPassword)); err != nil {
		return err
	}

	return nil
}

// UpdateProfile changes the caller's name and email
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.ProfileUpdateRequest) (*models.User, error) {
	if err := Validate(s.validate, req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}

	return s.users.Update(ctx, *user)
}
