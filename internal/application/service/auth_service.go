package service

import (
	"context"
	"strings"

	"github.com/SameerAli126/invoicegen-pro/internal/domain/entity"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/enum"
	"github.com/SameerAli126/invoicegen-pro/internal/domain/repository"
	"github.com/SameerAli126/invoicegen-pro/pkg/apperror"
	"github.com/SameerAli126/invoicegen-pro/pkg/utils"
	"github.com/google/uuid"
)

// AuthService handles registration, login and token refresh
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, jwtManager *utils.JWTManager) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// RegisterInput represents the input for registering a user
type RegisterInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	CompanyName    *string
	CompanyAddress *string
}

// AuthResult represents a successful authentication
type AuthResult struct {
	User         *entity.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// Register creates a new free-plan account and signs the user in
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResult, error) {
	if fieldErrors := validateRegisterInput(input); len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	email := normalizeEmail(input.Email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("a user with this email already exists")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:               email,
		Password:            hashedPassword,
		FirstName:           strings.TrimSpace(input.FirstName),
		LastName:            strings.TrimSpace(input.LastName),
		CompanyName:         input.CompanyName,
		CompanyAddress:      input.CompanyAddress,
		Plan:                enum.PlanFree,
		MonthlyInvoiceLimit: entity.DefaultMonthlyInvoiceLimit,
		IsActive:            true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !utils.CheckPasswordHash(password, user.Password) {
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperror.ErrForbidden
	}

	return s.issueTokens(user)
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperror.ErrInvalidToken
	}

	return s.issueTokens(user)
}

// GetProfile returns the authenticated user's account
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// UpdateProfileInput represents the input for updating a user's profile
type UpdateProfileInput struct {
	UserID         uuid.UUID
	FirstName      string
	LastName       string
	CompanyName    *string
	CompanyAddress *string
}

// UpdateProfile updates the user's display and company details
func (s *AuthService) UpdateProfile(ctx context.Context, input *UpdateProfileInput) (*entity.User, error) {
	user, err := s.GetProfile(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.FirstName) != "" {
		user.FirstName = strings.TrimSpace(input.FirstName)
	}
	if strings.TrimSpace(input.LastName) != "" {
		user.LastName = strings.TrimSpace(input.LastName)
	}
	user.CompanyName = input.CompanyName
	user.CompanyAddress = input.CompanyAddress

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password and stores a new hash
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if !utils.CheckPasswordHash(currentPassword, user.Password) {
		return apperror.ErrInvalidCredentials
	}
	if len(newPassword) < 8 {
		return apperror.NewValidationError([]apperror.FieldError{
			{Field: "new_password", Message: "password must be at least 8 characters"},
		})
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.Password = hashedPassword
	return s.userRepo.Update(ctx, user)
}

func (s *AuthService) issueTokens(user *entity.User) (*AuthResult, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Plan.String())
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func validateRegisterInput(input *RegisterInput) []apperror.FieldError {
	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(input.Email) == "" || !strings.Contains(input.Email, "@") {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "email", Message: "a valid email is required"})
	}
	if len(input.Password) < 8 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if strings.TrimSpace(input.FirstName) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "first_name", Message: "first name is required"})
	}
	if strings.TrimSpace(input.LastName) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "last_name", Message: "last name is required"})
	}
	return fieldErrors
}
