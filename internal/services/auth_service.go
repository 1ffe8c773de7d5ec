package services

import (
	"errors"

	"flowpay_backend/internal/auth"
	"flowpay_backend/internal/models"
	"flowpay_backend/internal/repositories"
	"flowpay_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// AuthService выдает и проверяет учетные данные мерчант-аккаунтов.
// Регистрации нет - аккаунты заводятся сидом или администратором.
type AuthService interface {
	Login(db *gorm.DB, req *models.LoginRequest) (*models.LoginResponse, error)
	GetUser(db *gorm.DB, userID string) (*models.User, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret string
	jwtTTLMin int
}

// NewAuthService создает новый экземпляр AuthService
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, jwtTTLMin int) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		jwtTTLMin: jwtTTLMin,
	}
}

func (s *authService) Login(db *gorm.DB, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if user.Status != models.UserStatusActive {
		return nil, apperrors.NewForbiddenError("Account is suspended")
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.jwtSecret, s.jwtTTLMin, user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &models.LoginResponse{Token: token, User: user}, nil
}

func (s *authService) GetUser(db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}
