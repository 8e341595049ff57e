package auth

import (
	"errors"
	"log"

	"stakepot/internal/models"
	"stakepot/internal/repositories"
	"stakepot/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Login(email, password string) (*models.Admin, string, string, error)
	RefreshTokens(refreshToken string) (string, string, error)
	Logout(adminID uint) error
	GetAdminByID(adminID uint) (*models.Admin, error)
	GetAdminTokenVersion(adminID uint) (int, error)
}

type service struct {
	adminRepo repositories.AdminRepository
}

func NewService(adminRepo repositories.AdminRepository) Service {
	return &service{adminRepo: adminRepo}
}

func (s *service) Login(email, password string) (*models.Admin, string, string, error) {
	admin, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		log.Printf("Login failed: admin not found for %s", email)
		return nil, "", "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		log.Printf("Login failed: incorrect password for admin ID %d", admin.ID)
		return nil, "", "", errors.New("invalid credentials")
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&models.AdminClaims{
		AdminID:      admin.ID,
		Email:        admin.Email,
		Role:         admin.Role,
		TokenVersion: admin.TokenVersion,
		Permissions:  models.GetDefaultPermissions(admin.Role),
	})
	if err != nil {
		log.Println("Error generating tokens:", err)
		return nil, "", "", errors.New("error generating tokens")
	}

	return admin, accessToken, refreshToken, nil
}

func (s *service) RefreshTokens(refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	admin, err := s.adminRepo.GetByID(claims.AdminID)
	if err != nil {
		return "", "", errors.New("admin not found")
	}

	if admin.TokenVersion != claims.TokenVersion {
		return "", "", errors.New("token version mismatch")
	}

	return utils.GenerateTokens(&models.AdminClaims{
		AdminID:      admin.ID,
		Email:        admin.Email,
		Role:         admin.Role,
		TokenVersion: admin.TokenVersion,
		Permissions:  models.GetDefaultPermissions(admin.Role),
	})
}

func (s *service) Logout(adminID uint) error {
	return s.adminRepo.IncrementTokenVersion(adminID)
}

func (s *service) GetAdminByID(adminID uint) (*models.Admin, error) {
	return s.adminRepo.GetByID(adminID)
}

func (s *service) GetAdminTokenVersion(adminID uint) (int, error) {
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return 0, err
	}
	return admin.TokenVersion, nil
}
