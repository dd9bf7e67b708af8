package service

import (
	"errors"
	"time"

	"visahub/config"
	"visahub/internal/auth"
	"visahub/internal/domain"
	"visahub/internal/models"
	"visahub/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists   = errors.New("email already registered")
	ErrInvalidCreds  = errors.New("invalid email or password")
	ErrInviteInvalid = errors.New("invite code invalid, used or expired")
)

type AuthService struct {
	cfg        *config.Config
	userRepo   *repository.UserRepository
	inviteRepo *repository.InviteRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, inviteRepo *repository.InviteRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, inviteRepo: inviteRepo}
}

// Register creates an applicant account. Lawyer accounts additionally
// require an unused invite code issued by an admin.
func (s *AuthService) Register(fullName, email, password, inviteCode string) (*models.User, string, string, error) {
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", "", err
	}

	role := domain.RoleApplicant
	if inviteCode != "" {
		inv, err := s.inviteRepo.GetByCode(inviteCode)
		if err != nil || inv.UsedBy != nil || inv.ExpiresAt.Before(time.Now()) {
			return nil, "", "", ErrInviteInvalid
		}
		role = inv.Role
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(u); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, "", "", ErrEmailExists
		}
		return nil, "", "", err
	}
	if inviteCode != "" {
		if _, err := s.inviteRepo.Redeem(inviteCode, u.ID); err != nil {
			return nil, "", "", ErrInviteInvalid
		}
	}
	return s.issueTokens(u)
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", "", ErrInvalidCreds
	}
	return s.issueTokens(u)
}

// LoginWithGoogle links or creates an account from a verified Google profile.
func (s *AuthService) LoginWithGoogle(googleID, email, name, avatarURL string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByGoogleID(googleID)
	if errors.Is(err, domain.ErrNotFound) {
		u, err = s.userRepo.GetByEmail(email)
		if errors.Is(err, domain.ErrNotFound) {
			u = &models.User{
				FullName:  name,
				Email:     email,
				Role:      domain.RoleApplicant,
				GoogleID:  &googleID,
				AvatarURL: avatarURL,
			}
			if err := s.userRepo.Create(u); err != nil {
				return nil, "", "", err
			}
		} else if err == nil {
			u.GoogleID = &googleID
			if u.AvatarURL == "" {
				u.AvatarURL = avatarURL
			}
			if err := s.userRepo.Update(u); err != nil {
				return nil, "", "", err
			}
		} else {
			return nil, "", "", err
		}
	} else if err != nil {
		return nil, "", "", err
	}
	return s.issueTokens(u)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(refreshToken string) (*models.User, string, string, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, "", "", err
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, "", "", err
	}
	return s.issueTokens(u)
}

func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.userRepo.Update(u)
}

func (s *AuthService) issueTokens(u *models.User) (*models.User, string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return u, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return u, "", "", err
	}
	return u, access, refresh, nil
}
