package repository

import (
	"errors"

	"visahub/internal/domain"
	"visahub/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	err := r.db.Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	var u models.User
	err := r.db.Where("google_id = ?", googleID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

func (r *UserRepository) UpdateFCMToken(userID uint, token string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", token).Error
}

func (r *UserRepository) UpdateFirebaseUID(userID uint, uid string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("firebase_uid", uid).Error
}

// FirebaseUIDByID translates a durable user ID into the identity the
// real-time store knows the user by. Empty when the user never linked
// a real-time session.
func (r *UserRepository) FirebaseUIDByID(userID uint) (string, error) {
	var u models.User
	err := r.db.Select("firebase_uid").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return u.FirebaseUID, nil
}

// FCMTokenByID returns the push token for a user ("" when unregistered).
func (r *UserRepository) FCMTokenByID(userID uint) (string, error) {
	var u models.User
	err := r.db.Select("fcm_token").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return u.FCMToken, nil
}

// ListIDsByRole returns all user IDs with the given roles (for announcements).
func (r *UserRepository) ListIDsByRole(roles ...string) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.User{}).Where("role IN ?", roles).Pluck("id", &ids).Error
	return ids, err
}

// ListAllIDs returns every active user ID.
func (r *UserRepository) ListAllIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.User{}).Pluck("id", &ids).Error
	return ids, err
}
