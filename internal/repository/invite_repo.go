package repository

import (
	"errors"
	"time"

	"visahub/internal/domain"
	"visahub/internal/models"

	"gorm.io/gorm"
)

type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(inv *models.InviteCode) error {
	err := r.db.Create(inv).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *InviteRepository) GetByCode(code string) (*models.InviteCode, error) {
	var inv models.InviteCode
	err := r.db.Where("code = ?", code).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Redeem marks an unused, unexpired code as consumed by userID. The
// used_by IS NULL guard makes redemption first-come-first-served under
// concurrent registrations.
func (r *InviteRepository) Redeem(code string, userID uint) (*models.InviteCode, error) {
	inv, err := r.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if inv.UsedBy != nil || inv.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	res := r.db.Model(&models.InviteCode{}).
		Where("id = ? AND used_by IS NULL", inv.ID).
		Updates(map[string]interface{}{"used_by": userID, "used_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrInvalidInput
	}
	inv.UsedBy = &userID
	inv.UsedAt = &now
	return inv, nil
}

func (r *InviteRepository) List(limit, offset int) ([]models.InviteCode, error) {
	var list []models.InviteCode
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
