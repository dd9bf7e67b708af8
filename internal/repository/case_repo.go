package repository

import (
	"errors"
	"time"

	"visahub/internal/domain"
	"visahub/internal/models"

	"gorm.io/gorm"
)

type CaseRepository struct {
	db *gorm.DB
}

func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) Create(c *models.Case) error {
	err := r.db.Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *CaseRepository) GetByID(id uint) (*models.Case, error) {
	var c models.Case
	err := r.db.Preload("Documents").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CaseRepository) ListByApplicant(applicantID uint, limit, offset int) ([]models.Case, error) {
	var list []models.Case
	err := r.db.Where("applicant_id = ?", applicantID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *CaseRepository) ListByLawyer(lawyerID uint, limit, offset int) ([]models.Case, error) {
	var list []models.Case
	err := r.db.Where("lawyer_id = ?", lawyerID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *CaseRepository) ListAll(limit, offset int) ([]models.Case, error) {
	var list []models.Case
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *CaseRepository) UpdateStatus(id uint, status string, decidedAt *time.Time) error {
	patch := map[string]interface{}{"status": status}
	if decidedAt != nil {
		patch["decided_at"] = decidedAt
	}
	return r.db.Model(&models.Case{}).Where("id = ?", id).Updates(patch).Error
}

func (r *CaseRepository) AssignLawyer(id, lawyerID uint) error {
	return r.db.Model(&models.Case{}).Where("id = ?", id).Update("lawyer_id", lawyerID).Error
}
