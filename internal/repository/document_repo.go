package repository

import (
	"errors"
	"time"

	"visahub/internal/domain"
	"visahub/internal/models"

	"gorm.io/gorm"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(d *models.CaseDocument) error {
	return r.db.Create(d).Error
}

func (r *DocumentRepository) GetByID(id uint) (*models.CaseDocument, error) {
	var d models.CaseDocument
	err := r.db.First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DocumentRepository) ListByCase(caseID uint) ([]models.CaseDocument, error) {
	var list []models.CaseDocument
	err := r.db.Where("case_id = ?", caseID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *DocumentRepository) Review(id, reviewerID uint, status, note string) error {
	now := time.Now()
	return r.db.Model(&models.CaseDocument{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      status,
		"reviewed_by": reviewerID,
		"reviewed_at": now,
		"review_note": note,
	}).Error
}
