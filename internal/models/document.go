package models

import (
	"time"

	"gorm.io/gorm"
)

type CaseDocument struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CaseID       uint           `gorm:"not null;index" json:"case_id"`
	UploaderID   uint           `gorm:"not null" json:"uploader_id"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	FileURL      string         `gorm:"size:512;not null" json:"file_url"`
	ThumbnailURL string         `gorm:"size:512" json:"thumbnail_url"`
	Status       string         `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	ReviewedBy   *uint          `json:"reviewed_by"`
	ReviewedAt   *time.Time     `json:"reviewed_at"`
	ReviewNote   string         `gorm:"type:text" json:"review_note"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CaseDocument) TableName() string {
	return "case_documents"
}
