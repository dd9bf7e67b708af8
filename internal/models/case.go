package models

import (
	"time"

	"gorm.io/gorm"
)

type Case struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Reference   string         `gorm:"uniqueIndex;size:40;not null" json:"reference"`
	ApplicantID uint           `gorm:"not null;index" json:"applicant_id"`
	LawyerID    *uint          `gorm:"index" json:"lawyer_id"`
	Category    string         `gorm:"size:30;not null" json:"category"`
	Status      string         `gorm:"size:20;not null;index;default:'DRAFT'" json:"status"`
	Summary     string         `gorm:"type:text" json:"summary"`
	SubmittedAt *time.Time     `json:"submitted_at"`
	DecidedAt   *time.Time     `json:"decided_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Applicant User           `gorm:"foreignKey:ApplicantID" json:"-"`
	Documents []CaseDocument `gorm:"foreignKey:CaseID" json:"documents,omitempty"`
}

func (Case) TableName() string {
	return "cases"
}
