package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	Type          string         `gorm:"size:50;not null;index" json:"type"`
	Title         string         `gorm:"size:255" json:"title"`
	Body          string         `gorm:"type:text" json:"body"`
	RelatedCaseID *uint          `gorm:"index" json:"related_case_id"`
	ActionURL     string         `gorm:"size:512" json:"action_url"`
	Priority      string         `gorm:"size:10;not null;default:'medium'" json:"priority"`
	IsRead        bool           `gorm:"not null;default:false" json:"is_read"`
	ReadAt        *time.Time     `json:"read_at"`
	CreatedAt     time.Time      `json:"created_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
