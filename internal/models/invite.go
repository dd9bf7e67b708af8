package models

import "time"

// InviteCode gates lawyer/admin registration.
type InviteCode struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Code      string     `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Role      string     `gorm:"size:20;not null" json:"role"`
	CreatedBy uint       `gorm:"not null" json:"created_by"`
	UsedBy    *uint      `json:"used_by"`
	UsedAt    *time.Time `json:"used_at"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (InviteCode) TableName() string {
	return "invite_codes"
}
