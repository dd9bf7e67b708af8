package models

import "time"

// Message is a chat message archived from the real-time store.
// ExternalID is the key the real-time store issued for the message; the
// unique index on it is what makes archival idempotent under concurrent
// duplicate calls (a second insert hits the constraint and the existing
// row is returned instead).
type Message struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ExternalID     string     `gorm:"uniqueIndex;size:128;not null" json:"external_id"`
	SenderID       uint       `gorm:"not null;index" json:"sender_id"`
	RecipientID    uint       `gorm:"not null;index" json:"recipient_id"`
	ConversationID *string    `gorm:"size:128;index" json:"conversation_id"` // nil for non-conversation messages
	Content        string     `gorm:"type:text;not null" json:"content"`
	IsRead         bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt         *time.Time `json:"read_at"`
	SentAt         time.Time  `gorm:"not null" json:"sent_at"`
	CreatedAt      time.Time  `json:"created_at"`

	Attachments []MessageAttachment `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

// MessageAttachment preserves the attachment order from the real-time
// store via Position.
type MessageAttachment struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	MessageID uint   `gorm:"not null;index" json:"-"`
	Position  int    `gorm:"not null" json:"position"`
	FileName  string `gorm:"size:255" json:"file_name"`
	FileURL   string `gorm:"size:512;not null" json:"file_url"`
	MimeType  string `gorm:"size:100" json:"mime_type"`
}

func (MessageAttachment) TableName() string {
	return "message_attachments"
}
