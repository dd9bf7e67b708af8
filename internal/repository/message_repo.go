package repository

import (
	"errors"
	"time"

	"visahub/internal/domain"
	"visahub/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// FindByExternalID looks up an archived message by the key the
// real-time store issued for it.
func (r *MessageRepository) FindByExternalID(externalID string) (*models.Message, error) {
	var m models.Message
	err := r.db.Preload("Attachments", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("external_id = ?", externalID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts the message together with its attachments in one
// transaction. A unique-constraint hit on external_id comes back as
// domain.ErrAlreadyExists so the archival pipeline can short-circuit.
func (r *MessageRepository) Create(m *models.Message) error {
	err := r.db.Create(m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *MessageRepository) GetByID(id uint) (*models.Message, error) {
	var m models.Message
	err := r.db.Preload("Attachments", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkRead flips is_read for an unread message. The is_read = false
// guard keeps the transition one-way and makes the first writer win
// under concurrent receipts; a second call finds zero rows to update,
// which is fine because the caller already treats read rows as a no-op.
func (r *MessageRepository) MarkRead(id uint, at time.Time) error {
	return r.db.Model(&models.Message{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
}

func (r *MessageRepository) ListByConversation(conversationID string, limit, offset int) ([]models.Message, error) {
	var list []models.Message
	err := r.db.Preload("Attachments", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("conversation_id = ?", conversationID).
		Order("sent_at ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *MessageRepository) CountUnreadByRecipient(recipientID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).Count(&c).Error
	return c, err
}
