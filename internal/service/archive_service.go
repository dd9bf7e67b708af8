package service

import (
	"errors"
	"fmt"
	"time"

	"visahub/internal/domain"
	"visahub/internal/models"

	"github.com/sirupsen/logrus"
)

// MessageStore is the slice of the durable store the archival pipeline
// and read-receipt synchronizer need. *repository.MessageRepository
// satisfies it; tests inject fakes.
type MessageStore interface {
	FindByExternalID(externalID string) (*models.Message, error)
	Create(m *models.Message) error
	GetByID(id uint) (*models.Message, error)
	MarkRead(id uint, at time.Time) error
}

// ArchiveInput carries one "a message happened in the real-time store"
// event across the archival boundary.
type ArchiveInput struct {
	ExternalID     string
	SenderID       uint
	RecipientID    uint
	ConversationID *string
	Content        string
	SentAt         time.Time
	Attachments    []AttachmentInput
}

type AttachmentInput struct {
	FileName string
	FileURL  string
	MimeType string
}

// ArchiveService copies messages that already exist in the real-time
// store into the durable one, exactly once per external ID. It has no
// retry queue of its own: until archival succeeds the real-time store
// still holds the canonical copy, so a failed call simply tells the
// client to try again.
type ArchiveService struct {
	messages MessageStore
	log      *logrus.Logger
}

func NewArchiveService(messages MessageStore, log *logrus.Logger) *ArchiveService {
	return &ArchiveService{messages: messages, log: log}
}

// Archive persists one real-time message durably. Calling it again with
// the same external ID (client retry, duplicate listener fan-out)
// returns the ID of the row the first call created.
func (s *ArchiveService) Archive(in ArchiveInput) (uint, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}

	existing, err := s.messages.FindByExternalID(in.ExternalID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}

	sentAt := in.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	msg := &models.Message{
		ExternalID:     in.ExternalID,
		SenderID:       in.SenderID,
		RecipientID:    in.RecipientID,
		ConversationID: in.ConversationID,
		Content:        in.Content,
		SentAt:         sentAt,
	}
	for i, a := range in.Attachments {
		msg.Attachments = append(msg.Attachments, models.MessageAttachment{
			Position: i,
			FileName: a.FileName,
			FileURL:  a.FileURL,
			MimeType: a.MimeType,
		})
	}

	err = s.messages.Create(msg)
	if err == nil {
		return msg.ID, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return 0, err
	}

	// Lost the race against a concurrent archival of the same external
	// ID. The unique constraint resolved the winner; read their row.
	s.log.WithField("external_id", in.ExternalID).Debug("archive raced, reusing existing row")
	existing, err = s.messages.FindByExternalID(in.ExternalID)
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}

func (in ArchiveInput) validate() error {
	switch {
	case in.ExternalID == "":
		return fmt.Errorf("%w: external_id is required", domain.ErrInvalidInput)
	case in.SenderID == 0:
		return fmt.Errorf("%w: sender_id is required", domain.ErrInvalidInput)
	case in.RecipientID == 0:
		return fmt.Errorf("%w: recipient_id is required", domain.ErrInvalidInput)
	case in.Content == "":
		return fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}
	return nil
}
