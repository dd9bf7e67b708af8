package service

import (
	"context"
	"time"

	"visahub/internal/domain"
	"visahub/internal/models"

	"github.com/sirupsen/logrus"
)

// MirrorGateway is the best-effort surface of the real-time store.
// *realtime.Mirror satisfies it.
type MirrorGateway interface {
	WriteKeyed(ctx context.Context, collectionPath, itemKey string, value map[string]interface{}) error
	SetReadFlag(ctx context.Context, conversationID, externalID, readerID string) error
}

// IdentityResolver translates a durable user ID into the identity the
// real-time store uses. *repository.UserRepository satisfies it.
type IdentityResolver interface {
	FirebaseUIDByID(userID uint) (string, error)
}

// ReceiptService owns the "recipient opened message X" transition. The
// durable store is the source of truth for read state; the write there
// must succeed before anything touches the real-time mirror, and a
// mirror failure only ever costs a momentarily stale live UI.
type ReceiptService struct {
	messages MessageStore
	mirror   MirrorGateway
	identity IdentityResolver
	log      *logrus.Logger

	mirrorTimeout time.Duration
}

func NewReceiptService(messages MessageStore, mirror MirrorGateway, identity IdentityResolver, log *logrus.Logger) *ReceiptService {
	return &ReceiptService{
		messages:      messages,
		mirror:        mirror,
		identity:      identity,
		log:           log,
		mirrorTimeout: 10 * time.Second,
	}
}

// MarkRead marks a message read on behalf of userID. Only the recipient
// may do this; anyone else gets domain.ErrForbidden and the row stays
// untouched. Marking an already-read message returns the stored state
// without writing.
func (s *ReceiptService) MarkRead(messageID, userID uint) (*models.Message, error) {
	msg, err := s.messages.GetByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg.RecipientID != userID {
		return nil, domain.ErrForbidden
	}
	if msg.IsRead {
		return msg, nil
	}

	now := time.Now()
	if err := s.messages.MarkRead(msg.ID, now); err != nil {
		return nil, err
	}
	msg.IsRead = true
	msg.ReadAt = &now

	// Mirror only for messages that live in a conversation room; the
	// caller never waits on this and never hears about its failure.
	if msg.ConversationID != nil {
		go s.mirrorRead(*msg.ConversationID, msg.ExternalID, userID)
	}
	return msg, nil
}

func (s *ReceiptService) mirrorRead(conversationID, externalID string, userID uint) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("conversation_id", conversationID).Errorf("read mirror panicked: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), s.mirrorTimeout)
	defer cancel()

	readerID, err := s.identity.FirebaseUIDByID(userID)
	if err != nil || readerID == "" {
		s.log.WithFields(logrus.Fields{
			"user_id":         userID,
			"conversation_id": conversationID,
		}).WithError(err).Warn("skipping read mirror: no real-time identity")
		return
	}
	if err := s.mirror.SetReadFlag(ctx, conversationID, externalID, readerID); err != nil {
		s.log.WithFields(logrus.Fields{
			"conversation_id": conversationID,
			"external_id":     externalID,
		}).WithError(err).Warn("read mirror failed, live UI may lag")
	}
}
