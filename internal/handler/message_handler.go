package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"visahub/internal/domain"
	"visahub/internal/middleware"
	"visahub/internal/repository"
	"visahub/internal/service"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	archiveSvc *service.ArchiveService
	receiptSvc *service.ReceiptService
	repo       *repository.MessageRepository
	notifier   *service.Notifier
	userRepo   *repository.UserRepository
}

func NewMessageHandler(archiveSvc *service.ArchiveService, receiptSvc *service.ReceiptService, repo *repository.MessageRepository, notifier *service.Notifier, userRepo *repository.UserRepository) *MessageHandler {
	return &MessageHandler{
		archiveSvc: archiveSvc,
		receiptSvc: receiptSvc,
		repo:       repo,
		notifier:   notifier,
		userRepo:   userRepo,
	}
}

type archiveRequest struct {
	ExternalID     string    `json:"external_id"`
	RecipientID    uint      `json:"recipient_id"`
	ConversationID *string   `json:"conversation_id"`
	Content        string    `json:"content"`
	SentAt         time.Time `json:"sent_at"`
	Attachments    []struct {
		FileName string `json:"file_name"`
		FileURL  string `json:"file_url"`
		MimeType string `json:"mime_type"`
	} `json:"attachments"`
}

// Archive persists a message the real-time store already delivered.
// Safe to call repeatedly for the same external_id; the response always
// carries the one durable id.
func (h *MessageHandler) Archive(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	in := service.ArchiveInput{
		ExternalID:     req.ExternalID,
		SenderID:       userID,
		RecipientID:    req.RecipientID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
		SentAt:         req.SentAt,
	}
	for _, a := range req.Attachments {
		in.Attachments = append(in.Attachments, service.AttachmentInput{
			FileName: a.FileName,
			FileURL:  a.FileURL,
			MimeType: a.MimeType,
		})
	}
	id, err := h.archiveSvc.Archive(in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Transient store failure; the real-time store still holds the
		// message, the client retries.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive failed, retry"})
		return
	}

	// New-message toast for the recipient, fire-and-forget.
	if sender, err := h.userRepo.GetByID(userID); err == nil {
		convID := ""
		if req.ConversationID != nil {
			convID = *req.ConversationID
		}
		h.notifier.NotifyNewMessage(req.RecipientID, sender.FullName, convID)
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// MarkRead transitions a message to read on behalf of its recipient.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	msg, err := h.receiptSvc.MarkRead(uint(id), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		case errors.Is(err, domain.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the recipient may mark a message read"})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mark read failed, retry"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_read": msg.IsRead, "read_at": msg.ReadAt})
}

// ListConversation returns the archived history of one conversation.
func (h *MessageHandler) ListConversation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	conversationID := c.Param("conversation_id")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.repo.ListByConversation(conversationID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	// History is only visible to a participant.
	for _, m := range list {
		if m.SenderID != userID && m.RecipientID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

// UnreadCount returns the badge count for the authenticated user.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	count, err := h.repo.CountUnreadByRecipient(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}
