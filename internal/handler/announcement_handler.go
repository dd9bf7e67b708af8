package handler

import (
	"net/http"

	"visahub/internal/repository"
	"visahub/internal/service"

	"github.com/gin-gonic/gin"
)

type AnnouncementHandler struct {
	userRepo *repository.UserRepository
	notifier *service.Notifier
}

func NewAnnouncementHandler(userRepo *repository.UserRepository, notifier *service.Notifier) *AnnouncementHandler {
	return &AnnouncementHandler{userRepo: userRepo, notifier: notifier}
}

type announcementRequest struct {
	Title string   `json:"title" binding:"required"`
	Body  string   `json:"body" binding:"required"`
	Roles []string `json:"roles"` // empty = everyone
}

// Broadcast queues a system announcement for every targeted user. The
// enqueue loop returns immediately; batching and delivery happen in the
// background.
func (h *AnnouncementHandler) Broadcast(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and body required"})
		return
	}
	var (
		ids []uint
		err error
	)
	if len(req.Roles) > 0 {
		ids, err = h.userRepo.ListIDsByRole(req.Roles...)
	} else {
		ids, err = h.userRepo.ListAllIDs()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	for _, id := range ids {
		h.notifier.NotifyAnnouncement(id, req.Title, req.Body)
	}
	c.JSON(http.StatusAccepted, gin.H{"queued_for": len(ids)})
}
