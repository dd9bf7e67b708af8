package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"visahub/internal/domain"
	"visahub/internal/middleware"
	"visahub/internal/models"
	"visahub/internal/repository"
	"visahub/internal/service"
	"visahub/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxDocumentSize = 20 << 20 // 20 MB

type DocumentHandler struct {
	repo     *repository.DocumentRepository
	caseRepo *repository.CaseRepository
	notifier *service.Notifier
	cloud    cloudinary.Client
}

func NewDocumentHandler(repo *repository.DocumentRepository, caseRepo *repository.CaseRepository, notifier *service.Notifier, cloud cloudinary.Client) *DocumentHandler {
	return &DocumentHandler{repo: repo, caseRepo: caseRepo, notifier: notifier, cloud: cloud}
}

// Upload stores a document file for a case and queues a notification
// for the assigned lawyer.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID := middleware.GetUserID(c)
	caseID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	cs, err := h.caseRepo.GetByID(uint(caseID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return
	}
	if !canAccessCase(cs, userID, middleware.GetRole(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if fileHeader.Size > maxDocumentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads not configured"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer file.Close()

	folder := fmt.Sprintf("cases/%d", cs.ID)
	url, thumb, err := h.cloud.UploadDocument(c.Request.Context(), file, folder, uuid.NewString())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	doc := &models.CaseDocument{
		CaseID:       cs.ID,
		UploaderID:   userID,
		Name:         fileHeader.Filename,
		FileURL:      url,
		ThumbnailURL: thumb,
		Status:       domain.DocumentStatusPending,
	}
	if err := h.repo.Create(doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	if cs.LawyerID != nil {
		h.notifier.NotifyDocumentUploaded(*cs.LawyerID, cs.ID, cs.Reference, doc.Name)
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

func (h *DocumentHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	caseID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	cs, err := h.caseRepo.GetByID(uint(caseID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return
	}
	if !canAccessCase(cs, userID, middleware.GetRole(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	list, err := h.repo.ListByCase(cs.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": list})
}

type reviewRequest struct {
	Status string `json:"status" binding:"required"` // APPROVED | REJECTED
	Note   string `json:"note"`
}

// Review approves or rejects a document (lawyer/admin) and queues the
// decision notification for the applicant.
func (h *DocumentHandler) Review(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)
	docID, _ := strconv.ParseUint(c.Param("doc_id"), 10, 64)
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		(req.Status != domain.DocumentStatusApproved && req.Status != domain.DocumentStatusRejected) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be APPROVED or REJECTED"})
		return
	}
	doc, err := h.repo.GetByID(uint(docID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	cs, err := h.caseRepo.GetByID(doc.CaseID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return
	}
	if role != domain.RoleAdmin && (cs.LawyerID == nil || *cs.LawyerID != userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.repo.Review(doc.ID, userID, req.Status, req.Note); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "review failed"})
		return
	}
	h.notifier.NotifyDocumentReviewed(cs.ApplicantID, cs.ID, doc.Name, req.Status)
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}
