package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"visahub/internal/domain"
	"visahub/internal/middleware"
	"visahub/internal/models"
	"visahub/internal/repository"
	"visahub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CaseHandler struct {
	repo     *repository.CaseRepository
	userRepo *repository.UserRepository
	notifier *service.Notifier
}

func NewCaseHandler(repo *repository.CaseRepository, userRepo *repository.UserRepository, notifier *service.Notifier) *CaseHandler {
	return &CaseHandler{repo: repo, userRepo: userRepo, notifier: notifier}
}

type createCaseRequest struct {
	Category string `json:"category" binding:"required"`
	Summary  string `json:"summary"`
}

func (h *CaseHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req createCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category required"})
		return
	}
	cs := &models.Case{
		Reference:   newCaseReference(),
		ApplicantID: userID,
		Category:    req.Category,
		Status:      domain.CaseStatusDraft,
		Summary:     req.Summary,
	}
	if err := h.repo.Create(cs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"case": cs})
}

func (h *CaseHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	cs, err := h.repo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return
	}
	if !canAccessCase(cs, userID, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"case": cs})
}

// ListMine returns the caller's cases: filed cases for applicants,
// assigned cases for lawyers, everything for admins.
func (h *CaseHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var (
		list []models.Case
		err  error
	)
	switch role {
	case domain.RoleLawyer:
		list, err = h.repo.ListByLawyer(userID, limit, offset)
	case domain.RoleAdmin:
		list, err = h.repo.ListAll(limit, offset)
	default:
		list, err = h.repo.ListByApplicant(userID, limit, offset)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": list})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves a case through its lifecycle (lawyer/admin only)
// and queues a status notification for the applicant.
func (h *CaseHandler) UpdateStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !domain.ValidCaseStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	cs, err := h.repo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return
	}
	if role != domain.RoleAdmin && (cs.LawyerID == nil || *cs.LawyerID != userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	var decidedAt *time.Time
	if req.Status == domain.CaseStatusApproved || req.Status == domain.CaseStatusDenied {
		now := time.Now()
		decidedAt = &now
	}
	if err := h.repo.UpdateStatus(cs.ID, req.Status, decidedAt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.notifier.NotifyCaseStatus(cs.ApplicantID, cs.ID, cs.Reference, req.Status)
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

type assignRequest struct {
	LawyerID uint `json:"lawyer_id" binding:"required"`
}

// Assign gives a case to a lawyer (admin only) and queues an assignment
// notification for them.
func (h *CaseHandler) Assign(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lawyer_id required"})
		return
	}
	lawyer, err := h.userRepo.GetByID(req.LawyerID)
	if err != nil || !lawyer.IsLawyer() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not a lawyer account"})
		return
	}
	cs, err := h.repo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return
	}
	if err := h.repo.AssignLawyer(cs.ID, lawyer.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assign failed"})
		return
	}
	h.notifier.NotifyCaseAssigned(lawyer.ID, cs.ID, cs.Reference)
	c.JSON(http.StatusOK, gin.H{"status": "assigned"})
}

func canAccessCase(cs *models.Case, userID uint, role string) bool {
	if role == domain.RoleAdmin {
		return true
	}
	if cs.ApplicantID == userID {
		return true
	}
	return cs.LawyerID != nil && *cs.LawyerID == userID
}

func newCaseReference() string {
	return "VH-" + strings.ToUpper(uuid.NewString()[:8])
}
