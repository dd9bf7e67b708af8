package domain

const (
	RoleApplicant = "APPLICANT"
	RoleLawyer    = "LAWYER"
	RoleAdmin     = "ADMIN"
)

const (
	CaseStatusDraft     = "DRAFT"
	CaseStatusSubmitted = "SUBMITTED"
	CaseStatusInReview  = "IN_REVIEW"
	CaseStatusRFE       = "RFE" // request for evidence
	CaseStatusApproved  = "APPROVED"
	CaseStatusDenied    = "DENIED"
)

const (
	CaseCategoryFamily      = "FAMILY"
	CaseCategoryEmployment  = "EMPLOYMENT"
	CaseCategoryStudent     = "STUDENT"
	CaseCategoryAsylum      = "ASYLUM"
	CaseCategoryCitizenship = "CITIZENSHIP"
)

const (
	DocumentStatusPending  = "PENDING"
	DocumentStatusApproved = "APPROVED"
	DocumentStatusRejected = "REJECTED"
)

// Notification types form a closed set; Notifier.Enqueue rejects others.
const (
	NotifyNewMessage       = "new-message"
	NotifyCaseStatusUpdate = "case-status-update"
	NotifyDocumentUploaded = "document-uploaded"
	NotifyCaseAssigned     = "case-assigned"
	NotifyAnnouncement     = "system-announcement"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidNotificationType reports whether t is one of the known types.
func ValidNotificationType(t string) bool {
	switch t {
	case NotifyNewMessage, NotifyCaseStatusUpdate, NotifyDocumentUploaded, NotifyCaseAssigned, NotifyAnnouncement:
		return true
	}
	return false
}

// ValidCaseStatus reports whether s is a known case status.
func ValidCaseStatus(s string) bool {
	switch s {
	case CaseStatusDraft, CaseStatusSubmitted, CaseStatusInReview, CaseStatusRFE, CaseStatusApproved, CaseStatusDenied:
		return true
	}
	return false
}
