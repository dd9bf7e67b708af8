package service

import (
	"fmt"

	"visahub/internal/domain"
)

// Producer helpers. Every notification-generating event in the
// application goes through one of these so titles, bodies and action
// URLs stay consistent.

func (n *Notifier) NotifyNewMessage(recipientID uint, senderName string, conversationID string) {
	n.Enqueue(recipientID, domain.NotifyNewMessage, "New message",
		senderName+" sent you a message", &NotifyOptions{
			ActionURL: "/messages/" + conversationID,
		})
}

func (n *Notifier) NotifyCaseStatus(applicantID, caseID uint, reference, status string) {
	priority := domain.PriorityMedium
	if status == domain.CaseStatusApproved || status == domain.CaseStatusDenied || status == domain.CaseStatusRFE {
		priority = domain.PriorityHigh
	}
	n.Enqueue(applicantID, domain.NotifyCaseStatusUpdate, "Case "+reference+" updated",
		"Your case status changed to "+status, &NotifyOptions{
			RelatedCaseID: &caseID,
			ActionURL:     fmt.Sprintf("/cases/%d", caseID),
			Priority:      priority,
		})
}

func (n *Notifier) NotifyDocumentUploaded(lawyerID, caseID uint, reference, documentName string) {
	n.Enqueue(lawyerID, domain.NotifyDocumentUploaded, "Document uploaded",
		documentName+" was uploaded to case "+reference, &NotifyOptions{
			RelatedCaseID: &caseID,
			ActionURL:     fmt.Sprintf("/cases/%d/documents", caseID),
		})
}

func (n *Notifier) NotifyDocumentReviewed(applicantID, caseID uint, documentName, status string) {
	n.Enqueue(applicantID, domain.NotifyCaseStatusUpdate, "Document "+status,
		documentName+" was "+status, &NotifyOptions{
			RelatedCaseID: &caseID,
			ActionURL:     fmt.Sprintf("/cases/%d/documents", caseID),
		})
}

func (n *Notifier) NotifyCaseAssigned(lawyerID, caseID uint, reference string) {
	n.Enqueue(lawyerID, domain.NotifyCaseAssigned, "Case assigned",
		"Case "+reference+" was assigned to you", &NotifyOptions{
			RelatedCaseID: &caseID,
			ActionURL:     fmt.Sprintf("/cases/%d", caseID),
			Priority:      domain.PriorityHigh,
		})
}

func (n *Notifier) NotifyAnnouncement(userID uint, title, body string) {
	n.Enqueue(userID, domain.NotifyAnnouncement, title, body, &NotifyOptions{
		Priority: domain.PriorityLow,
	})
}
