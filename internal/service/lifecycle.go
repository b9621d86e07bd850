package service

import (
	"time"

	"github.com/centriq-hq/centriq/internal/models"
)

// Legal lifecycle transitions per entity. "expired" (quotes) and "overdue"
// (invoices) are read-time classifications, never transition targets.
//
// Transitions fire only when the target status differs from the stored one;
// a same-status write is a no-op that leaves existing timestamps untouched.

var quoteTransitions = map[models.QuoteStatus][]models.QuoteStatus{
	models.QuoteStatusDraft: {models.QuoteStatusSent},
	models.QuoteStatusSent:  {models.QuoteStatusApproved, models.QuoteStatusDeclined},
}

var invoiceTransitions = map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceStatusDraft: {models.InvoiceStatusSent},
	models.InvoiceStatusSent:  {models.InvoiceStatusPaid, models.InvoiceStatusCancelled},
}

var projectTransitions = map[models.ProjectStatus][]models.ProjectStatus{
	models.ProjectStatusPlanning: {models.ProjectStatusActive, models.ProjectStatusCancelled},
	models.ProjectStatusActive:   {models.ProjectStatusCompleted, models.ProjectStatusCancelled},
}

var taskTransitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskStatusTodo:       {models.TaskStatusInProgress, models.TaskStatusDone},
	models.TaskStatusInProgress: {models.TaskStatusTodo, models.TaskStatusDone},
}

func quoteTransitionAllowed(from, to models.QuoteStatus) bool {
	for _, t := range quoteTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func invoiceTransitionAllowed(from, to models.InvoiceStatus) bool {
	for _, t := range invoiceTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func projectTransitionAllowed(from, to models.ProjectStatus) bool {
	for _, t := range projectTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func taskTransitionAllowed(from, to models.TaskStatus) bool {
	for _, t := range taskTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// stampQuoteTransition applies the target status and the timestamp that
// belongs to it. Timestamps are only ever set here, never from user input.
func stampQuoteTransition(q *models.Quote, to models.QuoteStatus, now time.Time, sig *models.SignatureMetadata) {
	q.Status = to
	switch to {
	case models.QuoteStatusSent:
		q.SentAt = &now
	case models.QuoteStatusApproved:
		q.ApprovedAt = &now
		q.Signature = sig
	case models.QuoteStatusDeclined:
		q.DeclinedAt = &now
	}
}

func stampInvoiceTransition(i *models.Invoice, to models.InvoiceStatus, now time.Time) {
	i.Status = to
	switch to {
	case models.InvoiceStatusSent:
		i.SentAt = &now
	case models.InvoiceStatusPaid:
		i.PaidAt = &now
	}
}

func stampProjectTransition(p *models.Project, to models.ProjectStatus, now time.Time) {
	p.Status = to
	if to == models.ProjectStatusCompleted {
		p.CompletedAt = &now
	}
}

func stampTaskTransition(t *models.Task, to models.TaskStatus, now time.Time) {
	t.Status = to
	if to == models.TaskStatusDone {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
}
