package server

import (
	"time"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/service"
)

// The wire types live here, separate from the stored models, so the JSON
// surface can carry derived fields (expired, overdue) and evolve without
// touching storage.

type organizationView struct {
	OrgID         uuid.UUID `json:"org_id"`
	Name          string    `json:"name"`
	RevenueTarget int64     `json:"revenue_target_cents"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func viewOrganization(o *models.Organization) organizationView {
	return organizationView{
		OrgID:         o.OrgID,
		Name:          o.Name,
		RevenueTarget: o.RevenueTarget,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

type membershipView struct {
	UserID    uuid.UUID `json:"user_id"`
	OrgID     uuid.UUID `json:"org_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func viewMembership(m *models.Membership) membershipView {
	return membershipView{
		UserID:    m.UserID,
		OrgID:     m.OrgID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
}

type clientView struct {
	ClientID  uuid.UUID `json:"client_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func viewClient(c *models.Client) clientView {
	return clientView{
		ClientID:  c.ClientID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Notes:     c.Notes,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type projectView struct {
	ProjectID   uuid.UUID  `json:"project_id"`
	ClientID    uuid.UUID  `json:"client_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func viewProject(p *models.Project) projectView {
	return projectView{
		ProjectID:   p.ProjectID,
		ClientID:    p.ClientID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Status:      string(p.Status),
		CompletedAt: p.CompletedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type quoteView struct {
	QuoteID         uuid.UUID                 `json:"quote_id"`
	ClientID        uuid.UUID                 `json:"client_id"`
	ProjectID       *uuid.UUID                `json:"project_id,omitempty"`
	Number          string                    `json:"number"`
	Title           string                    `json:"title"`
	LineItems       []models.LineItem         `json:"line_items"`
	DiscountPercent int64                     `json:"discount_percent"`
	Total           int64                     `json:"total_cents"`
	ValidUntil      *time.Time                `json:"valid_until,omitempty"`
	Status          string                    `json:"status"`
	Expired         bool                      `json:"expired"`
	SentAt          *time.Time                `json:"sent_at,omitempty"`
	ApprovedAt      *time.Time                `json:"approved_at,omitempty"`
	DeclinedAt      *time.Time                `json:"declined_at,omitempty"`
	Signature       *models.SignatureMetadata `json:"signature,omitempty"`
	ShareToken      string                    `json:"share_token,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

func viewQuote(q *models.Quote, now time.Time) quoteView {
	return quoteView{
		QuoteID:         q.QuoteID,
		ClientID:        q.ClientID,
		ProjectID:       q.ProjectID,
		Number:          q.Number,
		Title:           q.Title,
		LineItems:       q.LineItems,
		DiscountPercent: q.DiscountPercent,
		Total:           q.Total,
		ValidUntil:      q.ValidUntil,
		Status:          string(q.Status),
		Expired:         q.Expired(now),
		SentAt:          q.SentAt,
		ApprovedAt:      q.ApprovedAt,
		DeclinedAt:      q.DeclinedAt,
		Signature:       q.Signature,
		ShareToken:      q.ShareToken,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
}

// viewSharedQuote is the public rendition behind a share token: the token
// itself is omitted so the page can't be used to mint further links.
func viewSharedQuote(q *models.Quote, now time.Time) quoteView {
	v := viewQuote(q, now)
	v.ShareToken = ""
	return v
}

type invoiceView struct {
	InvoiceID  uuid.UUID         `json:"invoice_id"`
	ClientID   uuid.UUID         `json:"client_id"`
	ProjectID  *uuid.UUID        `json:"project_id,omitempty"`
	QuoteID    *uuid.UUID        `json:"quote_id,omitempty"`
	Number     string            `json:"number"`
	LineItems  []models.LineItem `json:"line_items"`
	Total      int64             `json:"total_cents"`
	DueDate    time.Time         `json:"due_date"`
	Status     string            `json:"status"`
	Overdue    bool              `json:"overdue"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	PaidAt     *time.Time        `json:"paid_at,omitempty"`
	ShareToken string            `json:"share_token,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func viewInvoice(i *models.Invoice, now time.Time) invoiceView {
	return invoiceView{
		InvoiceID:  i.InvoiceID,
		ClientID:   i.ClientID,
		ProjectID:  i.ProjectID,
		QuoteID:    i.QuoteID,
		Number:     i.Number,
		LineItems:  i.LineItems,
		Total:      i.Total,
		DueDate:    i.DueDate,
		Status:     string(i.Status),
		Overdue:    i.Overdue(now),
		SentAt:     i.SentAt,
		PaidAt:     i.PaidAt,
		ShareToken: i.ShareToken,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

func viewSharedInvoice(i *models.Invoice, now time.Time) invoiceView {
	v := viewInvoice(i, now)
	v.ShareToken = ""
	return v
}

type taskView struct {
	TaskID      uuid.UUID  `json:"task_id"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	DueTime     string     `json:"due_time,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func viewTask(t *models.Task) taskView {
	return taskView{
		TaskID:      t.TaskID,
		ProjectID:   t.ProjectID,
		AssigneeID:  t.AssigneeID,
		Title:       t.Title,
		Notes:       t.Notes,
		DueDate:     t.DueDate,
		DueTime:     t.DueTime,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type activityView struct {
	ActivityID   uuid.UUID      `json:"activity_id"`
	UserID       uuid.UUID      `json:"user_id"`
	ActivityType string         `json:"activity_type"`
	EntityType   string         `json:"entity_type"`
	EntityID     uuid.UUID      `json:"entity_id"`
	Description  string         `json:"description"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func viewActivity(a *models.Activity) activityView {
	return activityView{
		ActivityID:   a.ActivityID,
		UserID:       a.UserID,
		ActivityType: a.ActivityType,
		EntityType:   a.EntityType,
		EntityID:     a.EntityID,
		Description:  a.Description,
		Metadata:     a.Metadata,
		CreatedAt:    a.CreatedAt,
	}
}

type attachmentView struct {
	AttachmentID uuid.UUID `json:"attachment_id"`
	StorageID    string    `json:"storage_id"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	CreatedAt    time.Time `json:"created_at"`
}

type mentionView struct {
	NotificationID uuid.UUID        `json:"notification_id"`
	RecipientID    uuid.UUID        `json:"recipient_id"`
	AuthorID       *uuid.UUID       `json:"author_id,omitempty"`
	AuthorName     string           `json:"author_name,omitempty"`
	Text           string           `json:"text"`
	EntityType     string           `json:"entity_type"`
	EntityID       uuid.UUID        `json:"entity_id"`
	IsRead         bool             `json:"is_read"`
	Priority       string           `json:"priority,omitempty"`
	Attachments    []attachmentView `json:"attachments,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func viewMention(m *service.Mention) mentionView {
	v := mentionView{
		NotificationID: m.Notification.NotificationID,
		RecipientID:    m.Notification.UserID,
		AuthorName:     m.AuthorName,
		Text:           m.Text,
		EntityType:     m.Notification.EntityType,
		EntityID:       m.Notification.EntityID,
		IsRead:         m.Notification.IsRead,
		Priority:       m.Notification.Priority,
		CreatedAt:      m.Notification.CreatedAt,
	}
	if m.AuthorID != uuid.Nil {
		authorID := m.AuthorID
		v.AuthorID = &authorID
	}
	for _, a := range m.Attachments {
		v.Attachments = append(v.Attachments, attachmentView{
			AttachmentID: a.AttachmentID,
			StorageID:    a.StorageID,
			FileName:     a.FileName,
			FileSize:     a.FileSize,
			MimeType:     a.MimeType,
			CreatedAt:    a.CreatedAt,
		})
	}
	return v
}

func viewMentions(ms []*service.Mention) []mentionView {
	out := make([]mentionView, 0, len(ms))
	for _, m := range ms {
		out = append(out, viewMention(m))
	}
	return out
}

type dashboardStatsView struct {
	Quotes struct {
		DraftCount    int64 `json:"draft_count"`
		SentCount     int64 `json:"sent_count"`
		SentValue     int64 `json:"sent_value_cents"`
		ApprovedCount int64 `json:"approved_count"`
		ApprovedValue int64 `json:"approved_value_cents"`
		DeclinedCount int64 `json:"declined_count"`
	} `json:"quotes"`
	Invoices struct {
		DraftCount       int64 `json:"draft_count"`
		SentCount        int64 `json:"sent_count"`
		OutstandingValue int64 `json:"outstanding_value_cents"`
		PaidCount        int64 `json:"paid_count"`
		PaidValue        int64 `json:"paid_value_cents"`
		OverdueCount     int64 `json:"overdue_count"`
		OverdueValue     int64 `json:"overdue_value_cents"`
	} `json:"invoices"`
	Tasks struct {
		TodoCount       int64 `json:"todo_count"`
		InProgressCount int64 `json:"in_progress_count"`
		DoneCount       int64 `json:"done_count"`
		OverdueCount    int64 `json:"overdue_count"`
	} `json:"tasks"`
	Revenue struct {
		WindowStart time.Time `json:"window_start"`
		WindowEnd   time.Time `json:"window_end"`
		PaidValue   int64     `json:"paid_value_cents"`
		TargetCents int64     `json:"target_cents"`
	} `json:"revenue"`
}

func viewDashboardStats(s *service.DashboardStats) dashboardStatsView {
	var v dashboardStatsView
	v.Quotes.DraftCount = s.Quotes.DraftCount
	v.Quotes.SentCount = s.Quotes.SentCount
	v.Quotes.SentValue = s.Quotes.SentValue
	v.Quotes.ApprovedCount = s.Quotes.ApprovedCount
	v.Quotes.ApprovedValue = s.Quotes.ApprovedValue
	v.Quotes.DeclinedCount = s.Quotes.DeclinedCount
	v.Invoices.DraftCount = s.Invoices.DraftCount
	v.Invoices.SentCount = s.Invoices.SentCount
	v.Invoices.OutstandingValue = s.Invoices.OutstandingValue
	v.Invoices.PaidCount = s.Invoices.PaidCount
	v.Invoices.PaidValue = s.Invoices.PaidValue
	v.Invoices.OverdueCount = s.Invoices.OverdueCount
	v.Invoices.OverdueValue = s.Invoices.OverdueValue
	v.Tasks.TodoCount = s.Tasks.TodoCount
	v.Tasks.InProgressCount = s.Tasks.InProgressCount
	v.Tasks.DoneCount = s.Tasks.DoneCount
	v.Tasks.OverdueCount = s.Tasks.OverdueCount
	v.Revenue.WindowStart = s.Revenue.WindowStart
	v.Revenue.WindowEnd = s.Revenue.WindowEnd
	v.Revenue.PaidValue = s.Revenue.PaidValue
	v.Revenue.TargetCents = s.Revenue.TargetCents
	return v
}
