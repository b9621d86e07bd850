package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/service"
	"github.com/centriq-hq/centriq/internal/tenant"
)

// quotes

type createQuoteRequest struct {
	ClientID        uuid.UUID         `json:"client_id"`
	ProjectID       *uuid.UUID        `json:"project_id"`
	Title           string            `json:"title"`
	LineItems       []models.LineItem `json:"line_items"`
	DiscountPercent int64             `json:"discount_percent"`
	ValidUntil      *time.Time        `json:"valid_until"`
}

type updateQuoteRequest struct {
	ClientID        *uuid.UUID        `json:"client_id"`
	ProjectID       *uuid.UUID        `json:"project_id"`
	Title           *string           `json:"title"`
	LineItems       []models.LineItem `json:"line_items"`
	DiscountPercent *int64            `json:"discount_percent"`
	ValidUntil      *time.Time        `json:"valid_until"`
}

type approveQuoteRequest struct {
	SignerName string `json:"signer_name"`
}

func (s *Server) createQuote(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var req createQuoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	q, err := s.svc.CreateQuote(c.Request().Context(), tc, service.CreateQuoteCmd{
		ClientID:        req.ClientID,
		ProjectID:       req.ProjectID,
		Title:           req.Title,
		LineItems:       req.LineItems,
		DiscountPercent: req.DiscountPercent,
		ValidUntil:      req.ValidUntil,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, viewQuote(q, time.Now()))
}

func (s *Server) getQuote(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	q, err := s.svc.GetQuote(c.Request().Context(), tc, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewQuote(q, time.Now()))
}

func (s *Server) updateQuote(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateQuoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	q, err := s.svc.UpdateQuote(c.Request().Context(), tc, id, service.UpdateQuoteCmd{
		ClientID:        req.ClientID,
		ProjectID:       req.ProjectID,
		Title:           req.Title,
		LineItems:       req.LineItems,
		DiscountPercent: req.DiscountPercent,
		ValidUntil:      req.ValidUntil,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewQuote(q, time.Now()))
}

func (s *Server) sendQuote(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	q, err := s.svc.SendQuote(c.Request().Context(), tc, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewQuote(q, time.Now()))
}

func (s *Server) approveQuote(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req approveQuoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	sig := models.SignatureMetadata{
		SignerName: req.SignerName,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	}
	q, err := s.svc.ApproveQuote(c.Request().Context(), tc, id, sig)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewQuote(q, time.Now()))
}

func (s *Server) declineQuote(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	q, err := s.svc.DeclineQuote(c.Request().Context(), tc, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewQuote(q, time.Now()))
}

func (s *Server) deleteQuote(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteQuote(c.Request().Context(), tc, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listQuotes(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var filter service.QuoteFilter
	if filter.ClientID, err = queryUUID(c, "client_id"); err != nil {
		return err
	}
	if filter.ProjectID, err = queryUUID(c, "project_id"); err != nil {
		return err
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := models.QuoteStatus(raw)
		filter.Status = &status
	}
	if filter.From, err = queryTime(c, "from"); err != nil {
		return err
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return err
	}
	quotes, err := s.svc.ListQuotes(c.Request().Context(), tc, filter)
	if err != nil {
		return httpError(err)
	}
	now := time.Now()
	out := make([]quoteView, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, viewQuote(q, now))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getSharedQuote(c echo.Context) error {
	q, err := s.svc.GetQuoteByShareToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewSharedQuote(q, time.Now()))
}

// invoices

type createInvoiceRequest struct {
	ClientID  uuid.UUID         `json:"client_id"`
	ProjectID *uuid.UUID        `json:"project_id"`
	LineItems []models.LineItem `json:"line_items"`
	DueDate   time.Time         `json:"due_date"`
}

type updateInvoiceRequest struct {
	ClientID  *uuid.UUID        `json:"client_id"`
	ProjectID *uuid.UUID        `json:"project_id"`
	LineItems []models.LineItem `json:"line_items"`
	DueDate   *time.Time        `json:"due_date"`
}

type invoiceFromQuoteRequest struct {
	DueDate time.Time `json:"due_date"`
}

func (s *Server) createInvoice(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var req createInvoiceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	inv, err := s.svc.CreateInvoice(c.Request().Context(), tc, service.CreateInvoiceCmd{
		ClientID:  req.ClientID,
		ProjectID: req.ProjectID,
		LineItems: req.LineItems,
		DueDate:   req.DueDate,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, viewInvoice(inv, time.Now()))
}

func (s *Server) createInvoiceFromQuote(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	quoteID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req invoiceFromQuoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	inv, err := s.svc.CreateInvoiceFromQuote(c.Request().Context(), tc, quoteID, req.DueDate)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, viewInvoice(inv, time.Now()))
}

func (s *Server) getInvoice(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	inv, err := s.svc.GetInvoice(c.Request().Context(), tc, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewInvoice(inv, time.Now()))
}

func (s *Server) updateInvoice(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateInvoiceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	inv, err := s.svc.UpdateInvoice(c.Request().Context(), tc, id, service.UpdateInvoiceCmd{
		ClientID:  req.ClientID,
		ProjectID: req.ProjectID,
		LineItems: req.LineItems,
		DueDate:   req.DueDate,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewInvoice(inv, time.Now()))
}

func (s *Server) sendInvoice(c echo.Context) error {
	return s.invoiceTransition(c, s.svc.SendInvoice)
}

func (s *Server) markInvoicePaid(c echo.Context) error {
	return s.invoiceTransition(c, s.svc.MarkInvoicePaid)
}

func (s *Server) cancelInvoice(c echo.Context) error {
	return s.invoiceTransition(c, s.svc.CancelInvoice)
}

func (s *Server) invoiceTransition(c echo.Context, fn func(ctx context.Context, tc tenant.Context, id uuid.UUID) (*models.Invoice, error)) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	inv, err := fn(c.Request().Context(), tc, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewInvoice(inv, time.Now()))
}

func (s *Server) deleteInvoice(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteInvoice(c.Request().Context(), tc, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listInvoices(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var filter service.InvoiceFilter
	if filter.ClientID, err = queryUUID(c, "client_id"); err != nil {
		return err
	}
	if filter.ProjectID, err = queryUUID(c, "project_id"); err != nil {
		return err
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := models.InvoiceStatus(raw)
		filter.Status = &status
	}
	if filter.From, err = queryTime(c, "from"); err != nil {
		return err
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return err
	}
	invoices, err := s.svc.ListInvoices(c.Request().Context(), tc, filter)
	if err != nil {
		return httpError(err)
	}
	now := time.Now()
	out := make([]invoiceView, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, viewInvoice(inv, now))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) listOverdueInvoices(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	invoices, err := s.svc.ListOverdueInvoices(c.Request().Context(), tc)
	if err != nil {
		return httpError(err)
	}
	now := time.Now()
	out := make([]invoiceView, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, viewInvoice(inv, now))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getSharedInvoice(c echo.Context) error {
	inv, err := s.svc.GetInvoiceByShareToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewSharedInvoice(inv, time.Now()))
}
