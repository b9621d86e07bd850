// Package server exposes the tenant-scoped operations over HTTP. Routes under
// /v1 require a Bearer token carrying the caller's active organization;
// routes under /share are public and capability-addressed by share token.
package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/centriq-hq/centriq/internal/auth"
	"github.com/centriq-hq/centriq/internal/logger"
	"github.com/centriq-hq/centriq/internal/service"
)

// Config holds the server's settings.
type Config struct {
	// JWTPublicKeyPEM verifies the Bearer tokens on /v1 routes.
	JWTPublicKeyPEM string
}

// Server wraps the HTTP surface over the service layer.
type Server struct {
	svc *service.Service
	cfg Config
}

// NewServer creates a new server over the given service.
func NewServer(svc *service.Service, cfg Config) *Server {
	return &Server{
		svc: svc,
		cfg: cfg,
	}
}

// Handler builds the HTTP handler: health, public share routes, and the
// authenticated /v1 API.
func (s *Server) Handler(log zerolog.Logger) (http.Handler, error) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(logger.Requests(log))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public share-token reads. The token is the whole capability.
	e.GET("/share/quotes/:token", s.getSharedQuote)
	e.GET("/share/invoices/:token", s.getSharedInvoice)

	authMW, err := auth.Middleware(s.cfg.JWTPublicKeyPEM)
	if err != nil {
		return nil, err
	}

	v1 := e.Group("/v1", authMW)

	v1.GET("/organization", s.getOrganization)
	v1.PATCH("/organization", s.updateOrganization)
	v1.GET("/organization/members", s.listMembers)
	v1.POST("/organization/members", s.addMember)

	v1.POST("/clients", s.createClient)
	v1.GET("/clients", s.listClients)
	v1.GET("/clients/:id", s.getClient)
	v1.PATCH("/clients/:id", s.updateClient)
	v1.DELETE("/clients/:id", s.deleteClient)

	v1.POST("/projects", s.createProject)
	v1.GET("/projects", s.listProjects)
	v1.GET("/projects/:id", s.getProject)
	v1.PATCH("/projects/:id", s.updateProject)
	v1.DELETE("/projects/:id", s.deleteProject)
	v1.POST("/projects/:id/transition", s.transitionProject)

	v1.POST("/quotes", s.createQuote)
	v1.GET("/quotes", s.listQuotes)
	v1.GET("/quotes/:id", s.getQuote)
	v1.PATCH("/quotes/:id", s.updateQuote)
	v1.DELETE("/quotes/:id", s.deleteQuote)
	v1.POST("/quotes/:id/send", s.sendQuote)
	v1.POST("/quotes/:id/approve", s.approveQuote)
	v1.POST("/quotes/:id/decline", s.declineQuote)

	v1.POST("/invoices", s.createInvoice)
	v1.GET("/invoices", s.listInvoices)
	v1.GET("/invoices/overdue", s.listOverdueInvoices)
	v1.GET("/invoices/:id", s.getInvoice)
	v1.PATCH("/invoices/:id", s.updateInvoice)
	v1.DELETE("/invoices/:id", s.deleteInvoice)
	v1.POST("/invoices/:id/send", s.sendInvoice)
	v1.POST("/invoices/:id/pay", s.markInvoicePaid)
	v1.POST("/invoices/:id/cancel", s.cancelInvoice)
	v1.POST("/quotes/:id/invoice", s.createInvoiceFromQuote)

	v1.POST("/tasks", s.createTask)
	v1.GET("/tasks", s.listTasks)
	v1.GET("/tasks/:id", s.getTask)
	v1.PATCH("/tasks/:id", s.updateTask)
	v1.DELETE("/tasks/:id", s.deleteTask)
	v1.POST("/tasks/:id/transition", s.transitionTask)

	v1.POST("/mentions", s.createMention)
	v1.GET("/mentions", s.listMentionsByEntity)
	v1.GET("/notifications", s.listMyNotifications)
	v1.POST("/notifications/:id/read", s.markNotificationRead)
	v1.DELETE("/notifications/:id", s.deleteNotification)

	v1.GET("/activity", s.activityFeed)
	v1.GET("/activity/entity", s.entityHistory)
	v1.GET("/stats/dashboard", s.dashboardStats)

	return e, nil
}
