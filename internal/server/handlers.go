package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/centriq-hq/centriq/internal/auth"
	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/service"
	"github.com/centriq-hq/centriq/internal/tenant"
)

func tenantOf(c echo.Context) (tenant.Context, error) {
	tc, err := auth.TenantFromEcho(c)
	if err != nil {
		return tenant.Context{}, httpError(err)
	}
	return tc, nil
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "malformed id")
	}
	return id, nil
}

func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	return nil
}

func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "malformed "+name)
	}
	return &id, nil
}

func queryTime(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "malformed "+name+", want RFC 3339")
	}
	return &t, nil
}

// organization

type updateOrganizationRequest struct {
	Name          *string `json:"name"`
	RevenueTarget *int64  `json:"revenue_target_cents"`
}

func (s *Server) getOrganization(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	org, err := s.svc.GetOrganization(c.Request().Context(), tc)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewOrganization(org))
}

func (s *Server) updateOrganization(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var req updateOrganizationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	org, err := s.svc.UpdateOrganization(c.Request().Context(), tc, service.UpdateOrganizationCmd{
		Name:          req.Name,
		RevenueTarget: req.RevenueTarget,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewOrganization(org))
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

func (s *Server) addMember(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var req addMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := s.svc.AddMember(c.Request().Context(), tc, service.AddMemberCmd{
		UserID: req.UserID,
		Role:   req.Role,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, viewMembership(m))
}

func (s *Server) listMembers(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	members, err := s.svc.ListMembers(c.Request().Context(), tc)
	if err != nil {
		return httpError(err)
	}
	out := make([]membershipView, 0, len(members))
	for _, m := range members {
		out = append(out, viewMembership(m))
	}
	return c.JSON(http.StatusOK, out)
}

// clients

type createClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Notes   string `json:"notes"`
	Status  string `json:"status"`
}

type updateClientRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Notes   *string `json:"notes"`
	Status  *string `json:"status"`
}

func (s *Server) createClient(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var req createClientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	client, err := s.svc.CreateClient(c.Request().Context(), tc, service.CreateClientCmd{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Notes:   req.Notes,
		Status:  models.ClientStatus(req.Status),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, viewClient(client))
}

func (s *Server) getClient(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	client, err := s.svc.GetClient(c.Request().Context(), tc, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewClient(client))
}

func (s *Server) updateClient(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateClientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cmd := service.UpdateClientCmd{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Notes:   req.Notes,
	}
	if req.Status != nil {
		status := models.ClientStatus(*req.Status)
		cmd.Status = &status
	}
	client, err := s.svc.UpdateClient(c.Request().Context(), tc, id, cmd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewClient(client))
}

func (s *Server) deleteClient(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteClient(c.Request().Context(), tc, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listClients(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var filter service.ClientFilter
	if raw := c.QueryParam("status"); raw != "" {
		status := models.ClientStatus(raw)
		filter.Status = &status
	}
	clients, err := s.svc.ListClients(c.Request().Context(), tc, filter)
	if err != nil {
		return httpError(err)
	}
	out := make([]clientView, 0, len(clients))
	for _, cl := range clients {
		out = append(out, viewClient(cl))
	}
	return c.JSON(http.StatusOK, out)
}

// projects

type createProjectRequest struct {
	ClientID    uuid.UUID  `json:"client_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type updateProjectRequest struct {
	ClientID    *uuid.UUID `json:"client_id"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (s *Server) createProject(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var req createProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.svc.CreateProject(c.Request().Context(), tc, service.CreateProjectCmd{
		ClientID:    req.ClientID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, viewProject(p))
}

func (s *Server) getProject(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := s.svc.GetProject(c.Request().Context(), tc, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewProject(p))
}

func (s *Server) updateProject(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.svc.UpdateProject(c.Request().Context(), tc, id, service.UpdateProjectCmd{
		ClientID:    req.ClientID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewProject(p))
}

func (s *Server) transitionProject(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transitionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.svc.TransitionProject(c.Request().Context(), tc, id, models.ProjectStatus(req.Status))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewProject(p))
}

func (s *Server) deleteProject(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteProject(c.Request().Context(), tc, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listProjects(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var filter service.ProjectFilter
	clientID, err := queryUUID(c, "client_id")
	if err != nil {
		return err
	}
	filter.ClientID = clientID
	if raw := c.QueryParam("status"); raw != "" {
		status := models.ProjectStatus(raw)
		filter.Status = &status
	}
	projects, err := s.svc.ListProjects(c.Request().Context(), tc, filter)
	if err != nil {
		return httpError(err)
	}
	out := make([]projectView, 0, len(projects))
	for _, p := range projects {
		out = append(out, viewProject(p))
	}
	return c.JSON(http.StatusOK, out)
}
