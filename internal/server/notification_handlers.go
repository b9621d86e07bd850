package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/service"
)

type attachmentInputRequest struct {
	StorageID string `json:"storage_id"`
	FileName  string `json:"file_name"`
	FileSize  int64  `json:"file_size"`
	MimeType  string `json:"mime_type"`
}

type createMentionRequest struct {
	RecipientIDs []uuid.UUID              `json:"recipient_ids"`
	Text         string                   `json:"text"`
	EntityType   string                   `json:"entity_type"`
	EntityID     uuid.UUID                `json:"entity_id"`
	Attachments  []attachmentInputRequest `json:"attachments"`
}

func (s *Server) createMention(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var req createMentionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cmd := service.CreateMentionCmd{
		RecipientIDs: req.RecipientIDs,
		Text:         req.Text,
		Entity: models.EntityRef{
			Type: req.EntityType,
			ID:   req.EntityID,
		},
	}
	for _, a := range req.Attachments {
		cmd.Attachments = append(cmd.Attachments, service.AttachmentInput{
			StorageID: a.StorageID,
			FileName:  a.FileName,
			FileSize:  a.FileSize,
			MimeType:  a.MimeType,
		})
	}
	notifications, err := s.svc.CreateMention(c.Request().Context(), tc, cmd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]int{"delivered": len(notifications)})
}

func (s *Server) listMentionsByEntity(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	entityID, err := queryUUID(c, "entity_id")
	if err != nil {
		return err
	}
	entityType := c.QueryParam("entity_type")
	if entityType == "" || entityID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "entity_type and entity_id are required")
	}
	mentions, err := s.svc.ListMentionsByEntity(c.Request().Context(), tc, models.EntityRef{
		Type: entityType,
		ID:   *entityID,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewMentions(mentions))
}

func (s *Server) listMyNotifications(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	mentions, err := s.svc.ListMyNotifications(c.Request().Context(), tc)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewMentions(mentions))
}

func (s *Server) markNotificationRead(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.MarkNotificationRead(c.Request().Context(), tc, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteNotification(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteNotification(c.Request().Context(), tc, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// activity and stats

func queryLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "malformed limit")
	}
	return limit, nil
}

func (s *Server) activityFeed(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	rows, err := s.svc.ActivityFeed(c.Request().Context(), tc, from, to, limit)
	if err != nil {
		return httpError(err)
	}
	out := make([]activityView, 0, len(rows))
	for _, a := range rows {
		out = append(out, viewActivity(a))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) entityHistory(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	entityID, err := queryUUID(c, "entity_id")
	if err != nil {
		return err
	}
	entityType := c.QueryParam("entity_type")
	if entityType == "" || entityID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "entity_type and entity_id are required")
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	rows, err := s.svc.EntityHistory(c.Request().Context(), tc, entityType, *entityID, limit)
	if err != nil {
		return httpError(err)
	}
	out := make([]activityView, 0, len(rows))
	for _, a := range rows {
		out = append(out, viewActivity(a))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) dashboardStats(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	stats, err := s.svc.GetDashboardStats(c.Request().Context(), tc, time.Now())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewDashboardStats(stats))
}
