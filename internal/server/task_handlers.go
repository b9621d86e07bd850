package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/service"
)

type createTaskRequest struct {
	ProjectID  *uuid.UUID `json:"project_id"`
	AssigneeID *uuid.UUID `json:"assignee_id"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	DueDate    *time.Time `json:"due_date"`
	DueTime    string     `json:"due_time"`
	Priority   string     `json:"priority"`
}

type updateTaskRequest struct {
	ProjectID  *uuid.UUID `json:"project_id"`
	AssigneeID *uuid.UUID `json:"assignee_id"`
	Title      *string    `json:"title"`
	Notes      *string    `json:"notes"`
	DueDate    *time.Time `json:"due_date"`
	DueTime    *string    `json:"due_time"`
	Priority   *string    `json:"priority"`
}

func (s *Server) createTask(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := s.svc.CreateTask(c.Request().Context(), tc, service.CreateTaskCmd{
		ProjectID:  req.ProjectID,
		AssigneeID: req.AssigneeID,
		Title:      req.Title,
		Notes:      req.Notes,
		DueDate:    req.DueDate,
		DueTime:    req.DueTime,
		Priority:   models.TaskPriority(req.Priority),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, viewTask(task))
}

func (s *Server) getTask(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	task, err := s.svc.GetTask(c.Request().Context(), tc, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewTask(task))
}

func (s *Server) updateTask(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cmd := service.UpdateTaskCmd{
		ProjectID:  req.ProjectID,
		AssigneeID: req.AssigneeID,
		Title:      req.Title,
		Notes:      req.Notes,
		DueDate:    req.DueDate,
		DueTime:    req.DueTime,
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		cmd.Priority = &priority
	}
	task, err := s.svc.UpdateTask(c.Request().Context(), tc, id, cmd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewTask(task))
}

func (s *Server) transitionTask(c echo.Context) error {
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
	task, err := s.svc.TransitionTask(c.Request().Context(), tc, id, models.TaskStatus(req.Status))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, viewTask(task))
}

func (s *Server) deleteTask(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteTask(c.Request().Context(), tc, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listTasks(c echo.Context) error {
	tc, err := tenantOf(c)
	if err != nil {
		return err
	}
	var filter service.TaskFilter
	if filter.ProjectID, err = queryUUID(c, "project_id"); err != nil {
		return err
	}
	if filter.AssigneeID, err = queryUUID(c, "assignee_id"); err != nil {
		return err
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := models.TaskStatus(raw)
		filter.Status = &status
	}
	tasks, err := s.svc.ListTasks(c.Request().Context(), tc, filter)
	if err != nil {
		return httpError(err)
	}
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, viewTask(t))
	}
	return c.JSON(http.StatusOK, out)
}
