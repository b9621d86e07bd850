package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/centriq-hq/centriq/internal/models"
)

func TestCreateProjectValidatesDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)

	start := time.Now()
	end := start.AddDate(0, -1, 0)

	_, err := f.svc.CreateProject(ctx, f.tc, CreateProjectCmd{
		ClientID:  client.ClientID,
		Name:      "Backwards",
		StartDate: &start,
		EndDate:   &end,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestProjectLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)

	project, err := f.svc.CreateProject(ctx, f.tc, CreateProjectCmd{
		ClientID: client.ClientID,
		Name:     "Rollout",
	})
	require.NoError(t, err)
	require.Equal(t, models.ProjectStatusPlanning, project.Status)

	// planning -> completed is not reachable.
	_, err = f.svc.TransitionProject(ctx, f.tc, project.ProjectID, models.ProjectStatusCompleted)
	require.ErrorIs(t, err, ErrIllegalTransition)

	active, err := f.svc.TransitionProject(ctx, f.tc, project.ProjectID, models.ProjectStatusActive)
	require.NoError(t, err)
	require.Equal(t, models.ProjectStatusActive, active.Status)

	completed, err := f.svc.TransitionProject(ctx, f.tc, project.ProjectID, models.ProjectStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)
}

func TestDeleteProjectBlockedByTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)

	project, err := f.svc.CreateProject(ctx, f.tc, CreateProjectCmd{
		ClientID: client.ClientID,
		Name:     "Busy",
	})
	require.NoError(t, err)

	task, err := f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{
		Title:     "Tied to project",
		ProjectID: &project.ProjectID,
	})
	require.NoError(t, err)

	err = f.svc.DeleteProject(ctx, f.tc, project.ProjectID)
	require.ErrorIs(t, err, ErrHasDependents)

	require.NoError(t, f.svc.DeleteTask(ctx, f.tc, task.TaskID))
	require.NoError(t, f.svc.DeleteProject(ctx, f.tc, project.ProjectID))
}
