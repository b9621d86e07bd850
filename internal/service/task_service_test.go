package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/tenant"
)

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{
		Title:   "Chase signature",
		DueTime: "09:30",
	})
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusTodo, task.Status)
	require.Equal(t, models.TaskPriorityMedium, task.Priority)
	require.Nil(t, task.CompletedAt)
}

func TestCreateTaskRejectsBadDueTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, bad := range []string{"25:00", "9:30", "12:60", "noon"} {
		t.Run(bad, func(t *testing.T) {
			_, err := f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{Title: "Bad", DueTime: bad})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestTaskAssigneeMustBeMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A member of another tenant is not assignable.
	_, err := f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{
		Title:      "Misassigned",
		AssigneeID: &f.other.UserID,
	})
	require.ErrorIs(t, err, tenant.ErrCrossTenantAccess)

	memberID := f.addMember(t, ctx, f.tc, "staff")
	task, err := f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{
		Title:      "Assigned",
		AssigneeID: &memberID,
	})
	require.NoError(t, err)
	require.Equal(t, memberID, *task.AssigneeID)
}

func TestTaskLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{Title: "Work"})
	require.NoError(t, err)

	// todo -> done directly is allowed.
	done, err := f.svc.TransitionTask(ctx, f.tc, task.TaskID, models.TaskStatusDone)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)

	// done is terminal.
	_, err = f.svc.TransitionTask(ctx, f.tc, task.TaskID, models.TaskStatusTodo)
	require.ErrorIs(t, err, ErrIllegalTransition)

	// Moving out of done before completion clears the stamp.
	task2, err := f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{Title: "Flapping"})
	require.NoError(t, err)
	_, err = f.svc.TransitionTask(ctx, f.tc, task2.TaskID, models.TaskStatusInProgress)
	require.NoError(t, err)
	back, err := f.svc.TransitionTask(ctx, f.tc, task2.TaskID, models.TaskStatusTodo)
	require.NoError(t, err)
	require.Nil(t, back.CompletedAt)

	_, err = f.svc.TransitionTask(ctx, f.tc, task2.TaskID, models.TaskStatus("archived"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestListTasksSortsByDueDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	later := time.Now().AddDate(0, 0, 7)
	sooner := time.Now().AddDate(0, 0, 1)

	mk := func(title string, due *time.Time) uuid.UUID {
		task, err := f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{Title: title, DueDate: due})
		require.NoError(t, err)
		return task.TaskID
	}

	undated := mk("undated", nil)
	late := mk("late", &later)
	soon := mk("soon", &sooner)

	tasks, err := f.svc.ListTasks(ctx, f.tc, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	require.Equal(t, soon, tasks[0].TaskID)
	require.Equal(t, late, tasks[1].TaskID)
	require.Equal(t, undated, tasks[2].TaskID)
}

func TestListTasksByAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	memberID := f.addMember(t, ctx, f.tc, "staff")

	_, err := f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{Title: "Mine", AssigneeID: &memberID})
	require.NoError(t, err)
	_, err = f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{Title: "Unassigned"})
	require.NoError(t, err)

	tasks, err := f.svc.ListTasks(ctx, f.tc, TaskFilter{AssigneeID: &memberID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "Mine", tasks[0].Title)
}
