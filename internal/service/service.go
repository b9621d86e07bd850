// Package service implements the tenant-scoped operations every mutation
// passes through: validated create/update/delete/list per entity kind,
// lifecycle status transitions, the append-only activity trail, mention
// fanout, and maintenance of the order-statistics aggregate indexes that back
// dashboard statistics.
//
// Every operation takes an explicit tenant.Context; nothing is derived from
// ambient auth state. Each mutation is assumed to run inside one atomic host
// transaction: the record write, the aggregate hook, and the activity append
// either all land or the call fails.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/aggindex"
	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
	"github.com/centriq-hq/centriq/internal/tenant"
)

var (
	// ErrHasDependents blocks a delete while dependent child records exist.
	ErrHasDependents = errors.New("record has dependent records")

	// ErrIllegalTransition is returned when a lifecycle target status is not
	// reachable from the record's current status.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// ValidationError reports one rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Service exposes every tenant-scoped operation over the stores and keeps
// the aggregate indexes consistent with them.
type Service struct {
	stores   store.Stores
	indexes  *Indexes
	validate *validator.Validate
}

// New wires a service over the given stores and indexes.
func New(stores store.Stores, indexes *Indexes) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())

	// "HH:MM" wall-clock strings on tasks.
	_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		return timeOfDayRe.MatchString(fl.Field().String())
	})

	return &Service{
		stores:   stores,
		indexes:  indexes,
		validate: v,
	}
}

// checkStruct runs tag validation over a command struct and converts the
// first failure into a ValidationError.
func (s *Service) checkStruct(cmd any) error {
	err := s.validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: fe.Field(), Reason: fmt.Sprintf("failed %q constraint", fe.Tag())}
	}
	return err
}

// clientInTenant resolves a client foreign key within the caller's tenant.
func (s *Service) clientInTenant(ctx context.Context, tc tenant.Context, clientID uuid.UUID) (*models.Client, error) {
	client, err := s.stores.Clients.Get(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client: %w", err)
	}
	if err := tc.AssertOwns(client.OrgID); err != nil {
		return nil, err
	}
	return client, nil
}

// projectInTenant resolves a project foreign key within the caller's tenant.
func (s *Service) projectInTenant(ctx context.Context, tc tenant.Context, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.stores.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("resolve project: %w", err)
	}
	if err := tc.AssertOwns(project.OrgID); err != nil {
		return nil, err
	}
	return project, nil
}

// memberOfTenant resolves a user foreign key to a membership of the caller's
// tenant.
func (s *Service) memberOfTenant(ctx context.Context, tc tenant.Context, userID uuid.UUID) (*models.Membership, error) {
	m, err := s.stores.Memberships.Get(ctx, userID, tc.OrgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, tenant.ErrCrossTenantAccess
		}
		return nil, fmt.Errorf("resolve membership: %w", err)
	}
	return m, nil
}

// taskNoDueDate keys undated tasks after every dated one, so due-date range
// queries never pick them up.
var taskNoDueDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Indexes bundles the aggregate indexes maintained alongside repository
// mutations. Quote and invoice entries are keyed [status, createdAt] with the
// monetary total as the summed value; task entries are keyed
// [status, dueDate] (a far-future sentinel when no due date is set),
// count-only.
type Indexes struct {
	Quotes   *aggindex.Index[*models.Quote]
	Invoices *aggindex.Index[*models.Invoice]
	Tasks    *aggindex.Index[*models.Task]
}

// NewIndexes builds the aggregate index set.
func NewIndexes() (*Indexes, error) {
	quotes, err := aggindex.New(aggindex.Definition[*models.Quote]{
		Name:      "quote_totals",
		Namespace: func(q *models.Quote) uuid.UUID { return q.OrgID },
		Key: func(q *models.Quote) aggindex.Key {
			return aggindex.Key{aggindex.String(string(q.Status)), aggindex.Time(q.CreatedAt)}
		},
		ID:    func(q *models.Quote) uuid.UUID { return q.QuoteID },
		Value: func(q *models.Quote) int64 { return q.Total },
	})
	if err != nil {
		return nil, err
	}

	invoices, err := aggindex.New(aggindex.Definition[*models.Invoice]{
		Name:      "invoice_totals",
		Namespace: func(i *models.Invoice) uuid.UUID { return i.OrgID },
		Key: func(i *models.Invoice) aggindex.Key {
			return aggindex.Key{aggindex.String(string(i.Status)), aggindex.Time(i.CreatedAt)}
		},
		ID:    func(i *models.Invoice) uuid.UUID { return i.InvoiceID },
		Value: func(i *models.Invoice) int64 { return i.Total },
	})
	if err != nil {
		return nil, err
	}

	tasks, err := aggindex.New(aggindex.Definition[*models.Task]{
		Name:      "task_schedule",
		Namespace: func(t *models.Task) uuid.UUID { return t.OrgID },
		Key: func(t *models.Task) aggindex.Key {
			ts := taskNoDueDate
			if t.DueDate != nil {
				ts = *t.DueDate
			}
			return aggindex.Key{aggindex.String(string(t.Status)), aggindex.Time(ts)}
		},
		ID: func(t *models.Task) uuid.UUID { return t.TaskID },
	})
	if err != nil {
		return nil, err
	}

	return &Indexes{Quotes: quotes, Invoices: invoices, Tasks: tasks}, nil
}
