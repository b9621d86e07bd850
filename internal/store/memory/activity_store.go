package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/models"
)

// ActivityStore implements store.ActivityStore using in-memory storage.
// Rows are append-only; no method here mutates or removes one.
type ActivityStore struct {
	mu         sync.RWMutex
	activities []*models.Activity
}

// NewActivityStore creates a new in-memory activity store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{}
}

func cloneActivity(a *models.Activity) *models.Activity {
	clone := *a
	if a.Metadata != nil {
		clone.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// Append appends one immutable activity row.
func (s *ActivityStore) Append(ctx context.Context, activity *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activities = append(s.activities, cloneActivity(activity))
	return nil
}

func sortNewestFirst(out []*models.Activity) {
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
}

// ListByOrg returns the tenant's activities within the optional time range,
// newest-first.
func (s *ActivityStore) ListByOrg(ctx context.Context, orgID uuid.UUID, from, to *time.Time, limit int) ([]*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Activity
	for _, a := range s.activities {
		if a.OrgID != orgID {
			continue
		}
		if from != nil && a.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && a.CreatedAt.After(*to) {
			continue
		}
		out = append(out, cloneActivity(a))
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByEntity returns the history of one record, newest-first.
func (s *ActivityStore) ListByEntity(ctx context.Context, orgID uuid.UUID, entityType string, entityID uuid.UUID, limit int) ([]*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Activity
	for _, a := range s.activities {
		if a.OrgID == orgID && a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, cloneActivity(a))
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
