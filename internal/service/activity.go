package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/tenant"
)

// recordActivity appends one immutable audit row as a side effect of a
// repository mutation. An append failure fails the whole mutation.
func (s *Service) recordActivity(ctx context.Context, tc tenant.Context, activityType string, ref models.EntityRef, description string, metadata map[string]any) error {
	activity := &models.Activity{
		ActivityID:   uuid.Must(uuid.NewV7()),
		OrgID:        tc.OrgID,
		UserID:       tc.UserID,
		ActivityType: activityType,
		EntityType:   ref.Type,
		EntityID:     ref.ID,
		Description:  description,
		Metadata:     metadata,
		CreatedAt:    time.Now(),
	}

	if err := s.stores.Activities.Append(ctx, activity); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	log.Debug().
		Str("org_id", tc.OrgID.String()).
		Str("activity_type", activityType).
		Str("entity_type", ref.Type).
		Str("entity_id", ref.ID.String()).
		Msg("Recorded activity")

	return nil
}

// ActivityFeed returns the tenant's activity rows within the optional time
// range, newest-first, at most limit rows (0 means no limit).
func (s *Service) ActivityFeed(ctx context.Context, tc tenant.Context, from, to *time.Time, limit int) ([]*models.Activity, error) {
	return s.stores.Activities.ListByOrg(ctx, tc.OrgID, from, to, limit)
}

// EntityHistory returns the audit trail of one record, newest-first.
func (s *Service) EntityHistory(ctx context.Context, tc tenant.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.Activity, error) {
	return s.stores.Activities.ListByEntity(ctx, tc.OrgID, entityType, entityID, limit)
}
