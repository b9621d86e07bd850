package memory

import (
	"time"

	"github.com/google/uuid"
)

// Clone helpers for pointer fields so stored rows never share memory with
// caller-held structs.

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneUUID(u *uuid.UUID) *uuid.UUID {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
