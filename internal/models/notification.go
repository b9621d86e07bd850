package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationTypeMention is the only notification type produced by the core.
const NotificationTypeMention = "mention"

// Notification is a targeted in-app notification. The stored Message keeps
// the legacy "<authorId>:<text>" prefix encoding so historical rows remain
// readable; AuthorID is the proper column that new rows populate as well.
type Notification struct {
	NotificationID uuid.UUID // UUIDv7
	OrgID          uuid.UUID
	UserID         uuid.UUID // recipient
	AuthorID       uuid.UUID
	Type           string
	Message        string
	EntityType     string
	EntityID       uuid.UUID
	IsRead         bool
	Priority       string
	CreatedAt      time.Time
}

// Attachment is a file reference owned by exactly one notification and
// deleted transitively with it. StorageID is an opaque blob-store reference;
// the core never inspects file contents.
type Attachment struct {
	AttachmentID   uuid.UUID // UUIDv7
	OrgID          uuid.UUID
	NotificationID uuid.UUID
	StorageID      string
	FileName       string
	FileSize       int64
	MimeType       string
	CreatedAt      time.Time
}

// EncodeMentionMessage builds the legacy "<authorId>:<text>" message encoding.
func EncodeMentionMessage(authorID uuid.UUID, text string) string {
	return authorID.String() + ":" + text
}

// SplitMentionMessage splits a stored message back into author id and text.
// Rows written before the AuthorID column existed carry the author only in
// this encoding, so every read site must go through here. Messages without a
// parseable prefix are returned whole with a nil author id.
func SplitMentionMessage(message string) (uuid.UUID, string) {
	idx := strings.Index(message, ":")
	if idx < 0 {
		return uuid.Nil, message
	}
	authorID, err := uuid.Parse(message[:idx])
	if err != nil {
		return uuid.Nil, message
	}
	return authorID, message[idx+1:]
}
