package courier

import (
	"context"
	"database/sql"

	"github.com/coregx/courier/model"
)

// Filter represents query filtering options for messages.
// Zero values mean no filter on that field.
type Filter struct {
	RecipientID string            // Filter by recipient identity
	SenderID    string            // Filter by sender identity
	Channel     string            // Filter by broadcast channel
	Status      model.Status      // Filter by lifecycle status
	Type        model.MessageType // Filter by message type
	BookingID   int64             // Filter by related booking (0 = no filter)
	ReplyToID   int64             // Filter by answered message (0 = no filter)
	Limit       int               // Maximum rows to return (0 = repository default)
}

// Patch carries the fields a status transition may update on a persisted
// message. Nil pointers leave the stored value untouched, so a patch maps
// onto a partial UPDATE keyed by message identity.
type Patch struct {
	Status    *model.Status
	ReadAt    *sql.NullTime
	RepliedAt *sql.NullTime
}

// MessageRepository defines the persistence contract for messages.
// It is the narrow interface through which the lifecycle manager consumes the
// external storage collaborator; implementations must provide atomic
// find-and-update semantics keyed by message identity and be safe for
// concurrent use.
type MessageRepository interface {
	// Load retrieves a message by ID.
	// Returns ErrNotFound if no row matches.
	Load(ctx context.Context, id int64) (model.Message, error)

	// FindOne retrieves the first message matching the filter,
	// newest first. Returns ErrNotFound if nothing matches.
	FindOne(ctx context.Context, filter Filter) (model.Message, error)

	// Find retrieves all messages matching the filter, newest first.
	// Returns an empty slice if nothing matches.
	Find(ctx context.Context, filter Filter) ([]model.Message, error)

	// Save creates a new message (if ID=0) or updates an existing one.
	// Returns the saved message with populated ID.
	Save(ctx context.Context, m model.Message) (model.Message, error)

	// UpdateByID applies the patch to the message with the given ID and
	// returns the updated record. Returns ErrNotFound if no row matches.
	UpdateByID(ctx context.Context, id int64, patch Patch) (model.Message, error)

	// CountUnread returns the number of unread messages addressed to the
	// given recipient.
	CountUnread(ctx context.Context, recipientID string) (int, error)
}
