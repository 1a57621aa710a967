package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/relica"

	"github.com/coregx/courier"
	"github.com/coregx/courier/model"
)

// defaultLimit caps unbounded Find queries.
const defaultLimit = 100

// MessageRepository implements courier.MessageRepository using Relica.
type MessageRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewMessageRepository creates a new MessageRepository with default table prefix.
func NewMessageRepository(sqlDB *sql.DB, driverName string) *MessageRepository {
	return &MessageRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: "courier_"}
}

// NewMessageRepositoryWithPrefix creates a new MessageRepository with custom table prefix.
func NewMessageRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *MessageRepository {
	return &MessageRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *MessageRepository) tableName() string {
	return r.tablePrefix + "message"
}

// Load retrieves a message by ID.
func (r *MessageRepository) Load(ctx context.Context, id int64) (model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return msg, courier.ErrNotFound
	}
	if err != nil {
		return msg, courier.NewErrorWithCause(courier.ErrCodeDatabase, "failed to load message", err)
	}
	return msg, nil
}

// FindOne retrieves the newest message matching the filter.
func (r *MessageRepository) FindOne(ctx context.Context, filter courier.Filter) (model.Message, error) {
	var msg model.Message

	q := r.db.WithContext(ctx).Select("*").From(r.tableName())
	if filter.RecipientID != "" {
		q = q.Where("recipient_id = ?", filter.RecipientID)
	}
	if filter.SenderID != "" {
		q = q.Where("sender_id = ?", filter.SenderID)
	}
	if filter.Channel != "" {
		q = q.Where("channel = ?", filter.Channel)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("message_type = ?", filter.Type)
	}
	if filter.BookingID != 0 {
		q = q.Where("related_booking_id = ?", filter.BookingID)
	}
	if filter.ReplyToID != 0 {
		q = q.Where("reply_to_id = ?", filter.ReplyToID)
	}
	err := q.OrderBy("created_at DESC").Limit(1).WithContext(ctx).One(&msg)

	if errors.Is(err, sql.ErrNoRows) {
		return msg, courier.ErrNotFound
	}
	if err != nil {
		return msg, courier.NewErrorWithCause(courier.ErrCodeDatabase, "failed to find message", err)
	}
	return msg, nil
}

// Find retrieves all messages matching the filter, newest first.
func (r *MessageRepository) Find(ctx context.Context, filter courier.Filter) ([]model.Message, error) {
	var messages []model.Message

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	q := r.db.WithContext(ctx).Select("*").From(r.tableName())
	if filter.RecipientID != "" {
		q = q.Where("recipient_id = ?", filter.RecipientID)
	}
	if filter.SenderID != "" {
		q = q.Where("sender_id = ?", filter.SenderID)
	}
	if filter.Channel != "" {
		q = q.Where("channel = ?", filter.Channel)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("message_type = ?", filter.Type)
	}
	if filter.BookingID != 0 {
		q = q.Where("related_booking_id = ?", filter.BookingID)
	}
	if filter.ReplyToID != 0 {
		q = q.Where("reply_to_id = ?", filter.ReplyToID)
	}
	err := q.OrderBy("created_at DESC").Limit(int64(limit)).WithContext(ctx).All(&messages)

	if err != nil {
		return nil, courier.NewErrorWithCause(courier.ErrCodeDatabase, "failed to find messages", err)
	}
	return messages, nil
}

// Save creates a new message (if ID=0) or updates an existing one.
func (r *MessageRepository) Save(ctx context.Context, m model.Message) (model.Message, error) {
	if m.ID == 0 {
		// Insert new message using Model() API - auto-populates m.ID
		err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert()
		if err != nil {
			return m, courier.NewErrorWithCause(courier.ErrCodeDatabase, "failed to insert message", err)
		}
		return m, nil
	}

	// Update existing message
	err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Update()
	if err != nil {
		return m, courier.NewErrorWithCause(courier.ErrCodeDatabase, "failed to update message", err)
	}
	return m, nil
}

// UpdateByID applies the patch in a single UPDATE keyed by message ID and
// returns the updated record. Returns ErrNotFound when the row does not exist.
func (r *MessageRepository) UpdateByID(ctx context.Context, id int64, patch courier.Patch) (model.Message, error) {
	columns := make(map[string]interface{})
	if patch.Status != nil {
		columns["status"] = *patch.Status
	}
	if patch.ReadAt != nil {
		columns["read_at"] = *patch.ReadAt
	}
	if patch.RepliedAt != nil {
		columns["replied_at"] = *patch.RepliedAt
	}
	if len(columns) == 0 {
		return r.Load(ctx, id)
	}

	_, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(columns).
		Where("id = ?", id).
		WithContext(ctx).
		Execute()
	if err != nil {
		return model.Message{}, courier.NewErrorWithCause(courier.ErrCodeDatabase, "failed to patch message", err)
	}

	return r.Load(ctx, id)
}

// CountUnread returns the number of unread messages addressed to recipientID.
func (r *MessageRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Select("COUNT(*)").
		From(r.tableName()).
		Where("recipient_id = ? AND status = ?", recipientID, model.StatusUnread).
		One(&count)
	if err != nil {
		return 0, courier.NewErrorWithCause(courier.ErrCodeDatabase, "failed to count unread messages", err)
	}
	return int(count), nil
}
