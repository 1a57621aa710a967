package model

import (
	"database/sql"
	"strings"
	"time"
)

// Message represents one unit of correspondence between two identities.
// A message is created by a sender action (new message or a reply), mutated
// by recipient/staff status transitions and never hard-deleted: archival is a
// status, not a deletion.
//
// Business logic methods:
//   - MarkRead/MarkReplied/Archive: apply lifecycle transitions with guards
//   - SetStatus: apply a direct status set (any valid target, archived terminal)
//   - NewReply: derive the answer record with the invariants the reply carries
//
// Timestamps: ReadAt is set only on the first transition into read and is
// never refreshed afterwards; RepliedAt is set only on transition into replied.
type Message struct {
	ID               int64         `json:"id"`
	SenderID         string        `json:"senderID" db:"sender_id"`
	SenderName       string        `json:"senderName" db:"sender_name"`
	SenderEmail      string        `json:"senderEmail" db:"sender_email"`
	RecipientID      string        `json:"recipientID" db:"recipient_id"`
	Channel          string        `json:"channel" db:"channel"` // broadcast target, defaults to recipient identity
	Subject          string        `json:"subject"`
	Body             string        `json:"body"`
	Type             MessageType   `json:"type" db:"message_type"`
	Priority         Priority      `json:"priority"`
	Status           Status        `json:"status"`
	RelatedBookingID sql.NullInt64 `json:"relatedBookingID" db:"related_booking_id"`
	ReplyToID        sql.NullInt64 `json:"replyToID" db:"reply_to_id"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
	ReadAt           sql.NullTime  `json:"readAt" db:"read_at"`
	RepliedAt        sql.NullTime  `json:"repliedAt" db:"replied_at"`
}

// TableName returns the database table name for Message.
func (m Message) TableName() string {
	return tablePrefix + "message"
}

// NewMessage creates a new unread message from sender to recipient.
// When channel is empty the recipient identity is used as the broadcast target.
// Type defaults to general and priority to normal when unset.
func NewMessage(senderID, senderName, senderEmail, recipientID, channel, subject, body string) Message {
	if channel == "" {
		channel = recipientID
	}
	return Message{
		ID:          0,
		SenderID:    senderID,
		SenderName:  senderName,
		SenderEmail: senderEmail,
		RecipientID: recipientID,
		Channel:     channel,
		Subject:     subject,
		Body:        body,
		Type:        TypeGeneral,
		Priority:    PriorityNormal,
		Status:      StatusUnread,
		CreatedAt:   time.Now(),
	}
}

// LinkBooking attaches the message to a booking/order record.
func (m *Message) LinkBooking(bookingID int64) {
	m.RelatedBookingID = sql.NullInt64{Int64: bookingID, Valid: true}
}

// NewReply derives the answer record for m.
//
// The reply always carries a back-reference to the message it answers, swaps
// sender and recipient, copies the related-booking linkage and targets the
// original sender's channel. The subject is prefixed "Re: " unless the
// original already carries the prefix.
func (m Message) NewReply(senderName, senderEmail, body string) Message {
	subject := m.Subject
	if !strings.HasPrefix(subject, "Re: ") {
		subject = "Re: " + subject
	}
	reply := Message{
		ID:               0,
		SenderID:         m.RecipientID,
		SenderName:       senderName,
		SenderEmail:      senderEmail,
		RecipientID:      m.SenderID,
		Channel:          m.SenderID,
		Subject:          subject,
		Body:             body,
		Type:             m.Type,
		Priority:         m.Priority,
		Status:           StatusUnread,
		RelatedBookingID: m.RelatedBookingID,
		ReplyToID:        sql.NullInt64{Int64: m.ID, Valid: true},
		CreatedAt:        time.Now(),
	}
	return reply
}

// MarkRead transitions the message into read.
// Reading an already-read message is a permitted no-op that leaves ReadAt at
// its original value. Returns ErrIllegalTransition for archived messages.
func (m *Message) MarkRead() error {
	if m.Status == StatusRead {
		return nil
	}
	if !m.Status.CanTransition(StatusRead) {
		return ErrIllegalTransition
	}
	m.Status = StatusRead
	if !m.ReadAt.Valid {
		m.ReadAt = sql.NullTime{Time: time.Now(), Valid: true}
	}
	return nil
}

// MarkReplied transitions the message into replied and records RepliedAt.
// Legal from unread and read only: a message already replied (or archived)
// rejects the transition, so RepliedAt is set exactly once.
func (m *Message) MarkReplied() error {
	if m.Status == StatusReplied || !m.Status.CanTransition(StatusReplied) {
		return ErrIllegalTransition
	}
	m.Status = StatusReplied
	m.RepliedAt = sql.NullTime{Time: time.Now(), Valid: true}
	return nil
}

// Archive transitions the message into its terminal state.
func (m *Message) Archive() error {
	if !m.Status.CanTransition(StatusArchived) {
		return ErrIllegalTransition
	}
	m.Status = StatusArchived
	return nil
}

// SetStatus applies a direct status set.
//
// The target must be one of the enumerated states (ErrUnknownStatus
// otherwise) and the move must be legal (ErrIllegalTransition out of
// archived). Moves into read and replied go through MarkRead/MarkReplied so
// the timestamp invariants hold regardless of entry point.
func (m *Message) SetStatus(target Status) error {
	if !target.Valid() {
		return ErrUnknownStatus
	}
	switch target {
	case StatusRead:
		return m.MarkRead()
	case StatusReplied:
		return m.MarkReplied()
	case StatusArchived:
		return m.Archive()
	default: // unread
		if !m.Status.CanTransition(target) {
			return ErrIllegalTransition
		}
		m.Status = target
		return nil
	}
}

// IsRecipient reports whether accountID is the message's recipient.
func (m Message) IsRecipient(accountID string) bool {
	return accountID != "" && accountID == m.RecipientID
}

// Participants returns the channels interested in state changes of this
// message: the sender's and the recipient's identity channels plus the
// message channel when it differs (role-scoped or public targets).
func (m Message) Participants() []string {
	channels := []string{m.RecipientID}
	if m.SenderID != "" && m.SenderID != m.RecipientID {
		channels = append(channels, m.SenderID)
	}
	if m.Channel != "" && m.Channel != m.RecipientID && m.Channel != m.SenderID {
		channels = append(channels, m.Channel)
	}
	return channels
}
