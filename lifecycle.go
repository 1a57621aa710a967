package courier

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/coregx/courier/model"
)

// Broadcaster is the live-delivery capability the lifecycle manager calls
// into after a state change has been persisted. *Registry satisfies it.
type Broadcaster interface {
	// Publish fans an event out to every subscriber on channel and returns
	// the number of subscribers reached. Best effort, never fails the caller.
	Publish(channel, event string, payload any) int
}

// Lifecycle governs the state machine of persisted messages: creation, read,
// reply and archive. Every accepted transition persists the updated record
// first and only then publishes to the channels associated with the message's
// sender and recipient, so both parties' live connections observe the change
// without polling. A dropped live update is compensated for only by the
// client re-fetching state on reconnect; the authoritative state always lives
// in the message store.
//
// Authorization happens before any persistence or publish: a caller may read
// or transition a message only if it is the message's recipient or holds a
// staff/admin role scoped to the message's channel.
//
// Thread safety: safe for concurrent use.
type Lifecycle struct {
	repo     MessageRepository
	registry Broadcaster
	logger   Logger
}

// NewLifecycle creates a new Lifecycle with the provided options.
//
// Required options:
//   - WithLifecycleRepository: message persistence
//   - WithLifecycleRegistry: live-delivery broadcaster
//   - WithLifecycleLogger: logger instance
//
// Example:
//
//	lifecycle, err := courier.NewLifecycle(
//	    courier.WithLifecycleRepository(repo),
//	    courier.WithLifecycleRegistry(registry),
//	    courier.WithLifecycleLogger(logger),
//	)
func NewLifecycle(opts ...LifecycleOption) (*Lifecycle, error) {
	lc := &Lifecycle{}

	for _, opt := range opts {
		if err := opt(lc); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply lifecycle option", err)
		}
	}

	// Validate required dependencies
	if lc.repo == nil {
		return nil, NewError(ErrCodeConfiguration, "MessageRepository is required (use WithLifecycleRepository)")
	}
	if lc.registry == nil {
		return nil, NewError(ErrCodeConfiguration, "Broadcaster is required (use WithLifecycleRegistry)")
	}
	if lc.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithLifecycleLogger)")
	}

	return lc, nil
}

// CreateRequest represents a request to create a new message.
type CreateRequest struct {
	RecipientID string            // Target account identity (required)
	Channel     string            // Broadcast target; defaults to the recipient identity
	SenderName  string            // Sender display name
	SenderEmail string            // Sender contact email
	Subject     string            // Subject line (required)
	Body        string            // Message content (required)
	Type        model.MessageType // general/booking/system; defaults to general
	Priority    model.Priority    // normal/high; defaults to normal
	BookingID   int64             // Related booking linkage (0 = none)
}

// Validate implements request validation using ozzo-validation.
func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RecipientID, validation.Required),
		validation.Field(&r.Subject, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Body, validation.Required),
		validation.Field(&r.SenderEmail, is.Email),
		validation.Field(&r.Type, validation.In(model.TypeGeneral, model.TypeBooking, model.TypeSystem)),
		validation.Field(&r.Priority, validation.In(model.PriorityNormal, model.PriorityHigh)),
	)
}

// ReplyRequest represents a request to answer an existing message.
type ReplyRequest struct {
	SenderName  string // Replier display name
	SenderEmail string // Replier contact email
	Content     string // Reply content (required, non-empty)
}

// Validate implements request validation using ozzo-validation.
func (r ReplyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.SenderEmail, is.Email),
	)
}

// Create persists a new unread message from ident to the requested recipient
// and announces it on the participants' channels.
func (lc *Lifecycle) Create(ctx context.Context, ident Identity, req CreateRequest) (*model.Message, error) {
	if ident.IsZero() {
		return nil, ErrAuthenticationRequired
	}
	if err := req.Validate(); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, "invalid create request", err)
	}

	msg := model.NewMessage(ident.AccountID, req.SenderName, req.SenderEmail,
		req.RecipientID, req.Channel, req.Subject, req.Body)
	if req.Type != "" {
		msg.Type = req.Type
	}
	if req.Priority != "" {
		msg.Priority = req.Priority
	}
	if req.BookingID != 0 {
		msg.LinkBooking(req.BookingID)
	}

	msg, err := lc.repo.Save(ctx, msg)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to save message", err)
	}

	lc.logger.Infof("Message created: id=%d, sender=%s, recipient=%s, type=%s",
		msg.ID, msg.SenderID, msg.RecipientID, msg.Type)

	lc.broadcast(msg, model.EventMessage)
	return &msg, nil
}

// Read transitions the message into read on behalf of its recipient (or
// authorized staff). Reading an already-read message is an idempotent no-op:
// the stored ReadAt keeps its first-read value and nothing is republished.
func (lc *Lifecycle) Read(ctx context.Context, ident Identity, id int64) (*model.Message, error) {
	return lc.transition(ctx, ident, id, model.StatusRead)
}

// Archive moves the message into its terminal state.
func (lc *Lifecycle) Archive(ctx context.Context, ident Identity, id int64) (*model.Message, error) {
	return lc.transition(ctx, ident, id, model.StatusArchived)
}

// SetStatus applies a direct status set from a raw string. The value must be
// one of the four enumerated states and the move must be legal for the
// message's current status.
func (lc *Lifecycle) SetStatus(ctx context.Context, ident Identity, id int64, raw string) (*model.Message, error) {
	status, err := model.ParseStatus(raw)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, fmt.Sprintf("invalid status %q", raw), err)
	}
	return lc.transition(ctx, ident, id, status)
}

// transition loads, authorizes, applies and persists one status change, then
// publishes the updated record. Setting the current status again short
// circuits before persistence so transition endpoints stay idempotent.
func (lc *Lifecycle) transition(ctx context.Context, ident Identity, id int64, target model.Status) (*model.Message, error) {
	msg, err := lc.authorize(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	if msg.Status == target && target != model.StatusArchived {
		return msg, nil
	}

	if err := msg.SetStatus(target); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation,
			fmt.Sprintf("cannot set status of message %d to %s", id, target), err)
	}

	updated, err := lc.repo.UpdateByID(ctx, id, Patch{
		Status:    &msg.Status,
		ReadAt:    &msg.ReadAt,
		RepliedAt: &msg.RepliedAt,
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to update message", err)
	}

	lc.logger.Infof("Message %d status: %s (by %s)", id, updated.Status, ident.AccountID)

	lc.broadcast(updated, model.EventStatusChanged)
	return &updated, nil
}

// Reply creates the answer record for the message with the given ID and marks
// the original replied. Only the message's recipient may reply and the reply
// content must be non-empty. The reply copies the original's related-booking
// linkage and carries a back-reference to it.
func (lc *Lifecycle) Reply(ctx context.Context, ident Identity, id int64, req ReplyRequest) (*model.Message, error) {
	if ident.IsZero() {
		return nil, ErrAuthenticationRequired
	}
	if err := req.Validate(); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, "invalid reply request", err)
	}

	original, err := lc.repo.Load(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to load message", err)
	}

	if !original.IsRecipient(ident.AccountID) {
		return nil, NewError(ErrCodeAuthorization,
			fmt.Sprintf("account %s may not reply to message %d", ident.AccountID, id))
	}

	if err := original.MarkReplied(); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation,
			fmt.Sprintf("cannot reply to message %d", id), err)
	}

	reply := original.NewReply(req.SenderName, req.SenderEmail, req.Content)
	reply, err = lc.repo.Save(ctx, reply)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to save reply", err)
	}

	updated, err := lc.repo.UpdateByID(ctx, id, Patch{
		Status:    &original.Status,
		RepliedAt: &original.RepliedAt,
	})
	if err != nil {
		// The reply record exists; the original keeps its previous status.
		lc.logger.Errorf("Reply %d saved but original %d not updated: %v", reply.ID, id, err)
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to update original message", err)
	}

	lc.logger.Infof("Message %d replied by %s (reply id=%d)", id, ident.AccountID, reply.ID)

	lc.broadcast(reply, model.EventMessage)
	lc.broadcast(updated, model.EventStatusChanged)
	return &reply, nil
}

// Get retrieves a single message, applying the same authorization rule as
// transitions.
func (lc *Lifecycle) Get(ctx context.Context, ident Identity, id int64) (*model.Message, error) {
	return lc.authorize(ctx, ident, id)
}

// List retrieves the caller's messages, newest first, under the same access
// policy transitions use. Customers see messages addressed to them; staff see
// only their scoped channel (the filter may narrow within it, never widen);
// admin lists unrestricted.
func (lc *Lifecycle) List(ctx context.Context, ident Identity, filter Filter) ([]model.Message, error) {
	if ident.IsZero() {
		return nil, ErrAuthenticationRequired
	}
	switch ident.Role {
	case RoleAdmin:
		// unrestricted
	case RoleStaff:
		if ident.ChannelScope == "" {
			return nil, NewError(ErrCodeAuthorization,
				fmt.Sprintf("staff account %s has no channel scope", ident.AccountID))
		}
		if filter.Channel != "" && filter.Channel != ident.ChannelScope {
			return nil, NewError(ErrCodeAuthorization,
				fmt.Sprintf("account %s may not list channel %s", ident.AccountID, filter.Channel))
		}
		filter.Channel = ident.ChannelScope
	default:
		filter.RecipientID = ident.AccountID
	}

	messages, err := lc.repo.Find(ctx, filter)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to list messages", err)
	}
	return messages, nil
}

// CountUnread returns the caller's unread message count.
func (lc *Lifecycle) CountUnread(ctx context.Context, ident Identity) (int, error) {
	if ident.IsZero() {
		return 0, ErrAuthenticationRequired
	}

	count, err := lc.repo.CountUnread(ctx, ident.AccountID)
	if err != nil {
		return 0, NewErrorWithCause(ErrCodeDatabase, "failed to count unread messages", err)
	}
	return count, nil
}

// authorize loads the message and rejects the caller before any persistence
// or publish occurs when it lacks access.
func (lc *Lifecycle) authorize(ctx context.Context, ident Identity, id int64) (*model.Message, error) {
	if ident.IsZero() {
		return nil, ErrAuthenticationRequired
	}

	msg, err := lc.repo.Load(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to load message", err)
	}

	if !ident.CanAccess(msg) {
		return nil, NewError(ErrCodeAuthorization,
			fmt.Sprintf("account %s may not access message %d", ident.AccountID, id))
	}
	return &msg, nil
}

// broadcast publishes the record to every channel interested in it.
func (lc *Lifecycle) broadcast(msg model.Message, event string) {
	for _, channel := range msg.Participants() {
		delivered := lc.registry.Publish(channel, event, msg)
		lc.logger.Debugf("Published %s for message %d to channel %s (%d subscribers)",
			event, msg.ID, channel, delivered)
	}
}
