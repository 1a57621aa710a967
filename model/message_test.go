package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_TableName(t *testing.T) {
	msg := Message{}
	assert.Equal(t, "courier_message", msg.TableName())
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "", "Booking question", "Is court 3 free?")

	assert.Equal(t, int64(0), msg.ID)
	assert.Equal(t, "acct-1", msg.SenderID)
	assert.Equal(t, "acct-2", msg.RecipientID)
	assert.Equal(t, "acct-2", msg.Channel, "channel defaults to recipient identity")
	assert.Equal(t, TypeGeneral, msg.Type)
	assert.Equal(t, PriorityNormal, msg.Priority)
	assert.Equal(t, StatusUnread, msg.Status)
	assert.False(t, msg.ReadAt.Valid)
	assert.False(t, msg.RepliedAt.Valid)
	assert.WithinDuration(t, time.Now(), msg.CreatedAt, time.Second)
}

func TestNewMessage_ExplicitChannel(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "staff", "s", "b")
	assert.Equal(t, "staff", msg.Channel)
}

func TestMessage_MarkRead(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "", "s", "b")

	require.NoError(t, msg.MarkRead())
	assert.Equal(t, StatusRead, msg.Status)
	require.True(t, msg.ReadAt.Valid)
	assert.WithinDuration(t, time.Now(), msg.ReadAt.Time, time.Second)
}

func TestMessage_MarkReadIdempotent(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "", "s", "b")
	require.NoError(t, msg.MarkRead())
	first := msg.ReadAt.Time

	time.Sleep(10 * time.Millisecond)

	require.NoError(t, msg.MarkRead())
	assert.Equal(t, StatusRead, msg.Status)
	assert.Equal(t, first, msg.ReadAt.Time, "ReadAt keeps the first-read timestamp")
}

func TestMessage_MarkReplied(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "", "s", "b")

	require.NoError(t, msg.MarkReplied())
	assert.Equal(t, StatusReplied, msg.Status)
	require.True(t, msg.RepliedAt.Valid)
}

func TestMessage_MarkRepliedOnce(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "", "s", "b")
	require.NoError(t, msg.MarkReplied())
	first := msg.RepliedAt.Time

	time.Sleep(10 * time.Millisecond)

	assert.ErrorIs(t, msg.MarkReplied(), ErrIllegalTransition)
	assert.Equal(t, first, msg.RepliedAt.Time, "RepliedAt keeps the first-reply timestamp")
}

func TestMessage_ArchiveIsTerminal(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "", "s", "b")
	require.NoError(t, msg.Archive())
	assert.Equal(t, StatusArchived, msg.Status)

	assert.ErrorIs(t, msg.MarkRead(), ErrIllegalTransition)
	assert.ErrorIs(t, msg.MarkReplied(), ErrIllegalTransition)
	assert.ErrorIs(t, msg.Archive(), ErrIllegalTransition)
	assert.ErrorIs(t, msg.SetStatus(StatusUnread), ErrIllegalTransition)
	assert.Equal(t, StatusArchived, msg.Status)
}

func TestMessage_SetStatusUnknown(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "", "s", "b")

	err := msg.SetStatus(Status("deleted"))

	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.Equal(t, StatusUnread, msg.Status, "stored status unchanged")
}

func TestMessage_SetStatusRoutesThroughGuards(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "", "s", "b")

	require.NoError(t, msg.SetStatus(StatusRead))
	assert.True(t, msg.ReadAt.Valid, "SetStatus(read) records ReadAt")

	require.NoError(t, msg.SetStatus(StatusReplied))
	assert.True(t, msg.RepliedAt.Valid, "SetStatus(replied) records RepliedAt")
}

func TestMessage_NewReply(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "", "Court booking", "Is court 3 free?")
	msg.ID = 42
	msg.Type = TypeBooking
	msg.LinkBooking(7)

	reply := msg.NewReply("Bea", "bea@example.com", "Thanks")

	assert.Equal(t, "acct-2", reply.SenderID)
	assert.Equal(t, "acct-1", reply.RecipientID)
	assert.Equal(t, "acct-1", reply.Channel)
	assert.Equal(t, "Re: Court booking", reply.Subject)
	assert.Equal(t, "Thanks", reply.Body)
	assert.Equal(t, TypeBooking, reply.Type)
	assert.Equal(t, StatusUnread, reply.Status)
	require.True(t, reply.ReplyToID.Valid)
	assert.Equal(t, int64(42), reply.ReplyToID.Int64)
	require.True(t, reply.RelatedBookingID.Valid)
	assert.Equal(t, int64(7), reply.RelatedBookingID.Int64, "booking linkage copied")
}

func TestMessage_NewReplySubjectNotDoublePrefixed(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "", "Re: Court booking", "b")
	reply := msg.NewReply("Bea", "bea@example.com", "ok")
	assert.Equal(t, "Re: Court booking", reply.Subject)
}

func TestMessage_Participants(t *testing.T) {
	msg := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "", "s", "b")
	assert.ElementsMatch(t, []string{"acct-1", "acct-2"}, msg.Participants())

	scoped := NewMessage("acct-1", "Ada", "ada@example.com", "acct-2", "staff", "s", "b")
	assert.ElementsMatch(t, []string{"acct-1", "acct-2", "staff"}, scoped.Participants())
}
