package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"unread", "read", "replied", "archived"} {
		status, err := ParseStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, Status(raw), status)
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	for _, raw := range []string{"", "deleted", "READ", "new"} {
		_, err := ParseStatus(raw)
		assert.ErrorIs(t, err, ErrUnknownStatus, "value %q", raw)
	}
}

func TestStatus_CanTransition(t *testing.T) {
	assert.True(t, StatusUnread.CanTransition(StatusRead))
	assert.True(t, StatusUnread.CanTransition(StatusReplied))
	assert.True(t, StatusUnread.CanTransition(StatusArchived))
	assert.True(t, StatusRead.CanTransition(StatusReplied))
	assert.True(t, StatusRead.CanTransition(StatusUnread), "direct set may move backwards")
	assert.True(t, StatusReplied.CanTransition(StatusArchived))
}

func TestStatus_ArchivedIsTerminal(t *testing.T) {
	for _, target := range []Status{StatusUnread, StatusRead, StatusReplied, StatusArchived} {
		assert.False(t, StatusArchived.CanTransition(target), "archived → %s", target)
	}
}

func TestStatus_CanTransitionRejectsUnknown(t *testing.T) {
	assert.False(t, StatusUnread.CanTransition(Status("deleted")))
	assert.False(t, Status("deleted").CanTransition(StatusRead))
}
