package courier

import (
	"context"

	"github.com/coregx/courier/model"
)

// Role is the closed set of caller roles decided at authentication time.
type Role string

const (
	// RoleCustomer is a regular account holder.
	RoleCustomer Role = "customer"

	// RoleStaff is an operator scoped to one or more channels.
	RoleStaff Role = "staff"

	// RoleAdmin holds every scope.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Identity is the explicit, tagged caller identity passed into the message
// lifecycle manager. It is decided once at authentication time; nothing in
// the core re-derives role or scope per call.
type Identity struct {
	AccountID    string `json:"accountID"`    // opaque account identifier, doubles as the personal channel
	Role         Role   `json:"role"`         // closed role enumeration
	ChannelScope string `json:"channelScope"` // staff-only: the channel this identity may operate on
}

// IsZero reports whether the identity carries no account.
func (i Identity) IsZero() bool {
	return i.AccountID == ""
}

// IsStaff reports whether the identity holds a staff or admin role.
func (i Identity) IsStaff() bool {
	return i.Role == RoleStaff || i.Role == RoleAdmin
}

// CanSubscribe reports whether the identity may attach to channel.
// Every identity may subscribe to its own account channel and to "public";
// staff may additionally subscribe to their scoped channel, admin to any.
func (i Identity) CanSubscribe(channel string) bool {
	if i.IsZero() || channel == "" {
		return false
	}
	if channel == i.AccountID || channel == ChannelPublic {
		return true
	}
	if i.Role == RoleAdmin {
		return true
	}
	return i.Role == RoleStaff && i.ChannelScope == channel
}

// CanAccess reports whether the identity may read or transition msg.
// A caller may act on a message only if it is the message's recipient, or it
// holds a staff/admin role scoped to the message's channel.
func (i Identity) CanAccess(msg model.Message) bool {
	if i.IsZero() {
		return false
	}
	if msg.IsRecipient(i.AccountID) {
		return true
	}
	if i.Role == RoleAdmin {
		return true
	}
	return i.Role == RoleStaff && i.ChannelScope != "" && i.ChannelScope == msg.Channel
}

// ChannelPublic is the broadcast channel every authenticated identity may join.
const ChannelPublic = "public"

// Authenticator resolves a caller's identity from a bearer credential.
// It is consumed from an external collaborator; the library never issues
// sessions itself.
type Authenticator interface {
	// Authenticate validates token and returns the caller identity.
	// Returns an AUTH_REQUIRED error when the token is missing or invalid.
	Authenticate(ctx context.Context, token string) (Identity, error)
}
