// Package model contains the domain models for the Courier messaging system.
package model

// tablePrefix is prepended to every table name returned by TableName methods.
// Repositories may use their own prefix; this constant is the default.
const tablePrefix = "courier_"

// MessageType categorizes a message by its origin.
type MessageType string

const (
	// TypeGeneral is direct correspondence between two accounts.
	TypeGeneral MessageType = "general"

	// TypeBooking is correspondence attached to a booking/order.
	TypeBooking MessageType = "booking"

	// TypeSystem is generated by the platform itself (no human sender).
	TypeSystem MessageType = "system"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case TypeGeneral, TypeBooking, TypeSystem:
		return true
	}
	return false
}

// Priority tags a message for display ordering. It carries no delivery semantics.
type Priority string

const (
	// PriorityNormal is the default priority.
	PriorityNormal Priority = "normal"

	// PriorityHigh marks urgent correspondence.
	PriorityHigh Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityHigh
}
