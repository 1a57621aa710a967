package courier

import (
	"github.com/coregx/courier/model"
)

// Hooks defines an optional interface for observing registry events
// (subscriber lifecycle, dropped deliveries).
//
// Implementations might feed metrics, audit logs or monitoring systems.
// Hooks are called synchronously from registry operations and must be cheap
// and non-blocking.
type Hooks interface {
	// SubscriberAttached is called after a subscriber registers on a channel.
	SubscriberAttached(channel, subscriberID string)

	// SubscriberDetached is called after a subscriber is removed from a channel.
	SubscriberDetached(channel, subscriberID string)

	// DeliveryDropped is called when a push failed to reach one subscriber.
	// The persisted state change already succeeded by this point, so a drop
	// is informational, never an operation failure.
	DeliveryDropped(channel, subscriberID string, env model.Envelope)
}

// NoopHooks is a no-op implementation of Hooks.
// Use this when observation is not needed.
type NoopHooks struct{}

// SubscriberAttached does nothing.
func (h *NoopHooks) SubscriberAttached(_, _ string) {}

// SubscriberDetached does nothing.
func (h *NoopHooks) SubscriberDetached(_, _ string) {}

// DeliveryDropped does nothing.
func (h *NoopHooks) DeliveryDropped(_, _ string, _ model.Envelope) {}

// LoggingHooks is a simple implementation that logs registry events.
type LoggingHooks struct {
	logger Logger
}

// NewLoggingHooks creates a new LoggingHooks.
func NewLoggingHooks(logger Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// SubscriberAttached logs the attachment.
func (h *LoggingHooks) SubscriberAttached(channel, subscriberID string) {
	h.logger.Infof("Subscriber attached: channel=%s, subscriber=%s", channel, subscriberID)
}

// SubscriberDetached logs the detachment.
func (h *LoggingHooks) SubscriberDetached(channel, subscriberID string) {
	h.logger.Infof("Subscriber detached: channel=%s, subscriber=%s", channel, subscriberID)
}

// DeliveryDropped logs the dropped frame.
func (h *LoggingHooks) DeliveryDropped(channel, subscriberID string, env model.Envelope) {
	h.logger.Warnf("Delivery dropped: channel=%s, subscriber=%s, event=%s", channel, subscriberID, env.Event)
}
