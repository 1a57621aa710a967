package courier

import (
	"sync"

	"github.com/coregx/courier/model"
)

// SendFunc pushes one envelope to a live connection. Implementations are
// supplied by the transport at subscribe time and may fail or panic when the
// underlying connection is already gone; the registry isolates either outcome
// to that subscriber.
//
// Implementations must not block: sends happen under the registry lock, so a
// transport is expected to enqueue the envelope (buffered channel or similar)
// and return, failing fast when the buffer is full.
type SendFunc func(model.Envelope) error

// UnsubscribeFunc removes exactly one subscriber from exactly one channel.
// It is the only sanctioned removal path and is idempotent: the second and
// later invocations are no-ops. The transport's close/abort hook must invoke
// it, otherwise the subscriber entry would leak.
type UnsubscribeFunc func()

// subscriber is one live connection's registration within a channel.
// Owned exclusively by the registry for the duration of the connection.
type subscriber struct {
	id   string
	send SendFunc
}

// Registry is the process-wide pub/sub broker: an in-memory map from channel
// identifier to the set of currently-connected subscribers. Channels exist
// only while at least one subscriber is attached; they are created implicitly
// on first subscribe and destroyed implicitly when the last subscriber
// detaches.
//
// All operations are race-free under concurrent access from many connections
// and many publishers: one mutex guards the whole map, which is sufficient
// given the low cost of each operation. The map itself is never exposed.
//
// Ordering: two publishes issued by the same caller on the same channel reach
// each subscriber in publish order, because sends happen synchronously under
// the lock. No ordering holds across channels or across racing publishers.
type Registry struct {
	mu       sync.Mutex
	channels map[string]map[string]*subscriber
	hooks    Hooks
	logger   Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for delivery-drop reporting.
// Defaults to NoopLogger.
func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistryHooks sets the observation hooks for subscriber lifecycle and
// delivery drops. Defaults to NoopHooks.
func WithRegistryHooks(hooks Hooks) RegistryOption {
	return func(r *Registry) {
		if hooks != nil {
			r.hooks = hooks
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		channels: make(map[string]map[string]*subscriber),
		hooks:    &NoopHooks{},
		logger:   &NoopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers a subscriber under channel, creating the channel's
// subscriber set if absent. A subscriber belongs to at most one channel at a
// time; subscribing the same subscriberID to the same channel again replaces
// the previous send capability.
//
// Returns the unsubscribe capability, or a VALIDATION_ERROR when channel,
// subscriberID or send is empty.
func (r *Registry) Subscribe(channel, subscriberID string, send SendFunc) (UnsubscribeFunc, error) {
	if channel == "" {
		return nil, NewError(ErrCodeValidation, "channel is required")
	}
	if subscriberID == "" {
		return nil, NewError(ErrCodeValidation, "subscriber ID is required")
	}
	if send == nil {
		return nil, NewError(ErrCodeValidation, "send capability is required")
	}

	r.mu.Lock()
	set := r.channels[channel]
	if set == nil {
		set = make(map[string]*subscriber)
		r.channels[channel] = set
	}
	set[subscriberID] = &subscriber{id: subscriberID, send: send}
	r.mu.Unlock()

	r.hooks.SubscriberAttached(channel, subscriberID)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.remove(channel, subscriberID)
		})
	}, nil
}

// remove detaches one subscriber and drops the channel entry when it empties.
func (r *Registry) remove(channel, subscriberID string) {
	r.mu.Lock()
	set, ok := r.channels[channel]
	if ok {
		delete(set, subscriberID)
		if len(set) == 0 {
			delete(r.channels, channel)
		}
	}
	r.mu.Unlock()

	if ok {
		r.hooks.SubscriberDetached(channel, subscriberID)
	}
}

// Publish fans the event out to every subscriber currently attached to
// channel. Publishing to a channel with no subscribers is a silent no-op.
//
// Delivery to each subscriber is independent: a send that fails or panics is
// recorded through the hooks and the logger, affects only that subscriber and
// never surfaces to the publisher. Nothing is requeued. Returns the number of
// subscribers that received the frame.
func (r *Registry) Publish(channel, event string, payload any) int {
	env, err := model.NewEnvelope(event, payload)
	if err != nil {
		r.logger.Errorf("Failed to serialize %q envelope for channel %s: %v", event, channel, err)
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for _, sub := range r.channels[channel] {
		if r.push(channel, sub, env) {
			delivered++
		}
	}
	return delivered
}

// push delivers one envelope to one subscriber, containing failures and panics.
func (r *Registry) push(channel string, sub *subscriber, env model.Envelope) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warnf("Dropped %q event for subscriber %s on channel %s: send panicked: %v",
				env.Event, sub.id, channel, rec)
			r.hooks.DeliveryDropped(channel, sub.id, env)
			ok = false
		}
	}()

	if err := sub.send(env); err != nil {
		r.logger.Warnf("Dropped %q event for subscriber %s on channel %s: %v",
			env.Event, sub.id, channel, err)
		r.hooks.DeliveryDropped(channel, sub.id, env)
		return false
	}
	return true
}

// Subscribers returns the number of subscribers currently attached to channel.
func (r *Registry) Subscribers(channel string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels[channel])
}

// Channels returns the identifiers of all channels with at least one subscriber.
func (r *Registry) Channels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels := make([]string, 0, len(r.channels))
	for channel := range r.channels {
		channels = append(channels, channel)
	}
	return channels
}
