package courier

import (
	"fmt"
)

// LifecycleOption is a function that configures a Lifecycle.
// Used with the Options Pattern for flexible service construction.
//
// Example:
//
//	lifecycle, err := courier.NewLifecycle(
//	    courier.WithLifecycleRepository(repo),
//	    courier.WithLifecycleRegistry(registry),
//	    courier.WithLifecycleLogger(logger),
//	)
type LifecycleOption func(*Lifecycle) error

// WithLifecycleRepository sets the message persistence dependency.
// The repository is required and must not be nil.
//
// This is a required option for NewLifecycle.
func WithLifecycleRepository(repo MessageRepository) LifecycleOption {
	return func(lc *Lifecycle) error {
		if repo == nil {
			return fmt.Errorf("repo cannot be nil")
		}
		lc.repo = repo
		return nil
	}
}

// WithLifecycleRegistry sets the live-delivery broadcaster the lifecycle
// publishes to after each persisted state change. Required and must not be
// nil; pass the process Registry.
//
// This is a required option for NewLifecycle.
func WithLifecycleRegistry(registry Broadcaster) LifecycleOption {
	return func(lc *Lifecycle) error {
		if registry == nil {
			return fmt.Errorf("registry cannot be nil")
		}
		lc.registry = registry
		return nil
	}
}

// WithLifecycleLogger sets the logger instance for the lifecycle manager.
// Logger is required and must not be nil.
//
// This is a required option for NewLifecycle.
func WithLifecycleLogger(logger Logger) LifecycleOption {
	return func(lc *Lifecycle) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		lc.logger = logger
		return nil
	}
}
