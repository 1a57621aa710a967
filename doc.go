// Package courier provides the real-time message delivery layer for a
// multi-tenant booking platform: a process-wide publish/subscribe registry
// multiplexing live client connections by logical channel, paired with a
// message lifecycle state machine governing how a persisted message moves
// through read/reply/archive states under concurrent access from sender,
// recipient and staff.
//
// Works both as a library for embedding in your application AND as a
// standalone server with a REST + event-stream API.
//
// # Features
//
//   - In-memory Channel Registry with race-free subscribe/unsubscribe/publish
//   - Best-effort fan-out: a failed push is dropped for that subscriber only
//   - Message lifecycle state machine (unread → read → replied → archived)
//   - Authorization decided once at authentication time via tagged identities
//   - Repository Pattern for clean data access abstraction
//   - Options Pattern for modern Go API design
//   - Pluggable architecture: bring your own Logger, Hooks, Authenticator
//   - Multi-Database Support: MySQL, PostgreSQL, SQLite via Relica adapters
//   - Embedded migrations for easy database setup
//   - Cloud native: 12-factor ENV config, health checks, graceful shutdown
//
// # Quick Start
//
// # Option 1: As Embedded Library
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/courier"
//	    "github.com/coregx/courier/adapters/relica"
//	    _ "github.com/go-sql-driver/mysql"
//	)
//
//	db, _ := sql.Open("mysql", "user:pass@tcp(localhost:3306)/courier?parseTime=true")
//	repos := relica.NewRepositories(db, "mysql")
//
//	registry := courier.NewRegistry(
//	    courier.WithRegistryLogger(logger),
//	)
//
//	lifecycle, _ := courier.NewLifecycle(
//	    courier.WithLifecycleRepository(repos.Message),
//	    courier.WithLifecycleRegistry(registry),
//	    courier.WithLifecycleLogger(logger),
//	)
//
// A transport subscribes a live connection and wires its close hook to the
// returned capability:
//
//	unsubscribe, _ := registry.Subscribe("acct-42", uuid.NewString(), sendFn)
//	defer unsubscribe()
//
// State changes go through the lifecycle manager; subscribers attached to the
// sender's and recipient's channels observe them immediately:
//
//	msg, err := lifecycle.Read(ctx, ident, messageID)
//
// # Option 2: As Standalone Server
//
// See cmd/courier-server for the binary exposing the stream, message and
// status endpoints over HTTP.
//
// # Delivery semantics
//
// Delivery is at-most-once per currently-attached subscriber. There is no
// queued delivery for offline subscribers, no ordering across channels and no
// retry for failed client writes; the persisted message store remains the
// authoritative state and clients re-fetch on reconnect.
package courier
