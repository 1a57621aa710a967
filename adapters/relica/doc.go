// Package relica provides repository implementations using Relica query builder.
//
// Relica (github.com/coregx/relica) is a lightweight, type-safe database query builder
// for Go with zero production dependencies.
//
// This package provides a production-ready implementation of the courier
// MessageRepository interface backed by MySQL, PostgreSQL or SQLite.
//
// Example usage:
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/courier"
//	    "github.com/coregx/courier/adapters/relica"
//	    _ "github.com/go-sql-driver/mysql"
//	)
//
//	// Open database connection
//	db, err := sql.Open("mysql", "user:pass@tcp(localhost:3306)/courier_db?parseTime=true")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create repositories (driverName should be "mysql", "postgres", or "sqlite3")
//	repos := relica.NewRepositories(db, "mysql")
//
//	// Create services
//	lifecycle, err := courier.NewLifecycle(
//	    courier.WithLifecycleRepository(repos.Message),
//	    courier.WithLifecycleRegistry(registry),
//	    courier.WithLifecycleLogger(logger),
//	)
package relica
