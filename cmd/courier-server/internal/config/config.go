// Package config provides configuration management for the courier standalone
// server. Settings come from the environment (optionally seeded from a .env
// file), following 12-factor app principles.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// App holds all configuration for the courier server.
type App struct {
	// Server
	ServerHost string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ServerPort int    `envconfig:"SERVER_PORT" default:"8080"`

	// Database
	DBDriver   string `envconfig:"DB_DRIVER" default:"mysql"` // mysql, postgres, sqlite3
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"3306"`
	DBUser     string `envconfig:"DB_USER" default:"courier"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"courier"`
	DBPrefix   string `envconfig:"DB_PREFIX" default:"courier_"`

	// JWT
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Stream
	StreamBuffer int `envconfig:"STREAM_BUFFER" default:"16"` // per-connection send queue
}

// Load loads configuration from the environment. A .env file in the working
// directory is read first when present.
func Load() (App, error) {
	_ = godotenv.Load(".env")

	var c App
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	if c.DBDriver != "sqlite3" && c.DBPassword == "" {
		return c, fmt.Errorf("DB_PASSWORD environment variable is required for driver %s", c.DBDriver)
	}
	return c, nil
}

// Addr returns the HTTP listen address.
func (c App) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// DSN returns the database connection string based on driver.
func (c App) DSN() string {
	switch strings.ToLower(c.DBDriver) {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	case "sqlite3":
		return c.DBName // SQLite uses the file path as DSN
	default:
		return ""
	}
}
