// Package database stores the rotation history in PostgreSQL.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	// dbConnectionTimeout is the timeout for database connection test
	dbConnectionTimeout = 5 * time.Second

	defaultPort         = 5432
	defaultSSLMode      = "disable"
	defaultMaxOpenConns = 5
	defaultMaxIdleConns = 2
	defaultConnLifetime = 5 * time.Minute
)

// Config holds database configuration
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string //nolint:gosec // DB connection config
	Database        string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SetDefaults fills unset pool and connection settings.
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.SSLMode == "" {
		c.SSLMode = defaultSSLMode
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = defaultMaxOpenConns
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = defaultConnLifetime
	}
}

// DSN returns the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Connection wraps the database connection
type Connection struct {
	DB *sqlx.DB
}

// New wraps an already opened database handle.
func New(db *sqlx.DB) *Connection {
	return &Connection{DB: db}
}

// NewConnection opens a PostgreSQL connection and pings it.
func NewConnection(ctx context.Context, cfg Config) (*Connection, error) {
	cfg.SetDefaults()

	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, dbConnectionTimeout)
	defer cancel()
	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return &Connection{DB: db}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}
