package database

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/sdmtech/sdmcrm/internal/config"
)

// Dialect identifies the SQL flavour of the connected server.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// Executor is the query surface shared by *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// txContextKey is the key for storing a transaction in context
type txContextKey struct{}

// Connection wraps the pooled *sql.DB.
// Note: sql.DB is already thread-safe and manages its own connection pool,
// so no extra locking is layered on top.
type Connection struct {
	db      *sql.DB
	dialect Dialect
}

var tlsOnce sync.Once

// New wraps an existing *sql.DB (used by tests with sqlmock).
func New(db *sql.DB, dialect Dialect) *Connection {
	return &Connection{db: db, dialect: dialect}
}

// Open connects using the configured driver and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Connection, error) {
	var (
		driverName string
		dsn        string
		dialect    Dialect
	)

	switch cfg.Driver {
	case "postgres":
		driverName, dialect = "pgx", DialectPostgres
		dsn = cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=prefer",
				cfg.User, cfg.Password, net.JoinHostPort(cfg.Host, cfg.Port), cfg.Name)
		}
	default:
		driverName, dialect = "mysql", DialectMySQL
		dsn = cfg.DSN
		if dsn == "" {
			dsn = mysqlDSN(cfg)
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// MaxIdleConns matches MaxOpenConns so connections are not churned under load.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db, dialect: dialect}, nil
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}

	// Remote hosts (e.g. TiDB Cloud) require TLS with the server name set.
	if cfg.Host != "" && cfg.Host != "127.0.0.1" && cfg.Host != "localhost" {
		tlsOnce.Do(func() {
			_ = mysql.RegisterTLSConfig("sdmcrm", &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: cfg.Host,
			})
		})
		mc.TLSConfig = "sdmcrm"
	}
	return mc.FormatDSN()
}

// Dialect returns the SQL dialect of the connection.
func (c *Connection) Dialect() Dialect {
	return c.dialect
}

// DB returns the underlying *sql.DB connection
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.db.Close()
}

// Ping verifies the database is reachable.
func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Conn returns the executor for ctx: the transaction started by
// WithTransaction when one is active, the pool otherwise. Queries are
// written with '?' placeholders and rebound for the dialect.
func (c *Connection) Conn(ctx context.Context) Executor {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return &rebinder{ex: tx, dialect: c.dialect}
	}
	return &rebinder{ex: c.db, dialect: c.dialect}
}

// WithTransaction executes fn within a database transaction carried in ctx.
// The transaction is rolled back if fn returns an error or panics and
// committed otherwise. Nested calls join the outer transaction.
func (c *Connection) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback error: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type rebinder struct {
	ex      Executor
	dialect Dialect
}

func (r *rebinder) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return r.ex.ExecContext(ctx, Rebind(r.dialect, query), args...)
}

func (r *rebinder) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return r.ex.QueryContext(ctx, Rebind(r.dialect, query), args...)
}

func (r *rebinder) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.ex.QueryRowContext(ctx, Rebind(r.dialect, query), args...)
}

// Rebind converts '?' placeholders to the dialect's form. Question marks
// inside single-quoted literals are left alone.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			fmt.Fprintf(&b, "$%d", n)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
