package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/sdmtech/sdmcrm/pkg/constants"
)

// Column type placeholders expanded per dialect.
var dialectTypes = map[Dialect]*strings.Replacer{
	DialectMySQL: strings.NewReplacer(
		"{{ts}}", "DATETIME(6)",
		"{{json}}", "JSON",
		"{{int}}", "INT",
		"{{suffix}}", " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	),
	DialectPostgres: strings.NewReplacer(
		"{{ts}}", "TIMESTAMPTZ",
		"{{json}}", "JSONB",
		"{{int}}", "INTEGER",
		"{{suffix}}", "",
	),
}

// tableDDL holds CREATE TABLE bodies keyed by table name, in dependency order
// of constants.AllTables.
var tableDDL = map[string]string{
	constants.TableUser: `
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at {{ts}} NOT NULL,
		last_sign_in_at {{ts}} NULL`,
	constants.TableSession: `
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		expires_at {{ts}} NOT NULL,
		is_revoked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}} NOT NULL,
		last_activity {{ts}} NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE`,
	constants.TableProfile: `
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL UNIQUE,
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(64) NULL,
		department VARCHAR(255) NULL,
		position VARCHAR(255) NULL,
		avatar_url TEXT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE`,
	constants.TableUserRole: `
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL UNIQUE,
		role VARCHAR(32) NOT NULL,
		created_at {{ts}} NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE`,
	constants.TableTask: `
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NULL,
		assigned_to VARCHAR(36) NULL,
		assigned_by VARCHAR(36) NULL,
		priority VARCHAR(16) NOT NULL DEFAULT 'medium',
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		deadline {{ts}} NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		FOREIGN KEY (assigned_to) REFERENCES users(id) ON DELETE SET NULL,
		FOREIGN KEY (assigned_by) REFERENCES users(id) ON DELETE SET NULL`,
	constants.TableTaskSubmission: `
		id VARCHAR(36) PRIMARY KEY,
		task_id VARCHAR(36) NOT NULL,
		submitted_by VARCHAR(36) NOT NULL,
		external_link TEXT NULL,
		file_url TEXT NULL,
		comments TEXT NULL,
		review_status VARCHAR(32) NOT NULL DEFAULT 'pending',
		review_comments TEXT NULL,
		reviewed_by VARCHAR(36) NULL,
		reviewed_at {{ts}} NULL,
		submitted_at {{ts}} NOT NULL,
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE,
		FOREIGN KEY (submitted_by) REFERENCES users(id) ON DELETE CASCADE`,
	constants.TableJob: `
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		department VARCHAR(255) NOT NULL,
		location VARCHAR(255) NOT NULL,
		type VARCHAR(64) NOT NULL DEFAULT 'Full-time',
		description TEXT NULL,
		requirements {{json}} NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL`,
	constants.TableJobApplication: `
		id VARCHAR(36) PRIMARY KEY,
		job_id VARCHAR(36) NOT NULL,
		user_id VARCHAR(36) NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(64) NULL,
		resume_url TEXT NULL,
		cover_letter TEXT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		reviewed_by VARCHAR(36) NULL,
		reviewed_at {{ts}} NULL,
		applied_at {{ts}} NOT NULL,
		FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE`,
	constants.TableService: `
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		icon VARCHAR(64) NOT NULL,
		display_order {{int}} NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL`,
	constants.TableTestimonial: `
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		role VARCHAR(255) NOT NULL,
		company VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		rating {{int}} NOT NULL DEFAULT 5,
		avatar_url TEXT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL`,
	constants.TableContactSubmission: `
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		subject VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}} NOT NULL`,
	constants.TableWebsiteContent: `
		id VARCHAR(36) PRIMARY KEY,
		section_key VARCHAR(100) NOT NULL UNIQUE,
		title VARCHAR(255) NULL,
		content TEXT NULL,
		metadata {{json}} NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL`,
	constants.TableNotification: `
		id VARCHAR(36) PRIMARY KEY,
		recipient_id VARCHAR(36) NOT NULL,
		title VARCHAR(255) NOT NULL,
		body TEXT NOT NULL,
		link VARCHAR(512) NOT NULL,
		notification_type VARCHAR(64) NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}} NOT NULL,
		FOREIGN KEY (recipient_id) REFERENCES users(id) ON DELETE CASCADE`,
	constants.TableStoredFile: `
		id VARCHAR(36) PRIMARY KEY,
		bucket VARCHAR(64) NOT NULL,
		path VARCHAR(512) NOT NULL,
		owner_id VARCHAR(36) NULL,
		content_type VARCHAR(255) NOT NULL,
		size_bytes BIGINT NOT NULL,
		created_at {{ts}} NOT NULL,
		UNIQUE (bucket, path)`,
}

// SchemaStatements returns the CREATE TABLE statements for dialect.
func SchemaStatements(dialect Dialect) ([]string, error) {
	r, ok := dialectTypes[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	stmts := make([]string, 0, len(constants.AllTables))
	for _, table := range constants.AllTables {
		body, ok := tableDDL[table]
		if !ok {
			return nil, fmt.Errorf("no DDL for table %s", table)
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s\n){{suffix}}", table, body)
		stmts = append(stmts, r.Replace(stmt))
	}
	return stmts, nil
}

// Migrate creates any missing tables. It is idempotent.
func (c *Connection) Migrate(ctx context.Context) error {
	stmts, err := SchemaStatements(c.dialect)
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", constants.AllTables[i], err)
		}
	}
	return nil
}
