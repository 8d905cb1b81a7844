package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sdmtech/sdmcrm/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{"mysql untouched", DialectMySQL, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", DialectPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"postgres skips literals", DialectPostgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{"no placeholders", DialectPostgres, "SELECT 1", "SELECT 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Rebind(tc.dialect, tc.in))
		})
	}
}

func TestWithTransaction_Commit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	conn := New(db, DialectMySQL)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tasks").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = conn.WithTransaction(context.Background(), func(ctx context.Context) error {
		_, err := conn.Conn(ctx).ExecContext(ctx, "UPDATE tasks SET status = ? WHERE id = ?", "approved", "t1")
		return err
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	conn := New(db, DialectMySQL)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = conn.WithTransaction(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	conn := New(db, DialectMySQL)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err = conn.WithTransaction(context.Background(), func(ctx context.Context) error {
		return conn.WithTransaction(ctx, func(ctx context.Context) error { return nil })
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaStatements(t *testing.T) {
	mysqlStmts, err := SchemaStatements(DialectMySQL)
	require.NoError(t, err)
	require.Len(t, mysqlStmts, len(constants.AllTables))
	assert.Contains(t, mysqlStmts[0], "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, mysqlStmts[0], "DATETIME(6)")
	assert.Contains(t, mysqlStmts[0], "ENGINE=InnoDB")

	pgStmts, err := SchemaStatements(DialectPostgres)
	require.NoError(t, err)
	for _, stmt := range pgStmts {
		assert.NotContains(t, stmt, "{{")
		assert.NotContains(t, stmt, "ENGINE")
	}
	assert.Contains(t, pgStmts[0], "TIMESTAMPTZ")

	_, err = SchemaStatements("oracle")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range constants.AllTables {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, New(db, DialectMySQL).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
