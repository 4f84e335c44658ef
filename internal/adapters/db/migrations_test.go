package db_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/greencycle-be/internal/adapters/db"
	"github.com/ammerola/greencycle-be/test/helpers"
)

func TestAppliedMigrations(t *testing.T) {
	query := regexp.QuoteMeta("SELECT version, dirty FROM public.schema_migrations ORDER BY version ASC")

	t.Run("reads_rows", func(t *testing.T) {
		mock, conn := helpers.SetupMockDB(t)
		mock.ExpectQuery(query).WillReturnRows(
			sqlmock.NewRows([]string{"version", "dirty"}).AddRow(1, false).AddRow(2, true),
		)

		applied, err := db.AppliedMigrations(context.Background(), conn, "public", "schema_migrations")
		require.NoError(t, err)

		assert.Equal(t, []db.AppliedMigration{{Version: 1}, {Version: 2, Dirty: true}}, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty_table", func(t *testing.T) {
		mock, conn := helpers.SetupMockDB(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"version", "dirty"}))

		applied, err := db.AppliedMigrations(context.Background(), conn, "public", "schema_migrations")
		require.NoError(t, err)
		assert.Empty(t, applied)
	})

	t.Run("query_error", func(t *testing.T) {
		mock, conn := helpers.SetupMockDB(t)
		mock.ExpectQuery(query).WillReturnError(errors.New("relation does not exist"))

		_, err := db.AppliedMigrations(context.Background(), conn, "public", "schema_migrations")
		assert.ErrorContains(t, err, "failed to query migrations")
	})
}
