package persistence

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationNames_Bundled(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	require.Equal(t, "001_init.sql", names[0])

	content, err := migrationFiles.ReadFile("migrations/" + names[0])
	require.NoError(t, err)
	for _, table := range []string{"orders", "order_items", "quotes", "quote_items", "tickets", "ticket_messages", "status_audit", "accounts"} {
		require.True(t, strings.Contains(string(content), "CREATE TABLE IF NOT EXISTS "+table+" "), table)
	}
}

func TestRunMigrations_NilPool(t *testing.T) {
	require.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}

func TestInitMigration_TotalsKeepItemProductScale(t *testing.T) {
	content, err := migrationFiles.ReadFile("migrations/001_init.sql")
	require.NoError(t, err)
	sql := string(content)

	require.Equal(t, 2, strings.Count(sql, "total_amount"))
	require.Contains(t, sql, "total_amount            NUMERIC(38, 8) NOT NULL")
	require.Contains(t, sql, "total_amount NUMERIC(38, 8),")
	require.Equal(t, 4, strings.Count(sql, "NUMERIC(18, 4)"))
}
