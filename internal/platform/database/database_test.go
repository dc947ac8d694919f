package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowdex/internal/model"
)

func TestNewSQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "knowdex.db")

	db, err := New(context.Background(), "sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))
	for _, table := range []string{"users", "workspaces", "papers", "chat_sessions", "messages", "llm_calls"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasColumn(&model.Paper{}, "full_text"))
}

func TestNewUnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), "oracle", "whatever")
	require.Error(t, err)
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)", withForeignKeys("a.db"))
	assert.Equal(t, "a.db?mode=rwc&_pragma=foreign_keys(1)", withForeignKeys("a.db?mode=rwc"))
}
