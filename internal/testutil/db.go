// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"knowdex/internal/model"
	"knowdex/internal/platform/database"
)

// NewDB returns a migrated sqlite database living in the test's temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(context.Background(), "sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, FullName: email, PasswordHash: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func CreateWorkspace(t *testing.T, db *gorm.DB, ownerID uint, name string) *model.Workspace {
	t.Helper()
	ws := &model.Workspace{Name: name, OwnerID: ownerID}
	if err := db.Create(ws).Error; err != nil {
		t.Fatalf("create workspace %s: %v", name, err)
	}
	return ws
}

func CreatePaper(t *testing.T, db *gorm.DB, paper *model.Paper) *model.Paper {
	t.Helper()
	if err := db.Create(paper).Error; err != nil {
		t.Fatalf("create paper %s: %v", paper.Title, err)
	}
	return paper
}
