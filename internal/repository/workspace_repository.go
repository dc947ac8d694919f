package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"knowdex/internal/model"
)

type WorkspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func (r *WorkspaceRepository) Create(ctx context.Context, ws *model.Workspace) error {
	if err := r.db.WithContext(ctx).Create(ws).Error; err != nil {
		return fmt.Errorf("create workspace failed: %w", err)
	}
	return nil
}

func (r *WorkspaceRepository) ListByOwnerID(ctx context.Context, ownerID uint) ([]model.Workspace, error) {
	list := make([]model.Workspace, 0)
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list workspaces failed: %w", err)
	}
	return list, nil
}

// GetByIDAndOwnerID returns nil when the workspace does not exist or belongs to someone else.
func (r *WorkspaceRepository) GetByIDAndOwnerID(ctx context.Context, id, ownerID uint) (*model.Workspace, error) {
	var ws model.Workspace
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get workspace failed: %w", err)
	}
	return &ws, nil
}

// DeleteCascade removes the workspace together with its papers, chat sessions and
// messages in one transaction.
func (r *WorkspaceRepository) DeleteCascade(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessionIDs := tx.Model(&model.ChatSession{}).Select("id").Where("workspace_id = ?", id)
		if err := tx.Where("session_id IN (?)", sessionIDs).Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&model.ChatSession{}).Error; err != nil {
			return fmt.Errorf("delete chat sessions: %w", err)
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&model.Paper{}).Error; err != nil {
			return fmt.Errorf("delete papers: %w", err)
		}
		if err := tx.Delete(&model.Workspace{}, id).Error; err != nil {
			return fmt.Errorf("delete workspace: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete workspace failed: %w", err)
	}
	return nil
}
