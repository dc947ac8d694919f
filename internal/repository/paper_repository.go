package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"knowdex/internal/model"
)

type PaperRepository struct {
	db *gorm.DB
}

func NewPaperRepository(db *gorm.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

func (r *PaperRepository) Create(ctx context.Context, paper *model.Paper) error {
	if err := r.db.WithContext(ctx).Create(paper).Error; err != nil {
		return fmt.Errorf("create paper failed: %w", err)
	}
	return nil
}

func (r *PaperRepository) GetByID(ctx context.Context, id uint) (*model.Paper, error) {
	var paper model.Paper
	if err := r.db.WithContext(ctx).First(&paper, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get paper failed: %w", err)
	}
	return &paper, nil
}

func (r *PaperRepository) ListByWorkspaceID(ctx context.Context, workspaceID uint) ([]model.Paper, error) {
	list := make([]model.Paper, 0)
	if err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Order("created_at ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list papers failed: %w", err)
	}
	return list, nil
}

func (r *PaperRepository) DeleteByID(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Paper{}, id).Error; err != nil {
		return fmt.Errorf("delete paper failed: %w", err)
	}
	return nil
}
