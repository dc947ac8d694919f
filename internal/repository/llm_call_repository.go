package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"knowdex/internal/model"
)

type LLMCallRepository struct {
	db *gorm.DB
}

func NewLLMCallRepository(db *gorm.DB) *LLMCallRepository {
	return &LLMCallRepository{db: db}
}

// Insert is idempotent on the call id so a redelivered audit event is a no-op.
func (r *LLMCallRepository) Insert(ctx context.Context, call *model.LLMCall) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(call).Error; err != nil {
		return fmt.Errorf("insert llm call failed: %w", err)
	}
	return nil
}

func (r *LLMCallRepository) ListBySessionID(ctx context.Context, sessionID uint) ([]model.LLMCall, error) {
	calls := make([]model.LLMCall, 0)
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at ASC").Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("list llm calls failed: %w", err)
	}
	return calls, nil
}
