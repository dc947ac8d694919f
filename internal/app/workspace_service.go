package app

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"knowdex/internal/model"
	"knowdex/internal/repository"
)

type WorkspaceService struct {
	workspaceRepo *repository.WorkspaceRepository
	paperRepo     *repository.PaperRepository
	log           zerolog.Logger
}

type CreateWorkspaceInput struct {
	OwnerID     uint
	Name        string
	Description string
}

func NewWorkspaceService(
	workspaceRepo *repository.WorkspaceRepository,
	paperRepo *repository.PaperRepository,
	log zerolog.Logger,
) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo: workspaceRepo,
		paperRepo:     paperRepo,
		log:           log.With().Str("component", "workspace_service").Logger(),
	}
}

func (s *WorkspaceService) Create(ctx context.Context, input CreateWorkspaceInput) (*model.Workspace, error) {
	name := strings.TrimSpace(input.Name)
	if input.OwnerID == 0 || name == "" {
		return nil, ErrInvalidInput
	}
	ws := &model.Workspace{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     input.OwnerID,
	}
	if err := s.workspaceRepo.Create(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (s *WorkspaceService) List(ctx context.Context, ownerID uint) ([]model.Workspace, error) {
	return s.workspaceRepo.ListByOwnerID(ctx, ownerID)
}

func (s *WorkspaceService) Get(ctx context.Context, ownerID, id uint) (*model.Workspace, error) {
	return ownedWorkspace(ctx, s.workspaceRepo, ownerID, id)
}

// Delete removes the workspace with everything it owns. Paper files are removed
// once the rows are gone; a file that cannot be removed is only logged.
func (s *WorkspaceService) Delete(ctx context.Context, ownerID, id uint) error {
	if _, err := ownedWorkspace(ctx, s.workspaceRepo, ownerID, id); err != nil {
		return err
	}
	papers, err := s.paperRepo.ListByWorkspaceID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.workspaceRepo.DeleteCascade(ctx, id); err != nil {
		return err
	}
	for _, p := range papers {
		if err := removeFile(p.FilePath); err != nil {
			s.log.Warn().Err(err).Uint("paper_id", p.ID).Str("path", p.FilePath).Msg("remove paper file failed")
		}
	}
	return nil
}

func ownedWorkspace(ctx context.Context, repo *repository.WorkspaceRepository, ownerID, id uint) (*model.Workspace, error) {
	if ownerID == 0 || id == 0 {
		return nil, ErrWorkspaceNotFound
	}
	ws, err := repo.GetByIDAndOwnerID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, ErrWorkspaceNotFound
	}
	return ws, nil
}

// removeFile deletes path, treating an already missing file as success.
func removeFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
