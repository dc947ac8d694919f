package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"knowdex/internal/model"
	"knowdex/internal/pkg/pdfextract"
	"knowdex/internal/repository"
)

type PaperService struct {
	workspaceRepo *repository.WorkspaceRepository
	paperRepo     *repository.PaperRepository
	uploadDir     string
	maxBytes      int64
	extract       func(path string) (string, error)
	log           zerolog.Logger
}

type UploadPaperInput struct {
	OwnerID     uint
	WorkspaceID uint
	Title       string
	Authors     string
	Abstract    string
	SourceURL   string
	FileName    string
	File        io.Reader
}

func NewPaperService(
	workspaceRepo *repository.WorkspaceRepository,
	paperRepo *repository.PaperRepository,
	uploadDir string,
	maxBytes int64,
	log zerolog.Logger,
) *PaperService {
	return &PaperService{
		workspaceRepo: workspaceRepo,
		paperRepo:     paperRepo,
		uploadDir:     uploadDir,
		maxBytes:      maxBytes,
		extract:       pdfextract.ExtractFile,
		log:           log.With().Str("component", "paper_service").Logger(),
	}
}

// Upload stores the file as <upload_dir>/<workspace_id>_<name> and records the
// paper. Text extraction is best effort: a file that cannot be parsed still
// produces a paper, with empty full text. A name already stored in the
// workspace is refused so each paper owns its file exclusively.
func (s *PaperService) Upload(ctx context.Context, input UploadPaperInput) (*model.Paper, error) {
	title := strings.TrimSpace(input.Title)
	name := baseName(input.FileName)
	if title == "" || name == "" || input.File == nil {
		return nil, ErrInvalidInput
	}
	if _, err := ownedWorkspace(ctx, s.workspaceRepo, input.OwnerID, input.WorkspaceID); err != nil {
		return nil, err
	}

	path := filepath.Join(s.uploadDir, strconv.FormatUint(uint64(input.WorkspaceID), 10)+"_"+name)
	if err := s.store(path, input.File); err != nil {
		return nil, err
	}

	fullText, err := s.extract(path)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("extract paper text failed")
		fullText = ""
	}

	paper := &model.Paper{
		Title:       title,
		Authors:     strings.TrimSpace(input.Authors),
		Abstract:    strings.TrimSpace(input.Abstract),
		FullText:    fullText,
		SourceURL:   strings.TrimSpace(input.SourceURL),
		FilePath:    path,
		WorkspaceID: input.WorkspaceID,
	}
	if err := s.paperRepo.Create(ctx, paper); err != nil {
		if rmErr := removeFile(path); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("path", path).Msg("remove orphan upload failed")
		}
		return nil, err
	}
	return paper, nil
}

func (s *PaperService) List(ctx context.Context, ownerID, workspaceID uint) ([]model.Paper, error) {
	if _, err := ownedWorkspace(ctx, s.workspaceRepo, ownerID, workspaceID); err != nil {
		return nil, err
	}
	return s.paperRepo.ListByWorkspaceID(ctx, workspaceID)
}

// Delete distinguishes a missing paper (not found) from one that lives in
// somebody else's workspace (forbidden).
func (s *PaperService) Delete(ctx context.Context, ownerID, paperID uint) error {
	paper, err := s.paperRepo.GetByID(ctx, paperID)
	if err != nil {
		return err
	}
	if paper == nil {
		return ErrPaperNotFound
	}
	ws, err := s.workspaceRepo.GetByIDAndOwnerID(ctx, paper.WorkspaceID, ownerID)
	if err != nil {
		return err
	}
	if ws == nil {
		return ErrForbidden
	}
	if err := removeFile(paper.FilePath); err != nil {
		return fmt.Errorf("remove paper file failed: %w", err)
	}
	return s.paperRepo.DeleteByID(ctx, paper.ID)
}

func (s *PaperService) store(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create upload dir failed: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: file %s already exists in this workspace", ErrInvalidInput, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("create upload file failed: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrFileTooLarge) {
			return err
		}
		return fmt.Errorf("write upload file failed: %w", err)
	}
	return nil
}

// baseName strips any client supplied directory part, either separator style.
func baseName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "." || name == ".." {
		return ""
	}
	return name
}
