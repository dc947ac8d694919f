package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"knowdex/internal/ai"
	"knowdex/internal/model"
	"knowdex/internal/repository"
)

type ChatService struct {
	workspaceRepo *repository.WorkspaceRepository
	paperRepo     *repository.PaperRepository
	sessionRepo   *repository.SessionRepository
	messageRepo   *repository.MessageRepository
	providers     ProviderResolver
	historyCache  HistoryCache
	audit         AuditPublisher
	log           zerolog.Logger
}

type ProviderResolver interface {
	Resolve(name string) ai.Provider
}

type HistoryCache interface {
	Get(ctx context.Context, sessionID uint) ([]model.Message, bool, error)
	Set(ctx context.Context, sessionID uint, messages []model.Message) error
	Invalidate(ctx context.Context, sessionID uint) error
}

type AuditPublisher interface {
	Publish(ctx context.Context, call model.LLMCall) error
}

type ChatDeps struct {
	Workspaces *repository.WorkspaceRepository
	Papers     *repository.PaperRepository
	Sessions   *repository.SessionRepository
	Messages   *repository.MessageRepository
	Providers  ProviderResolver
	// HistoryCache and Audit are optional; leave them nil to disable.
	HistoryCache HistoryCache
	Audit        AuditPublisher
}

type SendMessageInput struct {
	OwnerID     uint
	WorkspaceID uint
	// SessionID 0 starts a new session.
	SessionID uint
	Message   string
	Model     string
}

func NewChatService(deps ChatDeps, log zerolog.Logger) *ChatService {
	return &ChatService{
		workspaceRepo: deps.Workspaces,
		paperRepo:     deps.Papers,
		sessionRepo:   deps.Sessions,
		messageRepo:   deps.Messages,
		providers:     deps.Providers,
		historyCache:  deps.HistoryCache,
		audit:         deps.Audit,
		log:           log.With().Str("component", "chat_service").Logger(),
	}
}

func (s *ChatService) CreateSession(ctx context.Context, ownerID, workspaceID uint, title string) (*model.ChatSession, error) {
	if _, err := ownedWorkspace(ctx, s.workspaceRepo, ownerID, workspaceID); err != nil {
		return nil, err
	}
	return s.newSession(ctx, workspaceID, title)
}

func (s *ChatService) ListSessions(ctx context.Context, ownerID, workspaceID uint) ([]model.ChatSession, error) {
	if _, err := ownedWorkspace(ctx, s.workspaceRepo, ownerID, workspaceID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListByWorkspaceID(ctx, workspaceID)
}

func (s *ChatService) GetMessages(ctx context.Context, ownerID, sessionID uint) ([]model.Message, error) {
	session, err := s.sessionRepo.GetByIDAndOwnerID(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.historyCache != nil {
		cached, hit, err := s.historyCache.Get(ctx, sessionID)
		if err != nil {
			s.log.Warn().Err(err).Uint("session_id", sessionID).Msg("read history cache failed")
		} else if hit {
			return cached, nil
		}
	}

	messages, err := s.messageRepo.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if err := s.historyCache.Set(ctx, sessionID, messages); err != nil {
			s.log.Warn().Err(err).Uint("session_id", sessionID).Msg("write history cache failed")
		}
	}
	return messages, nil
}

// Send appends the user's message, asks the selected provider and appends its
// reply. A provider failure leaves the user message in place.
func (s *ChatService) Send(ctx context.Context, input SendMessageInput) (*model.Message, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, ErrMessageEmpty
	}
	if _, err := ownedWorkspace(ctx, s.workspaceRepo, input.OwnerID, input.WorkspaceID); err != nil {
		return nil, err
	}

	papers, err := s.paperRepo.ListByWorkspaceID(ctx, input.WorkspaceID)
	if err != nil {
		return nil, err
	}
	paperContext := BuildPaperContext(papers)

	sessionID, err := s.resolveSession(ctx, input.WorkspaceID, input.SessionID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, sessionID)
	userMessage := &model.Message{SessionID: sessionID, Role: model.RoleUser, Content: input.Message}
	if err := s.messageRepo.Create(ctx, userMessage); err != nil {
		return nil, err
	}

	provider := s.providers.Resolve(input.Model)
	start := time.Now()
	reply, genErr := provider.Generate(ctx, input.Message, paperContext)
	s.publishAudit(ctx, input.WorkspaceID, sessionID, provider, time.Since(start), genErr)
	if genErr != nil {
		s.log.Error().Err(genErr).Str("provider", provider.Name()).Uint("session_id", sessionID).Msg("provider call failed")
		return nil, fmt.Errorf("%w: %v", ErrAIService, genErr)
	}

	assistantMessage := &model.Message{SessionID: sessionID, Role: model.RoleAssistant, Content: reply}
	if err := s.messageRepo.Create(ctx, assistantMessage); err != nil {
		return nil, err
	}
	s.invalidate(ctx, sessionID)
	return assistantMessage, nil
}

func (s *ChatService) resolveSession(ctx context.Context, workspaceID, sessionID uint) (uint, error) {
	if sessionID == 0 {
		session, err := s.newSession(ctx, workspaceID, "")
		if err != nil {
			return 0, err
		}
		return session.ID, nil
	}
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if session == nil || session.WorkspaceID != workspaceID {
		return 0, ErrSessionNotFound
	}
	return session.ID, nil
}

func (s *ChatService) newSession(ctx context.Context, workspaceID uint, title string) (*model.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.DefaultSessionTitle
	}
	session := &model.ChatSession{Title: title, WorkspaceID: workspaceID}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) invalidate(ctx context.Context, sessionID uint) {
	if s.historyCache == nil {
		return
	}
	if err := s.historyCache.Invalidate(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Uint("session_id", sessionID).Msg("invalidate history cache failed")
	}
}

func (s *ChatService) publishAudit(ctx context.Context, workspaceID, sessionID uint, p ai.Provider, latency time.Duration, genErr error) {
	if s.audit == nil {
		return
	}
	call := model.LLMCall{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		SessionID:   sessionID,
		Provider:    p.Name(),
		Model:       p.Model(),
		Status:      model.LLMCallOK,
		LatencyMS:   latency.Milliseconds(),
		CreatedAt:   time.Now(),
	}
	if genErr != nil {
		call.Status = model.LLMCallError
		call.ErrorType = string(ai.ClassifyError(genErr))
	}
	if err := s.audit.Publish(context.WithoutCancel(ctx), call); err != nil {
		s.log.Warn().Err(err).Str("call_id", call.ID).Msg("publish llm audit event failed")
	}
}
