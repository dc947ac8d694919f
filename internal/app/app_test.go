package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"knowdex/internal/ai"
	"knowdex/internal/model"
	"knowdex/internal/repository"
	"knowdex/internal/testutil"
)

type stubProvider struct {
	name  string
	reply string
	err   error

	mu      sync.Mutex
	prompts []string
	ctxs    []string
}

func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) Model() string { return p.name + "-model" }

func (p *stubProvider) Generate(_ context.Context, prompt, paperContext string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	p.ctxs = append(p.ctxs, paperContext)
	return p.reply, p.err
}

type memoryCache struct {
	lists       map[uint][]model.Message
	invalidated []uint
	failGet     bool
}

func newMemoryCache() *memoryCache { return &memoryCache{lists: map[uint][]model.Message{}} }

func (c *memoryCache) Get(_ context.Context, id uint) ([]model.Message, bool, error) {
	if c.failGet {
		return nil, false, errors.New("redis down")
	}
	m, ok := c.lists[id]
	return m, ok, nil
}

func (c *memoryCache) Set(_ context.Context, id uint, m []model.Message) error {
	c.lists[id] = m
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, id uint) error {
	delete(c.lists, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type recordingAudit struct {
	calls []model.LLMCall
}

func (a *recordingAudit) Publish(_ context.Context, call model.LLMCall) error {
	a.calls = append(a.calls, call)
	return nil
}

type fixture struct {
	db     *gorm.DB
	groq   *stubProvider
	gemini *stubProvider
	cache  *memoryCache
	audit  *recordingAudit
	chat   *ChatService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:     db,
		groq:   &stubProvider{name: ai.ProviderGroq, reply: "groq says hi"},
		gemini: &stubProvider{name: ai.ProviderGemini, reply: "gemini says hi"},
		cache:  newMemoryCache(),
		audit:  &recordingAudit{},
	}
	f.chat = NewChatService(ChatDeps{
		Workspaces:   repository.NewWorkspaceRepository(db),
		Papers:       repository.NewPaperRepository(db),
		Sessions:     repository.NewSessionRepository(db),
		Messages:     repository.NewMessageRepository(db),
		Providers:    ai.NewRegistry(ai.ProviderGroq, f.groq, f.gemini),
		HistoryCache: f.cache,
		Audit:        f.audit,
	}, zerolog.Nop())
	return f
}
