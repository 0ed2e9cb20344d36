package workflow

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
)

// Manager owns the live orchestrators, one per host-side conversation key
// (a chat ID for the bot, a fixed key for the terminal client). Sessions
// are independent; the only shared resource is the model service, which is
// safe for concurrent calls.
type Manager struct {
	mu      sync.Mutex
	active  map[string]*Orchestrator
	router  Router
	steps   Steps
	retry   RetryPolicy
	store   SessionStore
	logCap  int
	logger  *zap.Logger
}

// NewManager creates the manager. logCap bounds each session's conversation
// log; zero falls back to the entities default.
func NewManager(router Router, steps Steps, retry RetryPolicy, store SessionStore, logCap int, logger *zap.Logger) *Manager {
	if logCap <= 0 {
		logCap = entities.DefaultLogCap
	}
	return &Manager{
		active: make(map[string]*Orchestrator),
		router: router,
		steps:  steps,
		retry:  retry,
		store:  store,
		logCap: logCap,
		logger: logger,
	}
}

// SubmitTurn routes one turn to the conversation's orchestrator, creating a
// fresh session on first contact and dropping the orchestrator once the
// session ends. A turn arriving after the end starts a new session.
func (m *Manager) SubmitTurn(ctx context.Context, key, raw string) (TurnResult, error) {
	o := m.orchestrator(key)

	res, err := o.SubmitTurn(ctx, raw)
	if errors.Is(err, ErrSessionEnded) {
		// Stale orchestrator; replace it and retry once.
		m.drop(key, o)
		o = m.orchestrator(key)
		res, err = o.SubmitTurn(ctx, raw)
	}

	if res.Terminal {
		m.drop(key, o)
	}
	return res, err
}

// Sessions returns the number of live sessions.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *Manager) orchestrator(key string) *Orchestrator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o, ok := m.active[key]; ok {
		return o
	}

	s := entities.NewSession(m.logCap)
	o := NewOrchestrator(s, m.router, m.steps, m.retry, m.store, m.logger)
	m.active[key] = o

	m.logger.Info("session started",
		zap.String("conversation_key", key),
		zap.String("session_id", s.SessionID),
	)
	return o
}

func (m *Manager) drop(key string, o *Orchestrator) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.active[key]; ok && cur == o {
		delete(m.active, key)
		m.logger.Info("session ended",
			zap.String("conversation_key", key),
			zap.String("session_id", o.Session().SessionID),
		)
	}
}
