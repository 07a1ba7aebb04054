package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

var ErrEmptyPrompt = errors.New("prompt is empty")

const defaultHistoryLimit = 20

type MessageStore interface {
	CreateThread(ctx context.Context, userID string) (string, error)
	Owner(ctx context.Context, threadID string) (string, error)
	SaveMessage(ctx context.Context, threadID, userID, role, content string) (models.ThreadMessage, error)
	RecentMessages(ctx context.Context, threadID string, limit int) ([]models.ThreadMessage, error)
	ListMessages(ctx context.Context, threadID, cursor string, limit int) (models.ThreadMessagePage, error)
}

type Completer interface {
	Complete(ctx context.Context, instructions string, history []models.ThreadMessage) (string, error)
}

// Grounder rewrites a prompt with context drawn from visible records.
type Grounder interface {
	EnhancePrompt(ctx context.Context, query string, visible []models.Vcon) (string, error)
}

// VisibleSource reports the records currently drawn as bubbles.
type VisibleSource interface {
	Visible(ctx context.Context) ([]models.Vcon, error)
}

// ThreadService runs LLM-backed chat threads. Replies are stored in the
// thread and read back through ListMessages.
type ThreadService struct {
	store        MessageStore
	llm          Completer
	instructions string
	historyLimit int
	logger       *zap.Logger

	grounder Grounder
	visible  VisibleSource
}

func NewThreadService(store MessageStore, llm Completer, instructions string, historyLimit int, logger *zap.Logger) *ThreadService {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &ThreadService{
		store:        store,
		llm:          llm,
		instructions: instructions,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// WithGrounding makes SendMessage prepend a digest of the visible records to
// the prompt sent to the model. The stored message keeps the typed text.
func (s *ThreadService) WithGrounding(g Grounder, src VisibleSource) *ThreadService {
	s.grounder = g
	s.visible = src
	return s
}

func (s *ThreadService) CreateThread(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is empty")
	}
	return s.store.CreateThread(ctx, userID)
}

// SendMessage stores prompt, asks the model with the thread's recent history
// and stores the reply.
func (s *ThreadService) SendMessage(ctx context.Context, threadID, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}
	userID, err := s.store.Owner(ctx, threadID)
	if err != nil {
		return err
	}

	if _, err := s.store.SaveMessage(ctx, threadID, userID, models.RoleUser, prompt); err != nil {
		return fmt.Errorf("failed to save user message: %w", err)
	}

	history, err := s.store.RecentMessages(ctx, threadID, s.historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(history) == 0 {
		history = []models.ThreadMessage{{ThreadID: threadID, UserID: userID, Role: models.RoleUser, Content: prompt}}
	}
	s.ground(ctx, history)

	reply, err := s.llm.Complete(ctx, s.instructions, history)
	if err != nil {
		return err
	}
	if _, err := s.store.SaveMessage(ctx, threadID, userID, models.RoleAssistant, reply); err != nil {
		return fmt.Errorf("failed to save assistant reply: %w", err)
	}
	return nil
}

// ground rewrites the last user message of history in place.
func (s *ThreadService) ground(ctx context.Context, history []models.ThreadMessage) {
	if s.grounder == nil || s.visible == nil {
		return
	}
	last := len(history) - 1
	if history[last].Role != models.RoleUser {
		return
	}
	visible, err := s.visible.Visible(ctx)
	if err != nil {
		s.logger.Warn("grounding skipped", zap.Error(err))
		return
	}
	enhanced, err := s.grounder.EnhancePrompt(ctx, history[last].Content, visible)
	if err != nil {
		s.logger.Warn("grounding incomplete", zap.Error(err))
	}
	if enhanced != "" {
		history[last].Content = enhanced
	}
}

func (s *ThreadService) ListMessages(ctx context.Context, threadID, cursor string, limit int) (models.ThreadMessagePage, error) {
	if _, err := s.store.Owner(ctx, threadID); err != nil {
		return models.ThreadMessagePage{}, err
	}
	return s.store.ListMessages(ctx, threadID, cursor, limit)
}
