// Package session holds the live message list of the active conversation.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"leona-console/internal/domain"
)

// Greeting is the seed message every fresh conversation starts with.
const Greeting = "Hello! I'm LEONA, your satellite data intelligence assistant. " +
	"Describe a place and a question (forest loss, urban heat, crop irrigation) and I'll find the right analysis."

// Origin records which initialization path produced the store's messages.
type Origin int

const (
	OriginSeed Origin = iota
	OriginCarried
	OriginCache
	OriginRestored
)

func (o Origin) String() string {
	switch o {
	case OriginRestored:
		return "restored"
	case OriginCache:
		return "cache"
	case OriginCarried:
		return "carried"
	default:
		return "seed"
	}
}

// Snapshot is the full state written on every save.
type Snapshot struct {
	TabID          string
	ConversationID string
	Messages       []domain.Message
}

// Persister receives full snapshots and supplies the cached snapshot on open.
// Failures are the persister's to log; they never reach the store.
type Persister interface {
	Hydrate(ctx context.Context, tabID string) (Snapshot, bool)
	Save(ctx context.Context, snap Snapshot)
}

type Options struct {
	TabID string
	// Restored is a conversation reopened from history.
	Restored *domain.Conversation
	// Initial is a message carried over from navigation, used only when
	// neither a restored conversation nor a cached tab exists.
	Initial string
	Logger  *slog.Logger
	Now     func() time.Time
	NewID   func() string
}

// Store is the session-scoped message list of one conversation view.
type Store struct {
	mu             sync.Mutex
	saveMu         sync.Mutex
	tabID          string
	conversationID string
	messages       []domain.Message
	origin         Origin
	persister      Persister
	logger         *slog.Logger
	now            func() time.Time
	newID          func() string
}

// Open builds a store, preferring in order: a restored conversation, the
// tab's cached snapshot, the seed plus a carried-over message, the seed alone.
func Open(ctx context.Context, p Persister, opts Options) (*Store, error) {
	if p == nil {
		return nil, errors.New("session: persister must not be nil")
	}
	tabID := strings.TrimSpace(opts.TabID)
	if tabID == "" {
		return nil, errors.New("session: tab id must not be empty")
	}
	s := &Store{
		tabID:     tabID,
		persister: p,
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	switch {
	case opts.Restored != nil && len(opts.Restored.Messages) > 0:
		s.conversationID = opts.Restored.ID
		s.messages = cloneMessages(opts.Restored.Messages)
		s.origin = OriginRestored
		s.save(ctx)
	default:
		if snap, ok := p.Hydrate(ctx, tabID); ok && len(snap.Messages) > 0 {
			s.conversationID = snap.ConversationID
			s.messages = cloneMessages(snap.Messages)
			s.origin = OriginCache
			break
		}
		s.messages = []domain.Message{s.seed()}
		s.origin = OriginSeed
		if initial := strings.TrimSpace(opts.Initial); initial != "" {
			s.origin = OriginCarried
			s.appendLocked(domain.RoleUser, domain.TextContent(initial), domain.RenderText)
		}
		s.save(ctx)
	}

	s.logger.Info("session opened",
		"tab", tabID,
		"origin", s.origin.String(),
		"conversation_id", s.conversationID,
		"messages", len(s.messages),
	)
	return s, nil
}

func (s *Store) seed() domain.Message {
	return domain.Message{
		ID:         domain.SeedID,
		Role:       domain.RoleAssistant,
		Content:    domain.TextContent(Greeting),
		Timestamp:  s.now(),
		RenderKind: domain.RenderText,
	}
}

func (s *Store) TabID() string { return s.tabID }

func (s *Store) Origin() Origin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin
}

// ConversationID is empty until the conversation holds more than the seed.
func (s *Store) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Messages returns a copy of the message list.
func (s *Store) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessages(s.messages)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Last returns the most recent message.
func (s *Store) Last() (domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return domain.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Append stores a new message with the next id and saves the list.
func (s *Store) Append(ctx context.Context, role domain.Role, content domain.Content, kind domain.RenderKind) domain.Message {
	s.mu.Lock()
	msg := s.appendLocked(role, content, kind)
	s.mu.Unlock()
	s.save(ctx)
	return msg
}

// AppendIf is Append guarded by accept, which sees the current last message.
// It returns false without storing anything when accept rejects.
func (s *Store) AppendIf(ctx context.Context, accept func(last domain.Message) bool, role domain.Role, content domain.Content, kind domain.RenderKind) (domain.Message, bool) {
	s.mu.Lock()
	var last domain.Message
	if n := len(s.messages); n > 0 {
		last = s.messages[n-1]
	}
	if !accept(last) {
		s.mu.Unlock()
		return domain.Message{}, false
	}
	msg := s.appendLocked(role, content, kind)
	s.mu.Unlock()
	s.save(ctx)
	return msg, true
}

func (s *Store) appendLocked(role domain.Role, content domain.Content, kind domain.RenderKind) domain.Message {
	if s.conversationID == "" {
		s.conversationID = s.newID()
	}
	next := domain.SeedID
	if n := len(s.messages); n > 0 {
		next = s.messages[n-1].ID + 1
	}
	msg := domain.Message{
		ID:         next,
		Role:       role,
		Content:    content,
		Timestamp:  s.now(),
		RenderKind: kind,
	}
	s.messages = append(s.messages, msg)
	return msg
}

// Reset replaces the list: with the restored conversation when given, with
// the seed alone otherwise.
func (s *Store) Reset(ctx context.Context, restored *domain.Conversation) {
	s.mu.Lock()
	if restored != nil && len(restored.Messages) > 0 {
		s.conversationID = restored.ID
		s.messages = cloneMessages(restored.Messages)
		s.origin = OriginRestored
	} else {
		s.conversationID = ""
		s.messages = []domain.Message{s.seed()}
		s.origin = OriginSeed
	}
	s.mu.Unlock()
	s.save(ctx)
}

// Save writes the full list through the persister.
func (s *Store) Save(ctx context.Context) {
	s.save(ctx)
}

// Close performs the final save at view deactivation.
func (s *Store) Close(ctx context.Context) {
	s.save(ctx)
	s.logger.Info("session closed", "tab", s.tabID, "conversation_id", s.ConversationID())
}

func (s *Store) save(ctx context.Context) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	snap := Snapshot{
		TabID:          s.tabID,
		ConversationID: s.conversationID,
		Messages:       cloneMessages(s.messages),
	}
	s.mu.Unlock()
	s.persister.Save(ctx, snap)
}

func cloneMessages(in []domain.Message) []domain.Message {
	out := make([]domain.Message, len(in))
	copy(out, in)
	return out
}
