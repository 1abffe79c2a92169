package usecase

import (
	"context"
	"errors"
	"strings"

	"leona-console/internal/domain"
)

type HistoryStore interface {
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
	ReplaceConversations(ctx context.Context, chats []domain.Conversation) error
	DeleteConversation(ctx context.Context, id string) error
}

// HistoryService serves the remote conversation history: list, full-list
// replace and delete by id.
type HistoryService struct {
	store HistoryStore
}

func NewHistoryService(s HistoryStore) (*HistoryService, error) {
	if s == nil {
		return nil, errors.New("usecase: history store must not be nil")
	}
	return &HistoryService{store: s}, nil
}

func (s *HistoryService) List(ctx context.Context) ([]domain.Conversation, error) {
	chats, err := s.store.ListConversations(ctx)
	if err != nil {
		return nil, newError(ErrorInternal, "dynamodb_read_error", err)
	}
	if chats == nil {
		chats = []domain.Conversation{}
	}
	return chats, nil
}

// Replace stores chats as the complete list. Repeated ids keep their first
// occurrence.
func (s *HistoryService) Replace(ctx context.Context, chats []domain.Conversation) error {
	seen := make(map[string]struct{}, len(chats))
	unique := make([]domain.Conversation, 0, len(chats))
	for _, c := range chats {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			return newError(ErrorInvalidInput, "missing_chat_id", nil)
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		unique = append(unique, c)
	}
	if err := s.store.ReplaceConversations(ctx, unique); err != nil {
		return newError(ErrorInternal, "dynamodb_write_error", err)
	}
	return nil
}

// Delete is idempotent: an id that is not stored is already deleted.
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return newError(ErrorInvalidInput, "missing_chat_id", nil)
	}
	if err := s.store.DeleteConversation(ctx, id); err != nil {
		return newError(ErrorInternal, "dynamodb_delete_error", err)
	}
	return nil
}
