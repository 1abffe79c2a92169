// Package bridge connects the message store to the per-tab cache, the
// conversation index and the remote history service.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"leona-console/internal/domain"
	"leona-console/internal/history"
	"leona-console/internal/session"
)

const defaultMirrorTimeout = 30 * time.Second

// TabCache is the durable per-tab snapshot store.
type TabCache interface {
	Load(tabID string) (conversationID string, msgs []domain.Message, ok bool, err error)
	Save(tabID, conversationID string, msgs []domain.Message) error
	ForgetConversation(conversationID string) ([]string, error)
}

// Remote is the remote history service.
type Remote interface {
	ListHistory(ctx context.Context) ([]domain.Conversation, error)
	ReplaceHistory(ctx context.Context, chats []domain.Conversation) error
	DeleteHistory(ctx context.Context, id string) error
}

type Option func(*Bridge)

func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMirrorTimeout bounds each remote replace.
func WithMirrorTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.mirrorTimeout = d
		}
	}
}

// Bridge implements session.Persister. Every save overwrites the tab cache,
// refreshes the conversation summary in the index and schedules a mirror of
// the full index to the remote service. Mirrors run on one worker and
// coalesce, so the remote always receives the latest list last. Nothing is
// mirrored until the remote list has been loaded; a mirror retries Mount
// first when it has not.
type Bridge struct {
	cache         TabCache
	remote        Remote
	index         *history.Index
	logger        *slog.Logger
	mirrorTimeout time.Duration
	// mounted is set once the remote list has been loaded; mirrors before
	// that would overwrite remote history with the local subset.
	mounted atomic.Bool

	mirror    chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ session.Persister = (*Bridge)(nil)

func New(cache TabCache, remote Remote, opts ...Option) (*Bridge, error) {
	if cache == nil {
		return nil, errors.New("bridge: tab cache must not be nil")
	}
	if remote == nil {
		return nil, errors.New("bridge: remote history must not be nil")
	}
	b := &Bridge{
		cache:         cache,
		remote:        remote,
		index:         history.NewIndex(),
		logger:        slog.Default(),
		mirrorTimeout: defaultMirrorTimeout,
		mirror:        make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.run()
	return b, nil
}

// Index is the conversation index the bridge maintains.
func (b *Bridge) Index() *history.Index {
	return b.index
}

// Mount merges the remote conversation list into the index. Conversations
// already in the index win over their remote copies. On failure the index
// keeps its current contents.
func (b *Bridge) Mount(ctx context.Context) error {
	list, err := b.remote.ListHistory(ctx)
	if err != nil {
		b.logger.Warn("load remote history failed", "err", err)
		return fmt.Errorf("bridge: load history: %w", err)
	}
	b.index.Merge(list)
	b.mounted.Store(true)
	b.logger.Info("history loaded", "conversations", b.index.Len())
	return nil
}

// Hydrate returns the cached snapshot of a tab.
func (b *Bridge) Hydrate(_ context.Context, tabID string) (session.Snapshot, bool) {
	convID, msgs, ok, err := b.cache.Load(tabID)
	if err != nil {
		b.logger.Error("read tab cache failed", "tab", tabID, "err", err)
		return session.Snapshot{}, false
	}
	if !ok {
		return session.Snapshot{}, false
	}
	return session.Snapshot{TabID: tabID, ConversationID: convID, Messages: msgs}, true
}

// Save writes the snapshot to the tab cache and, once the conversation holds
// more than the seed, upserts its summary and mirrors the index.
func (b *Bridge) Save(_ context.Context, snap session.Snapshot) {
	if err := b.cache.Save(snap.TabID, snap.ConversationID, snap.Messages); err != nil {
		b.logger.Error("write tab cache failed", "tab", snap.TabID, "err", err)
	}
	summary, ok := history.Summarize(snap.ConversationID, snap.Messages)
	if !ok {
		return
	}
	b.index.Upsert(summary)
	b.scheduleMirror()
}

// Delete removes a conversation remotely and then locally: from the index
// and from every cached tab holding it. A remote 404 counts as deleted. Any
// other remote failure leaves local state unchanged.
func (b *Bridge) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("bridge: conversation id must not be empty")
	}
	if err := b.remote.DeleteHistory(ctx, id); err != nil {
		if !isNotFound(err) {
			b.logger.Error("delete remote conversation failed", "conversation_id", id, "err", err)
			return fmt.Errorf("bridge: delete %q: %w", id, err)
		}
		b.logger.Debug("conversation absent remotely", "conversation_id", id)
	}
	tabs, err := b.cache.ForgetConversation(id)
	if err != nil {
		b.logger.Error("clear cached tabs failed", "conversation_id", id, "err", err)
	} else if len(tabs) > 0 {
		b.logger.Info("cached tabs cleared", "conversation_id", id, "tabs", tabs)
	}
	if b.index.Remove(id) {
		b.scheduleMirror()
	}
	b.logger.Info("conversation deleted", "conversation_id", id)
	return nil
}

// SetStarred reports false when id is not in the index.
func (b *Bridge) SetStarred(id string, starred bool) bool {
	if !b.index.SetStarred(id, starred) {
		return false
	}
	b.scheduleMirror()
	return true
}

// ToggleStar flips the starred flag and returns the new value.
func (b *Bridge) ToggleStar(id string) (starred bool, ok bool) {
	c, ok := b.index.Get(id)
	if !ok {
		return false, false
	}
	starred = !c.Starred
	return starred, b.SetStarred(id, starred)
}

// Close stops the mirror worker after it pushes any scheduled mirror.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.stop)
	})
	<-b.done
}

func (b *Bridge) scheduleMirror() {
	select {
	case b.mirror <- struct{}{}:
	default:
	}
}

func (b *Bridge) run() {
	defer close(b.done)
	for {
		select {
		case <-b.mirror:
			b.push()
		case <-b.stop:
			select {
			case <-b.mirror:
				b.push()
			default:
			}
			return
		}
	}
}

func (b *Bridge) push() {
	ctx, cancel := context.WithTimeout(context.Background(), b.mirrorTimeout)
	defer cancel()
	if !b.mounted.Load() {
		if err := b.Mount(ctx); err != nil {
			b.logger.Debug("mirror skipped, history not loaded")
			return
		}
	}
	list := b.index.List()
	if err := b.remote.ReplaceHistory(ctx, list); err != nil {
		b.logger.Warn("mirror history failed", "conversations", len(list), "err", err)
		return
	}
	b.logger.Debug("history mirrored", "conversations", len(list))
}

// isNotFound reports whether err carries an HTTP 404 status.
func isNotFound(err error) bool {
	var se interface{ HTTPStatusCode() int }
	return errors.As(err, &se) && se.HTTPStatusCode() == http.StatusNotFound
}
