// Package history keeps the conversation index: one summary per
// conversation, ordered by first insertion.
package history

import (
	"strings"
	"sync"
	"time"

	"leona-console/internal/domain"
	"leona-console/internal/tags"
)

const (
	titleLimit   = 60
	previewLimit = 100
	ellipsis     = "..."
	dateLayout   = "2006-01-02"
)

// Index is an ordered map of conversations keyed by id.
type Index struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.Conversation
}

func NewIndex() *Index {
	return &Index{items: map[string]domain.Conversation{}}
}

// Summarize derives the summary of a conversation from its messages. It
// reports false while the conversation holds nothing beyond the seed.
func Summarize(id string, msgs []domain.Message) (domain.Conversation, bool) {
	if id == "" {
		return domain.Conversation{}, false
	}
	var (
		count     int
		firstUser string
		last      time.Time
	)
	for _, m := range msgs {
		if m.IsSeed() {
			continue
		}
		count++
		if firstUser == "" && m.Role == domain.RoleUser {
			firstUser = strings.TrimSpace(m.Content.Summary())
		}
		if m.Timestamp.After(last) {
			last = m.Timestamp
		}
	}
	if count == 0 {
		return domain.Conversation{}, false
	}

	stored := make([]domain.Message, len(msgs))
	copy(stored, msgs)
	return domain.Conversation{
		ID:           id,
		Title:        truncate(firstUser, titleLimit),
		Preview:      truncate(firstUser, previewLimit),
		Date:         last.Format(dateLayout),
		LastActivity: last,
		MessageCount: count,
		Tags:         tags.Extract(msgs),
		Messages:     stored,
	}, true
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + ellipsis
}

// Upsert replaces the entry with the same id in place, keeping its starred
// flag, or appends c when the id is new.
func (x *Index) Upsert(c domain.Conversation) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if prev, ok := x.items[c.ID]; ok {
		c.Starred = prev.Starred
		x.items[c.ID] = c
		return
	}
	x.items[c.ID] = c
	x.order = append(x.order, c.ID)
}

// Merge makes list the base of the index. Entries already in the index win
// over list entries with the same id; entries only in the index follow the
// list in their current order.
func (x *Index) Merge(list []domain.Conversation) {
	x.mu.Lock()
	defer x.mu.Unlock()
	local, localOrder := x.items, x.order
	x.items = make(map[string]domain.Conversation, len(list)+len(local))
	x.order = make([]string, 0, len(list)+len(local))
	for _, c := range list {
		if c.ID == "" {
			continue
		}
		if _, dup := x.items[c.ID]; dup {
			continue
		}
		if mine, ok := local[c.ID]; ok {
			c = mine
		}
		x.items[c.ID] = c
		x.order = append(x.order, c.ID)
	}
	for _, id := range localOrder {
		if _, ok := x.items[id]; ok {
			continue
		}
		x.items[id] = local[id]
		x.order = append(x.order, id)
	}
}

func (x *Index) Get(id string) (domain.Conversation, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	c, ok := x.items[id]
	return c, ok
}

// SetStarred reports false when id is unknown.
func (x *Index) SetStarred(id string, starred bool) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	c, ok := x.items[id]
	if !ok {
		return false
	}
	c.Starred = starred
	x.items[id] = c
	return true
}

func (x *Index) Remove(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.items[id]; !ok {
		return false
	}
	delete(x.items, id)
	for i, v := range x.order {
		if v == id {
			x.order = append(x.order[:i], x.order[i+1:]...)
			break
		}
	}
	return true
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.order)
}

// List returns every conversation in insertion order.
func (x *Index) List() []domain.Conversation {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]domain.Conversation, 0, len(x.order))
	for _, id := range x.order {
		out = append(out, x.items[id])
	}
	return out
}

// Filter narrows a listing.
type Filter struct {
	// Query is matched case-insensitively against title, preview and tags.
	Query       string
	StarredOnly bool
}

// Search returns the conversations matching f, in insertion order.
func (x *Index) Search(f Filter) []domain.Conversation {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var out []domain.Conversation
	for _, c := range x.List() {
		if f.StarredOnly && !c.Starred {
			continue
		}
		if q != "" && !matches(c, q) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matches(c domain.Conversation, q string) bool {
	if strings.Contains(strings.ToLower(c.Title), q) || strings.Contains(strings.ToLower(c.Preview), q) {
		return true
	}
	for _, t := range c.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
