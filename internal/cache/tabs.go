// Package cache is the durable per-tab cache: one serialized message list
// per browsing tab, overwritten on every save.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"leona-console/internal/domain"
)

var (
	bucketMessages      = []byte("tab_messages")
	bucketConversations = []byte("tab_conversation")
)

// TabCache stores tab snapshots in a bbolt file.
type TabCache struct {
	db *bolt.DB
}

// Open opens or creates the cache file at path.
func Open(path string) (*TabCache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cache: path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cache: create directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: open %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketMessages); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketConversations)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: init buckets: %w", err)
	}
	return &TabCache{db: db}, nil
}

func (c *TabCache) Close() error {
	return c.db.Close()
}

// Load returns the cached conversation id and messages of a tab. ok is false
// when the tab has never been saved.
func (c *TabCache) Load(tabID string) (conversationID string, msgs []domain.Message, ok bool, err error) {
	err = c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketMessages).Get([]byte(tabID))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return fmt.Errorf("decode messages: %w", err)
		}
		ok = true
		conversationID = string(tx.Bucket(bucketConversations).Get([]byte(tabID)))
		return nil
	})
	if err != nil {
		return "", nil, false, fmt.Errorf("cache: load tab %q: %w", tabID, err)
	}
	return conversationID, msgs, ok, nil
}

// Save overwrites the tab's entry in a single transaction.
func (c *TabCache) Save(tabID, conversationID string, msgs []domain.Message) error {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	enc, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("cache: encode messages: %w", err)
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketMessages).Put([]byte(tabID), enc); err != nil {
			return err
		}
		convs := tx.Bucket(bucketConversations)
		if conversationID == "" {
			return convs.Delete([]byte(tabID))
		}
		return convs.Put([]byte(tabID), []byte(conversationID))
	})
	if err != nil {
		return fmt.Errorf("cache: save tab %q: %w", tabID, err)
	}
	return nil
}

// Clear forgets a tab.
func (c *TabCache) Clear(tabID string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketMessages).Delete([]byte(tabID)); err != nil {
			return err
		}
		return tx.Bucket(bucketConversations).Delete([]byte(tabID))
	})
	if err != nil {
		return fmt.Errorf("cache: clear tab %q: %w", tabID, err)
	}
	return nil
}

// ForgetConversation clears every tab whose cached conversation is
// conversationID and returns those tab ids.
func (c *TabCache) ForgetConversation(conversationID string) ([]string, error) {
	if conversationID == "" {
		return nil, nil
	}
	var tabs []string
	err := c.db.Update(func(tx *bolt.Tx) error {
		convs := tx.Bucket(bucketConversations)
		err := convs.ForEach(func(k, v []byte) error {
			if string(v) == conversationID {
				tabs = append(tabs, string(k))
			}
			return nil
		})
		if err != nil {
			return err
		}
		msgs := tx.Bucket(bucketMessages)
		for _, tab := range tabs {
			if err := msgs.Delete([]byte(tab)); err != nil {
				return err
			}
			if err := convs.Delete([]byte(tab)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache: forget conversation %q: %w", conversationID, err)
	}
	return tabs, nil
}
