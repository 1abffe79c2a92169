package domain

import "time"

// MaxTags bounds Conversation.Tags.
const MaxTags = 3

// Conversation is the persisted summary of one conversation plus its messages.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Preview      string    `json:"preview"`
	Date         string    `json:"date"`
	LastActivity time.Time `json:"timestamp"`
	MessageCount int       `json:"messageCount"`
	Starred      bool      `json:"starred"`
	Tags         []string  `json:"tags"`
	Messages     []Message `json:"messages"`
}
