package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RenderKind tells the conversation view how to draw a message body.
type RenderKind string

const (
	RenderText     RenderKind = "text"
	RenderAnalysis RenderKind = "analysis"
)

// SeedID is the id of the greeting every conversation starts with.
const SeedID int64 = 1

// Message is a single conversation entry. Messages are never edited once stored.
type Message struct {
	ID         int64      `json:"id"`
	Role       Role       `json:"role"`
	Content    Content    `json:"content"`
	Timestamp  time.Time  `json:"timestamp"`
	RenderKind RenderKind `json:"type"`
}

// IsSeed reports whether m is the greeting placed at the head of every conversation.
func (m Message) IsSeed() bool {
	return m.ID == SeedID && m.Role == RoleAssistant
}

// Content holds either plain text or the structured backend payload of an
// assistant message. On the wire it is a JSON string or a JSON object.
type Content struct {
	Text    string
	Payload *ChatResponse
}

func TextContent(s string) Content {
	return Content{Text: s}
}

func PayloadContent(p ChatResponse) Content {
	return Content{Payload: &p}
}

func (c Content) IsStructured() bool {
	return c.Payload != nil
}

// Summary returns the narrative text of the content: the text itself, or the
// payload's response falling back to the analysis summary.
func (c Content) Summary() string {
	if c.Payload == nil {
		return c.Text
	}
	if c.Payload.Response != "" {
		return c.Payload.Response
	}
	if ra := c.Payload.ResultsAnalysis(); ra != nil {
		return ra.ResultsSummary
	}
	return ""
}

// String serializes the content to text. Structured payloads are rendered as JSON.
func (c Content) String() string {
	if c.Payload == nil {
		return c.Text
	}
	b, err := json.Marshal(c.Payload)
	if err != nil {
		return c.Payload.Response
	}
	return string(b)
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Payload != nil {
		return json.Marshal(c.Payload)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*c = Content{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("domain: decode text content: %w", err)
		}
		*c = Content{Text: s}
		return nil
	default:
		var p ChatResponse
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("domain: decode structured content: %w", err)
		}
		*c = Content{Payload: &p}
		return nil
	}
}
