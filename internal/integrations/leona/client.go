package leona

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"leona-console/internal/domain"
)

const (
	chatPath    = "/api/chat"
	historyPath = "/api/chat-history"
)

// historyEnvelope is the body shape of the history list and replace endpoints.
type historyEnvelope struct {
	Chats []domain.Conversation `json:"chats"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("leona: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to the LEONA backend: the chat endpoint and the remote
// history service.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	urlOnce     sync.Once
	resolvedURL string
	urlErr      error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client. Without WithBaseURL the backend URL is read from
// the parameter store at <paramPrefix>/config/backend_url on first use and
// reused for the lifetime of the process.
func NewClient(ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	c := &Client{
		// No client timeout: a chat exchange waits until the transport resolves it.
		httpClient:  &http.Client{},
		getter:      ps,
		paramPrefix: strings.TrimRight(strings.TrimSpace(paramPrefix), "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		if c.getter == nil {
			return nil, errors.New("leona: paramstore getter must not be nil without a base URL")
		}
		if c.paramPrefix == "" {
			return nil, errors.New("leona: parameter prefix must not be empty without a base URL")
		}
	}
	return c, nil
}

func (c *Client) backendURLParameterName() string {
	return c.paramPrefix + "/config/backend_url"
}

// resolveBaseURL returns the configured URL, or fetches it from the parameter
// store once and caches the result.
func (c *Client) resolveBaseURL(ctx context.Context) (string, error) {
	if c.baseURL != "" {
		return strings.TrimRight(c.baseURL, "/"), nil
	}
	c.urlOnce.Do(func() {
		c.resolvedURL, c.urlErr = fetchBaseURLFromParamStore(ctx, c.getter, c.backendURLParameterName())
	})
	return c.resolvedURL, c.urlErr
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{}
}

// Chat posts one message with its history and decodes either a bare string
// or a structured response.
func (c *Client) Chat(ctx context.Context, in domain.ChatRequest) (domain.ChatResponse, error) {
	if in.ConversationHistory == nil {
		in.ConversationHistory = []domain.ChatMessage{}
	}
	body, err := json.Marshal(in)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("leona: marshal chat request: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, chatPath, body)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("leona: chat request failed: %w", err)
	}
	out, err := domain.DecodeChatResponse(raw)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("leona: decode chat response: %w", err)
	}
	return out, nil
}

// ListHistory reads the full remote conversation list.
func (c *Client) ListHistory(ctx context.Context) ([]domain.Conversation, error) {
	raw, err := c.do(ctx, http.MethodGet, historyPath, nil)
	if err != nil {
		return nil, fmt.Errorf("leona: list history failed: %w", err)
	}
	var env historyEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("leona: decode history: %w", err)
	}
	return env.Chats, nil
}

// ReplaceHistory overwrites the remote list with chats.
func (c *Client) ReplaceHistory(ctx context.Context, chats []domain.Conversation) error {
	if chats == nil {
		chats = []domain.Conversation{}
	}
	body, err := json.Marshal(historyEnvelope{Chats: chats})
	if err != nil {
		return fmt.Errorf("leona: marshal history: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, historyPath, body); err != nil {
		return fmt.Errorf("leona: replace history failed: %w", err)
	}
	return nil
}

// DeleteHistory removes one conversation from the remote list.
func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("leona: conversation id must not be empty")
	}
	if _, err := c.do(ctx, http.MethodDelete, historyPath+"/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("leona: delete history %q failed: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	base, err := c.resolveBaseURL(ctx)
	if err != nil {
		return nil, err
	}
	target := base + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.doJSONRequest(req, target)
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func fetchBaseURLFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("leona: paramstore getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("leona: backend URL parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("leona: fetch backend URL from paramstore: %w", err)
	}
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", errors.New("leona: backend URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("leona: backend URL %q is not absolute", raw)
	}
	return raw, nil
}
