// Package chat runs the send/receive exchange of the active conversation.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"leona-console/internal/domain"
	"leona-console/internal/session"
)

const instrumentationName = "leona-console/internal/chat"

const (
	failurePrefix = "Sorry, I encountered an error: "
	emptyAnswer   = "I couldn't produce an answer for that. Could you rephrase or add a location and time range?"
)

var (
	ErrEmptyMessage = errors.New("chat: message is empty")
	ErrPending      = errors.New("chat: a request is already pending")
	// ErrDuplicateResponse is returned when a resolution arrives for an
	// exchange that was abandoned or already answered. Nothing is stored.
	ErrDuplicateResponse = errors.New("chat: duplicate response discarded")
)

// Backend answers one chat request.
type Backend interface {
	Chat(ctx context.Context, in domain.ChatRequest) (domain.ChatResponse, error)
}

// Store is the message list the orchestrator reads and appends to.
type Store interface {
	Origin() session.Origin
	Messages() []domain.Message
	Append(ctx context.Context, role domain.Role, content domain.Content, kind domain.RenderKind) domain.Message
	AppendIf(ctx context.Context, accept func(last domain.Message) bool, role domain.Role, content domain.Content, kind domain.RenderKind) (domain.Message, bool)
}

type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

func WithMeter(m metric.Meter) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.meter = m
		}
	}
}

// WithExecuteAPI sets the execute_api flag sent with every request.
func WithExecuteAPI(execute bool) Option {
	return func(o *Orchestrator) {
		o.executeAPI = execute
	}
}

// Orchestrator allows at most one exchange in flight per conversation. Each
// send carries a generation; only the in-flight generation may deliver.
type Orchestrator struct {
	backend    Backend
	store      Store
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	executeAPI bool

	exchanges metric.Int64Counter
	duration  metric.Float64Histogram

	mu      sync.Mutex
	pending bool
	gen     uint64
}

func New(backend Backend, store Store, opts ...Option) (*Orchestrator, error) {
	if backend == nil {
		return nil, errors.New("chat: backend must not be nil")
	}
	if store == nil {
		return nil, errors.New("chat: store must not be nil")
	}
	o := &Orchestrator{
		backend:    backend,
		store:      store,
		logger:     slog.Default(),
		tracer:     otel.Tracer(instrumentationName),
		meter:      otel.Meter(instrumentationName),
		executeAPI: true,
	}
	for _, opt := range opts {
		opt(o)
	}

	var err error
	o.exchanges, err = o.meter.Int64Counter("chat.exchanges",
		metric.WithDescription("Completed chat exchanges by outcome"))
	if err != nil {
		return nil, err
	}
	o.duration, err = o.meter.Float64Histogram("chat.backend.duration_ms",
		metric.WithDescription("Backend chat request duration in milliseconds"))
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Pending reports whether an exchange is in flight.
func (o *Orchestrator) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// Send appends the user message, calls the backend and appends exactly one
// assistant message: the answer, or a synthetic error message on failure.
// It blocks until the exchange resolves.
func (o *Orchestrator) Send(ctx context.Context, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, ErrEmptyMessage
	}
	gen, ok := o.begin()
	if !ok {
		return domain.Message{}, ErrPending
	}

	history := BuildHistory(o.store.Messages())
	o.store.Append(ctx, domain.RoleUser, domain.TextContent(text), domain.RenderText)
	return o.exchange(ctx, gen, text, history)
}

// Start dispatches the message carried into a fresh view. It is a no-op for
// every other origin and when the carried message already has an answer.
func (o *Orchestrator) Start(ctx context.Context) (domain.Message, bool, error) {
	if o.store.Origin() != session.OriginCarried {
		return domain.Message{}, false, nil
	}
	msgs := o.store.Messages()
	if len(msgs) == 0 {
		return domain.Message{}, false, nil
	}
	last := msgs[len(msgs)-1]
	if last.Role != domain.RoleUser || last.IsSeed() {
		return domain.Message{}, false, nil
	}
	gen, ok := o.begin()
	if !ok {
		return domain.Message{}, false, ErrPending
	}
	msg, err := o.exchange(ctx, gen, last.Content.Summary(), BuildHistory(msgs[:len(msgs)-1]))
	return msg, err == nil, err
}

// Abandon invalidates the in-flight exchange, if any. Its resolution is
// discarded and a new send may start immediately. Leaving a view without
// calling Abandon keeps the exchange, and its reply is still applied unless
// the duplicate guard rejects it; call Abandon only when the store the reply
// would land in is being reset.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending {
		o.gen++
		o.pending = false
	}
}

func (o *Orchestrator) begin() (uint64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending {
		return 0, false
	}
	o.pending = true
	o.gen++
	return o.gen, true
}

func (o *Orchestrator) exchange(ctx context.Context, gen uint64, text string, history []domain.ChatMessage) (domain.Message, error) {
	ctx, span := o.tracer.Start(ctx, "chat.exchange", trace.WithAttributes(
		attribute.Int("chat.history_len", len(history)),
		attribute.Bool("chat.execute_api", o.executeAPI),
	))
	defer span.End()

	start := time.Now()
	resp, err := o.backend.Chat(ctx, domain.ChatRequest{
		Message:             text,
		ConversationHistory: history,
		ExecuteAPI:          o.executeAPI,
	})
	o.duration.Record(ctx, float64(time.Since(start).Milliseconds()))

	content, kind, outcome := answer(resp, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error("chat request failed", "err", err)
	}

	msg, ok := o.deliver(ctx, gen, content, kind)
	if !ok {
		outcome = "discarded"
		o.logger.Warn("late chat response discarded", "generation", gen)
	}
	o.exchanges.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	span.SetAttributes(attribute.String("chat.outcome", outcome))
	if !ok {
		return domain.Message{}, ErrDuplicateResponse
	}
	return msg, nil
}

func answer(resp domain.ChatResponse, err error) (domain.Content, domain.RenderKind, string) {
	switch {
	case err != nil:
		return domain.TextContent(failurePrefix + err.Error()), domain.RenderText, "error"
	case resp.HasAnalysis():
		return domain.PayloadContent(resp), domain.RenderAnalysis, "analysis"
	case strings.TrimSpace(resp.Response) == "":
		return domain.TextContent(emptyAnswer), domain.RenderText, "empty"
	default:
		return domain.TextContent(resp.Response), domain.RenderText, "text"
	}
}

// deliver appends the assistant message when gen is still in flight and the
// conversation does not already end with a post-seed assistant message.
func (o *Orchestrator) deliver(ctx context.Context, gen uint64, content domain.Content, kind domain.RenderKind) (domain.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.pending || gen != o.gen {
		return domain.Message{}, false
	}
	o.pending = false
	return o.store.AppendIf(ctx, awaitingAnswer, domain.RoleAssistant, content, kind)
}

func awaitingAnswer(last domain.Message) bool {
	return last.Role != domain.RoleAssistant || last.IsSeed()
}

// BuildHistory converts stored messages into request history: the seed is
// dropped and structured content is reduced to its narrative summary.
func BuildHistory(msgs []domain.Message) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.IsSeed() {
			continue
		}
		content := strings.TrimSpace(m.Content.Summary())
		if content == "" {
			continue
		}
		out = append(out, domain.ChatMessage{Role: string(m.Role), Content: content})
	}
	return out
}
