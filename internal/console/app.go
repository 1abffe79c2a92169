// Package console is the interactive conversation view: it wires the
// message store, orchestrator, bridge and analysis formatter to a terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"leona-console/internal/analysis"
	"leona-console/internal/bridge"
	"leona-console/internal/chat"
	"leona-console/internal/domain"
	"leona-console/internal/history"
	"leona-console/internal/session"
)

const prompt = "> "

const helpText = `Commands:
  /new              start a fresh conversation
  /history [query]  list conversations, optionally filtered
  /starred          list starred conversations
  /open <id>        reopen a conversation
  /star <id>        star or unstar a conversation
  /delete <id>      delete a conversation
  /help             show this help
  /quit             leave
Anything else is sent to LEONA.`

type Options struct {
	TabID      string
	ExecuteAPI bool
	Out        io.Writer
	Logger     *slog.Logger
	Tracer     trace.Tracer
	Meter      metric.Meter
	Now        func() time.Time
}

// App is one conversation view bound to a browsing tab.
type App struct {
	bridge     *bridge.Bridge
	backend    chat.Backend
	dispatcher *analysis.Dispatcher
	opts       Options
	out        io.Writer
	logger     *slog.Logger
	now        func() time.Time

	store *session.Store
	orch  *chat.Orchestrator
}

func New(b *bridge.Bridge, backend chat.Backend, opts Options) (*App, error) {
	if b == nil {
		return nil, errors.New("console: bridge must not be nil")
	}
	if backend == nil {
		return nil, errors.New("console: backend must not be nil")
	}
	a := &App{
		bridge:     b,
		backend:    backend,
		dispatcher: analysis.NewDispatcher(),
		opts:       opts,
		out:        opts.Out,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if a.out == nil {
		a.out = io.Discard
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// Open mounts the view. restored reopens a conversation from history;
// initial is a message carried in from the command line.
func (a *App) Open(ctx context.Context, restored *domain.Conversation, initial string) error {
	store, err := session.Open(ctx, a.bridge, session.Options{
		TabID:    a.opts.TabID,
		Restored: restored,
		Initial:  initial,
		Logger:   a.logger,
		Now:      a.now,
	})
	if err != nil {
		return fmt.Errorf("console: open session: %w", err)
	}
	orch, err := chat.New(a.backend, store,
		chat.WithLogger(a.logger),
		chat.WithTracer(a.opts.Tracer),
		chat.WithMeter(a.opts.Meter),
		chat.WithExecuteAPI(a.opts.ExecuteAPI),
	)
	if err != nil {
		return fmt.Errorf("console: create orchestrator: %w", err)
	}
	a.store = store
	a.orch = orch

	a.printTranscript()
	if msg, sent, err := orch.Start(ctx); err != nil {
		a.printf("! %v\n", err)
	} else if sent {
		a.printMessage(msg)
	}
	return nil
}

// Close saves the view's final state.
func (a *App) Close(ctx context.Context) {
	if a.store != nil {
		a.store.Close(ctx)
	}
}

// Store is the active message store, nil before Open.
func (a *App) Store() *session.Store {
	return a.store
}

// Run reads commands from in until /quit or EOF.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	if a.store == nil {
		return errors.New("console: Run before Open")
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for {
		a.printf("%s", prompt)
		if !scanner.Scan() {
			a.printf("\n")
			return scanner.Err()
		}
		quit, err := a.Handle(ctx, scanner.Text())
		if err != nil {
			a.printf("! %v\n", err)
		}
		if quit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Handle executes one input line.
func (a *App) Handle(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, a.send(ctx, line)
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		a.printf("%s\n", helpText)
	case "/new":
		a.orch.Abandon()
		a.store.Reset(ctx, nil)
		a.printTranscript()
	case "/history":
		a.PrintHistory(history.Filter{Query: arg})
	case "/starred":
		a.PrintHistory(history.Filter{Query: arg, StarredOnly: true})
	case "/open":
		return false, a.open(ctx, arg)
	case "/star":
		return false, a.star(arg)
	case "/delete":
		return false, a.delete(ctx, arg)
	default:
		return false, fmt.Errorf("unknown command %s, try /help", cmd)
	}
	return false, nil
}

func (a *App) send(ctx context.Context, text string) error {
	msg, err := a.orch.Send(ctx, text)
	switch {
	case errors.Is(err, chat.ErrDuplicateResponse):
		return nil
	case err != nil:
		return err
	}
	a.printMessage(msg)
	return nil
}

func (a *App) open(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("usage: /open <id>")
	}
	c, ok := a.bridge.Index().Get(id)
	if !ok {
		return fmt.Errorf("no conversation %q", id)
	}
	if len(c.Messages) == 0 {
		return fmt.Errorf("conversation %q has no messages", id)
	}
	a.orch.Abandon()
	a.store.Reset(ctx, &c)
	a.printTranscript()
	return nil
}

func (a *App) star(id string) error {
	if id == "" {
		return errors.New("usage: /star <id>")
	}
	starred, ok := a.bridge.ToggleStar(id)
	if !ok {
		return fmt.Errorf("no conversation %q", id)
	}
	if starred {
		a.printf("starred %s\n", id)
	} else {
		a.printf("unstarred %s\n", id)
	}
	return nil
}

func (a *App) delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("usage: /delete <id>")
	}
	if err := a.bridge.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("deleted %s\n", id)
	if a.store.ConversationID() == id {
		a.orch.Abandon()
		a.store.Reset(ctx, nil)
		a.printTranscript()
	}
	return nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
