package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"leona-console/internal/analysis"
	"leona-console/internal/console"
	"leona-console/internal/domain"
	"leona-console/internal/history"
)

var (
	askText     string
	openID      string
	fresh       bool
	starredOnly bool
)

// chatCmd opens the interactive conversation view
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the conversation view",
	Long: `Open the interactive conversation view for the current tab.

The tab's cached conversation is resumed when one exists. --open revisits a
conversation from history; --ask carries a first question into a fresh view
and sends it immediately; --fresh drops the tab's cached conversation first.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

// historyCmd lists remote conversations
var historyCmd = &cobra.Command{
	Use:   "history [query]",
	Short: "List conversations grouped by recency",
	Args:  cobra.ArbitraryArgs,
	RunE:  runHistory,
}

// showCmd prints one conversation
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a conversation transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

// deleteCmd removes one conversation
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation from the remote history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	chatCmd.Flags().StringVar(&askText, "ask", "", "Question to send when the view opens")
	chatCmd.Flags().StringVar(&openID, "open", "", "Conversation id to reopen")
	chatCmd.Flags().BoolVar(&fresh, "fresh", false, "Forget the tab's cached conversation before opening")
	historyCmd.Flags().BoolVar(&starredOnly, "starred", false, "Only starred conversations")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if fresh {
		if err := rt.cache.Clear(cfg.TabID); err != nil {
			return err
		}
	}
	if err := rt.bridge.Mount(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "history unavailable, retrying on the next save")
	}

	var restored *domain.Conversation
	if openID != "" {
		c, ok := rt.bridge.Index().Get(openID)
		if !ok {
			return fmt.Errorf("no conversation %q", openID)
		}
		restored = &c
	}

	app, err := console.New(rt.bridge, rt.client, console.Options{
		TabID:      cfg.TabID,
		ExecuteAPI: cfg.ExecuteAPI,
		Out:        cmd.OutOrStdout(),
		Logger:     rt.logger,
		Tracer:     rt.tracer,
		Meter:      rt.meter,
	})
	if err != nil {
		return err
	}
	if err := app.Open(ctx, restored, askText); err != nil {
		return err
	}
	defer app.Close(context.Background())

	err = app.Run(ctx, cmd.InOrStdin())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.bridge.Mount(ctx); err != nil {
		return err
	}
	list := rt.bridge.Index().Search(history.Filter{
		Query:       strings.Join(args, " "),
		StarredOnly: starredOnly,
	})
	console.WriteHistory(cmd.OutOrStdout(), list, time.Now(), "")
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.bridge.Mount(ctx); err != nil {
		return err
	}
	c, ok := rt.bridge.Index().Get(args[0])
	if !ok {
		return fmt.Errorf("no conversation %q", args[0])
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n%s · %d messages\n\n", c.Title, c.Date, c.MessageCount)
	d := analysis.NewDispatcher()
	for _, m := range c.Messages {
		console.WriteMessage(out, d, m)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.bridge.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}
