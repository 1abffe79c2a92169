package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"leona-console/internal/analysis"
	"leona-console/internal/domain"
	"leona-console/internal/history"
)

const timeLayout = "15:04"

func (a *App) printTranscript() {
	for _, m := range a.store.Messages() {
		a.printMessage(m)
	}
}

func (a *App) printMessage(m domain.Message) {
	WriteMessage(a.out, a.dispatcher, m)
}

// WriteMessage prints one message. Analysis messages are followed by their
// formatted view.
func WriteMessage(w io.Writer, d *analysis.Dispatcher, m domain.Message) {
	speaker := "LEONA"
	if m.Role == domain.RoleUser {
		speaker = "you"
	}
	stamp := ""
	if !m.Timestamp.IsZero() {
		stamp = "[" + m.Timestamp.Format(timeLayout) + "] "
	}
	if text := strings.TrimSpace(m.Content.Summary()); text != "" {
		fmt.Fprintf(w, "%s%s: %s\n", stamp, speaker, text)
	} else {
		fmt.Fprintf(w, "%s%s:\n", stamp, speaker)
	}
	if m.RenderKind != domain.RenderAnalysis || !m.Content.IsStructured() {
		return
	}
	v := d.RenderResponse(*m.Content.Payload)
	if v.Fallback && len(v.Sections) == 0 {
		return
	}
	fmt.Fprintln(w)
	_ = analysis.Format(w, v)
	fmt.Fprintln(w)
}

// PrintHistory lists the index grouped by recency.
func (a *App) PrintHistory(f history.Filter) {
	WriteHistory(a.out, a.bridge.Index().Search(f), a.now(), a.store.ConversationID())
}

// WriteHistory prints conversations grouped into Today, Yesterday, Last 7
// Days and Older. The active conversation is marked with '>' and starred
// ones with '*'.
func WriteHistory(w io.Writer, list []domain.Conversation, now time.Time, activeID string) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No conversations.")
		return
	}
	for _, g := range history.GroupByRecency(list, now) {
		fmt.Fprintf(w, "%s\n", g.Bucket)
		for _, c := range g.Conversations {
			mark := " "
			if c.ID == activeID {
				mark = ">"
			}
			star := " "
			if c.Starred {
				star = "*"
			}
			title := c.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(w, " %s%s %s  %s\n", mark, star, title, c.ID)
			details := fmt.Sprintf("%d messages", c.MessageCount)
			if len(c.Tags) > 0 {
				details += " · " + strings.Join(c.Tags, ", ")
			}
			fmt.Fprintf(w, "     %s %s\n", c.LastActivity.In(now.Location()).Format("2006-01-02 15:04"), details)
		}
	}
}
