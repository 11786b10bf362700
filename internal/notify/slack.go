// Package notify posts week summaries to a Slack incoming webhook.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/slack-go/slack"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
)

// ErrNoWebhook is returned when no webhook URL is configured.
var ErrNoWebhook = errors.New("no slack webhook configured (set slack.webhook_url)")

// Slack posts to one incoming webhook.
type Slack struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlack returns a notifier for webhookURL. A nil client uses http.DefaultClient.
func NewSlack(webhookURL string, httpClient *http.Client) *Slack {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Slack{webhookURL: webhookURL, httpClient: httpClient}
}

// PostWeek sends the summary of week.
func (s *Slack) PostWeek(ctx context.Context, week model.WorkWeek) error {
	if s.webhookURL == "" {
		return ErrNoWebhook
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.httpClient, WeekMessage(week)); err != nil {
		return fmt.Errorf("posting week to slack: %w", err)
	}
	return nil
}

// WeekMessage renders week as a header, one section per project and a
// context line with the balance.
func WeekMessage(week model.WorkWeek) *slack.WebhookMessage {
	title := fmt.Sprintf("Week %s (%s – %s)",
		timecalc.ISOWeekLabel(week.FirstDay),
		week.FirstDay.Format("Jan 2"),
		week.FirstDay.AddDate(0, 0, 6).Format("Jan 2"))
	summary := fmt.Sprintf("%s worked, balance %s h",
		timecalc.FormatHours(week.TotalHours), timecalc.FormatBalance(week.Balance))

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, false, false)),
	}
	for _, pt := range week.ProjectTimes {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, projectText(pt), false, false),
			nil,
			nil,
		))
	}
	blocks = append(blocks,
		slack.NewDividerBlock(),
		slack.NewContextBlock("balance",
			slack.NewTextBlockObject(slack.MarkdownType, summary, false, false)),
	)

	return &slack.WebhookMessage{
		Text:   title + ": " + summary,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

func projectText(pt model.ProjectTime) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*: %s", pt.Project, timecalc.FormatHours(pt.Duration))
	if pt.Description != "" {
		fmt.Fprintf(&b, " _%s_", pt.Description)
	}
	for _, t := range pt.Tickets {
		fmt.Fprintf(&b, "\n• %s %s", t.Ticket, timecalc.FormatHours(t.Duration))
		if t.Description != "" {
			fmt.Fprintf(&b, " – %s", t.Description)
		}
	}
	return b.String()
}
