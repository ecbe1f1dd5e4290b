package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/render"
)

// Ensure SlackSink implements model.AlertSink.
var _ model.AlertSink = (*SlackSink)(nil)

// maxSlackChanges keeps a digest under Slack's 50-block message limit.
const maxSlackChanges = 20

// SlackSink posts a digest of changes to a Slack channel via Incoming Webhooks.
type SlackSink struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackSink returns a sink that posts one Block Kit message per delivery.
func NewSlackSink(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackSink {
	return &SlackSink{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (s *SlackSink) Name() string { return "slack" }

// Send posts changes as a single message. A 429 response is retried once
// after the Retry-After delay. Failures are returned as *model.DeliveryError.
func (s *SlackSink) Send(ctx context.Context, changes []model.ScoredChange, sub model.AlertSubscription) error {
	if len(changes) == 0 {
		return nil
	}

	body, err := json.Marshal(buildPayload(changes, sub))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	code, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return s.fail(0, fmt.Errorf("post to slack: %w", err))
	}

	if code == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", int(retryAfter.Seconds()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryAfter):
		}

		code, _, err = s.post(ctx, body)
		if err != nil {
			return s.fail(0, fmt.Errorf("post to slack (retry): %w", err))
		}
		if code != http.StatusOK {
			return s.fail(code, fmt.Errorf("slack returned %d on retry", code))
		}
		s.logger.Info("slack message sent", "subscriber", sub.Email, "changes", len(changes), "retried", true)
		return nil
	}

	if code != http.StatusOK {
		return s.fail(code, fmt.Errorf("slack returned %d", code))
	}
	s.logger.Info("slack message sent", "subscriber", sub.Email, "changes", len(changes))
	return nil
}

func (s *SlackSink) post(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// fail classifies a failure: transport errors, 429 and 5xx are temporary.
func (s *SlackSink) fail(code int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	temporary := code == 0 || code == http.StatusTooManyRequests || code >= 500
	return &model.DeliveryError{Sink: s.Name(), Code: code, Temporary: temporary, Err: err}
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var severityEmoji = map[model.Severity]string{
	model.SeverityHigh:   "🔴",
	model.SeverityMedium: "🟠",
	model.SeverityLow:    "⚪",
}

func buildPayload(changes []model.ScoredChange, sub model.AlertSubscription) slackPayload {
	subject := render.Subject(changes)

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: subject},
		},
		{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: "Subscriber: " + sub.Email}},
		},
	}

	shown := changes
	if len(shown) > maxSlackChanges {
		shown = shown[:maxSlackChanges]
	}
	for _, c := range shown {
		text := fmt.Sprintf("%s *[%s]* %s `%s`\n_%s_",
			severityEmoji[c.Severity], c.Severity, render.Title(c.Change), c.Change.JobID, c.Reason)
		if lines := render.Explain(c.Change); len(lines) > 0 {
			text += "\n• " + strings.Join(lines, "\n• ")
		}
		block := slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: text}}
		if j := c.Change.Relevant(); j != nil && (j.Employer != "" || j.Region != "") {
			block.Fields = []slackText{
				{Type: "mrkdwn", Text: "*Employer:*\n" + orDash(j.Employer)},
				{Type: "mrkdwn", Text: "*Region:*\n" + orDash(j.Region)},
			}
		}
		blocks = append(blocks, block)
	}

	if extra := len(changes) - len(shown); extra > 0 {
		blocks = append(blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("…and %d more", extra)}},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Text: subject, Blocks: blocks}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
