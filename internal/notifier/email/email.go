package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/metrics"
	"github.com/clubkit/ladderd/internal/notifier"
	"github.com/clubkit/ladderd/internal/rounds"
)

const defaultBaseURL = "https://api.resend.com"

// The transactional email API rate-limits aggressively; a 429 is retried a
// few times with a growing pause before giving up.
const (
	maxSendAttempts  = 3
	retryBackoffBase = 2 * time.Second
)

var _ notifier.Notifier = (*Notifier)(nil)

// Notifier delivers notifications through a Resend-compatible transactional
// email API.
type Notifier struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	from       string
	replyTo    string
	metrics    metrics.Metrics
}

// message is the wire payload of the email API.
type message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// NewNotifier creates a new email Notifier.
func NewNotifier(apiKey, baseURL, from, replyTo string, metrics metrics.Metrics) *Notifier {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Notifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		from:       from,
		replyTo:    replyTo,
		metrics:    metrics,
	}
}

func (n *Notifier) send(msg message, dryRun bool) error {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(msg, "", "  ")
		log.Info("[Dry Run] Would send email", "message", string(jsonMsg))
		return nil
	}
	if len(msg.To) == 0 {
		log.Warn("No recipients with a known email, skipping send", "subject", msg.Subject)
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			lastErr = err
			break
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			n.metrics.IncNotificationsSent()
			log.Info("Successfully sent email", "to", msg.To, "subject", msg.Subject)
			return nil
		}
		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxSendAttempts {
			pause := retryBackoffBase * time.Duration(attempt)
			log.Warn("Email API rate limited, backing off", "attempt", attempt, "pause", pause)
			select {
			case <-time.After(pause):
				continue
			case <-ctx.Done():
				lastErr = ctx.Err()
			}
		}
		lastErr = fmt.Errorf("email API returned status %d: %s", resp.StatusCode, string(respBody))
		break
	}

	n.metrics.IncNotificationsFailed()
	log.Error("Failed to send email", "error", lastErr, "to", msg.To)
	return fmt.Errorf("failed to send email: %w", lastErr)
}

func (n *Notifier) SendMatchScheduled(m *club.Match, recipients []club.Player, dryRun bool) error {
	subject, html, text := formatMatchScheduled(m, recipients)
	return n.send(message{
		From:    n.from,
		To:      emailsOf(recipients),
		Subject: subject,
		HTML:    html,
		Text:    text,
		ReplyTo: n.replyTo,
	}, dryRun)
}

func (n *Notifier) SendMatchResult(m *club.Match, recipients []club.Player, dryRun bool) error {
	subject, html, text := formatMatchResult(m, recipients)
	return n.send(message{
		From:    n.from,
		To:      emailsOf(recipients),
		Subject: subject,
		HTML:    html,
		Text:    text,
		ReplyTo: n.replyTo,
	}, dryRun)
}

func (n *Notifier) SendRoundDigest(recipient club.Player, window rounds.NotificationWindow, matches []*club.Match, players map[string]club.Player, dryRun bool) error {
	if recipient.Email == "" {
		log.Warn("Digest recipient has no email", "playerID", recipient.ID)
		return nil
	}
	subject, html, text := formatRoundDigest(recipient, window, matches, players)
	return n.send(message{
		From:    n.from,
		To:      []string{recipient.Email},
		Subject: subject,
		HTML:    html,
		Text:    text,
		ReplyTo: n.replyTo,
	}, dryRun)
}

func emailsOf(players []club.Player) []string {
	var emails []string
	for _, p := range players {
		if p.Email != "" {
			emails = append(emails, p.Email)
		}
	}
	return emails
}
