package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/metrics"
	"github.com/clubkit/ladderd/internal/notifier"
	"github.com/clubkit/ladderd/internal/rounds"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier posts ladder notifications to a Slack channel. It is an
// alternative delivery channel to email; digests that are personal by
// nature go to the channel addressed at the recipient by name.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) error {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncNotificationsFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotificationsSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return nil
}

func (s *Notifier) SendMatchScheduled(m *club.Match, recipients []club.Player, dryRun bool) error {
	return s.sendMessage(s.formatMatchScheduled(m, recipients), dryRun)
}

func (s *Notifier) SendMatchResult(m *club.Match, recipients []club.Player, dryRun bool) error {
	return s.sendMessage(s.formatMatchResult(m, recipients), dryRun)
}

func (s *Notifier) SendRoundDigest(recipient club.Player, window rounds.NotificationWindow, matches []*club.Match, players map[string]club.Player, dryRun bool) error {
	return s.sendMessage(s.formatRoundDigest(recipient, window, matches, players), dryRun)
}

// formatMatchScheduled creates the Slack message for a scheduled match using Block Kit.
func (s *Notifier) formatMatchScheduled(m *club.Match, recipients []club.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "Match scheduled!", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	timeStr := "time to be confirmed"
	if m.ScheduledAt != nil {
		timeStr = time.Unix(*m.ScheduledAt, 0).Format("Monday 02 Jan, 15:04")
	}
	detailsText := fmt.Sprintf("Round: %s\nTime: %s", m.RoundLabel, timeStr)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	if names := bulletNames(recipients); names != "" {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "Players:\n"+names, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatMatchResult creates the Slack message for a completed match.
func (s *Notifier) formatMatchResult(m *club.Match, recipients []club.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "Match finished!", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	resultText := "Result: the match was a draw."
	if m.WinnerID != nil && m.Score != nil {
		winnerName := *m.WinnerID
		for _, p := range recipients {
			if p.ID == *m.WinnerID {
				winnerName = p.Name
				break
			}
		}
		resultText = fmt.Sprintf("Result: %s won %s", winnerName, *m.Score)
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", resultText, true, false), nil, nil))

	contextText := fmt.Sprintf("Round %s", m.RoundLabel)
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, true, false)))

	return slack.NewBlockMessage(blocks...)
}

// formatRoundDigest creates the Slack message listing a player's open matches.
func (s *Notifier) formatRoundDigest(recipient club.Player, window rounds.NotificationWindow, matches []*club.Match, players map[string]club.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	var headerStr string
	switch window {
	case rounds.WindowRoundStart:
		headerStr = "New round started!"
	case rounds.WindowMidRound:
		headerStr = "Round reminder"
	default:
		headerStr = "Open matches"
	}
	blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", headerStr, true, false)))

	var lines []string
	for _, m := range matches {
		line := fmt.Sprintf("%s: %s vs %s", m.RoundLabel, displayName(m.ChallengerID, players), displayName(m.ChallengedID, players))
		if m.ScheduledAt != nil {
			line += " on " + time.Unix(*m.ScheduledAt, 0).Format("Mon 02 Jan 15:04")
		}
		lines = append(lines, line)
	}
	bodyText := fmt.Sprintf("%s, your pending matches:\n%s", recipient.Name, strings.Join(lines, "\n"))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", bodyText, true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

func displayName(playerID string, players map[string]club.Player) string {
	if p, ok := players[playerID]; ok && p.Name != "" {
		return p.Name
	}
	return playerID
}

func bulletNames(players []club.Player) string {
	var names []string
	for _, p := range players {
		if p.Name != "" {
			names = append(names, "- "+p.Name)
		}
	}
	return strings.Join(names, "\n")
}
