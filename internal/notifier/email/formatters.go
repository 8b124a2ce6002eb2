package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/rounds"
)

func formatMatchScheduled(m *club.Match, recipients []club.Player) (subject, html, text string) {
	when := "a time to be confirmed"
	if m.ScheduledAt != nil {
		when = time.Unix(*m.ScheduledAt, 0).Format("Monday 2 January, 15:04")
	}
	names := playerNames(recipients)

	subject = fmt.Sprintf("Match scheduled: round %s", m.RoundLabel)
	text = fmt.Sprintf("Your ladder match (%s) is scheduled for %s.\nPlayers: %s\n", m.RoundLabel, when, names)
	html = fmt.Sprintf(
		"<h2>Match scheduled</h2><p>Your ladder match in round <b>%s</b> is scheduled for <b>%s</b>.</p><p>Players: %s</p>",
		m.RoundLabel, when, names)
	return subject, html, text
}

func formatMatchResult(m *club.Match, recipients []club.Player) (subject, html, text string) {
	outcome := "The match was recorded as a draw"
	if m.WinnerID != nil && m.Score != nil {
		winner := *m.WinnerID
		for _, p := range recipients {
			if p.ID == winner {
				winner = p.Name
				break
			}
		}
		outcome = fmt.Sprintf("%s won %s", winner, *m.Score)
	}

	subject = fmt.Sprintf("Result recorded: round %s", m.RoundLabel)
	text = fmt.Sprintf("%s.\nRankings have been updated.\n", outcome)
	html = fmt.Sprintf("<h2>Result recorded</h2><p>%s.</p><p>Rankings have been updated.</p>", outcome)
	return subject, html, text
}

func formatRoundDigest(recipient club.Player, window rounds.NotificationWindow, matches []*club.Match, players map[string]club.Player) (subject, html, text string) {
	var intro string
	switch window {
	case rounds.WindowRoundStart:
		subject = "A new ladder round has started"
		intro = "A new round has started. These matches are waiting for you:"
	case rounds.WindowMidRound:
		subject = "Reminder: ladder matches still to play"
		intro = "The round is halfway done and you still have matches to play:"
	default:
		subject = "Your ladder matches"
		intro = "Your open ladder matches:"
	}

	var lines, items []string
	for _, m := range matches {
		line := fmt.Sprintf("Round %s: %s vs %s", m.RoundLabel, displayName(m.ChallengerID, players), displayName(m.ChallengedID, players))
		if m.ScheduledAt != nil {
			line += " on " + time.Unix(*m.ScheduledAt, 0).Format("Mon 2 Jan 15:04")
		}
		lines = append(lines, "- "+line)
		items = append(items, "<li>"+line+"</li>")
	}

	text = fmt.Sprintf("Hi %s,\n\n%s\n%s\n", recipient.Name, intro, strings.Join(lines, "\n"))
	html = fmt.Sprintf("<p>Hi %s,</p><p>%s</p><ul>%s</ul>", recipient.Name, intro, strings.Join(items, ""))
	return subject, html, text
}

func displayName(playerID string, players map[string]club.Player) string {
	if p, ok := players[playerID]; ok && p.Name != "" {
		return p.Name
	}
	return playerID
}

func playerNames(players []club.Player) string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
