package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(clubsCmd)
	rootCmd.AddCommand(setRoleCmd)
	rootCmd.AddCommand(rankingsCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(notifyRoundsCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List the players in the club store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/players")
	},
}

var clubsCmd = &cobra.Command{
	Use:   "clubs",
	Short: "List the clubs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/clubs")
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role <player-id> <true|false>",
	Short: "Grant or revoke a player's admin role (super admin only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[1] != "true" && args[1] != "false" {
			return fmt.Errorf("second argument must be true or false")
		}
		body := fmt.Sprintf(`{"player_id":%q,"is_admin":%s}`, args[0], args[1])
		return performPostRequest("/players/role", body)
	},
}

var rankingsCmd = &cobra.Command{
	Use:   "rankings <ladder-id>",
	Short: "Show a ladder's current and predicted rankings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/rankings?ladderID=" + args[0])
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches <ladder-id>",
	Short: "List a ladder's matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return fmt.Errorf("ladder id is required")
		}
		return performGetRequest("/matches?ladderID=" + args[0])
	},
}

var challengeCmd = &cobra.Command{
	Use:   "challenge <ladder-id> <challenger-id> <challenged-id>",
	Short: "Create a challenge match",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := fmt.Sprintf(`{"ladder_id":%q,"challenger_id":%q,"challenged_id":%q}`, args[0], args[1], args[2])
		return performPostRequest("/challenge", body)
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score <match-id> <score1> <score2>",
	Short: "Submit a match score",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := fmt.Sprintf(`{"match_id":%q,"score1":%s,"score2":%s}`, args[0], args[1], args[2])
		return performPostRequest("/matches/score", body)
	},
}

var notifyRoundsCmd = &cobra.Command{
	Use:   "notify-rounds",
	Short: "Trigger the round notification batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/notify-rounds", "")
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <ladder-id>",
	Short: "Repair a ladder's rank numbering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := fmt.Sprintf(`{"ladder_id":%q}`, args[0])
		return performPostRequest("/reconcile", body)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

func performGetRequest(endpoint string) error {
	req, err := http.NewRequest(http.MethodGet, host+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return performRequest(req)
}

func performPostRequest(endpoint, body string) error {
	req, err := http.NewRequest(http.MethodPost, host+endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return performRequest(req)
}

func performRequest(req *http.Request) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	fmt.Printf("Making request to %s\n", req.URL)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
