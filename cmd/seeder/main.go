package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/database"
	"github.com/clubkit/ladderd/internal/rounds"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// The seeder fills a local database with a small demo club so the server
// has something to show right after startup.
func main() {
	log.Info("Starting database seeder...")

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "ladderd.db"
	}

	db, teardown, err := database.InitDB(dbName, os.Getenv("TURSO_PRIMARY_URL"), os.Getenv("TURSO_AUTH_TOKEN"), "./migrations")
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	store := club.New(db)

	demoClub := club.Club{
		ID:           "club-riverside",
		Name:         "Riverside Racquet Club",
		City:         "Copenhagen",
		Sport:        "tennis",
		ContactEmail: "office@riverside.example",
	}
	if err := store.UpsertClub(demoClub); err != nil {
		log.Fatalf("Failed to seed club: %s", err)
	}

	players := []club.Player{
		{ID: "player-1", Name: "Anna Larsen", Email: "anna@riverside.example", Gender: "f", IsAdmin: true, ClubIDs: []string{demoClub.ID}},
		{ID: "player-2", Name: "Bo Mikkelsen", Email: "bo@riverside.example", Gender: "m", ClubIDs: []string{demoClub.ID}},
		{ID: "player-3", Name: "Clara Holm", Email: "clara@riverside.example", Gender: "f", ClubIDs: []string{demoClub.ID}},
		{ID: "player-4", Name: "David Nygaard", Email: "david@riverside.example", Gender: "m", ClubIDs: []string{demoClub.ID}},
		{ID: "player-5", Name: "Eva Sondergaard", Email: "eva@riverside.example", Gender: "f", ClubIDs: []string{demoClub.ID}},
		{ID: "player-6", Name: "Frederik Juhl", Email: "frederik@riverside.example", Gender: "m", ClubIDs: []string{demoClub.ID}},
	}
	for _, p := range players {
		if err := store.UpsertPlayer(p); err != nil {
			log.Fatalf("Failed to seed player %s: %s", p.Name, err)
		}
	}
	log.Info("Seeded players", "count", len(players))

	singles := club.Ladder{ID: "ladder-singles", ClubID: demoClub.ID, Name: "Singles Ladder", Type: club.LadderSingles}
	doubles := club.Ladder{ID: "ladder-doubles", ClubID: demoClub.ID, Name: "Doubles Ladder", Type: club.LadderDoubles}
	for _, l := range []club.Ladder{singles, doubles} {
		if err := store.UpsertLadder(l); err != nil {
			log.Fatalf("Failed to seed ladder %s: %s", l.Name, err)
		}
	}

	// Singles: everyone in join order, ranks 1..6.
	for _, p := range players {
		if _, err := store.JoinLadder(singles.ID, p.ID, nil); err != nil {
			log.Warn("Skipping singles join", "player", p.ID, "error", err)
		}
	}

	// Doubles: three fixed pairs.
	pairs := [][2]string{
		{"player-1", "player-2"},
		{"player-3", "player-4"},
		{"player-5", "player-6"},
	}
	for _, pair := range pairs {
		partner := pair[1]
		if _, err := store.JoinLadder(doubles.ID, pair[0], &partner); err != nil {
			log.Warn("Skipping doubles join", "player", pair[0], "error", err)
		}
	}
	log.Info("Seeded ladders and memberships")

	// A couple of matches in the current round: one open challenge and one
	// finished upset.
	now := time.Now()
	start, end := rounds.Window(now)
	label := rounds.Label(now)

	open := &club.Match{
		ID:           uuid.NewString(),
		LadderID:     singles.ID,
		RoundLabel:   label,
		RoundStart:   start.Unix(),
		RoundEnd:     end.Unix(),
		ChallengerID: "player-4",
		ChallengedID: "player-3",
		Status:       club.StatusPending,
		CreatedAt:    now.Unix(),
	}
	if err := store.CreateMatch(open); err != nil {
		log.Fatalf("Failed to seed open match: %s", err)
	}

	upset := &club.Match{
		ID:           uuid.NewString(),
		LadderID:     singles.ID,
		RoundLabel:   label,
		RoundStart:   start.Unix(),
		RoundEnd:     end.Unix(),
		ChallengerID: "player-2",
		ChallengedID: "player-1",
		Status:       club.StatusPending,
		CreatedAt:    now.Unix(),
	}
	if err := store.CreateMatch(upset); err != nil {
		log.Fatalf("Failed to seed completed match: %s", err)
	}
	if err := store.CompleteMatch(upset.ID, &upset.ChallengerID, "6-4", 6, 4); err != nil {
		log.Fatalf("Failed to complete seeded match: %s", err)
	}

	fmt.Println("Seeding complete.")
	log.Info("Seeded matches", "round", label)
}
