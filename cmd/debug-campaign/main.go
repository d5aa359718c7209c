package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/meeplenest/meeplenest/internal/config"
	"github.com/meeplenest/meeplenest/internal/entities"
	"github.com/meeplenest/meeplenest/internal/repositories/campaigns"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		fmt.Println("Usage: debug-campaign <campaign-id-or-legacy-id>")
		os.Exit(1)
	}
	ref := os.Args[1]

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Mongo")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to disconnect from Mongo")
		}
	}()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal().Err(err).Msg("failed to ping Mongo")
	}

	repo := campaigns.NewMongoRepository(&campaigns.MongoRepoConfig{
		Client:   client,
		Database: cfg.Mongo.Database,
	})
	locator := campaigns.NewLocator(repo)

	campaign, err := locator.Resolve(ctx, ref)
	if err != nil {
		log.Fatal().Err(err).Str("ref", ref).Msg("failed to resolve campaign")
	}

	fmt.Printf("Campaign ID: %s\n", campaign.ID.Hex())
	if campaign.LegacyID != "" {
		fmt.Printf("Legacy ID: %s\n", campaign.LegacyID)
	}
	fmt.Printf("Name: %s\n", campaign.Name)
	fmt.Printf("Owner: %s\n", campaign.OwnerID)
	fmt.Printf("Capacity: %d (%d confirmed)\n", campaign.Capacity, len(campaign.Confirmed))

	printList(campaign, entities.ListPending)
	printList(campaign, entities.ListConfirmed)
	printList(campaign, entities.ListWaitlisted)
}

func printList(campaign *entities.Campaign, list entities.RosterList) {
	entries := campaign.Roster(list)
	fmt.Printf("%s (%d):\n", list, len(entries))
	for _, e := range entries {
		if e.Persona != nil {
			fmt.Printf("  %s (persona: %s)\n", e.PlayerID, e.Persona.Name)
		} else {
			fmt.Printf("  %s\n", e.PlayerID)
		}
	}
}
