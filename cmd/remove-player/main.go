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
	"github.com/meeplenest/meeplenest/internal/repositories/campaigns"
	"github.com/meeplenest/meeplenest/internal/services"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 5 {
		fmt.Println("Usage: remove-player <campaign-id-or-legacy-id> <owner-id> <player-id> <reason>")
		os.Exit(1)
	}
	ref, ownerID, playerID, reason := os.Args[1], os.Args[2], os.Args[3], os.Args[4]

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

	provider, err := services.NewProviderFromConfig(cfg, repo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire services")
	}

	out, err := provider.CampaignService.Remove(ctx, ref, ownerID, playerID, reason)
	if err != nil {
		log.Fatal().Err(err).Str("ref", ref).Str("player_id", playerID).Msg("failed to remove player")
	}

	fmt.Printf("Removed %s from %s list of %q (reason: %s)\n",
		out.PlayerID, out.RemovedFrom, out.Campaign.Name, out.Reason)
	fmt.Printf("Roster now: pending=%d confirmed=%d/%d waitlisted=%d\n",
		len(out.Campaign.Pending),
		len(out.Campaign.Confirmed), out.Campaign.Capacity,
		len(out.Campaign.Waitlisted))
}
