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
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		fmt.Println("Usage: list-campaigns <owner-id>")
		os.Exit(1)
	}
	ownerID := os.Args[1]

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

	result, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		log.Fatal().Err(err).Str("owner_id", ownerID).Msg("failed to list campaigns")
	}

	if len(result) == 0 {
		fmt.Printf("No campaigns found for owner %s\n", ownerID)
		return
	}

	for _, campaign := range result {
		fmt.Printf("%s  %-30s  pending=%d confirmed=%d/%d waitlisted=%d\n",
			campaign.ID.Hex(),
			campaign.Name,
			len(campaign.Pending),
			len(campaign.Confirmed), campaign.Capacity,
			len(campaign.Waitlisted))
	}
}
