package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// TestMongoConfig holds configuration for test Mongo instances
type TestMongoConfig struct {
	URI      string
	Database string
}

// DefaultTestMongoConfig returns the default test Mongo configuration
func DefaultTestMongoConfig() *TestMongoConfig {
	return &TestMongoConfig{
		URI:      "mongodb://localhost:27017",
		Database: "meeplenest_test",
	}
}

// CreateTestMongoDatabase connects to a local Mongo instance for
// integration tests, skipping the test when none is reachable. The
// test database is dropped before and after the test.
func CreateTestMongoDatabase(t *testing.T, cfg *TestMongoConfig) *mongo.Database {
	if cfg == nil {
		cfg = DefaultTestMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		t.Skipf("Mongo not available for testing: %v", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		t.Skipf("Mongo not available for testing: %v", err)
	}

	db := client.Database(cfg.Database)
	require.NoError(t, db.Drop(ctx), "Failed to drop test Mongo database")

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		_ = db.Drop(cleanupCtx)
		_ = client.Disconnect(cleanupCtx)
	})

	return db
}
