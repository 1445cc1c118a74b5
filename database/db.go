package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"slotbook/config"
)

// MongoClient is the global MongoDB client instance.
var MongoClient *mongo.Client

// PostgresPool is the global pgx pool when STORE_DRIVER=postgres.
var PostgresPool *pgxpool.Pool

// InitDB connects to MongoDB and returns the configured database.
func InitDB(logger *zap.Logger) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.AppConfig.DatabaseURL)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	MongoClient = client
	logger.Info("Connected to MongoDB", zap.String("database", config.AppConfig.DatabaseName))
	return client.Database(config.AppConfig.DatabaseName), nil
}

// InitPostgres opens and pings the pgx pool.
func InitPostgres(logger *zap.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, config.AppConfig.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	PostgresPool = pool
	logger.Info("Connected to Postgres")
	return pool, nil
}

// Close releases whichever store connections were opened.
func Close(ctx context.Context) {
	if MongoClient != nil {
		_ = MongoClient.Disconnect(ctx)
		MongoClient = nil
	}
	if PostgresPool != nil {
		PostgresPool.Close()
		PostgresPool = nil
	}
}

// Ping checks the active store connection.
func Ping(ctx context.Context) error {
	switch {
	case MongoClient != nil:
		return MongoClient.Ping(ctx, nil)
	case PostgresPool != nil:
		return PostgresPool.Ping(ctx)
	default:
		return nil
	}
}
