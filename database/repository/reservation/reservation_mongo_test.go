package reservationRepo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newTestMongoDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URL")
	if uri == "" {
		t.Skip("TEST_MONGO_URL not set; skipping Mongo integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("skipping Mongo integration tests: %v", err)
	}

	db := client.Database(fmt.Sprintf("slotbook_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestMongoReservationRepo(t *testing.T) {
	db := newTestMongoDB(t)
	runConformance(t, func(t *testing.T) ReservationRepository {
		ctx := context.Background()
		if err := db.Collection(collectionName).Drop(ctx); err != nil {
			t.Fatalf("drop collection: %v", err)
		}
		repo := NewMongoReservationRepo(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			t.Fatalf("ensure indexes: %v", err)
		}
		return repo
	})
}
