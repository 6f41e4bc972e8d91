package cloud

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the production RemoteStore, backed by a single MongoDB
// collection holding every user's favorite records. Documents are keyed by
// the (userId, bookId) pair.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, dbName, collectionName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Println("[Cloud] Connected to MongoDB")
	return &MongoStore{
		client:     client,
		collection: client.Database(dbName).Collection(collectionName),
	}, nil
}

func (s *MongoStore) Upsert(ctx context.Context, userID string, record FavoriteRecord) error {
	filter := bson.M{"userId": userID, "bookId": record.BookID}
	opts := options.Update().SetUpsert(true)
	_, err := s.collection.UpdateOne(ctx, filter, bson.M{"$set": record}, opts)
	return err
}

func (s *MongoStore) List(ctx context.Context, userID string) ([]FavoriteRecord, error) {
	cur, err := s.collection.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.M{"addedTimestamp": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var records []FavoriteRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *MongoStore) Delete(ctx context.Context, userID, bookID string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"userId": userID, "bookId": bookID})
	return err
}

// Watch opens a change stream filtered to the user's documents and forwards
// one event per change. Delete events carry no full document, so the match
// also accepts operations without one.
func (s *MongoStore) Watch(ctx context.Context, userID string) (<-chan WatchEvent, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"$or": bson.A{
				bson.M{"fullDocument.userId": userID},
				bson.M{"fullDocument": bson.M{"$exists": false}},
			},
		}}},
	}
	stream, err := s.collection.Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, err
	}

	events := make(chan WatchEvent, 1)
	go func() {
		defer close(events)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			select {
			case events <- WatchEvent{}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			select {
			case events <- WatchEvent{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return events, nil
}

func (s *MongoStore) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
