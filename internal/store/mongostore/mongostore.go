// Package mongostore implements store.Store on MongoDB.
//
// Standalone servers have no multi-document transactions, so cascades
// (category and game deletion) run as ordered single-document writes.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gamerank/backend/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	categoriesCollection = "categories"
	gamesCollection      = "games"
	reviewsCollection    = "reviews"
	rankingsCollection   = "rankings"
	usersCollection      = "users"
	countersCollection   = "counters"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri, selects dbName and ensures the indexes exist.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Printf("Connected to MongoDB database %q", dbName)

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	plain := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys}
	}

	indexes := map[string][]mongo.IndexModel{
		categoriesCollection: {
			unique(bson.D{{Key: "name", Value: 1}}),
			plain(bson.D{{Key: "slug", Value: 1}}),
		},
		gamesCollection: {
			plain(bson.D{{Key: "slug", Value: 1}}),
			plain(bson.D{{Key: "categories", Value: 1}}),
			plain(bson.D{{Key: "platforms", Value: 1}}),
		},
		reviewsCollection: {
			unique(bson.D{{Key: "game_code", Value: 1}, {Key: "serie", Value: 1}}),
			unique(bson.D{{Key: "game_code", Value: 1}, {Key: "author", Value: 1}}),
		},
		rankingsCollection: {
			unique(bson.D{{Key: "author", Value: 1}, {Key: "category_code", Value: 1}}),
			plain(bson.D{{Key: "category_code", Value: 1}}),
		},
		usersCollection: {
			unique(bson.D{{Key: "email", Value: 1}}),
			plain(bson.D{{Key: "created_at", Value: -1}}),
		},
	}
	for name, idx := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Categories() store.CategoryRepo { return categoryRepo{s: s} }
func (s *Store) Games() store.GameRepo         { return gameRepo{s: s} }
func (s *Store) Reviews() store.ReviewRepo     { return reviewRepo{s: s} }
func (s *Store) Rankings() store.RankingRepo   { return rankingRepo{s: s} }
func (s *Store) Users() store.UserRepo         { return userRepo{s: s} }

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	default:
		return err
	}
}

// nextValue advances the named counter past floor and returns the new value.
// $max and $inc are atomic per document, so concurrent callers never share a value.
func (s *Store) nextValue(ctx context.Context, name string, floor int) (int, error) {
	counters := s.col(countersCollection)
	_, err := counters.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$max": bson.M{"value": floor}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return 0, fmt.Errorf("floor counter %s: %w", name, err)
	}

	var out counterDoc
	err = counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return 0, fmt.Errorf("advance counter %s: %w", name, err)
	}
	return out.Value, nil
}

// maxInt returns the largest value of field in the matching documents, or 0.
func (s *Store) maxInt(ctx context.Context, collection, field string, filter bson.M) (int, error) {
	if filter == nil {
		filter = bson.M{}
	}
	var doc bson.M
	err := s.col(collection).FindOne(ctx, filter,
		options.FindOne().
			SetSort(bson.D{{Key: field, Value: -1}}).
			SetProjection(bson.M{field: 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return toInt(doc[field]), nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func sortBy(field string, dir int) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: dir}})
}

// now truncates to the millisecond precision BSON dates store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
