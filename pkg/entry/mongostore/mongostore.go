// Package mongostore stores codex entries in MongoDB, one document per entry
// keyed by its id field.
package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/codexrender/pkg/entry"
	apperrors "github.com/matzehuels/codexrender/pkg/errors"
)

// Defaults applied by Config.SetDefaults.
const (
	DefaultDatabase   = "codexrender"
	DefaultCollection = "entries"
)

// Config holds connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// SetDefaults fills empty database and collection names.
func (c *Config) SetDefaults() {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
}

// Validate checks that a URI was given.
func (c Config) Validate() error {
	if c.URI == "" {
		return apperrors.New(apperrors.ErrCodeInvalidConfiguration, "mongo uri is required")
	}
	return nil
}

// Store is an entry.Store backed by a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects, pings the primary and ensures a unique index on id.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "connect to mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "ping mongo")
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "create id index")
	}
	return &Store{client: client, coll: coll}, nil
}

func (s *Store) Get(ctx context.Context, id string) (entry.Record, error) {
	if err := apperrors.ValidateEntryID(id); err != nil {
		return entry.Record{}, err
	}
	var rec entry.Record
	err := s.coll.FindOne(ctx, bson.M{"id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entry.Record{}, apperrors.New(apperrors.ErrCodeEntryNotFound, "entry %q not found", id)
	}
	if err != nil {
		return entry.Record{}, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "find entry %s", id)
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context) ([]entry.Summary, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "id": 1, "title": 1}).
		SetSort(bson.D{{Key: "id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "list entries")
	}
	defer cur.Close(ctx)

	var recs []entry.Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "decode entries")
	}
	out := make([]entry.Summary, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Summary())
	}
	return out, nil
}

// Save upserts the document for rec.ID.
func (s *Store) Save(ctx context.Context, rec entry.Record) error {
	if err := apperrors.ValidateEntryID(rec.ID); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "save entry %s", rec.ID)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ entry.Store = (*Store)(nil)
