// Package mongo stores descriptor documents in MongoDB and runs plans as native
// aggregation pipelines.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

var _ db.DescriptorStore = (*Store)(nil)

// Config holds connection parameters.
type Config struct {
	URI      string
	Database string
}

// Store is a descriptor store with one Mongo collection per audiodex collection.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore creates a client. The driver connects lazily on first use.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{client: client, db: client.Database(cfg.Database)}, nil
}

// CollectionName is the Mongo collection holding a collection's descriptors.
func CollectionName(collection string) string { return collection + "_descriptors" }

func (s *Store) coll(collection string) *mongo.Collection {
	return s.db.Collection(CollectionName(collection))
}

// Ping checks connectivity against the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the server responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

// EnsureCollection creates secondary indexes on the numeric descriptor fields.
func (s *Store) EnsureCollection(ctx context.Context, collection string) error {
	fields := []string{"tempo", "tuning", "duration", pipeline.FieldChordsConfidence}
	models := make([]mongo.IndexModel, len(fields))
	for i, f := range fields {
		models[i] = mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}}
	}
	if _, err := s.coll(collection).Indexes().CreateMany(ctx, models); err != nil {
		return &db.Error{Op: db.OpCreateIndexes, Err: err}
	}
	return nil
}

// Upsert replaces the document with the same id or inserts it.
func (s *Store) Upsert(ctx context.Context, collection string, doc descriptor.Document) error {
	_, err := s.coll(collection).ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: doc.ID}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return &db.Error{Op: db.OpReplace, Err: err}
	}
	return nil
}

// Get loads one document.
func (s *Store) Get(ctx context.Context, collection, id string) (descriptor.Document, error) {
	var doc descriptor.Document
	err := s.coll(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return descriptor.Document{}, db.ErrKeyNotFound
	}
	if err != nil {
		return descriptor.Document{}, &db.Error{Op: db.OpFind, Err: err}
	}
	return doc, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	n, err := s.coll(collection).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return int(n), nil
}

// Execute runs the plan as one aggregation with disk use allowed.
func (s *Store) Execute(
	ctx context.Context, collection string, stages []pipeline.Stage,
) ([]pipeline.Row, error) {
	pl, err := Compile(stages)
	if err != nil {
		return nil, &db.Error{Op: db.OpExecute, Err: err}
	}

	cur, err := s.coll(collection).Aggregate(ctx, pl, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	defer cur.Close(ctx)

	var rows []pipeline.Row
	for cur.Next(ctx) {
		var r aggRow
		if err := cur.Decode(&r); err != nil {
			return nil, &db.Error{Op: db.OpDecode, Err: err}
		}
		rows = append(rows, r.row())
	}
	if err := cur.Err(); err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	return rows, nil
}

// aggRow is a stored document plus the fields derivations may add.
type aggRow struct {
	descriptor.Document `bson:",inline"`

	TempoDistance    *float64                `bson:"tempoDistance,omitempty"`
	TuningDistance   *float64                `bson:"tuningDistance,omitempty"`
	DurationDistance *float64                `bson:"durationDistance,omitempty"`
	Coverage         *float64                `bson:"coverage,omitempty"`
	CoveredChords    *int                    `bson:"coveredChords,omitempty"`
	KeyBestMatching  *descriptor.KeyEstimate `bson:"keyBestMatching,omitempty"`
	MoodDominant     *descriptor.MoodScore   `bson:"moodDominant,omitempty"`
}

func (r *aggRow) row() pipeline.Row {
	out := pipeline.Row{
		Doc:           r.Document,
		Coverage:      r.Coverage,
		CoveredChords: r.CoveredChords,
		BestKey:       r.KeyBestMatching,
		MoodDominant:  r.MoodDominant,
	}
	for field, v := range map[descriptor.Name]*float64{
		descriptor.Tempo:    r.TempoDistance,
		descriptor.Tuning:   r.TuningDistance,
		descriptor.Duration: r.DurationDistance,
	} {
		if v == nil {
			continue
		}
		if out.Distances == nil {
			out.Distances = make(map[string]float64, 1)
		}
		out.Distances[pipeline.DistanceField(string(field))] = *v
	}
	return out
}
