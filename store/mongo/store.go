// Package mongo implements store.Store on MongoDB through grove's mongo
// driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/mercato/checkpoint"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/store"
)

// Collection name constants.
const (
	colEvents      = "mercato_events"
	colCheckpoints = "mercato_checkpoints"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all mercato collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("mercato/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Journal ====================

func (s *Store) AppendEvents(ctx context.Context, records []*event.Record) error {
	for _, r := range records {
		m, err := toEventModel(r)
		if err != nil {
			return fmt.Errorf("mercato/mongo: %w", err)
		}
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			// A record already journaled by an earlier, partially failed flush.
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("mercato/mongo: append event: %w", err)
		}
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Record, error) {
	var models []eventModel

	filter := bson.M{"seq": bson.M{"$gt": int64(opts.AfterSeq)}}
	if opts.Type != "" {
		filter["type"] = string(opts.Type)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "seq", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("mercato/mongo: list events: %w", err)
	}

	result := make([]*event.Record, len(models))
	for i := range models {
		r, err := fromEventModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("mercato/mongo: %w", err)
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*eventModel)(nil)).
		Filter(bson.M{"occurred_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("mercato/mongo: purge events: %w", err)
	}
	return res.DeletedCount(), nil
}

// ==================== Checkpoints ====================

func (s *Store) SaveCheckpoint(ctx context.Context, cp *checkpoint.Checkpoint) error {
	m, err := toCheckpointModel(cp)
	if err != nil {
		return fmt.Errorf("mercato/mongo: %w", err)
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("mercato/mongo: save checkpoint: %w", err)
	}
	return nil
}

func (s *Store) LatestCheckpoint(ctx context.Context) (*checkpoint.Checkpoint, error) {
	var m checkpointModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "seq", Value: -1}, {Key: "created_at", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, errs.ErrNoCheckpoint
		}
		return nil, fmt.Errorf("mercato/mongo: latest checkpoint: %w", err)
	}
	cp, err := fromCheckpointModel(&m)
	if err != nil {
		return nil, fmt.Errorf("mercato/mongo: %w", err)
	}
	return cp, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all mercato collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colEvents: {
			{
				Keys:    bson.D{{Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "occurred_at", Value: 1}}},
		},
		colCheckpoints: {
			{Keys: bson.D{{Key: "seq", Value: -1}, {Key: "created_at", Value: -1}}},
		},
	}
}
