package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

const collectionRecords = "records"

type RecordRepository struct {
	col *mongo.Collection
	seq counter
}

func NewRecordRepository(db *mongo.Database) *RecordRepository {
	return &RecordRepository{
		col: db.Collection(collectionRecords),
		seq: newCounter(db, collectionRecords),
	}
}

type mongoRecord struct {
	ID          string    `bson:"_id"`
	Seq         int64     `bson:"seq"`
	UserID      string    `bson:"user_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (m mongoRecord) toDomain() domain.Record {
	return domain.Record{
		ID:          m.ID,
		UserID:      m.UserID,
		Title:       m.Title,
		Description: m.Description,
		Status:      domain.RecordStatus(m.Status),
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

// List returns records in insertion order. An empty ownerID lists all records.
func (r *RecordRepository) List(ctx context.Context, ownerID string) ([]domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if ownerID != "" {
		filter["user_id"] = ownerID
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	out := make([]domain.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *RecordRepository) FindByID(ctx context.Context, id string) (*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoRecord
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	found := doc.toDomain()
	return &found, nil
}

func (r *RecordRepository) Insert(ctx context.Context, record *domain.Record) (*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, seq, err := r.seq.assign(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	doc := mongoRecord{
		ID:          id,
		Seq:         seq,
		UserID:      record.UserID,
		Title:       record.Title,
		Description: record.Description,
		Status:      string(record.Status),
		CreatedAt:   record.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if duplicateKeyIndex(err) == idIndex {
			return nil, fmt.Errorf("insert record %s: duplicate id", id)
		}
		return nil, fmt.Errorf("insert record: %w", err)
	}

	created := doc.toDomain()
	return &created, nil
}

// UpdateStatus sets the status and returns the updated record.
func (r *RecordRepository) UpdateStatus(ctx context.Context, id string, status domain.RecordStatus) (*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoRecord
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("update record status: %w", err)
	}
	updated := doc.toDomain()
	return &updated, nil
}

// CountByOwner groups records by owner on the server.
func (r *RecordRepository) CountByOwner(ctx context.Context) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$user_id"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	var rows []struct {
		Owner string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode record counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Owner] = row.Count
	}
	return counts, nil
}

// EnsureIndexes creates indexes on the records collection.
func (r *RecordRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "seq", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
