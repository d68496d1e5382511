package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

const collectionAudit = "audit_events"

// AuditRepository persists audit entries to the audit_events collection.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

type mongoAudit struct {
	ID          string    `bson:"_id"`
	Action      string    `bson:"action"`
	ActorID     string    `bson:"actor_id"`
	SubjectID   string    `bson:"subject_id"`
	Detail      string    `bson:"detail,omitempty"`
	Timestamp   time.Time `bson:"timestamp"`
	ProcessedAt time.Time `bson:"processed_at"`
}

func (r *AuditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	doc := mongoAudit{
		ID:          entry.ID,
		Action:      string(entry.Action),
		ActorID:     entry.ActorID,
		SubjectID:   entry.SubjectID,
		Detail:      entry.Detail,
		Timestamp:   entry.Timestamp.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "processed_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	var docs []mongoAudit
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit entries: %w", err)
	}

	out := make([]domain.AuditEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.AuditEntry{
			ID:        d.ID,
			Action:    domain.AuditAction(d.Action),
			ActorID:   d.ActorID,
			SubjectID: d.SubjectID,
			Detail:    d.Detail,
			Timestamp: d.Timestamp.UTC(),
		})
	}
	return out, nil
}

// EnsureIndexes creates indexes on the audit collection.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "subject_id", Value: 1}}},
	})
	return err
}
