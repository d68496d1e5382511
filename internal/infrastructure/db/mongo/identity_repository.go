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

const (
	collectionIdentities = "identities"
	// usernameIndex is the name MongoDB derives for the unique username key.
	usernameIndex = "username_1"
	idIndex       = "_id_"
)

type IdentityRepository struct {
	col *mongo.Collection
	seq counter
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{
		col: db.Collection(collectionIdentities),
		seq: newCounter(db, collectionIdentities),
	}
}

type mongoIdentity struct {
	ID           string    `bson:"_id"`
	Seq          int64     `bson:"seq"`
	Username     string    `bson:"username"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	Role         string    `bson:"role"`
	Avatar       string    `bson:"avatar,omitempty"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (m mongoIdentity) toDomain() domain.Identity {
	role, err := domain.ParseRole(m.Role)
	if err != nil {
		role = domain.RoleStandard
	}
	return domain.Identity{
		ID:           m.ID,
		Username:     m.Username,
		Name:         m.Name,
		Email:        m.Email,
		Role:         role,
		Avatar:       m.Avatar,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func (r *IdentityRepository) List(ctx context.Context) ([]domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	var docs []mongoIdentity
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode identities: %w", err)
	}

	out := make([]domain.Identity, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *IdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoIdentity
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	found := doc.toDomain()
	return &found, nil
}

func (r *IdentityRepository) Insert(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Checked up front so a taken username does not consume an id.
	n, err := r.col.CountDocuments(ctx, bson.M{"username": identity.Username})
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if n > 0 {
		return nil, domain.ErrHandleTaken
	}

	id, seq, err := r.seq.assign(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	doc := mongoIdentity{
		ID:           id,
		Seq:          seq,
		Username:     identity.Username,
		Name:         identity.Name,
		Email:        identity.Email,
		Role:         string(identity.Role),
		Avatar:       identity.Avatar,
		PasswordHash: identity.PasswordHash,
		CreatedAt:    identity.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		switch duplicateKeyIndex(err) {
		case usernameIndex:
			return nil, domain.ErrHandleTaken
		case idIndex:
			return nil, fmt.Errorf("insert identity %s: duplicate id", id)
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}

	created := doc.toDomain()
	return &created, nil
}

func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// EnsureIndexes creates the unique username index and the ordering index.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName(usernameIndex).SetUnique(true)},
		{Keys: bson.D{{Key: "seq", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
