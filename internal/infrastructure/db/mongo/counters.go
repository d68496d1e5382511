package mongo

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionCounters = "counters"

// counter issues numeric ids for one collection. The stored value only grows,
// so ids freed by deletion are never handed out again.
type counter struct {
	col  *mongo.Collection
	name string
}

func newCounter(db *mongo.Database, name string) counter {
	return counter{col: db.Collection(collectionCounters), name: name}
}

// assign returns id unchanged when set, raising the counter to it if numeric,
// and the next value otherwise. The second result is the numeric sort key.
func (c counter) assign(ctx context.Context, id string) (string, int64, error) {
	if id != "" {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return id, 0, nil
		}
		_, err = c.col.UpdateOne(ctx,
			bson.M{"_id": c.name},
			bson.M{"$max": bson.M{"seq": n}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return "", 0, fmt.Errorf("raise %s counter: %w", c.name, err)
		}
		return id, n, nil
	}

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := c.col.FindOneAndUpdate(ctx,
		bson.M{"_id": c.name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return "", 0, fmt.Errorf("next %s id: %w", c.name, err)
	}
	return strconv.FormatInt(doc.Seq, 10), doc.Seq, nil
}
