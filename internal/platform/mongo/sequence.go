package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CountersCollection holds one monotonic counter per collection.
const CountersCollection = "counters"

// NextSeq returns the next insertion sequence for coll. Values are strictly
// increasing across every process sharing the database, so sorting on them
// reproduces insertion order even when timestamps collide.
func NextSeq(ctx context.Context, coll *mongo.Collection) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := coll.Database().Collection(CountersCollection).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: coll.Name()}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next sequence for %s: %w", coll.Name(), err)
	}
	return counter.Seq, nil
}

// SeqSort orders documents by insertion sequence.
func SeqSort() bson.D {
	return bson.D{{Key: "seq", Value: 1}}
}
