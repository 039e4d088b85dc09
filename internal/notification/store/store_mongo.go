package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"helpinghands/internal/notification/models"
	platformmongo "helpinghands/internal/platform/mongo"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
)

// MongoStore persists notifications in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongo(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the per-donor listing index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "donor_id", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetName("notifications_donor"),
	})
	if err != nil {
		return fmt.Errorf("create notification indexes: %w", err)
	}
	return nil
}

type notificationDocument struct {
	ID          string    `bson:"_id"`
	DonorID     string    `bson:"donor_id"`
	EmergencyID string    `bson:"emergency_id,omitempty"`
	Type        string    `bson:"type"`
	Message     string    `bson:"message"`
	Read        bool      `bson:"read"`
	SentAt      time.Time `bson:"sent_at"`
	Seq         int64     `bson:"seq"`
}

func (s *MongoStore) Append(ctx context.Context, n *models.Notification) error {
	seq, err := platformmongo.NextSeq(ctx, s.coll)
	if err != nil {
		return err
	}
	doc := notificationDocument{
		ID:      n.ID.String(),
		DonorID: n.DonorID.String(),
		Type:    string(n.Type),
		Message: n.Message,
		Read:    n.Read,
		SentAt:  n.SentAt,
		Seq:     seq,
	}
	if n.EmergencyID != nil {
		doc.EmergencyID = n.EmergencyID.String()
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *MongoStore) ListByDonor(ctx context.Context, donorID domain.DonorID) ([]*models.Notification, error) {
	opts := options.Find().SetSort(platformmongo.SeqSort())
	cur, err := s.coll.Find(ctx, bson.D{{Key: "donor_id", Value: donorID.String()}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	var docs []notificationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	out := make([]*models.Notification, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

func (s *MongoStore) MarkRead(ctx context.Context, id domain.NotificationID) (*models.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc notificationDocument
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id.String()}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "read", Value: true}}}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return int(n), nil
}

func (doc *notificationDocument) toModel() *models.Notification {
	id, _ := domain.ParseNotificationID(doc.ID)
	donorID, _ := domain.ParseDonorID(doc.DonorID)
	n := &models.Notification{
		ID:      id,
		DonorID: donorID,
		Type:    models.Type(doc.Type),
		Message: doc.Message,
		Read:    doc.Read,
		SentAt:  doc.SentAt.UTC(),
	}
	if doc.EmergencyID != "" {
		if eid, err := domain.ParseEmergencyID(doc.EmergencyID); err == nil {
			n.EmergencyID = &eid
		}
	}
	return n
}
