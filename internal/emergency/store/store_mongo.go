package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"helpinghands/internal/emergency/models"
	platformmongo "helpinghands/internal/platform/mongo"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
)

const maxExecuteAttempts = 3

// MongoStore persists emergencies in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongo constructs a MongoDB-backed emergency store.
func NewMongo(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the listing and matching indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: platformmongo.SeqSort(), Options: options.Index().SetName("emergencies_seq")},
		{Keys: bson.D{{Key: "blood_group", Value: 1}, {Key: "city", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("emergencies_match")},
	})
	if err != nil {
		return fmt.Errorf("create emergency indexes: %w", err)
	}
	return nil
}

type responderDocument struct {
	DonorID     string    `bson:"donor_id"`
	RespondedAt time.Time `bson:"responded_at"`
	Response    string    `bson:"response"`
}

type emergencyDocument struct {
	ID             string              `bson:"_id"`
	PatientName    string              `bson:"patient_name"`
	BloodGroup     string              `bson:"blood_group"`
	Hospital       string              `bson:"hospital"`
	City           string              `bson:"city"`
	Contact        string              `bson:"contact"`
	Details        string              `bson:"details,omitempty"`
	Status         string              `bson:"status"`
	NotifiedDonors []string            `bson:"notified_donors"`
	Responders     []responderDocument `bson:"responders"`
	CreatedAt      time.Time           `bson:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at"`
	FulfilledAt    *time.Time          `bson:"fulfilled_at,omitempty"`
	Seq            int64               `bson:"seq"`
	Version        int64               `bson:"version"`
}

func (s *MongoStore) Create(ctx context.Context, e *models.Emergency) error {
	seq, err := platformmongo.NextSeq(ctx, s.coll)
	if err != nil {
		return err
	}
	doc := toDocument(e, 1)
	doc.Seq = seq
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert emergency: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id domain.EmergencyID) (*models.Emergency, error) {
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *MongoStore) ListAll(ctx context.Context) ([]*models.Emergency, error) {
	opts := options.Find().SetSort(platformmongo.SeqSort())
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find emergencies: %w", err)
	}
	var docs []emergencyDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode emergencies: %w", err)
	}
	out := make([]*models.Emergency, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

// Execute applies validate-then-mutate guarded by the version field.
func (s *MongoStore) Execute(ctx context.Context, id domain.EmergencyID, validate func(*models.Emergency) error, mutate func(*models.Emergency)) (*models.Emergency, error) {
	for attempt := 0; attempt < maxExecuteAttempts; attempt++ {
		doc, err := s.findDocument(ctx, id)
		if err != nil {
			return nil, err
		}
		e := doc.toModel()
		if validate != nil {
			if err := validate(e); err != nil {
				return nil, err
			}
		}
		mutate(e)

		next := toDocument(e, doc.Version+1)
		next.Seq = doc.Seq
		res, err := s.coll.ReplaceOne(ctx,
			bson.D{{Key: "_id", Value: doc.ID}, {Key: "version", Value: doc.Version}},
			next)
		if err != nil {
			return nil, fmt.Errorf("replace emergency: %w", err)
		}
		if res.MatchedCount == 1 {
			return e, nil
		}
	}
	return nil, fmt.Errorf("update emergency %s: %w", id, sentinel.ErrConflict)
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count emergencies: %w", err)
	}
	return int(n), nil
}

func (s *MongoStore) findDocument(ctx context.Context, id domain.EmergencyID) (*emergencyDocument, error) {
	var doc emergencyDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find emergency by id: %w", err)
	}
	return &doc, nil
}

func toDocument(e *models.Emergency, version int64) emergencyDocument {
	notified := make([]string, 0, len(e.NotifiedDonors))
	for _, id := range e.NotifiedDonors {
		notified = append(notified, id.String())
	}
	responders := make([]responderDocument, 0, len(e.Responders))
	for _, r := range e.Responders {
		responders = append(responders, responderDocument{DonorID: r.DonorID.String(), RespondedAt: r.RespondedAt, Response: r.Response})
	}
	return emergencyDocument{
		ID:             e.ID.String(),
		PatientName:    e.PatientName,
		BloodGroup:     string(e.BloodGroup),
		Hospital:       e.Hospital,
		City:           e.City,
		Contact:        e.Contact,
		Details:        e.Details,
		Status:         string(e.Status),
		NotifiedDonors: notified,
		Responders:     responders,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		FulfilledAt:    e.FulfilledAt,
		Version:        version,
	}
}

func (doc *emergencyDocument) toModel() *models.Emergency {
	id, _ := domain.ParseEmergencyID(doc.ID)
	e := &models.Emergency{
		ID:             id,
		PatientName:    doc.PatientName,
		BloodGroup:     domain.BloodGroup(doc.BloodGroup),
		Hospital:       doc.Hospital,
		City:           doc.City,
		Contact:        doc.Contact,
		Details:        doc.Details,
		Status:         models.Status(doc.Status),
		NotifiedDonors: make([]domain.DonorID, 0, len(doc.NotifiedDonors)),
		Responders:     make([]models.Responder, 0, len(doc.Responders)),
		CreatedAt:      doc.CreatedAt.UTC(),
		UpdatedAt:      doc.UpdatedAt.UTC(),
	}
	for _, raw := range doc.NotifiedDonors {
		if donorID, err := domain.ParseDonorID(raw); err == nil {
			e.NotifiedDonors = append(e.NotifiedDonors, donorID)
		}
	}
	for _, r := range doc.Responders {
		donorID, _ := domain.ParseDonorID(r.DonorID)
		e.Responders = append(e.Responders, models.Responder{DonorID: donorID, RespondedAt: r.RespondedAt.UTC(), Response: r.Response})
	}
	if doc.FulfilledAt != nil {
		t := doc.FulfilledAt.UTC()
		e.FulfilledAt = &t
	}
	return e
}
