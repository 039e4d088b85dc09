package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"helpinghands/internal/donor/models"
	platformmongo "helpinghands/internal/platform/mongo"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
)

const (
	phoneIndex = "donors_phone_unique"
	emailIndex = "donors_email_unique"
	matchIndex = "donors_match"
	seqIndex   = "donors_seq"

	// maxExecuteAttempts bounds optimistic-concurrency retries in Execute.
	maxExecuteAttempts = 3
)

// MongoStore persists donors in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongo constructs a MongoDB-backed donor store.
func NewMongo(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the unique phone/email indexes and the compound
// index used by Search.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetName(phoneIndex)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(emailIndex)},
		{Keys: bson.D{{Key: "blood_group", Value: 1}, {Key: "city", Value: 1}, {Key: "available", Value: 1}}, Options: options.Index().SetName(matchIndex)},
		{Keys: platformmongo.SeqSort(), Options: options.Index().SetName(seqIndex)},
	})
	if err != nil {
		return fmt.Errorf("create donor indexes: %w", err)
	}
	return nil
}

type donorDocument struct {
	ID            string     `bson:"_id"`
	Name          string     `bson:"name"`
	Phone         string     `bson:"phone"`
	Email         string     `bson:"email"`
	BloodGroup    string     `bson:"blood_group"`
	City          string     `bson:"city"`
	Address       string     `bson:"address"`
	Available     bool       `bson:"available"`
	LastDonation  *time.Time `bson:"last_donation,omitempty"`
	DonationCount int        `bson:"donation_count"`
	RegisteredAt  time.Time  `bson:"registered_at"`
	Seq           int64      `bson:"seq"`
	Version       int64      `bson:"version"`
}

func (s *MongoStore) Create(ctx context.Context, donor *models.Donor) error {
	seq, err := platformmongo.NextSeq(ctx, s.coll)
	if err != nil {
		return err
	}
	doc := toDocument(donor, 1)
	doc.Seq = seq
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateFromMessage(err.Error())
		}
		return fmt.Errorf("insert donor: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id domain.DonorID) (*models.Donor, error) {
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Search(ctx context.Context, bloodGroup domain.BloodGroup, city string) ([]*models.Donor, error) {
	filter := bson.D{
		{Key: "blood_group", Value: string(bloodGroup)},
		{Key: "city", Value: models.NormalizeCity(city)},
		{Key: "available", Value: true},
	}
	return s.find(ctx, filter)
}

func (s *MongoStore) ListAll(ctx context.Context) ([]*models.Donor, error) {
	return s.find(ctx, bson.D{})
}

// Execute applies validate-then-mutate with optimistic concurrency on the
// version field; a concurrent writer causes a re-read and retry.
func (s *MongoStore) Execute(ctx context.Context, id domain.DonorID, validate func(*models.Donor) error, mutate func(*models.Donor)) (*models.Donor, error) {
	for attempt := 0; attempt < maxExecuteAttempts; attempt++ {
		doc, err := s.findDocument(ctx, id)
		if err != nil {
			return nil, err
		}
		donor := doc.toModel()
		if validate != nil {
			if err := validate(donor); err != nil {
				return nil, err
			}
		}
		mutate(donor)

		next := toDocument(donor, doc.Version+1)
		next.Seq = doc.Seq
		res, err := s.coll.ReplaceOne(ctx,
			bson.D{{Key: "_id", Value: doc.ID}, {Key: "version", Value: doc.Version}},
			next)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, duplicateFromMessage(err.Error())
			}
			return nil, fmt.Errorf("replace donor: %w", err)
		}
		if res.MatchedCount == 1 {
			return donor, nil
		}
	}
	return nil, fmt.Errorf("update donor %s: %w", id, sentinel.ErrConflict)
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count donors: %w", err)
	}
	return int(n), nil
}

func (s *MongoStore) findDocument(ctx context.Context, id domain.DonorID) (*donorDocument, error) {
	var doc donorDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find donor by id: %w", err)
	}
	return &doc, nil
}

func (s *MongoStore) find(ctx context.Context, filter bson.D) ([]*models.Donor, error) {
	opts := options.Find().SetSort(platformmongo.SeqSort())
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find donors: %w", err)
	}
	var docs []donorDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode donors: %w", err)
	}
	out := make([]*models.Donor, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

func toDocument(d *models.Donor, version int64) donorDocument {
	return donorDocument{
		ID:            d.ID.String(),
		Name:          d.Name,
		Phone:         d.Phone,
		Email:         d.Email,
		BloodGroup:    string(d.BloodGroup),
		City:          d.City,
		Address:       d.Address,
		Available:     d.Available,
		LastDonation:  d.LastDonation,
		DonationCount: d.DonationCount,
		RegisteredAt:  d.RegisteredAt,
		Version:       version,
	}
}

func (doc *donorDocument) toModel() *models.Donor {
	id, _ := domain.ParseDonorID(doc.ID)
	d := &models.Donor{
		ID:            id,
		Name:          doc.Name,
		Phone:         doc.Phone,
		Email:         doc.Email,
		BloodGroup:    domain.BloodGroup(doc.BloodGroup),
		City:          doc.City,
		Address:       doc.Address,
		Available:     doc.Available,
		DonationCount: doc.DonationCount,
		RegisteredAt:  doc.RegisteredAt.UTC(),
	}
	if doc.LastDonation != nil {
		t := doc.LastDonation.UTC()
		d.LastDonation = &t
	}
	return d
}

// duplicateFromMessage names the colliding field from the index or
// constraint named in a driver error message.
func duplicateFromMessage(msg string) error {
	switch {
	case strings.Contains(msg, phoneIndex), strings.Contains(msg, "donors_phone_key"):
		return &DuplicateError{Field: FieldPhone}
	case strings.Contains(msg, emailIndex), strings.Contains(msg, "donors_email_key"):
		return &DuplicateError{Field: FieldEmail}
	default:
		return sentinel.ErrConflict
	}
}
