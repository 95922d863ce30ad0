package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	flightsCollection  = "flights"
	hotelsCollection   = "hotels"
	bookingsCollection = "bookings"
)

// MongoStore keeps catalog, inventory and bookings in MongoDB collections.
type MongoStore struct {
	flights  *mongo.Collection
	hotels   *mongo.Collection
	bookings *mongo.Collection
	now      func() time.Time
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database) (*MongoStore, error) {
	if db == nil {
		return nil, errors.New("mongo database is required")
	}
	return &MongoStore{
		flights:  db.Collection(flightsCollection),
		hotels:   db.Collection(hotelsCollection),
		bookings: db.Collection(bookingsCollection),
		now:      time.Now,
	}, nil
}

// EnsureIndexes makes action_id unique so a replayed confirmation can never
// create a second booking.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.bookings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "action_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_action_id"),
	})
	if err != nil {
		return fmt.Errorf("create bookings index: %w", err)
	}
	return nil
}

func (s *MongoStore) Seed(ctx context.Context, flights []Flight, hotels []Hotel) error {
	for _, f := range flights {
		if _, err := s.flights.ReplaceOne(ctx, bson.M{"_id": f.ID}, f, options.Replace().SetUpsert(true)); err != nil {
			return fmt.Errorf("seed flight %s: %w", f.ID, err)
		}
	}
	for _, h := range hotels {
		if _, err := s.hotels.ReplaceOne(ctx, bson.M{"_id": h.ID}, h, options.Replace().SetUpsert(true)); err != nil {
			return fmt.Errorf("seed hotel %s: %w", h.ID, err)
		}
	}
	return nil
}

func (s *MongoStore) Snapshot(ctx context.Context, domain contractx.Domain, limit int) ([]contractx.CatalogItem, error) {
	if limit <= 0 {
		limit = 100
	}
	coll, err := s.collection(domain)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, contractx.Transient("find catalog", err)
	}
	defer cursor.Close(ctx)

	if domain == contractx.DomainFlight {
		var rows []Flight
		if err := cursor.All(ctx, &rows); err != nil {
			return nil, contractx.Transient("decode flights", err)
		}
		items := make([]contractx.CatalogItem, 0, len(rows))
		for _, r := range rows {
			items = append(items, r.Item())
		}
		return items, nil
	}

	var rows []Hotel
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, contractx.Transient("decode hotels", err)
	}
	items := make([]contractx.CatalogItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.Item())
	}
	return items, nil
}

// DecrementIfAvailable matches only documents with a positive counter, so the
// filter and the $inc are applied atomically by the server.
func (s *MongoStore) DecrementIfAvailable(ctx context.Context, domain contractx.Domain, itemID string) (bool, error) {
	coll, err := s.collection(domain)
	if err != nil {
		return false, err
	}
	column, err := inventoryColumn(domain)
	if err != nil {
		return false, err
	}

	filter := bson.M{"_id": documentID(itemID), column: bson.M{"$gt": 0}}
	update := bson.M{"$inc": bson.M{column: -1}}
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, contractx.Transient("decrement inventory", err)
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) Increment(ctx context.Context, domain contractx.Domain, itemID string) error {
	coll, err := s.collection(domain)
	if err != nil {
		return err
	}
	column, err := inventoryColumn(domain)
	if err != nil {
		return err
	}

	res, err := coll.UpdateOne(ctx, bson.M{"_id": documentID(itemID)}, bson.M{"$inc": bson.M{column: 1}})
	if err != nil {
		return contractx.Transient("increment inventory", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: domain=%s id=%s", ErrItemNotFound, domain, itemID)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, rec contractx.BookingRecord) (string, error) {
	if strings.TrimSpace(rec.ActionID) == "" {
		return "", fmt.Errorf("%w: booking action id is required", contractx.ErrValidation)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if _, err := s.bookings.InsertOne(ctx, bookingFromRecord(rec)); err != nil {
		return "", contractx.Transient("insert booking", err)
	}
	return rec.ID, nil
}

func (s *MongoStore) FindByActionID(ctx context.Context, actionID string) (*contractx.BookingRecord, error) {
	var row Booking
	err := s.bookings.FindOne(ctx, bson.M{"action_id": actionID}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, contractx.Transient("find booking", err)
	}
	rec := row.Record()
	return &rec, nil
}

func (s *MongoStore) collection(domain contractx.Domain) (*mongo.Collection, error) {
	switch domain {
	case contractx.DomainFlight:
		return s.flights, nil
	case contractx.DomainHotel:
		return s.hotels, nil
	default:
		return nil, fmt.Errorf("%w: unknown domain %q", contractx.ErrValidation, domain)
	}
}

// documentID accepts both ObjectID hex strings (rows inserted by other tools)
// and plain string ids (seeded rows).
func documentID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}
