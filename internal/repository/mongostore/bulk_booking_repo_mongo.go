package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/roombooking/config"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bulkBookingsCollection = "bulk_bookings"

// Connect opens a client and pings the primary before handing it out.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// BulkBookingRepository keeps each bulk booking as a single document.
type BulkBookingRepository struct {
	coll *mongo.Collection
}

func NewBulkBookingRepository(db *mongo.Database) *BulkBookingRepository {
	return newFromCollection(db.Collection(bulkBookingsCollection))
}

func newFromCollection(coll *mongo.Collection) *BulkBookingRepository {
	return &BulkBookingRepository{coll: coll}
}

// EnsureIndexes creates the lookup indexes used by List and FindOverlapping.
func (r *BulkBookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "bookings.room_id", Value: 1}, {Key: "check_in", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *BulkBookingRepository) Create(ctx context.Context, b *domain.BulkBooking) error {
	_, err := r.coll.InsertOne(ctx, b)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("bulk booking %s: %w", b.ID, domain.ErrConflict)
	}
	return err
}

func (r *BulkBookingRepository) GetByID(ctx context.Context, id string) (*domain.BulkBooking, error) {
	var b domain.BulkBooking
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("bulk booking %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (r *BulkBookingRepository) List(ctx context.Context, filter repository.BulkBookingFilter) ([]domain.BulkBooking, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.HotelID != "" {
		query["bookings.hotel_id"] = filter.HotelID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, query, opts)
}

func (r *BulkBookingRepository) Update(ctx context.Context, b *domain.BulkBooking, prev domain.BulkBookingStatus) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": b.ID, "status": prev}, b)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("bulk booking %s changed concurrently: %w", b.ID, domain.ErrConflict)
	}
	return nil
}

func (r *BulkBookingRepository) Delete(ctx context.Context, id string, prev domain.BulkBookingStatus) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "status": prev})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("bulk booking %s changed concurrently: %w", id, domain.ErrConflict)
	}
	return nil
}

func (r *BulkBookingRepository) FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time, statuses []domain.BulkBookingStatus) ([]domain.BulkBooking, error) {
	query := bson.M{
		"bookings.room_id": roomID,
		"status":           bson.M{"$in": statuses},
		"check_in":         bson.M{"$lt": checkOut},
		"check_out":        bson.M{"$gt": checkIn},
	}
	opts := options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}})
	return r.find(ctx, query, opts)
}

func (r *BulkBookingRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]domain.BulkBooking, error) {
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []domain.BulkBooking{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var _ repository.BulkBookingRepository = (*BulkBookingRepository)(nil)
