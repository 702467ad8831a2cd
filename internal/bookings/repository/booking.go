package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "futsal/internal/bookings/errors"
	"futsal/pkg/config"
	mongodb "futsal/pkg/db/mongo"
	"futsal/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

var activeStatuses = []string{model.BookingPending, model.BookingConfirmed}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindActiveBySlot(ctx context.Context, slotID string) ([]*model.Booking, error)
	FindByPlayer(ctx context.Context, playerID string, limit int, offset int64) ([]*model.Booking, error)
	CountByPlayer(ctx context.Context, playerID string) (int64, error)
	FindByVenueAndDate(ctx context.Context, venueID string, date time.Time) ([]*model.Booking, error)
	FindWithChallenge(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)

	// TransitionStatus moves the booking to `to` only if its status is one of from.
	TransitionStatus(ctx context.Context, id string, from []string, to string) (*model.Booking, error)
	// TransferPlayer moves an active booking from expectedPlayer to newPlayer.
	TransferPlayer(ctx context.Context, id, expectedPlayer, newPlayer, status string) (*model.Booking, error)
	// SetChallenge links challengeID only if the booking has no challenge.
	SetChallenge(ctx context.Context, id, challengeID string) error
	// ClearChallenge unlinks challengeID; a booking pointing elsewhere is left alone.
	ClearChallenge(ctx context.Context, id, challengeID string) (bool, error)
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID = mongodb.InsertedHex(result)
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := mongodb.ObjectID(id, bookingserrors.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	if err := r.collection.FindOne(ctx, mongodb.IDFilter(oid)).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindActiveBySlot(ctx context.Context, slotID string) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{
		"slot_id": slotID,
		"status":  bson.M{"$in": activeStatuses},
	}, options.Find())
}

func (r *mongoBookingRepository) FindByPlayer(ctx context.Context, playerID string, limit int, offset int64) ([]*model.Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "start_time", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{"player_id": playerID}, opts)
}

func (r *mongoBookingRepository) CountByPlayer(ctx context.Context, playerID string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"player_id": playerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) FindByVenueAndDate(ctx context.Context, venueID string, date time.Time) ([]*model.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	return r.find(ctx, bson.M{"venue_id": venueID, "date": date}, opts)
}

func (r *mongoBookingRepository) FindWithChallenge(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{"challenge_id": bson.M{"$exists": true, "$ne": ""}}, opts)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) TransitionStatus(ctx context.Context, id string, from []string, to string) (*model.Booking, error) {
	return r.conditionalUpdate(ctx, id,
		bson.M{"status": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"status": to, "updated_at": mongodb.Now()}},
	)
}

func (r *mongoBookingRepository) TransferPlayer(ctx context.Context, id, expectedPlayer, newPlayer, status string) (*model.Booking, error) {
	return r.conditionalUpdate(ctx, id,
		bson.M{"player_id": expectedPlayer, "status": bson.M{"$in": activeStatuses}},
		bson.M{"$set": bson.M{"player_id": newPlayer, "status": status, "updated_at": mongodb.Now()}},
	)
}

func (r *mongoBookingRepository) SetChallenge(ctx context.Context, id, challengeID string) error {
	_, err := r.conditionalUpdate(ctx, id,
		bson.M{"$or": bson.A{
			bson.M{"challenge_id": bson.M{"$exists": false}},
			bson.M{"challenge_id": ""},
			bson.M{"challenge_id": challengeID},
		}},
		bson.M{"$set": bson.M{"challenge_id": challengeID, "updated_at": mongodb.Now()}},
	)
	if errors.Is(err, bookingserrors.ErrStatusConflict) {
		return bookingserrors.ErrChallengeLinked
	}
	return err
}

func (r *mongoBookingRepository) ClearChallenge(ctx context.Context, id, challengeID string) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := mongodb.ObjectID(id, bookingserrors.ErrInvalidID)
	if err != nil {
		return false, err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "challenge_id": challengeID},
		bson.M{"$unset": bson.M{"challenge_id": ""}, "$set": bson.M{"updated_at": mongodb.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to clear challenge link: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

// conditionalUpdate applies update when the booking matches cond. A booking
// that exists but does not match yields ErrStatusConflict.
func (r *mongoBookingRepository) conditionalUpdate(ctx context.Context, id string, cond, update bson.M) (*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := mongodb.ObjectID(id, bookingserrors.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid}
	for k, v := range cond {
		filter[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	count, err := r.collection.CountDocuments(ctx, mongodb.IDFilter(oid))
	if err != nil {
		return nil, fmt.Errorf("failed to check booking existence: %w", err)
	}
	if count == 0 {
		return nil, bookingserrors.ErrNotFound
	}
	return nil, bookingserrors.ErrStatusConflict
}
