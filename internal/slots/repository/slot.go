package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	slotserrors "futsal/internal/slots/errors"
	"futsal/pkg/config"
	mongodb "futsal/pkg/db/mongo"
	"futsal/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Slots"
)

type SlotRepository interface {
	CreateMany(ctx context.Context, slots []*model.Slot) (int, error)
	FindByID(ctx context.Context, id string) (*model.Slot, error)
	FindByVenueDateStart(ctx context.Context, venueID string, date time.Time, start string) (*model.Slot, error)
	FindByVenueAndDate(ctx context.Context, venueID string, date time.Time) ([]*model.Slot, error)
	DatesWithSlots(ctx context.Context, venueID string, from, to time.Time) (map[time.Time]bool, error)
	Reserve(ctx context.Context, id string) (*model.Slot, error)
	Release(ctx context.Context, id string) (bool, error)
	// ReleaseIfReservedAt frees the slot only while it still carries the
	// reservation stamped at reservedAt.
	ReleaseIfReservedAt(ctx context.Context, id string, reservedAt time.Time) (bool, error)
	// DeleteFreeByVenue removes the venue's unreserved slots; reserved ones
	// back active bookings and stay.
	DeleteFreeByVenue(ctx context.Context, venueID string) (int64, error)
	FindReservedBefore(ctx context.Context, cutoff time.Time, limit int, offset int64) ([]*model.Slot, error)
}

type mongoSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoSlotRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// CreateMany inserts slots unordered; slots that already exist for the same
// (venue, date, start) are skipped by the unique index.
func (r *mongoSlotRepository) CreateMany(ctx context.Context, slots []*model.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	docs := make([]any, 0, len(slots))
	for _, s := range slots {
		s.CreatedAt = now
		docs = append(docs, s)
	}

	result, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	inserted := 0
	if result != nil {
		inserted = len(result.InsertedIDs)
	}
	if err != nil && !mongodb.IsDuplicateKey(err) {
		return inserted, fmt.Errorf("failed to create slots: %w", err)
	}
	return inserted, nil
}

func (r *mongoSlotRepository) FindByID(ctx context.Context, id string) (*model.Slot, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := mongodb.ObjectID(id, slotserrors.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	var slot model.Slot
	if err := r.collection.FindOne(ctx, mongodb.IDFilter(oid)).Decode(&slot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, slotserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}
	return &slot, nil
}

func (r *mongoSlotRepository) FindByVenueDateStart(ctx context.Context, venueID string, date time.Time, start string) (*model.Slot, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"venue_id": venueID, "date": date, "start_time": start}

	var slot model.Slot
	if err := r.collection.FindOne(ctx, filter).Decode(&slot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, slotserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}
	return &slot, nil
}

func (r *mongoSlotRepository) FindByVenueAndDate(ctx context.Context, venueID string, date time.Time) ([]*model.Slot, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"venue_id": venueID, "date": date}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.Slot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}
	return slots, nil
}

func (r *mongoSlotRepository) DatesWithSlots(ctx context.Context, venueID string, from, to time.Time) (map[time.Time]bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	values, err := r.collection.Distinct(ctx, "date", bson.M{
		"venue_id": venueID,
		"date":     bson.M{"$gte": from, "$lt": to},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list slot dates: %w", err)
	}

	dates := make(map[time.Time]bool, len(values))
	for _, v := range values {
		switch d := v.(type) {
		case time.Time:
			dates[d.UTC()] = true
		case interface{ Time() time.Time }:
			dates[d.Time().UTC()] = true
		}
	}
	return dates, nil
}

// Reserve flips is_reserved false -> true in a single conditional update.
// It returns ErrAlreadyReserved when the slot exists but is taken.
func (r *mongoSlotRepository) Reserve(ctx context.Context, id string) (*model.Slot, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := mongodb.ObjectID(id, slotserrors.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid, "is_reserved": false}
	update := bson.M{"$set": bson.M{"is_reserved": true, "reserved_at": mongodb.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var slot model.Slot
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&slot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, slotserrors.ErrAlreadyReserved
		}
		return nil, fmt.Errorf("failed to reserve slot: %w", err)
	}
	return &slot, nil
}

// Release frees a reserved slot. Releasing a free slot is a no-op and
// reports false.
func (r *mongoSlotRepository) Release(ctx context.Context, id string) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := mongodb.ObjectID(id, slotserrors.ErrInvalidID)
	if err != nil {
		return false, err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "is_reserved": true},
		bson.M{"$set": bson.M{"is_reserved": false}, "$unset": bson.M{"reserved_at": ""}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to release slot: %w", err)
	}
	if result.ModifiedCount > 0 {
		return true, nil
	}

	count, err := r.collection.CountDocuments(ctx, mongodb.IDFilter(oid))
	if err != nil {
		return false, fmt.Errorf("failed to check slot existence: %w", err)
	}
	if count == 0 {
		return false, slotserrors.ErrNotFound
	}
	return false, nil
}

func (r *mongoSlotRepository) ReleaseIfReservedAt(ctx context.Context, id string, reservedAt time.Time) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := mongodb.ObjectID(id, slotserrors.ErrInvalidID)
	if err != nil {
		return false, err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "is_reserved": true, "reserved_at": reservedAt},
		bson.M{"$set": bson.M{"is_reserved": false}, "$unset": bson.M{"reserved_at": ""}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to release slot: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

// DeleteFreeByVenue removes the venue's unreserved slots; reserved ones
// back active bookings and stay.
func (r *mongoSlotRepository) DeleteFreeByVenue(ctx context.Context, venueID string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"venue_id": venueID, "is_reserved": false})
	if err != nil {
		return 0, fmt.Errorf("failed to delete slots: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoSlotRepository) FindReservedBefore(ctx context.Context, cutoff time.Time, limit int, offset int64) ([]*model.Slot, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "reserved_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	cursor, err := r.collection.Find(ctx, bson.M{
		"is_reserved": true,
		"reserved_at": bson.M{"$lt": cutoff},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reserved slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.Slot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}
	return slots, nil
}
