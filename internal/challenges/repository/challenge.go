package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	challengeserrors "futsal/internal/challenges/errors"
	"futsal/pkg/config"
	mongodb "futsal/pkg/db/mongo"
	"futsal/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Challenges"
)

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *model.Challenge) error
	FindByID(ctx context.Context, id string) (*model.Challenge, error)
	FindLiveByBooking(ctx context.Context, bookingID string) ([]*model.Challenge, error)
	FindByVenue(ctx context.Context, venueID, status string, limit int, offset int64) ([]*model.Challenge, error)
	// FindAcceptedBefore lists accepted challenges last touched before cutoff.
	FindAcceptedBefore(ctx context.Context, cutoff time.Time, limit int, offset int64) ([]*model.Challenge, error)

	// Accept moves a pending challenge to accepted, recording who accepted it.
	Accept(ctx context.Context, id, acceptor string) (*model.Challenge, error)
	// RevertAccept returns an accepted challenge to pending. With
	// addCancelledBy the acceptor is barred from accepting it again.
	RevertAccept(ctx context.Context, id, acceptor string, addCancelledBy bool) (*model.Challenge, error)
	// Cancel moves the challenge from `from` to cancelled.
	Cancel(ctx context.Context, id, from string) (*model.Challenge, error)
}

type mongoChallengeRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoChallengeRepository(cfg *config.Config) ChallengeRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoChallengeRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoChallengeRepository) Create(ctx context.Context, challenge *model.Challenge) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	challenge.CreatedAt = now
	challenge.UpdatedAt = now
	// $addToSet needs an array, not null
	if challenge.CancelledBy == nil {
		challenge.CancelledBy = []string{}
	}

	result, err := r.collection.InsertOne(ctx, challenge)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	challenge.ID = mongodb.InsertedHex(result)
	return nil
}

func (r *mongoChallengeRepository) FindByID(ctx context.Context, id string) (*model.Challenge, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := mongodb.ObjectID(id, challengeserrors.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	var challenge model.Challenge
	if err := r.collection.FindOne(ctx, mongodb.IDFilter(oid)).Decode(&challenge); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, challengeserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find challenge: %w", err)
	}
	return &challenge, nil
}

func (r *mongoChallengeRepository) FindLiveByBooking(ctx context.Context, bookingID string) ([]*model.Challenge, error) {
	return r.find(ctx, bson.M{
		"booking_id": bookingID,
		"status":     bson.M{"$in": []string{model.ChallengePending, model.ChallengeAccepted}},
	}, options.Find())
}

func (r *mongoChallengeRepository) FindByVenue(ctx context.Context, venueID, status string, limit int, offset int64) ([]*model.Challenge, error) {
	filter := bson.M{"venue_id": venueID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, filter, opts)
}

func (r *mongoChallengeRepository) FindAcceptedBefore(ctx context.Context, cutoff time.Time, limit int, offset int64) ([]*model.Challenge, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{
		"status":     model.ChallengeAccepted,
		"updated_at": bson.M{"$lt": cutoff},
	}, opts)
}

func (r *mongoChallengeRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Challenge, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find challenges: %w", err)
	}
	defer cursor.Close(ctx)

	var challenges []*model.Challenge
	if err := cursor.All(ctx, &challenges); err != nil {
		return nil, fmt.Errorf("failed to decode challenges: %w", err)
	}
	return challenges, nil
}

func (r *mongoChallengeRepository) Accept(ctx context.Context, id, acceptor string) (*model.Challenge, error) {
	return r.conditionalUpdate(ctx, id,
		bson.M{"status": model.ChallengePending},
		bson.M{"$set": bson.M{
			"status":      model.ChallengeAccepted,
			"accepted_by": acceptor,
			"updated_at":  mongodb.Now(),
		}},
	)
}

func (r *mongoChallengeRepository) RevertAccept(ctx context.Context, id, acceptor string, addCancelledBy bool) (*model.Challenge, error) {
	update := bson.M{
		"$set":   bson.M{"status": model.ChallengePending, "updated_at": mongodb.Now()},
		"$unset": bson.M{"accepted_by": ""},
	}
	if addCancelledBy {
		update["$addToSet"] = bson.M{"cancelled_by": acceptor}
	}
	return r.conditionalUpdate(ctx, id,
		bson.M{"status": model.ChallengeAccepted, "accepted_by": acceptor},
		update,
	)
}

func (r *mongoChallengeRepository) Cancel(ctx context.Context, id, from string) (*model.Challenge, error) {
	return r.conditionalUpdate(ctx, id,
		bson.M{"status": from},
		bson.M{"$set": bson.M{"status": model.ChallengeCancelled, "updated_at": mongodb.Now()}},
	)
}

func (r *mongoChallengeRepository) conditionalUpdate(ctx context.Context, id string, cond, update bson.M) (*model.Challenge, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := mongodb.ObjectID(id, challengeserrors.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid}
	for k, v := range cond {
		filter[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var challenge model.Challenge
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&challenge)
	if err == nil {
		return &challenge, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}

	count, err := r.collection.CountDocuments(ctx, mongodb.IDFilter(oid))
	if err != nil {
		return nil, fmt.Errorf("failed to check challenge existence: %w", err)
	}
	if count == 0 {
		return nil, challengeserrors.ErrNotFound
	}
	return nil, challengeserrors.ErrStatusConflict
}
