package repository

import (
	"context"
	"errors"
	"fmt"

	venueserrors "futsal/internal/venues/errors"
	"futsal/pkg/config"
	mongodb "futsal/pkg/db/mongo"
	"futsal/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Venues"
)

// VenueRepository is a read-only view of the venue directory. Venues are
// created and edited by the venue service.
type VenueRepository interface {
	FindByID(ctx context.Context, id string) (*model.Venue, error)
}

type mongoVenueRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoVenueRepository(cfg *config.Config) VenueRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoVenueRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoVenueRepository) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := mongodb.ObjectID(id, venueserrors.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	var venue model.Venue
	if err := r.collection.FindOne(ctx, mongodb.IDFilter(oid)).Decode(&venue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, venueserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find venue: %w", err)
	}
	return &venue, nil
}
