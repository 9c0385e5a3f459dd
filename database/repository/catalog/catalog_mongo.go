package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driftwell/database"
	"driftwell/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoCatalogRepo struct {
	serviceColl *mongo.Collection
	promoColl   *mongo.Collection
}

func NewMongoCatalogRepo() *MongoCatalogRepo {
	return &MongoCatalogRepo{
		serviceColl: database.Collection("services"),
		promoColl:   database.Collection("promo_codes"),
	}
}

const opTimeout = 5 * time.Second

func (repo *MongoCatalogRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var svc models.Service
	err := repo.serviceColl.FindOne(ctx, bson.M{"id": id, "active": true}).Decode(&svc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch service %s: %w", id, err)
	}
	return &svc, nil
}

func (repo *MongoCatalogRepo) ListServices(ctx context.Context) ([]models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := repo.serviceColl.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer cursor.Close(ctx)

	var services []models.Service
	if err := cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}
	return services, nil
}

func (repo *MongoCatalogRepo) GetPromo(ctx context.Context, code string) (*models.PromoCode, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var promo models.PromoCode
	err := repo.promoColl.FindOne(ctx, bson.M{"code": code}).Decode(&promo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPromoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch promo %s: %w", code, err)
	}
	return &promo, nil
}

func (repo *MongoCatalogRepo) IncrementPromoUse(ctx context.Context, code string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := repo.promoColl.UpdateOne(ctx, bson.M{"code": code}, bson.M{"$inc": bson.M{"uses": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment promo %s uses: %w", code, err)
	}
	if res.MatchedCount == 0 {
		return ErrPromoNotFound
	}
	return nil
}
