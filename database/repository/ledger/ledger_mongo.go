package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driftwell/database"
	"driftwell/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLedgerRepo keeps one account document per user ("credit_accounts",
// {userId, balance, version}) and an append-only "credit_entries"
// collection. The guarded $inc on the account document is the
// serialization point for concurrent debits.
type MongoLedgerRepo struct {
	accountColl *mongo.Collection
	entryColl   *mongo.Collection
}

func NewMongoLedgerRepo() *MongoLedgerRepo {
	return &MongoLedgerRepo{
		accountColl: database.Collection("credit_accounts"),
		entryColl:   database.Collection("credit_entries"),
	}
}

const opTimeout = 5 * time.Second

func (repo *MongoLedgerRepo) Debit(ctx context.Context, userID string, amountCents int64, reason, bookingID string) error {
	if amountCents <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amountCents)
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"userId": userID, "balance": bson.M{"$gte": amountCents}}
	update := bson.M{"$inc": bson.M{"balance": -amountCents, "version": 1}}
	res, err := repo.accountColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to debit ledger for user %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return ErrInsufficient
	}

	if err := repo.appendEntry(ctx, userID, -amountCents, reason, bookingID); err != nil {
		// Balance moved but the audit entry did not land. Surface it so
		// the trail can be reconciled; never swallow.
		return fmt.Errorf("ledger debited but audit entry failed for user %s: %w", userID, err)
	}
	return nil
}

func (repo *MongoLedgerRepo) Credit(ctx context.Context, userID string, amountCents int64, reason, bookingID string) error {
	if amountCents <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amountCents)
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	update := bson.M{"$inc": bson.M{"balance": amountCents, "version": 1}}
	if _, err := repo.accountColl.UpdateOne(ctx, bson.M{"userId": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to credit ledger for user %s: %w", userID, err)
	}

	if err := repo.appendEntry(ctx, userID, amountCents, reason, bookingID); err != nil {
		return fmt.Errorf("ledger credited but audit entry failed for user %s: %w", userID, err)
	}
	return nil
}

func (repo *MongoLedgerRepo) appendEntry(ctx context.Context, userID string, amountCents int64, reason, bookingID string) error {
	entry := models.CreditEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		AmountCents: amountCents,
		Reason:      reason,
		BookingID:   bookingID,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := repo.entryColl.InsertOne(ctx, entry)
	return err
}

func (repo *MongoLedgerRepo) Balance(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var account struct {
		Balance int64 `bson:"balance"`
	}
	err := repo.accountColl.FindOne(ctx, bson.M{"userId": userID}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to fetch balance for user %s: %w", userID, err)
	}
	return account.Balance, nil
}

func (repo *MongoLedgerRepo) Entries(ctx context.Context, userID string) ([]models.CreditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := repo.entryColl.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var entries []models.CreditEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}
	return entries, nil
}
