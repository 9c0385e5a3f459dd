package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driftwell/database"
	"driftwell/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAvailabilityRepo implements Repository over two collections:
// "slots" (one document per slot) and "closures" (one per closed date).
// All transitions are FindOneAndUpdate calls whose filter encodes the
// expected prior state; the version counter increments on every write.
type MongoAvailabilityRepo struct {
	slotColl    *mongo.Collection
	closureColl *mongo.Collection
}

func NewMongoAvailabilityRepo() *MongoAvailabilityRepo {
	return &MongoAvailabilityRepo{
		slotColl:    database.Collection("slots"),
		closureColl: database.Collection("closures"),
	}
}

const opTimeout = 5 * time.Second

func (repo *MongoAvailabilityRepo) QuerySlots(ctx context.Context, serviceID, date string) ([]models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := repo.slotColl.Find(ctx, bson.M{"serviceId": serviceID, "date": date}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots for service %s on %s: %w", serviceID, date, err)
	}
	defer cursor.Close(ctx)

	var slots []models.TimeSlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}

	// Lazy expiry: a lapsed hold reads as open. The document itself is
	// reclaimed by the sweep or overwritten by the next TryHold.
	now := time.Now().UTC()
	for i := range slots {
		if slots[i].HoldExpired(now) {
			slots[i].State = models.SlotOpen
			slots[i].HoldHolder = ""
			slots[i].HoldExpiresAt = time.Time{}
		}
	}
	if slots == nil {
		slots = []models.TimeSlot{}
	}
	return slots, nil
}

func (repo *MongoAvailabilityRepo) GetSlot(ctx context.Context, slotID string) (*models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var slot models.TimeSlot
	err := repo.slotColl.FindOne(ctx, bson.M{"id": slotID}).Decode(&slot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slot %s: %w", slotID, err)
	}
	return &slot, nil
}

func (repo *MongoAvailabilityRepo) InsertSlots(ctx context.Context, slots []models.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	docs := make([]interface{}, 0, len(slots))
	for _, s := range slots {
		if s.State == "" {
			s.State = models.SlotOpen
		}
		docs = append(docs, s)
	}
	if _, err := repo.slotColl.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert slots: %w", err)
	}
	return nil
}

// TryHold's filter admits an open slot or a held slot whose hold has
// lapsed; anything else loses the race. Exactly one concurrent caller
// can match the filter, so exactly one wins.
func (repo *MongoAvailabilityRepo) TryHold(ctx context.Context, slotID, holderID string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{
		"id": slotID,
		"$or": []bson.M{
			{"state": models.SlotOpen},
			{"state": models.SlotHeld, "holdExpiresAt": bson.M{"$lte": now}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"state":         models.SlotHeld,
			"holdHolder":    holderID,
			"holdExpiresAt": now.Add(ttl),
		},
		"$inc": bson.M{"version": 1},
	}

	err := repo.slotColl.FindOneAndUpdate(ctx, filter, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repo.classifyHoldFailure(ctx, slotID, holderID)
	}
	if err != nil {
		return fmt.Errorf("failed to hold slot %s: %w", slotID, err)
	}
	return nil
}

// classifyHoldFailure turns a lost conditional update into a precise error.
func (repo *MongoAvailabilityRepo) classifyHoldFailure(ctx context.Context, slotID, holderID string) error {
	slot, err := repo.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}
	switch slot.State {
	case models.SlotBooked:
		return ErrSlotTaken
	case models.SlotHeld:
		if slot.HoldHolder == holderID {
			// Same holder re-holding an unexpired hold: already won.
			return nil
		}
		return ErrSlotUnavailable
	default:
		// The slot opened between our update and this read; treat the
		// original attempt as lost rather than retrying internally.
		return ErrSlotUnavailable
	}
}

func (repo *MongoAvailabilityRepo) Release(ctx context.Context, slotID, holderID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"id": slotID, "state": models.SlotHeld, "holdHolder": holderID}
	update := bson.M{
		"$set": bson.M{"state": models.SlotOpen},
		"$unset": bson.M{
			"holdHolder":    "",
			"holdExpiresAt": "",
		},
		"$inc": bson.M{"version": 1},
	}
	err := repo.slotColl.FindOneAndUpdate(ctx, filter, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Not held by us anymore; nothing to release.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to release slot %s: %w", slotID, err)
	}
	return nil
}

func (repo *MongoAvailabilityRepo) Confirm(ctx context.Context, slotID, holderID, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{
		"id":            slotID,
		"state":         models.SlotHeld,
		"holdHolder":    holderID,
		"holdExpiresAt": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"state":     models.SlotBooked,
			"bookingId": bookingID,
		},
		"$unset": bson.M{
			"holdHolder":    "",
			"holdExpiresAt": "",
		},
		"$inc": bson.M{"version": 1},
	}

	err := repo.slotColl.FindOneAndUpdate(ctx, filter, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repo.classifyConfirmFailure(ctx, slotID, holderID, bookingID)
	}
	if err != nil {
		return fmt.Errorf("failed to confirm slot %s: %w", slotID, err)
	}
	return nil
}

func (repo *MongoAvailabilityRepo) classifyConfirmFailure(ctx context.Context, slotID, holderID, bookingID string) error {
	slot, err := repo.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}
	switch slot.State {
	case models.SlotBooked:
		if slot.BookingID == bookingID {
			// Idempotent confirm retry.
			return nil
		}
		return ErrSlotTaken
	case models.SlotHeld:
		if slot.HoldHolder != holderID {
			return ErrNotHolder
		}
		return ErrHoldExpired
	default:
		return ErrHoldExpired
	}
}

func (repo *MongoAvailabilityRepo) Reopen(ctx context.Context, slotID, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"id": slotID, "state": models.SlotBooked, "bookingId": bookingID}
	update := bson.M{
		"$set":   bson.M{"state": models.SlotOpen},
		"$unset": bson.M{"bookingId": ""},
		"$inc":   bson.M{"version": 1},
	}
	err := repo.slotColl.FindOneAndUpdate(ctx, filter, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to reopen slot %s: %w", slotID, err)
	}
	return nil
}

func (repo *MongoAvailabilityRepo) ReclaimExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{"state": models.SlotHeld, "holdExpiresAt": bson.M{"$lte": now}}
	update := bson.M{
		"$set": bson.M{"state": models.SlotOpen},
		"$unset": bson.M{
			"holdHolder":    "",
			"holdExpiresAt": "",
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := repo.slotColl.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim expired holds: %w", err)
	}
	return res.ModifiedCount, nil
}

func (repo *MongoAvailabilityRepo) ClosureFor(ctx context.Context, date string) (*models.Closure, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var closure models.Closure
	err := repo.closureColl.FindOne(ctx, bson.M{"date": date}).Decode(&closure)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up closure for %s: %w", date, err)
	}
	return &closure, nil
}

func (repo *MongoAvailabilityRepo) UpsertClosure(ctx context.Context, closure models.Closure) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	_, err := repo.closureColl.UpdateOne(ctx,
		bson.M{"date": closure.Date},
		bson.M{"$set": bson.M{"reason": closure.Reason}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert closure for %s: %w", closure.Date, err)
	}
	return nil
}
