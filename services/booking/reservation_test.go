package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"driftwell/models"

	"go.uber.org/zap"
)

func testSlot(id string) models.TimeSlot {
	return models.TimeSlot{
		ID:        id,
		ServiceID: "cold-plunge",
		Date:      "2026-09-12",
		Start:     540,
		End:       570,
		State:     models.SlotOpen,
	}
}

func newTestEngine(repo *memAvailabilityRepo) *DefaultReservationEngine {
	return &DefaultReservationEngine{
		Repo:    repo,
		Logger:  zap.NewNop(),
		HoldTTL: 10 * time.Minute,
	}
}

func TestHoldExactlyOneWinner(t *testing.T) {
	repo := newMemAvailabilityRepo(testSlot("slot-1"))
	engine := newTestEngine(repo)
	ctx := context.Background()

	const contenders = 25
	results := make([]error, contenders)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = engine.Hold(ctx, "slot-1", fmt.Sprintf("session-%d", i))
		}(i)
	}
	close(start)
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case CodeOf(err) == CodeSlotUnavailable:
			losses++
		default:
			t.Errorf("unexpected hold error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("winners = %d, want exactly 1", wins)
	}
	if losses != contenders-1 {
		t.Errorf("losers = %d, want %d", losses, contenders-1)
	}
}

func TestHoldIdempotentForSameHolder(t *testing.T) {
	repo := newMemAvailabilityRepo(testSlot("slot-1"))
	engine := newTestEngine(repo)
	ctx := context.Background()

	if err := engine.Hold(ctx, "slot-1", "session-a"); err != nil {
		t.Fatalf("first hold: %v", err)
	}
	if err := engine.Hold(ctx, "slot-1", "session-a"); err != nil {
		t.Errorf("re-hold by the same holder should succeed, got %v", err)
	}
	if err := engine.Hold(ctx, "slot-1", "session-b"); CodeOf(err) != CodeSlotUnavailable {
		t.Errorf("hold by another holder: err = %v, want %s", err, CodeSlotUnavailable)
	}
}

func TestHoldClaimsExpiredHold(t *testing.T) {
	repo := newMemAvailabilityRepo(testSlot("slot-1"))
	engine := newTestEngine(repo)
	ctx := context.Background()

	// Lapsed hold seeded directly at the repo layer.
	if err := repo.TryHold(ctx, "slot-1", "session-stale", -time.Minute); err != nil {
		t.Fatalf("seeding stale hold: %v", err)
	}

	if err := engine.Hold(ctx, "slot-1", "session-fresh"); err != nil {
		t.Errorf("hold on expired-held slot should succeed, got %v", err)
	}
}

func TestHoldUnknownSlot(t *testing.T) {
	engine := newTestEngine(newMemAvailabilityRepo())
	if err := engine.Hold(context.Background(), "ghost", "session-a"); CodeOf(err) != CodeValidation {
		t.Errorf("err = %v, want %s", err, CodeValidation)
	}
}

func TestConfirmLifecycle(t *testing.T) {
	repo := newMemAvailabilityRepo(testSlot("slot-1"))
	engine := newTestEngine(repo)
	ctx := context.Background()

	if err := engine.Hold(ctx, "slot-1", "session-a"); err != nil {
		t.Fatalf("hold: %v", err)
	}

	// Wrong holder cannot confirm.
	if err := engine.Confirm(ctx, "slot-1", "session-b", "bk-x"); CodeOf(err) != CodeNotHolder {
		t.Errorf("confirm by non-holder: err = %v, want %s", err, CodeNotHolder)
	}

	if err := engine.Confirm(ctx, "slot-1", "session-a", "bk-1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got := repo.stateOf("slot-1"); got != models.SlotBooked {
		t.Errorf("slot state = %s, want %s", got, models.SlotBooked)
	}

	// A retried confirm with the same booking id is a success, not a conflict.
	if err := engine.Confirm(ctx, "slot-1", "session-a", "bk-1"); err != nil {
		t.Errorf("idempotent re-confirm: %v", err)
	}
	// A different booking on the now-booked slot is a hard conflict.
	if err := engine.Confirm(ctx, "slot-1", "session-c", "bk-2"); CodeOf(err) != CodeSlotTaken {
		t.Errorf("confirm on booked slot: err = %v, want %s", err, CodeSlotTaken)
	}
}

func TestConfirmAfterExpiry(t *testing.T) {
	repo := newMemAvailabilityRepo(testSlot("slot-1"))
	engine := newTestEngine(repo)
	ctx := context.Background()

	if err := repo.TryHold(ctx, "slot-1", "session-a", -time.Second); err != nil {
		t.Fatalf("seeding expired hold: %v", err)
	}
	if err := engine.Confirm(ctx, "slot-1", "session-a", "bk-1"); CodeOf(err) != CodeHoldExpired {
		t.Errorf("confirm after expiry: err = %v, want %s", err, CodeHoldExpired)
	}
}

func TestReleaseByNonHolderIsNoop(t *testing.T) {
	repo := newMemAvailabilityRepo(testSlot("slot-1"))
	engine := newTestEngine(repo)
	ctx := context.Background()

	if err := engine.Hold(ctx, "slot-1", "session-a"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if err := engine.Release(ctx, "slot-1", "session-b"); err != nil {
		t.Errorf("release by non-holder should be a silent no-op, got %v", err)
	}
	if got := repo.stateOf("slot-1"); got != models.SlotHeld {
		t.Errorf("slot state = %s, want still %s", got, models.SlotHeld)
	}

	if err := engine.Release(ctx, "slot-1", "session-a"); err != nil {
		t.Fatalf("release by holder: %v", err)
	}
	if got := repo.stateOf("slot-1"); got != models.SlotOpen {
		t.Errorf("slot state = %s, want %s", got, models.SlotOpen)
	}
}

func TestAvailabilityClosureVersusFullyBooked(t *testing.T) {
	slot := testSlot("slot-1")
	slot.State = models.SlotBooked
	slot.BookingID = "bk-1"
	repo := newMemAvailabilityRepo(slot)
	engine := newTestEngine(repo)
	ctx := context.Background()

	// Booked-out date: slots come back (marked booked), no closure.
	avail, err := engine.Availability(ctx, "cold-plunge", "2026-09-12")
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if avail.Closure != nil {
		t.Errorf("open date reported a closure: %+v", avail.Closure)
	}
	if len(avail.Slots) != 1 || avail.Slots[0].State != models.SlotBooked {
		t.Errorf("slots = %+v, want the one booked slot", avail.Slots)
	}

	// Closed date: empty slots plus the closure signal.
	if err := repo.UpsertClosure(ctx, models.Closure{Date: "2026-12-25", Reason: "holiday"}); err != nil {
		t.Fatalf("upsert closure: %v", err)
	}
	avail, err = engine.Availability(ctx, "cold-plunge", "2026-12-25")
	if err != nil {
		t.Fatalf("availability on closed date: %v", err)
	}
	if avail.Closure == nil || avail.Closure.Reason != "holiday" {
		t.Errorf("closure = %+v, want holiday closure", avail.Closure)
	}
	if len(avail.Slots) != 0 {
		t.Errorf("closed date returned %d slots, want 0", len(avail.Slots))
	}
}

func TestAvailabilitySurfacesExpiredHoldsAsOpen(t *testing.T) {
	repo := newMemAvailabilityRepo(testSlot("slot-1"))
	engine := newTestEngine(repo)
	ctx := context.Background()

	if err := repo.TryHold(ctx, "slot-1", "session-stale", -time.Minute); err != nil {
		t.Fatalf("seeding stale hold: %v", err)
	}
	avail, err := engine.Availability(ctx, "cold-plunge", "2026-09-12")
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(avail.Slots) != 1 || avail.Slots[0].State != models.SlotOpen {
		t.Errorf("expired hold not surfaced as open: %+v", avail.Slots)
	}
}

func TestSweepExpired(t *testing.T) {
	s1, s2, s3 := testSlot("slot-1"), testSlot("slot-2"), testSlot("slot-3")
	s2.Start, s2.End = 600, 630
	s3.Start, s3.End = 660, 690
	repo := newMemAvailabilityRepo(s1, s2, s3)
	engine := newTestEngine(repo)
	ctx := context.Background()

	if err := repo.TryHold(ctx, "slot-1", "stale-a", -time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := repo.TryHold(ctx, "slot-2", "stale-b", -time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := repo.TryHold(ctx, "slot-3", "live", time.Hour); err != nil {
		t.Fatal(err)
	}

	n, err := engine.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Errorf("reclaimed = %d, want 2", n)
	}
	if repo.stateOf("slot-1") != models.SlotOpen || repo.stateOf("slot-2") != models.SlotOpen {
		t.Error("expired holds were not reopened")
	}
	if repo.stateOf("slot-3") != models.SlotHeld {
		t.Error("live hold was incorrectly reclaimed")
	}
}
