package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"driftwell/database/repository/availability"
	"driftwell/database/repository/bookingrepo"
	"driftwell/database/repository/catalog"
	"driftwell/models"
	"driftwell/services/geo"
	"driftwell/services/ledger"
	"driftwell/services/payment"
)

// memAvailabilityRepo mirrors the store's conditional-write semantics in
// memory: every transition checks the expected prior state under one
// lock, so contested transitions have exactly one winner.
type memAvailabilityRepo struct {
	mu       sync.Mutex
	slots    map[string]*models.TimeSlot
	closures map[string]models.Closure
}

func newMemAvailabilityRepo(slots ...models.TimeSlot) *memAvailabilityRepo {
	r := &memAvailabilityRepo{
		slots:    make(map[string]*models.TimeSlot),
		closures: make(map[string]models.Closure),
	}
	for i := range slots {
		s := slots[i]
		r.slots[s.ID] = &s
	}
	return r
}

func (r *memAvailabilityRepo) QuerySlots(_ context.Context, serviceID, date string) ([]models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	out := []models.TimeSlot{}
	for _, s := range r.slots {
		if s.ServiceID != serviceID || s.Date != date {
			continue
		}
		view := *s
		if view.HoldExpired(now) {
			view.State = models.SlotOpen
			view.HoldHolder = ""
			view.HoldExpiresAt = time.Time{}
		}
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (r *memAvailabilityRepo) GetSlot(_ context.Context, slotID string) (*models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return nil, availability.ErrNotFound
	}
	view := *s
	return &view, nil
}

func (r *memAvailabilityRepo) InsertSlots(_ context.Context, slots []models.TimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range slots {
		s := slots[i]
		r.slots[s.ID] = &s
	}
	return nil
}

func (r *memAvailabilityRepo) TryHold(_ context.Context, slotID, holderID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return availability.ErrNotFound
	}
	now := time.Now().UTC()
	if s.State == models.SlotOpen || s.HoldExpired(now) {
		s.State = models.SlotHeld
		s.HoldHolder = holderID
		s.HoldExpiresAt = now.Add(ttl)
		s.Version++
		return nil
	}
	if s.State == models.SlotBooked {
		return availability.ErrSlotTaken
	}
	if s.HoldHolder == holderID {
		return nil
	}
	return availability.ErrSlotUnavailable
}

func (r *memAvailabilityRepo) Release(_ context.Context, slotID, holderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return availability.ErrNotFound
	}
	if s.State == models.SlotHeld && s.HoldHolder == holderID {
		s.State = models.SlotOpen
		s.HoldHolder = ""
		s.HoldExpiresAt = time.Time{}
		s.Version++
	}
	return nil
}

func (r *memAvailabilityRepo) Confirm(_ context.Context, slotID, holderID, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return availability.ErrNotFound
	}
	now := time.Now().UTC()
	if s.State == models.SlotHeld && s.HoldHolder == holderID && s.HoldExpiresAt.After(now) {
		s.State = models.SlotBooked
		s.BookingID = bookingID
		s.HoldHolder = ""
		s.HoldExpiresAt = time.Time{}
		s.Version++
		return nil
	}
	switch {
	case s.State == models.SlotBooked && s.BookingID == bookingID:
		return nil
	case s.State == models.SlotBooked:
		return availability.ErrSlotTaken
	case s.State == models.SlotHeld && s.HoldHolder != holderID && s.HoldExpiresAt.After(now):
		return availability.ErrNotHolder
	default:
		return availability.ErrHoldExpired
	}
}

func (r *memAvailabilityRepo) Reopen(_ context.Context, slotID, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return availability.ErrNotFound
	}
	if s.State == models.SlotBooked && s.BookingID == bookingID {
		s.State = models.SlotOpen
		s.BookingID = ""
		s.Version++
	}
	return nil
}

func (r *memAvailabilityRepo) ReclaimExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for _, s := range r.slots {
		if s.HoldExpired(now) {
			s.State = models.SlotOpen
			s.HoldHolder = ""
			s.HoldExpiresAt = time.Time{}
			s.Version++
			n++
		}
	}
	return n, nil
}

func (r *memAvailabilityRepo) ClosureFor(_ context.Context, date string) (*models.Closure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.closures[date]; ok {
		view := c
		return &view, nil
	}
	return nil, nil
}

func (r *memAvailabilityRepo) UpsertClosure(_ context.Context, closure models.Closure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closures[closure.Date] = closure
	return nil
}

func (r *memAvailabilityRepo) stateOf(slotID string) models.SlotState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[slotID].State
}

// memCatalog serves services and promos from maps.
type memCatalog struct {
	mu        sync.Mutex
	services  map[string]models.Service
	promos    map[string]models.PromoCode
	promoUses map[string]int
}

func newMemCatalog(services ...models.Service) *memCatalog {
	c := &memCatalog{
		services:  make(map[string]models.Service),
		promos:    make(map[string]models.PromoCode),
		promoUses: make(map[string]int),
	}
	for _, s := range services {
		c.services[s.ID] = s
	}
	return c
}

func (c *memCatalog) GetService(_ context.Context, id string) (*models.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.services[id]
	if !ok || !s.Active {
		return nil, catalog.ErrServiceNotFound
	}
	view := s
	return &view, nil
}

func (c *memCatalog) ListServices(_ context.Context) ([]models.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Service, 0, len(c.services))
	for _, s := range c.services {
		out = append(out, s)
	}
	return out, nil
}

func (c *memCatalog) GetPromo(_ context.Context, code string) (*models.PromoCode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.promos[code]
	if !ok {
		return nil, catalog.ErrPromoNotFound
	}
	view := p
	return &view, nil
}

func (c *memCatalog) IncrementPromoUse(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promoUses[code]++
	return nil
}

func (c *memCatalog) setService(s models.Service) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[s.ID] = s
}

// memBookings persists bookings and reconciliation records in memory.
type memBookings struct {
	mu         sync.Mutex
	bookings   map[string]models.Booking
	recs       []models.ReconciliationRecord
	failInsert bool
}

func newMemBookings() *memBookings {
	return &memBookings{bookings: make(map[string]models.Booking)}
}

func (b *memBookings) Insert(_ context.Context, booking *models.Booking) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failInsert {
		return errors.New("write concern error")
	}
	b.bookings[booking.ID] = *booking
	return nil
}

func (b *memBookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, ok := b.bookings[id]
	if !ok {
		return nil, bookingrepo.ErrNotFound
	}
	view := bk
	return &view, nil
}

func (b *memBookings) ListByUser(_ context.Context, userID string) ([]models.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Booking{}
	for _, bk := range b.bookings {
		if bk.UserID == userID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (b *memBookings) UpdateStatus(_ context.Context, id string, from, to models.BookingStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, ok := b.bookings[id]
	if !ok || bk.Status != from {
		return bookingrepo.ErrBadTransition
	}
	bk.Status = to
	bk.UpdatedAt = time.Now().UTC()
	b.bookings[id] = bk
	return nil
}

func (b *memBookings) InsertReconciliation(_ context.Context, rec *models.ReconciliationRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recs = append(b.recs, *rec)
	return nil
}

func (b *memBookings) ListUnresolvedReconciliations(_ context.Context) ([]models.ReconciliationRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.ReconciliationRecord{}
	for _, r := range b.recs {
		if !r.Resolved {
			out = append(out, r)
		}
	}
	return out, nil
}

// memLedger implements the ledger service with an atomic guarded debit.
type memLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	entries  []models.CreditEntry
}

func newMemLedger() *memLedger {
	return &memLedger{balances: make(map[string]int64)}
}

func (l *memLedger) Balance(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *memLedger) Entries(_ context.Context, userID string) ([]models.CreditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.CreditEntry{}
	for _, e := range l.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *memLedger) Apply(_ context.Context, userID string, amountCents int64, bookingID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[userID] < amountCents {
		return ledger.ErrInsufficient
	}
	l.balances[userID] -= amountCents
	l.entries = append(l.entries, models.CreditEntry{
		UserID:      userID,
		AmountCents: -amountCents,
		Reason:      models.CreditReasonBookingDebit,
		BookingID:   bookingID,
	})
	return nil
}

func (l *memLedger) Refund(_ context.Context, userID string, amountCents int64, bookingID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amountCents
	l.entries = append(l.entries, models.CreditEntry{
		UserID:      userID,
		AmountCents: amountCents,
		Reason:      models.CreditReasonCancellation,
		BookingID:   bookingID,
	})
	return nil
}

func (l *memLedger) Grant(_ context.Context, userID string, amountCents int64, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amountCents
	return nil
}

// fakeGateway scripts gateway outcomes and records every call.
type fakeGateway struct {
	mu         sync.Mutex
	declineAll bool
	timeoutAll bool
	failVoid   bool
	authorized []payment.AuthorizeParams
	charges    int
	voided     []string
	refunded   map[string]int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{refunded: make(map[string]int64)}
}

func (g *fakeGateway) Authorize(_ context.Context, p payment.AuthorizeParams) (*payment.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timeoutAll {
		return nil, context.DeadlineExceeded
	}
	if g.declineAll {
		return nil, payment.ErrDeclined
	}
	g.charges++
	g.authorized = append(g.authorized, p)
	return &payment.Charge{ID: "ch_test_" + p.IdempotencyKey, Status: "requires_capture"}, nil
}

func (g *fakeGateway) Void(_ context.Context, chargeID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failVoid {
		return errors.New("gateway unreachable")
	}
	g.voided = append(g.voided, chargeID)
	return nil
}

func (g *fakeGateway) Refund(_ context.Context, chargeID string, amountCents int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunded[chargeID] = amountCents
	return nil
}

// fixedSetupFee returns a constant fee, or degrades on demand.
type fixedSetupFee struct {
	fee      int64
	degraded bool
}

func (f *fixedSetupFee) ComputeSetupFee(context.Context, models.Address) (int64, error) {
	if f.degraded {
		return 0, geo.ErrUnavailable
	}
	return f.fee, nil
}

// fakeNotifier records confirmations.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (n *fakeNotifier) EnqueueConfirmation(_ context.Context, booking models.Booking, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("queue full")
	}
	n.sent = append(n.sent, booking.ID)
	return nil
}
