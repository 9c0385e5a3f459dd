package booking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"driftwell/models"
	"driftwell/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingSession is the wizard state: one immutable request snapshot
// plus the quote issued for it. Stored as JSON in Redis under the
// session id with a TTL; the session id doubles as hold holder and
// payment idempotency key.
type BookingSession struct {
	SessionID    string               `json:"sessionId"`
	Request      models.BookingRequest `json:"request"`
	Quote        models.PriceQuote    `json:"quote"`
	Availability *models.Availability `json:"availability,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// DefaultBookingSessionService implements SessionService over the
// session cache and the orchestrator.
type DefaultBookingSessionService struct {
	Service    BookingService
	Engine     ReservationEngine
	Logger     *zap.Logger
	SessionTTL time.Duration
}

// StartSession validates the request, prices it, computes availability
// for the requested date and caches the whole snapshot.
func (s *DefaultBookingSessionService) StartSession(ctx context.Context, req models.BookingRequest) (*BookingSession, error) {
	quote, err := s.Service.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	avail, err := s.Engine.Availability(ctx, req.ServiceID, req.Date)
	if err != nil {
		return nil, err
	}

	session := &BookingSession{
		SessionID:    uuid.New().String(),
		Request:      req,
		Quote:        *quote,
		Availability: avail,
		CreatedAt:    time.Now().UTC(),
	}
	session.Request.IdempotencyKey = session.SessionID

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	s.Logger.Info("booking session started",
		zap.String("session", session.SessionID),
		zap.String("service", req.ServiceID),
		zap.Int64("quotedTotal", quote.TotalCents))
	return session, nil
}

// SelectSlot records the chosen slot on the snapshot. The hold itself is
// taken at confirm time so an abandoned wizard never starves the slot.
func (s *DefaultBookingSessionService) SelectSlot(ctx context.Context, sessionID, slotID string) (*BookingSession, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Availability != nil && session.Availability.Closure != nil {
		return nil, NewValidationError("we are closed on %s: %s",
			session.Request.Date, session.Availability.Closure.Reason)
	}

	found := false
	for _, slot := range session.Availability.Slots {
		if slot.ID == slotID {
			found = true
			break
		}
	}
	if !found {
		return nil, NewValidationError("slot %s is not in this session's availability", slotID)
	}

	session.Request.SlotID = slotID
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ConfirmSession runs the orchestrator against the cached snapshot. The
// session is kept alive on retryable failures so the customer can try
// again with the same idempotency key.
func (s *DefaultBookingSessionService) ConfirmSession(ctx context.Context, sessionID string) (*models.Booking, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Request.SlotID == "" {
		return nil, NewValidationError("no slot selected for session %s", sessionID)
	}

	booking, err := s.Service.CreateBooking(ctx, session.Request, session.Quote)
	if err != nil {
		return nil, err
	}

	if err := utils.GetSessionCacheClient().Del(ctx, sessionID).Err(); err != nil {
		s.Logger.Warn("failed to delete completed session",
			zap.String("session", sessionID), zap.Error(err))
	}
	return booking, nil
}

// CancelSession drops the wizard state and frees any hold taken under
// this session so a mid-flow exit never leaves a dangling Held slot.
func (s *DefaultBookingSessionService) CancelSession(ctx context.Context, sessionID string) error {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		// Already expired; nothing to release (holds share the session TTL ceiling).
		var be *Error
		if errors.As(err, &be) && be.Code == CodeValidation {
			return nil
		}
		return err
	}

	if session.Request.SlotID != "" {
		if err := s.Engine.Release(ctx, session.Request.SlotID, sessionID); err != nil {
			s.Logger.Warn("failed to release hold on session cancel",
				zap.String("session", sessionID), zap.Error(err))
		}
	}

	if err := utils.GetSessionCacheClient().Del(ctx, sessionID).Err(); err != nil {
		return NewServiceUnavailableError("failed to cancel session: %v", err)
	}
	s.Logger.Info("booking session cancelled", zap.String("session", sessionID))
	return nil
}

func (s *DefaultBookingSessionService) save(ctx context.Context, session *BookingSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return NewServiceUnavailableError("failed to marshal session: %v", err)
	}
	if err := utils.GetSessionCacheClient().Set(ctx, session.SessionID, data, s.SessionTTL).Err(); err != nil {
		return NewServiceUnavailableError("failed to store session: %v", err)
	}
	return nil
}

func (s *DefaultBookingSessionService) load(ctx context.Context, sessionID string) (*BookingSession, error) {
	data, err := utils.GetSessionCacheClient().Get(ctx, sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, NewValidationError("booking session not found or expired")
	}
	if err != nil {
		return nil, NewServiceUnavailableError("failed to load session: %v", err)
	}
	var session BookingSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, NewServiceUnavailableError("failed to parse session: %v", err)
	}
	// IdempotencyKey is excluded from JSON, so restore it from the id.
	session.Request.IdempotencyKey = session.SessionID
	return &session, nil
}
