package ledger

import (
	"context"
	"errors"

	ledgerRepo "driftwell/database/repository/ledger"
	"driftwell/models"

	"go.uber.org/zap"
)

// ErrInsufficient is re-exported so callers need not import the repo package.
var ErrInsufficient = ledgerRepo.ErrInsufficient

// Service is the credit ledger surface the orchestrator and handlers use.
type Service interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Entries(ctx context.Context, userID string) ([]models.CreditEntry, error)
	// Apply debits amountCents against a booking. Atomic with the balance
	// check; returns ErrInsufficient rather than overdrawing.
	Apply(ctx context.Context, userID string, amountCents int64, bookingID string) error
	// Refund credits back a previously applied amount (cancellations).
	Refund(ctx context.Context, userID string, amountCents int64, bookingID string) error
	// Grant adds promotional/referral credit.
	Grant(ctx context.Context, userID string, amountCents int64, reason string) error
}

type DefaultLedgerService struct {
	Repo   ledgerRepo.Repository
	Logger *zap.Logger
}

func (s *DefaultLedgerService) Balance(ctx context.Context, userID string) (int64, error) {
	return s.Repo.Balance(ctx, userID)
}

func (s *DefaultLedgerService) Entries(ctx context.Context, userID string) ([]models.CreditEntry, error) {
	return s.Repo.Entries(ctx, userID)
}

func (s *DefaultLedgerService) Apply(ctx context.Context, userID string, amountCents int64, bookingID string) error {
	err := s.Repo.Debit(ctx, userID, amountCents, models.CreditReasonBookingDebit, bookingID)
	if errors.Is(err, ledgerRepo.ErrInsufficient) {
		return err
	}
	if err != nil {
		return err
	}
	s.Logger.Info("credits applied",
		zap.String("user", userID),
		zap.Int64("amount", amountCents),
		zap.String("booking", bookingID))
	return nil
}

func (s *DefaultLedgerService) Refund(ctx context.Context, userID string, amountCents int64, bookingID string) error {
	if err := s.Repo.Credit(ctx, userID, amountCents, models.CreditReasonCancellation, bookingID); err != nil {
		return err
	}
	s.Logger.Info("credits refunded",
		zap.String("user", userID),
		zap.Int64("amount", amountCents),
		zap.String("booking", bookingID))
	return nil
}

func (s *DefaultLedgerService) Grant(ctx context.Context, userID string, amountCents int64, reason string) error {
	if reason == "" {
		reason = models.CreditReasonGrant
	}
	return s.Repo.Credit(ctx, userID, amountCents, reason, "")
}
