package catalog

import (
	"context"
	"errors"

	"driftwell/models"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrPromoNotFound   = errors.New("promo code not found")
)

// Repository serves the immutable service catalog and promo codes.
type Repository interface {
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListServices(ctx context.Context) ([]models.Service, error)
	GetPromo(ctx context.Context, code string) (*models.PromoCode, error)
	// IncrementPromoUse bumps the use counter after a booking that
	// applied the code is confirmed.
	IncrementPromoUse(ctx context.Context, code string) error
}
