package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwebster45206/yoga-journey/pkg/catalog"
	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

// ErrConflict is returned by UpdateJourney when the journey kept changing
// underneath every attempt.
var ErrConflict = errors.New("journey was modified concurrently")

// Storage defines a unified interface for all storage operations.
// Journeys, reviews and theme preferences live in Redis; the product catalog
// is read from the data directory.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Journey operations. LoadJourney returns nil, nil when the journey does
	// not exist.
	SaveJourney(ctx context.Context, gs *journey.GameState) error
	LoadJourney(ctx context.Context, id uuid.UUID) (*journey.GameState, error)
	DeleteJourney(ctx context.Context, id uuid.UUID) error

	// UpdateJourney loads the journey, applies fn and saves it only if nothing
	// else wrote it in between, calling fn again on a fresh copy otherwise.
	// An error from fn aborts the update and is returned as is. It returns
	// nil, nil when the journey does not exist.
	UpdateJourney(ctx context.Context, id uuid.UUID, fn func(*journey.GameState) error) (*journey.GameState, error)

	// ClaimTurn marks a story request as in flight for the journey. It
	// returns false if one already is. ReleaseTurn clears the mark.
	ClaimTurn(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseTurn(ctx context.Context, id uuid.UUID) error

	// Catalog operations. Products are returned with their reviews attached;
	// GetProduct returns nil, nil for an unknown id.
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id int) (*catalog.Product, error)

	// Review operations
	AddReview(ctx context.Context, productID int, review catalog.Review) error
	ListReviews(ctx context.Context, productID int) ([]catalog.Review, error)

	// Theme preference per player. LoadTheme returns "" when none is saved.
	SaveTheme(ctx context.Context, player string, theme journey.Theme) error
	LoadTheme(ctx context.Context, player string) (journey.Theme, error)
}
