package interfaces

import (
	"context"
	"errors"

	domain "main/internal/domain/entity/positions"

	"github.com/google/uuid"
)

var (
	ErrPositionNotFound = errors.New("position not found")
	// ErrConcurrencyConflict means the stored position changed between load and
	// write. Callers retry or recalculate; the repository never does.
	ErrConcurrencyConflict = errors.New("position was modified concurrently")
)

type PositionRepository interface {
	GetBySymbol(ctx context.Context, accessKey uuid.UUID, symbol string) (*domain.Position, error)
	GetAll(ctx context.Context, accessKey uuid.UUID) ([]domain.Position, error)
	Add(ctx context.Context, position *domain.Position) error
	Update(ctx context.Context, position *domain.Position) error
	Delete(ctx context.Context, position *domain.Position) error
	Close()
}
