package interfaces

import (
	"context"
	"errors"

	domain "main/internal/domain/entity/transactions"

	"github.com/google/uuid"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionFilter narrows List results. Zero values mean "no filter".
type TransactionFilter struct {
	Symbol string
	Type   domain.TransactionType
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction *domain.Transaction) error
	CreateBatch(ctx context.Context, transactions []domain.Transaction) error
	GetByID(ctx context.Context, accessKey, id uuid.UUID) (*domain.Transaction, error)
	GetByIDs(ctx context.Context, accessKey uuid.UUID, ids []uuid.UUID) ([]domain.Transaction, error)
	Update(ctx context.Context, transaction *domain.Transaction) error
	Delete(ctx context.Context, accessKey, id uuid.UUID) error

	// GetHistoryForSymbol returns every transaction for the account and symbol
	// ascending by trade timestamp, optionally restricted to the given types.
	GetHistoryForSymbol(ctx context.Context, accessKey uuid.UUID, symbol string, types ...domain.TransactionType) ([]domain.Transaction, error)
	List(ctx context.Context, accessKey uuid.UUID, filter TransactionFilter) ([]domain.Transaction, error)

	Close()
}
