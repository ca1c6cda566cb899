package positions

import (
	"context"
	"errors"
	"time"

	domain "main/internal/domain/entity/positions"
	transactions "main/internal/domain/entity/transactions"
	interfaces "main/internal/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ChangeKind classifies a position lifecycle transition for event consumers.
type ChangeKind string

const (
	PositionOpened  ChangeKind = "opened"
	PositionUpdated ChangeKind = "updated"
	PositionClosed  ChangeKind = "closed"
)

// Event describes a persisted position change. Emitted after the write, never
// as part of the transition itself.
type Event struct {
	AccessKey  uuid.UUID       `json:"access_key"`
	Symbol     string          `json:"symbol"`
	Quantity   decimal.Decimal `json:"quantity"`
	Exposure   domain.Exposure `json:"exposure"`
	IsClosed   bool            `json:"is_closed"`
	Kind       ChangeKind      `json:"kind"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Notifier receives position change events. A nil notifier disables emission.
type Notifier interface {
	NotifyPositionChanged(ctx context.Context, event Event) error
}

// Service reconciles persisted positions with transaction activity. All
// mutating entry points serialize on the (access key, symbol) pair, so
// concurrent calls against the same position never lose updates while other
// symbols stay unaffected.
type Service struct {
	positions    interfaces.PositionRepository
	transactions interfaces.TransactionRepository
	logger       *logrus.Logger
	notifier     Notifier
	keys         *keyedMutex
}

// NewService wires the reconciliation service. notifier may be nil.
func NewService(positions interfaces.PositionRepository, transactions interfaces.TransactionRepository, logger *logrus.Logger, notifier Notifier) *Service {
	return &Service{
		positions:    positions,
		transactions: transactions,
		logger:       logger,
		notifier:     notifier,
		keys:         newKeyedMutex(),
	}
}

func positionKey(accessKey uuid.UUID, symbol string) string {
	return accessKey.String() + "|" + symbol
}

// AttachToPosition applies a single transaction's effect to the stored
// position for the symbol, creating the record when none exists yet.
func (s *Service) AttachToPosition(ctx context.Context, accessKey uuid.UUID, symbol string, t transactions.TransactionType, quantity decimal.Decimal) error {
	unlock := s.keys.Lock(positionKey(accessKey, symbol))
	defer unlock()
	return s.apply(ctx, accessKey, symbol, func(p *domain.Position) {
		p.Attach(t, quantity)
	})
}

// DetachFromPosition reverses a previously attached transaction, typically
// because the transaction was deleted.
func (s *Service) DetachFromPosition(ctx context.Context, accessKey uuid.UUID, symbol string, t transactions.TransactionType, quantity decimal.Decimal) error {
	unlock := s.keys.Lock(positionKey(accessKey, symbol))
	defer unlock()
	return s.apply(ctx, accessKey, symbol, func(p *domain.Position) {
		p.Detach(t, quantity)
	})
}

// RefreshForTransaction attaches one stored transaction, loading it first so a
// missing record surfaces as ErrTransactionNotFound instead of being skipped.
func (s *Service) RefreshForTransaction(ctx context.Context, accessKey, transactionID uuid.UUID) error {
	transaction, err := s.transactions.GetByID(ctx, accessKey, transactionID)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"symbol":         transaction.Symbol,
		"transaction_id": transactionID,
	}).Info("refreshing position for transaction")
	return s.AttachToPosition(ctx, accessKey, transaction.Symbol, transaction.Type, transaction.Quantity)
}

// RefreshForTransactionCollection attaches a batch of stored transactions to
// one position. The position is loaded once and persisted once, so readers
// never observe a partially applied batch. Transactions whose symbol does not
// match are ignored.
func (s *Service) RefreshForTransactionCollection(ctx context.Context, accessKey uuid.UUID, symbol string, transactionIDs []uuid.UUID) error {
	batch, err := s.transactions.GetByIDs(ctx, accessKey, transactionIDs)
	if err != nil {
		return err
	}
	if len(batch) != len(transactionIDs) {
		return interfaces.ErrTransactionNotFound
	}

	unlock := s.keys.Lock(positionKey(accessKey, symbol))
	defer unlock()

	s.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"count":  len(batch),
	}).Info("refreshing position for transaction collection")

	return s.apply(ctx, accessKey, symbol, func(p *domain.Position) {
		for _, transaction := range batch {
			if transaction.Symbol == p.Symbol {
				p.Attach(transaction.Type, transaction.Quantity)
			}
		}
	})
}

// RecalculateForSymbol rebuilds the position from the full transaction history
// in timestamp order. Any stored position is deleted first, so the replayed
// result is authoritative and repairs drift left by missed incremental events.
func (s *Service) RecalculateForSymbol(ctx context.Context, accessKey uuid.UUID, symbol string) error {
	unlock := s.keys.Lock(positionKey(accessKey, symbol))
	defer unlock()

	s.logger.WithField("symbol", symbol).Info("recalculating position from history")

	existing, err := s.positions.GetBySymbol(ctx, accessKey, symbol)
	if err != nil && !errors.Is(err, interfaces.ErrPositionNotFound) {
		return err
	}
	if err == nil {
		if err := s.positions.Delete(ctx, existing); err != nil {
			return err
		}
	}

	history, err := s.transactions.GetHistoryForSymbol(ctx, accessKey, symbol)
	if err != nil {
		return err
	}

	position := domain.New(accessKey, symbol)
	for _, transaction := range history {
		position.Attach(transaction.Type, transaction.Quantity)
	}
	return s.handleNew(ctx, position)
}

// CreateSourceTransactionMap links the current open quantity back to the buy
// transactions that opened it, FIFO. The buys come from the same ordered
// history the quantity folding reads, narrowed to the buy-to-open side.
func (s *Service) CreateSourceTransactionMap(ctx context.Context, accessKey uuid.UUID, symbol string) ([]domain.SourceTransactionLink, error) {
	position, err := s.positions.GetBySymbol(ctx, accessKey, symbol)
	if err != nil {
		if errors.Is(err, interfaces.ErrPositionNotFound) {
			return nil, domain.ErrNoOpenPosition
		}
		return nil, err
	}

	buys, err := s.transactions.GetHistoryForSymbol(ctx, accessKey, symbol, transactions.BuyToOpen)
	if err != nil {
		return nil, err
	}
	return domain.BuildSourceTransactionMap(position.Quantity, buys)
}

// CalculateAverageCostBasis returns the weighted-average acquisition price of
// the open quantity, rounded to cents.
func (s *Service) CalculateAverageCostBasis(ctx context.Context, accessKey uuid.UUID, symbol string) (decimal.Decimal, error) {
	links, err := s.CreateSourceTransactionMap(ctx, accessKey, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.AverageCostBasis(links)
}

// GetBySymbol exposes the stored position for read paths.
func (s *Service) GetBySymbol(ctx context.Context, accessKey uuid.UUID, symbol string) (*domain.Position, error) {
	return s.positions.GetBySymbol(ctx, accessKey, symbol)
}

// GetAll lists every open position for the account.
func (s *Service) GetAll(ctx context.Context, accessKey uuid.UUID) ([]domain.Position, error) {
	return s.positions.GetAll(ctx, accessKey)
}

// apply runs the load-mutate-persist cycle under the caller-held key lock.
func (s *Service) apply(ctx context.Context, accessKey uuid.UUID, symbol string, mutate func(*domain.Position)) error {
	position, err := s.positions.GetBySymbol(ctx, accessKey, symbol)
	if err != nil {
		if !errors.Is(err, interfaces.ErrPositionNotFound) {
			return err
		}
		position = domain.New(accessKey, symbol)
		mutate(position)
		return s.handleNew(ctx, position)
	}
	mutate(position)
	return s.handleExisting(ctx, position)
}

// handleNew persists a freshly built position. A position that nets to zero is
// never written.
func (s *Service) handleNew(ctx context.Context, position *domain.Position) error {
	if position.IsClosed {
		return nil
	}
	if err := s.positions.Add(ctx, position); err != nil {
		return err
	}
	s.logger.WithField("symbol", position.Symbol).Info("position added")
	s.notify(ctx, position, PositionOpened)
	return nil
}

// handleExisting updates the stored record while the position stays open and
// deletes it once the quantity returns to zero.
func (s *Service) handleExisting(ctx context.Context, position *domain.Position) error {
	if !position.IsClosed {
		if err := s.positions.Update(ctx, position); err != nil {
			return err
		}
		s.logger.WithField("symbol", position.Symbol).Info("position updated")
		s.notify(ctx, position, PositionUpdated)
		return nil
	}
	if err := s.positions.Delete(ctx, position); err != nil {
		return err
	}
	s.logger.WithField("symbol", position.Symbol).Info("position closed")
	s.notify(ctx, position, PositionClosed)
	return nil
}

func (s *Service) notify(ctx context.Context, position *domain.Position, kind ChangeKind) {
	if s.notifier == nil {
		return
	}
	event := Event{
		AccessKey:  position.AccessKey,
		Symbol:     position.Symbol,
		Quantity:   position.Quantity,
		Exposure:   position.Exposure,
		IsClosed:   position.IsClosed,
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.notifier.NotifyPositionChanged(ctx, event); err != nil {
		s.logger.WithError(err).WithField("symbol", position.Symbol).Warn("position event emission failed")
	}
}
