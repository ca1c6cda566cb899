package transactions

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	apppositions "main/internal/application/service/positions"
	domain "main/internal/domain/entity/transactions"
	interfaces "main/internal/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrEmptyCollection = errors.New("transaction collection is empty")

// Service owns the transaction write path. Every create, update, or delete is
// followed by the matching position reconciliation so the stored positions
// track transaction activity without a separate sync step.
type Service struct {
	repo      interfaces.TransactionRepository
	positions *apppositions.Service
	logger    *logrus.Logger
}

func NewService(repo interfaces.TransactionRepository, positions *apppositions.Service, logger *logrus.Logger) *Service {
	return &Service{repo: repo, positions: positions, logger: logger}
}

// Create validates and stores one transaction, then attaches it to the
// position for its symbol.
func (s *Service) Create(ctx context.Context, transaction *domain.Transaction) error {
	if err := transaction.Validate(); err != nil {
		return err
	}
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	if transaction.DateTime.IsZero() {
		transaction.DateTime = time.Now().UTC()
	}
	transaction.Notional = transaction.Quantity.Mul(transaction.TradePrice)

	if err := s.repo.Create(ctx, transaction); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"transaction_id": transaction.ID,
		"symbol":         transaction.Symbol,
		"type":           transaction.Type,
	}).Info("transaction created")

	return s.positions.AttachToPosition(ctx, transaction.AccessKey, transaction.Symbol, transaction.Type, transaction.Quantity)
}

// CreateCollection stores a batch of transactions and refreshes each affected
// symbol once, so a multi-symbol import produces one consistent position write
// per symbol instead of one per transaction.
func (s *Service) CreateCollection(ctx context.Context, accessKey uuid.UUID, batch []domain.Transaction) ([]domain.Transaction, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyCollection
	}
	for i := range batch {
		batch[i].AccessKey = accessKey
		if err := batch[i].Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		if batch[i].ID == uuid.Nil {
			batch[i].ID = uuid.New()
		}
		if batch[i].DateTime.IsZero() {
			batch[i].DateTime = time.Now().UTC()
		}
		batch[i].Notional = batch[i].Quantity.Mul(batch[i].TradePrice)
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	idsBySymbol := make(map[string][]uuid.UUID)
	for i := range batch {
		idsBySymbol[batch[i].Symbol] = append(idsBySymbol[batch[i].Symbol], batch[i].ID)
	}
	for symbol, ids := range idsBySymbol {
		if err := s.positions.RefreshForTransactionCollection(ctx, accessKey, symbol, ids); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"count":   len(batch),
		"symbols": len(idsBySymbol),
	}).Info("transaction collection created")
	return batch, nil
}

// Update replaces a stored transaction. The old values are detached from the
// old symbol's position before the new values are attached, which keeps both
// positions correct even when the update moves the transaction across symbols.
func (s *Service) Update(ctx context.Context, transaction *domain.Transaction) error {
	if err := transaction.Validate(); err != nil {
		return err
	}

	previous, err := s.repo.GetByID(ctx, transaction.AccessKey, transaction.ID)
	if err != nil {
		return err
	}

	transaction.Notional = transaction.Quantity.Mul(transaction.TradePrice)
	if err := s.repo.Update(ctx, transaction); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"transaction_id": transaction.ID,
		"symbol":         transaction.Symbol,
	}).Info("transaction updated")

	if err := s.positions.DetachFromPosition(ctx, previous.AccessKey, previous.Symbol, previous.Type, previous.Quantity); err != nil {
		return err
	}
	return s.positions.AttachToPosition(ctx, transaction.AccessKey, transaction.Symbol, transaction.Type, transaction.Quantity)
}

// Delete removes a transaction and detaches its effect from the position.
func (s *Service) Delete(ctx context.Context, accessKey, id uuid.UUID) error {
	transaction, err := s.repo.GetByID(ctx, accessKey, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, accessKey, id); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"transaction_id": id,
		"symbol":         transaction.Symbol,
	}).Info("transaction deleted")

	return s.positions.DetachFromPosition(ctx, accessKey, transaction.Symbol, transaction.Type, transaction.Quantity)
}

func (s *Service) GetByID(ctx context.Context, accessKey, id uuid.UUID) (*domain.Transaction, error) {
	return s.repo.GetByID(ctx, accessKey, id)
}

func (s *Service) List(ctx context.Context, accessKey uuid.UUID, filter interfaces.TransactionFilter) ([]domain.Transaction, error) {
	return s.repo.List(ctx, accessKey, filter)
}

var exportHeader = []string{"id", "date_time", "symbol", "type", "quantity", "trade_price", "notional"}

// ExportCSV renders every transaction of the account, ascending by timestamp,
// as a CSV document.
func (s *Service) ExportCSV(ctx context.Context, accessKey uuid.UUID) ([]byte, error) {
	all, err := s.repo.List(ctx, accessKey, interfaces.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for i := range all {
		record := []string{
			all[i].ID.String(),
			all[i].DateTime.UTC().Format(time.RFC3339),
			all[i].Symbol,
			all[i].Type.String(),
			all[i].Quantity.String(),
			all[i].TradePrice.String(),
			all[i].Notional.String(),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
