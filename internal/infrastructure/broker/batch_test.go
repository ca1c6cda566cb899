package broker

import (
	"context"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	apppositions "main/internal/application/service/positions"
	positionsdomain "main/internal/domain/entity/positions"
	domain "main/internal/domain/entity/transactions"
	interfaces "main/internal/domain/interfaces"
)

type memPositionRepo struct {
	byKey map[string]positionsdomain.Position
}

func key(accessKey uuid.UUID, symbol string) string {
	return accessKey.String() + "|" + symbol
}

func (r *memPositionRepo) GetBySymbol(_ context.Context, accessKey uuid.UUID, symbol string) (*positionsdomain.Position, error) {
	p, ok := r.byKey[key(accessKey, symbol)]
	if !ok {
		return nil, interfaces.ErrPositionNotFound
	}
	copied := p
	return &copied, nil
}

func (r *memPositionRepo) GetAll(_ context.Context, accessKey uuid.UUID) ([]positionsdomain.Position, error) {
	var out []positionsdomain.Position
	for _, p := range r.byKey {
		if p.AccessKey == accessKey {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPositionRepo) Add(_ context.Context, position *positionsdomain.Position) error {
	r.byKey[key(position.AccessKey, position.Symbol)] = *position
	return nil
}

func (r *memPositionRepo) Update(_ context.Context, position *positionsdomain.Position) error {
	r.byKey[key(position.AccessKey, position.Symbol)] = *position
	return nil
}

func (r *memPositionRepo) Delete(_ context.Context, position *positionsdomain.Position) error {
	delete(r.byKey, key(position.AccessKey, position.Symbol))
	return nil
}

func (r *memPositionRepo) Close() {}

type memTransactionRepo struct {
	items []domain.Transaction
}

func (r *memTransactionRepo) Create(_ context.Context, transaction *domain.Transaction) error {
	r.items = append(r.items, *transaction)
	return nil
}

func (r *memTransactionRepo) CreateBatch(_ context.Context, batch []domain.Transaction) error {
	r.items = append(r.items, batch...)
	return nil
}

func (r *memTransactionRepo) GetByID(_ context.Context, accessKey, id uuid.UUID) (*domain.Transaction, error) {
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].AccessKey == accessKey {
			copied := r.items[i]
			return &copied, nil
		}
	}
	return nil, interfaces.ErrTransactionNotFound
}

func (r *memTransactionRepo) GetByIDs(_ context.Context, accessKey uuid.UUID, ids []uuid.UUID) ([]domain.Transaction, error) {
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []domain.Transaction
	for i := range r.items {
		if wanted[r.items[i].ID] && r.items[i].AccessKey == accessKey {
			out = append(out, r.items[i])
		}
	}
	return out, nil
}

func (r *memTransactionRepo) Update(_ context.Context, transaction *domain.Transaction) error {
	return nil
}

func (r *memTransactionRepo) Delete(_ context.Context, accessKey, id uuid.UUID) error {
	return nil
}

func (r *memTransactionRepo) GetHistoryForSymbol(_ context.Context, accessKey uuid.UUID, symbol string, types ...domain.TransactionType) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for i := range r.items {
		if r.items[i].AccessKey != accessKey || r.items[i].Symbol != symbol {
			continue
		}
		if len(types) > 0 {
			matched := false
			for _, tt := range types {
				if r.items[i].Type == tt {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, r.items[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (r *memTransactionRepo) List(_ context.Context, accessKey uuid.UUID, _ interfaces.TransactionFilter) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for i := range r.items {
		if r.items[i].AccessKey == accessKey {
			out = append(out, r.items[i])
		}
	}
	return out, nil
}

func (r *memTransactionRepo) Close() {}

func newBatchFixture(cfg BatchConfig) (*BatchWriter, *memTransactionRepo, *memPositionRepo) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	posRepo := &memPositionRepo{byKey: make(map[string]positionsdomain.Position)}
	txRepo := &memTransactionRepo{}
	service := apppositions.NewService(posRepo, txRepo, logger, nil)
	return NewBatchWriter(cfg, service, logger), txRepo, posRepo
}

func stored(accessKey uuid.UUID, symbol string, txType domain.TransactionType, quantity string, at time.Time) domain.Transaction {
	return domain.Transaction{
		ID:        uuid.New(),
		AccessKey: accessKey,
		Symbol:    symbol,
		Type:      txType,
		Quantity:  decimal.RequireFromString(quantity),
		DateTime:  at,
	}
}

func TestBatchWriter_FlushOnSize(t *testing.T) {
	ctx := context.Background()
	accessKey := uuid.New()
	writer, txRepo, posRepo := newBatchFixture(BatchConfig{Size: 2})
	writer.Run(ctx)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	a := stored(accessKey, "AAPL", domain.BuyToOpen, "3", base)
	b := stored(accessKey, "AAPL", domain.BuyToOpen, "2", base.Add(time.Minute))
	txRepo.items = []domain.Transaction{a, b}

	if err := writer.Add(&TransactionEvent{Action: ActionCreated, AccessKey: accessKey, TransactionID: a.ID, Symbol: "AAPL"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := posRepo.GetBySymbol(ctx, accessKey, "AAPL"); err == nil {
		t.Fatalf("position written before the size threshold")
	}
	if err := writer.Add(&TransactionEvent{Action: ActionCreated, AccessKey: accessKey, TransactionID: b.ID, Symbol: "AAPL"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	p, err := posRepo.GetBySymbol(ctx, accessKey, "AAPL")
	if err != nil {
		t.Fatalf("GetBySymbol() error = %v", err)
	}
	if got := p.Quantity.String(); got != "5" {
		t.Errorf("quantity = %v, want 5", got)
	}
}

func TestBatchWriter_RebuildsOnNonCreatedEvent(t *testing.T) {
	ctx := context.Background()
	accessKey := uuid.New()
	writer, txRepo, posRepo := newBatchFixture(BatchConfig{Size: 100})
	writer.Run(ctx)

	// Stored history is the source of truth for the rebuild path.
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	remaining := stored(accessKey, "AAPL", domain.BuyToOpen, "7", base)
	txRepo.items = []domain.Transaction{remaining}

	deleted := TransactionEvent{Action: ActionDeleted, AccessKey: accessKey, TransactionID: uuid.New(), Symbol: "AAPL"}
	if err := writer.Add(&deleted); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := writer.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	p, err := posRepo.GetBySymbol(ctx, accessKey, "AAPL")
	if err != nil {
		t.Fatalf("GetBySymbol() error = %v", err)
	}
	if got := p.Quantity.String(); got != "7" {
		t.Errorf("quantity = %v, want 7 from replayed history", got)
	}
}

func TestBatchWriter_AddBeforeRun(t *testing.T) {
	writer, _, _ := newBatchFixture(BatchConfig{Size: 1})
	event := TransactionEvent{Action: ActionCreated, AccessKey: uuid.New(), TransactionID: uuid.New(), Symbol: "AAPL"}
	if err := writer.Add(&event); err == nil {
		t.Errorf("Add() before Run error = nil, want error")
	}
}
