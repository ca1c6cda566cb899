package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	apppositions "main/internal/application/service/positions"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BatchConfig controls batching thresholds for transaction event ingestion.
type BatchConfig struct {
	Size    int
	Timeout time.Duration
}

// BatchWriter buffers transaction events and flushes them through the
// reconciliation service, grouped per (access key, symbol). Grouping keeps the
// position write count at one per symbol per flush: a group made only of
// created events goes through the batch attach path, while any group touched
// by an update or delete is rebuilt from history instead, since the
// incremental effect of a replaced or removed transaction is no longer
// recoverable from the event alone.
type BatchWriter struct {
	service *apppositions.Service
	logger  *logrus.Entry

	cfg   BatchConfig
	mu    sync.Mutex
	items []TransactionEvent
	timer *time.Timer
	ctx   context.Context
}

// NewBatchWriter configures a batch writer over the reconciliation service.
func NewBatchWriter(cfg BatchConfig, service *apppositions.Service, logger *logrus.Logger) *BatchWriter {
	return &BatchWriter{
		service: service,
		logger:  logger.WithField("component", "batch_writer"),
		cfg:     cfg,
	}
}

// Run sets the base context for asynchronous flush operations.
func (b *BatchWriter) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()
}

// Stop flushes the remaining buffer using the provided context.
func (b *BatchWriter) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b.mu.Lock()
	b.ctx = ctx
	batch := b.takeBatchLocked()
	b.mu.Unlock()
	return b.flush(ctx, batch)
}

// Add appends an event to the buffer, flushing when the size threshold is hit.
func (b *BatchWriter) Add(event *TransactionEvent) error {
	if err := event.validate(); err != nil {
		return err
	}

	b.mu.Lock()
	ctx := b.ctx
	if ctx == nil {
		b.mu.Unlock()
		return errors.New("batch writer is not running")
	}
	if err := ctx.Err(); err != nil {
		b.mu.Unlock()
		return err
	}
	b.items = append(b.items, *event)
	var batch []TransactionEvent
	limit := b.cfg.Size
	if limit <= 0 {
		limit = 1
	}
	if len(b.items) >= limit {
		batch = b.takeBatchLocked()
	} else if b.timer == nil && b.cfg.Timeout > 0 {
		b.startTimerLocked()
	}
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return b.flush(ctx, batch)
}

func (b *BatchWriter) startTimerLocked() {
	b.timer = time.AfterFunc(b.cfg.Timeout, func() {
		b.mu.Lock()
		ctx := b.ctx
		batch := b.takeBatchLocked()
		b.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		if err := b.flush(ctx, batch); err != nil {
			b.logger.WithError(err).Warn("batch flush failed")
		}
	})
}

func (b *BatchWriter) takeBatchLocked() []TransactionEvent {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if len(b.items) == 0 {
		return nil
	}
	batch := make([]TransactionEvent, len(b.items))
	copy(batch, b.items)
	b.items = b.items[:0]
	return batch
}

type symbolGroup struct {
	accessKey   uuid.UUID
	symbol      string
	createdIDs  []uuid.UUID
	needRebuild bool
}

func (b *BatchWriter) flush(ctx context.Context, batch []TransactionEvent) error {
	if len(batch) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	groups := make(map[string]*symbolGroup)
	order := make([]string, 0)
	for i := range batch {
		key := batch[i].AccessKey.String() + "|" + batch[i].Symbol
		group, ok := groups[key]
		if !ok {
			group = &symbolGroup{accessKey: batch[i].AccessKey, symbol: batch[i].Symbol}
			groups[key] = group
			order = append(order, key)
		}
		if batch[i].Action == ActionCreated {
			group.createdIDs = append(group.createdIDs, batch[i].TransactionID)
		} else {
			group.needRebuild = true
		}
	}

	var errs []error
	for _, key := range order {
		group := groups[key]
		var err error
		if group.needRebuild {
			err = b.service.RecalculateForSymbol(ctx, group.accessKey, group.symbol)
		} else {
			err = b.service.RefreshForTransactionCollection(ctx, group.accessKey, group.symbol, group.createdIDs)
		}
		if err != nil {
			b.logger.WithError(err).WithField("symbol", group.symbol).Warn("failed to reconcile symbol batch")
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		b.logger.WithFields(logrus.Fields{
			"size":    len(batch),
			"symbols": len(groups),
			"took_ms": time.Since(start).Milliseconds(),
		}).Debug("flushed batch")
	}
	return errors.Join(errs...)
}
