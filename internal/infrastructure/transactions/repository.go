package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "main/internal/domain/entity/transactions"
	interfaces "main/internal/domain/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

const transactionColumns = `id, access_key, symbol, type, quantity, trade_price, notional, date_time, created_at, updated_at`

const insertTransactionQuery = `
	INSERT INTO transactions (` + transactionColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

func (r *Repository) Create(ctx context.Context, transaction *domain.Transaction) error {
	if transaction == nil {
		return errors.New("nil transaction")
	}
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	now := time.Now().UTC()
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = now
	}
	transaction.UpdatedAt = now

	_, err := r.pool.Exec(ctx, insertTransactionQuery,
		transaction.ID,
		transaction.AccessKey,
		transaction.Symbol,
		transaction.Type,
		transaction.Quantity,
		transaction.TradePrice,
		transaction.Notional,
		transaction.DateTime,
		transaction.CreatedAt,
		transaction.UpdatedAt,
	)
	return err
}

func (r *Repository) CreateBatch(ctx context.Context, transactions []domain.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(transactions))
	for i := range transactions {
		if transactions[i].ID == uuid.Nil {
			transactions[i].ID = uuid.New()
		}
		if transactions[i].CreatedAt.IsZero() {
			transactions[i].CreatedAt = now
		}
		transactions[i].UpdatedAt = now
		rows = append(rows, []interface{}{
			transactions[i].ID,
			transactions[i].AccessKey,
			transactions[i].Symbol,
			transactions[i].Type,
			transactions[i].Quantity,
			transactions[i].TradePrice,
			transactions[i].Notional,
			transactions[i].DateTime,
			transactions[i].CreatedAt,
			transactions[i].UpdatedAt,
		})
	}
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"transactions"},
		[]string{"id", "access_key", "symbol", "type", "quantity", "trade_price", "notional", "date_time", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (r *Repository) GetByID(ctx context.Context, accessKey, id uuid.UUID) (*domain.Transaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE access_key=$1 AND id=$2`

	row := r.pool.QueryRow(ctx, query, accessKey, id)
	transaction := &domain.Transaction{}
	if err := scanTransactionInto(row, transaction); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interfaces.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

func (r *Repository) GetByIDs(ctx context.Context, accessKey uuid.UUID, ids []uuid.UUID) ([]domain.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE access_key=$1 AND id = ANY($2)
		ORDER BY date_time ASC`

	rows, err := r.pool.Query(ctx, query, accessKey, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *Repository) Update(ctx context.Context, transaction *domain.Transaction) error {
	if transaction == nil {
		return errors.New("nil transaction")
	}
	transaction.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE transactions
		SET symbol=$3,
			type=$4,
			quantity=$5,
			trade_price=$6,
			notional=$7,
			date_time=$8,
			updated_at=$9
		WHERE access_key=$1 AND id=$2`

	cmdTag, err := r.pool.Exec(ctx, query,
		transaction.AccessKey,
		transaction.ID,
		transaction.Symbol,
		transaction.Type,
		transaction.Quantity,
		transaction.TradePrice,
		transaction.Notional,
		transaction.DateTime,
		transaction.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return interfaces.ErrTransactionNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, accessKey, id uuid.UUID) error {
	const query = `DELETE FROM transactions WHERE access_key=$1 AND id=$2`
	cmdTag, err := r.pool.Exec(ctx, query, accessKey, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return interfaces.ErrTransactionNotFound
	}
	return nil
}

func (r *Repository) GetHistoryForSymbol(ctx context.Context, accessKey uuid.UUID, symbol string, types ...domain.TransactionType) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE access_key=$1 AND symbol=$2`
	args := []interface{}{accessKey, symbol}
	if len(types) > 0 {
		names := make([]string, 0, len(types))
		for _, t := range types {
			names = append(names, t.String())
		}
		query += ` AND type = ANY($3)`
		args = append(args, names)
	}
	query += ` ORDER BY date_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *Repository) List(ctx context.Context, accessKey uuid.UUID, filter interfaces.TransactionFilter) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE access_key=$1`
	args := []interface{}{accessKey}
	if filter.Symbol != "" {
		args = append(args, filter.Symbol)
		query += fmt.Sprintf(` AND symbol=$%d`, len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(` AND type=$%d`, len(args))
	}
	query += ` ORDER BY date_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func scanTransactionInto(row pgx.Row, transaction *domain.Transaction) error {
	return row.Scan(
		&transaction.ID,
		&transaction.AccessKey,
		&transaction.Symbol,
		&transaction.Type,
		&transaction.Quantity,
		&transaction.TradePrice,
		&transaction.Notional,
		&transaction.DateTime,
		&transaction.CreatedAt,
		&transaction.UpdatedAt,
	)
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0)
	for rows.Next() {
		var transaction domain.Transaction
		if err := scanTransactionInto(rows, &transaction); err != nil {
			return nil, err
		}
		out = append(out, transaction)
	}
	return out, rows.Err()
}
