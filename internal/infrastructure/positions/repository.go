package positions

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "main/internal/domain/entity/positions"
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

const positionColumns = `id, access_key, symbol, quantity, exposure, is_closed, created_at, updated_at, row_version`

func (r *Repository) GetBySymbol(ctx context.Context, accessKey uuid.UUID, symbol string) (*domain.Position, error) {
	const query = `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE access_key=$1 AND symbol=$2`

	row := r.pool.QueryRow(ctx, query, accessKey, symbol)
	position := &domain.Position{}
	if err := scanPositionInto(row, position); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interfaces.ErrPositionNotFound
		}
		return nil, err
	}
	return position, nil
}

func (r *Repository) GetAll(ctx context.Context, accessKey uuid.UUID) ([]domain.Position, error) {
	const query = `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE access_key=$1
		ORDER BY symbol ASC`

	rows, err := r.pool.Query(ctx, query, accessKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Position, 0)
	for rows.Next() {
		var position domain.Position
		if err := scanPositionInto(rows, &position); err != nil {
			return nil, err
		}
		out = append(out, position)
	}
	return out, rows.Err()
}

func (r *Repository) Add(ctx context.Context, position *domain.Position) error {
	if position == nil {
		return errors.New("nil position")
	}
	if position.ID == uuid.Nil {
		position.ID = uuid.New()
	}
	now := time.Now().UTC()
	if position.CreatedAt.IsZero() {
		position.CreatedAt = now
	}
	position.UpdatedAt = now
	position.RowVersion = 1

	const query = `
		INSERT INTO positions (` + positionColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err := r.pool.Exec(ctx, query,
		position.ID,
		position.AccessKey,
		position.Symbol,
		position.Quantity,
		position.Exposure,
		position.IsClosed,
		position.CreatedAt,
		position.UpdatedAt,
		position.RowVersion,
	)
	return err
}

// Update writes the position guarded by its row version. A zero-row result
// means either the record vanished or another writer bumped the version; the
// distinction matters to callers, so it is resolved with a follow-up lookup.
func (r *Repository) Update(ctx context.Context, position *domain.Position) error {
	if position == nil {
		return errors.New("nil position")
	}
	position.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE positions
		SET quantity=$3,
			exposure=$4,
			is_closed=$5,
			updated_at=$6,
			row_version=row_version+1
		WHERE id=$1 AND row_version=$2`

	cmdTag, err := r.pool.Exec(ctx, query,
		position.ID,
		position.RowVersion,
		position.Quantity,
		position.Exposure,
		position.IsClosed,
		position.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return r.resolveWriteConflict(ctx, position.ID)
	}
	position.RowVersion++
	return nil
}

func (r *Repository) Delete(ctx context.Context, position *domain.Position) error {
	if position == nil {
		return errors.New("nil position")
	}
	const query = `DELETE FROM positions WHERE id=$1 AND row_version=$2`
	cmdTag, err := r.pool.Exec(ctx, query, position.ID, position.RowVersion)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return r.resolveWriteConflict(ctx, position.ID)
	}
	return nil
}

func (r *Repository) resolveWriteConflict(ctx context.Context, id uuid.UUID) error {
	var exists int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM positions WHERE id=$1`, id).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return interfaces.ErrPositionNotFound
	}
	if err != nil {
		return err
	}
	return interfaces.ErrConcurrencyConflict
}

func scanPositionInto(row pgx.Row, position *domain.Position) error {
	return row.Scan(
		&position.ID,
		&position.AccessKey,
		&position.Symbol,
		&position.Quantity,
		&position.Exposure,
		&position.IsClosed,
		&position.CreatedAt,
		&position.UpdatedAt,
		&position.RowVersion,
	)
}
