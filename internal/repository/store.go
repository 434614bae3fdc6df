package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskplanner/internal/apperr"
	"taskplanner/internal/service/task"
)

// querier is the query surface shared by the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store is the PostgreSQL persistence layer. It satisfies task.Store; writes
// issued through InTx run on one transaction and roll back together.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// InTx runs fn inside a single transaction. Errors crossing this boundary are
// classified: uniqueness violations surface as Conflict, everything
// unexpected as Internal; engine errors pass through untouched.
func (s *Store) InTx(ctx context.Context, fn func(tx task.Tx) error) error {
	txn, err := s.pool.Begin(ctx)
	if err != nil {
		s.logger.Error("Failed to begin transaction", zap.Error(err))
		return apperr.Wrap(apperr.Internal, err, "failed to begin transaction")
	}
	defer txn.Rollback(ctx)

	if err := fn(&txStore{q: txn, logger: s.logger}); err != nil {
		return classify(err)
	}

	if err := txn.Commit(ctx); err != nil {
		s.logger.Error("Failed to commit transaction", zap.Error(err))
		return classify(err)
	}
	return nil
}

// txStore exposes the write surface over one open transaction.
type txStore struct {
	q      pgx.Tx
	logger *zap.Logger
}
