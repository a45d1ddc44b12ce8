package storage

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrStockNotFound   = errors.New("stock not found")
	ErrClassNotFound   = errors.New("class not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrDuplicateClass  = errors.New("class code already taken")
	// ErrTxConflict marks a serialization or deadlock failure; callers may
	// safely retry the whole operation.
	ErrTxConflict = errors.New("transaction conflict")
)

type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isTxConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
