// Package testutil holds helpers shared by the HTTP handler tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyunwoopark/stockclass/libs/auth"
)

const TestJWTSecret = "stockclass-test-secret"

// GenerateJWT signs an access token the way the auth handler does, for
// driving authenticated routes in tests.
func GenerateJWT(userID uuid.UUID, role auth.Role, classID string, ttl time.Duration, now time.Time) (string, error) {
	return auth.NewAccessToken(userID.String(), role, classID, []byte(TestJWTSecret), ttl, now, "stockclass-test")
}

// SetupTestDB connects to the database named by the POSTGRES_* env vars.
// Integration tests skip themselves when it is unreachable.
func SetupTestDB() (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("POSTGRES_USER", "stockclass"),
		getEnv("POSTGRES_PASSWORD", "stockclass"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB", "stockclass_test"),
		getEnv("POSTGRES_SSLMODE", "disable"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

func CleanupTestData(ctx context.Context, pool *pgxpool.Pool) error {
	queries := []string{
		"DELETE FROM refresh_tokens",
		"DELETE FROM transactions",
		"DELETE FROM holdings",
		"DELETE FROM allowed_stocks",
		"DELETE FROM users",
		"DELETE FROM classes",
		"DELETE FROM stocks",
	}
	for _, q := range queries {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("cleanup %q: %w", q, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
