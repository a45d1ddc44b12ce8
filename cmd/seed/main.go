// Command seed loads the development dataset: the stock universe, a
// demo teacher with one class, and that class's starting allowlist.
// Every write is an upsert or existence check, so re-running is safe.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/hyunwoopark/stockclass/internal/config"
	"github.com/hyunwoopark/stockclass/internal/security"
	"github.com/hyunwoopark/stockclass/internal/storage"
	"github.com/hyunwoopark/stockclass/libs/auth"
	"github.com/hyunwoopark/stockclass/libs/logging"
)

const (
	demoTeacherEmail = "teacher@stockclass.dev"
	demoClassCode    = "DEMO26"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.App.Env != "dev" && cfg.App.Env != "test" {
		fmt.Fprintf(os.Stderr, "refusing to seed env %q\n", cfg.App.Env)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.App.LogLevel, "stockclass-seed", cfg.App.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DB.ConnString())
	if err == nil {
		err = pool.Ping(ctx)
	}
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := storage.New(pool, logger)

	if err := run(ctx, store, cfg, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete")
}

func run(ctx context.Context, store *storage.Store, cfg *config.Config, logger *slog.Logger) error {
	for _, in := range stockUniverse {
		if _, err := store.UpsertStock(ctx, in); err != nil {
			return fmt.Errorf("upsert stock %s: %w", in.Symbol, err)
		}
	}
	logger.Info("stocks seeded", slog.Int("count", len(stockUniverse)))

	teacher, err := ensureTeacher(ctx, store, cfg)
	if err != nil {
		return err
	}

	class, err := ensureClass(ctx, store, teacher.ID)
	if err != nil {
		return err
	}

	stockIDs := make([]uuid.UUID, 0, len(demoAllowlist))
	for _, symbol := range demoAllowlist {
		stock, err := store.GetStockBySymbol(ctx, symbol)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", symbol, err)
		}
		stockIDs = append(stockIDs, stock.ID)
	}
	if err := store.ReplaceAllowedStocks(ctx, class.ID, stockIDs); err != nil {
		return fmt.Errorf("seed allowlist: %w", err)
	}

	if err := ensureStudents(ctx, store, cfg, class.ID); err != nil {
		return err
	}

	logger.Info("demo class ready",
		slog.String("class_code", class.Code),
		slog.String("teacher_email", demoTeacherEmail),
	)
	return nil
}

func ensureTeacher(ctx context.Context, store *storage.Store, cfg *config.Config) (*storage.User, error) {
	teacher, err := store.GetUserByEmail(ctx, demoTeacherEmail)
	if err == nil {
		return teacher, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	password := os.Getenv("STOCKCLASS_SEED_TEACHER_PASSWORD")
	if password == "" {
		password = "teacher-dev-pass"
	}
	hash, err := security.HashPassword(password, security.DefaultArgon2Params())
	if err != nil {
		return nil, err
	}

	return store.CreateUser(ctx, storage.CreateUserInput{
		Email:          demoTeacherEmail,
		PasswordHash:   hash,
		Name:           "Demo Teacher",
		Role:           auth.RoleTeacher,
		InitialCapital: cfg.Trading.InitialCash,
	})
}

func ensureStudents(ctx context.Context, store *storage.Store, cfg *config.Config, classID uuid.UUID) error {
	students := []struct{ email, name string }{
		{"student1@stockclass.dev", "Demo Student One"},
		{"student2@stockclass.dev", "Demo Student Two"},
	}
	hash, err := security.HashPassword("student-dev-pass", security.DefaultArgon2Params())
	if err != nil {
		return err
	}

	for _, s := range students {
		_, err := store.GetUserByEmail(ctx, s.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if _, err := store.CreateUser(ctx, storage.CreateUserInput{
			Email:          s.email,
			PasswordHash:   hash,
			Name:           s.name,
			Role:           auth.RoleStudent,
			ClassID:        &classID,
			InitialCapital: cfg.Trading.InitialCash,
		}); err != nil {
			return fmt.Errorf("seed student %s: %w", s.email, err)
		}
	}
	return nil
}

func ensureClass(ctx context.Context, store *storage.Store, teacherID uuid.UUID) (*storage.Class, error) {
	class, err := store.GetClassByCode(ctx, demoClassCode)
	if err == nil {
		return class, nil
	}
	if !errors.Is(err, storage.ErrClassNotFound) && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	return store.CreateClass(ctx, storage.CreateClassInput{
		Name:      "Demo Class",
		Code:      demoClassCode,
		TeacherID: teacherID,
		StartDate: time.Now().UTC(),
	})
}
