package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func scanClass(row pgx.Row) (*Class, error) {
	var c Class
	if err := row.Scan(&c.ID, &c.Name, &c.Code, &c.TeacherID, &c.StartDate, &c.EndDate, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const classColumns = `id, name, code, teacher_id, start_date, end_date, created_at`

type CreateClassInput struct {
	Name      string
	Code      string
	TeacherID uuid.UUID
	StartDate time.Time
	EndDate   *time.Time
}

func (s *Store) CreateClass(ctx context.Context, in CreateClassInput) (*Class, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO classes (id, name, code, teacher_id, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, in.Name, in.Code, in.TeacherID, in.StartDate, in.EndDate, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateClass
		}
		return nil, err
	}
	return s.GetClassByID(ctx, id)
}

func (s *Store) GetClassByID(ctx context.Context, id uuid.UUID) (*Class, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id)
	c, err := scanClass(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *Store) GetClassByCode(ctx context.Context, code string) (*Class, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+classColumns+` FROM classes WHERE code = $1`, code)
	c, err := scanClass(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *Store) ListClassesByTeacher(ctx context.Context, teacherID uuid.UUID) ([]Class, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+classColumns+` FROM classes WHERE teacher_id = $1 ORDER BY created_at DESC
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

// ListAllowedStocks returns the class allowlist, active entries only.
func (s *Store) ListAllowedStocks(ctx context.Context, classID uuid.UUID) ([]AllowedStock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.class_id, a.stock_id, st.symbol, a.added_at, a.is_active
		FROM allowed_stocks a
		JOIN stocks st ON st.id = a.stock_id
		WHERE a.class_id = $1 AND a.is_active
		ORDER BY st.symbol
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allowed []AllowedStock
	for rows.Next() {
		var a AllowedStock
		if err := rows.Scan(&a.ID, &a.ClassID, &a.StockID, &a.Symbol, &a.AddedAt, &a.IsActive); err != nil {
			return nil, err
		}
		allowed = append(allowed, a)
	}
	return allowed, rows.Err()
}

// ReplaceAllowedStocks reconciles the class allowlist against the given stock
// IDs in one transaction. Entries not in the new set are deactivated, never
// deleted; re-adding a previously deactivated symbol resets added_at so the
// cooldown starts over.
func (s *Store) ReplaceAllowedStocks(ctx context.Context, classID uuid.UUID, stockIDs []uuid.UUID) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	now := time.Now().UTC()

	if _, err := tx.Exec(ctx, `
		UPDATE allowed_stocks SET is_active = false
		WHERE class_id = $1 AND is_active AND NOT (stock_id = ANY($2))
	`, classID, stockIDs); err != nil {
		return err
	}

	for _, stockID := range stockIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO allowed_stocks (id, class_id, stock_id, added_at, is_active)
			VALUES ($1, $2, $3, $4, true)
			ON CONFLICT (class_id, stock_id) DO UPDATE
			SET is_active = true,
			    added_at = CASE WHEN allowed_stocks.is_active THEN allowed_stocks.added_at ELSE EXCLUDED.added_at END
		`, uuid.New(), classID, stockID, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}
