package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/libs/auth"
)

const userColumns = `id, email, password_hash, name, role, class_id, cash::text, initial_capital::text, is_active, last_watchlist_change, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var cashStr, capitalStr string
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.ClassID,
		&cashStr, &capitalStr, &u.IsActive, &u.LastWatchlistChange, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)

	var err error
	if u.Cash, err = decimal.NewFromString(cashStr); err != nil {
		return nil, fmt.Errorf("parse cash: %w", err)
	}
	if u.InitialCapital, err = decimal.NewFromString(capitalStr); err != nil {
		return nil, fmt.Errorf("parse initial capital: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

type CreateUserInput struct {
	Email          string
	PasswordHash   string
	Name           string
	Role           auth.Role
	ClassID        *uuid.UUID
	InitialCapital decimal.Decimal
}

func (s *Store) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	id := uuid.New()
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, class_id, cash, initial_capital, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, true, $8, $8)
	`, id, strings.ToLower(strings.TrimSpace(in.Email)), in.PasswordHash, in.Name, string(in.Role), in.ClassID, in.InitialCapital.String(), now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

// SetUserCash is the explicit teacher/admin adjustment path. Order execution
// never goes through here; it mutates cash inside ExecuteTrade's transaction.
func (s *Store) SetUserCash(ctx context.Context, userID uuid.UUID, cash decimal.Decimal) (*User, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET cash = $1, updated_at = $2 WHERE id = $3 AND is_active
	`, cash.String(), time.Now().UTC(), userID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetUserByID(ctx, userID)
}

func (s *Store) DeactivateUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET is_active = false, updated_at = $1 WHERE id = $2
	`, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListStudentsByClass(ctx context.Context, classID uuid.UUID) ([]User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE class_id = $1 AND role = 'STUDENT' AND is_active
		ORDER BY name
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) ListActiveStudents(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = 'STUDENT' AND is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
