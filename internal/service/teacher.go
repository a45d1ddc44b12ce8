package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/storage"
)

var (
	ErrClassNotOwned     = errors.New("class belongs to another teacher")
	ErrStudentNotInClass = errors.New("student is not in this class")
	ErrUnknownSymbol     = errors.New("unknown stock symbol")
)

type TeacherStore interface {
	CreateClass(ctx context.Context, in storage.CreateClassInput) (*storage.Class, error)
	GetClassByID(ctx context.Context, id uuid.UUID) (*storage.Class, error)
	ListClassesByTeacher(ctx context.Context, teacherID uuid.UUID) ([]storage.Class, error)
	ListStudentsByClass(ctx context.Context, classID uuid.UUID) ([]storage.User, error)
	ListAllowedStocks(ctx context.Context, classID uuid.UUID) ([]storage.AllowedStock, error)
	ReplaceAllowedStocks(ctx context.Context, classID uuid.UUID, stockIDs []uuid.UUID) error
	GetStockBySymbol(ctx context.Context, symbol string) (*storage.Stock, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*storage.User, error)
	SetUserCash(ctx context.Context, userID uuid.UUID, cash decimal.Decimal) (*storage.User, error)
	DeactivateUser(ctx context.Context, userID uuid.UUID) error
}

type ClassDetails struct {
	Class         storage.Class          `json:"class"`
	Students      []storage.User         `json:"students"`
	AllowedStocks []storage.AllowedStock `json:"allowed_stocks"`
}

type TeacherService struct {
	store  TeacherStore
	logger *slog.Logger
}

func NewTeacherService(store TeacherStore, logger *slog.Logger) *TeacherService {
	return &TeacherService{store: store, logger: logger}
}

// Join codes skip 0/O and 1/I so they survive being read aloud in class.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 6

func newClassCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// CreateClass generates a join code and retries on the unlikely collision.
func (s *TeacherService) CreateClass(ctx context.Context, teacherID uuid.UUID, name string, startDate time.Time, endDate *time.Time) (*storage.Class, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := newClassCode()
		if err != nil {
			return nil, err
		}
		class, err := s.store.CreateClass(ctx, storage.CreateClassInput{
			Name:      name,
			Code:      code,
			TeacherID: teacherID,
			StartDate: startDate,
			EndDate:   endDate,
		})
		if errors.Is(err, storage.ErrDuplicateClass) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("class created",
			slog.String("class_id", class.ID.String()),
			slog.String("teacher_id", teacherID.String()),
			slog.String("code", class.Code),
		)
		return class, nil
	}
	return nil, fmt.Errorf("could not generate a unique class code")
}

func (s *TeacherService) Classes(ctx context.Context, teacherID uuid.UUID) ([]storage.Class, error) {
	return s.store.ListClassesByTeacher(ctx, teacherID)
}

func (s *TeacherService) ClassDetails(ctx context.Context, teacherID, classID uuid.UUID) (*ClassDetails, error) {
	class, err := s.ownedClass(ctx, teacherID, classID)
	if err != nil {
		return nil, err
	}

	students, err := s.store.ListStudentsByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.store.ListAllowedStocks(ctx, classID)
	if err != nil {
		return nil, err
	}

	return &ClassDetails{Class: *class, Students: students, AllowedStocks: allowed}, nil
}

// SetAllowedStocks replaces the class allowlist with the given symbols.
// Entries that stay on the list keep their original added_at, so a
// student's cooldown clock is not reset by unrelated edits.
func (s *TeacherService) SetAllowedStocks(ctx context.Context, teacherID, classID uuid.UUID, symbols []string) ([]storage.AllowedStock, error) {
	if _, err := s.ownedClass(ctx, teacherID, classID); err != nil {
		return nil, err
	}

	stockIDs := make([]uuid.UUID, 0, len(symbols))
	seen := map[uuid.UUID]bool{}
	for _, sym := range symbols {
		stock, err := s.store.GetStockBySymbol(ctx, sym)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrStockNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, sym)
			}
			return nil, err
		}
		if !seen[stock.ID] {
			seen[stock.ID] = true
			stockIDs = append(stockIDs, stock.ID)
		}
	}

	if err := s.store.ReplaceAllowedStocks(ctx, classID, stockIDs); err != nil {
		return nil, err
	}

	s.logger.Info("allowlist updated",
		slog.String("class_id", classID.String()),
		slog.Int("stocks", len(stockIDs)),
	)
	return s.store.ListAllowedStocks(ctx, classID)
}

// AdjustStudentCash sets a student's cash balance directly. This is the
// teacher's correction tool, outside the trading path on purpose; no
// transaction record is written for it.
func (s *TeacherService) AdjustStudentCash(ctx context.Context, teacherID, studentID uuid.UUID, cash decimal.Decimal) (*storage.User, error) {
	if cash.IsNegative() {
		return nil, fmt.Errorf("cash must not be negative")
	}

	student, err := s.ownedStudent(ctx, teacherID, studentID)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.SetUserCash(ctx, student.ID, cash)
	if err != nil {
		return nil, err
	}
	s.logger.Info("student cash adjusted",
		slog.String("teacher_id", teacherID.String()),
		slog.String("student_id", studentID.String()),
		slog.String("cash", cash.String()),
	)
	return updated, nil
}

func (s *TeacherService) RemoveStudent(ctx context.Context, teacherID, studentID uuid.UUID) error {
	student, err := s.ownedStudent(ctx, teacherID, studentID)
	if err != nil {
		return err
	}
	return s.store.DeactivateUser(ctx, student.ID)
}

// VerifyClassOwner reports whether the class exists and belongs to the
// teacher, for endpoints that read class data owned by other services.
func (s *TeacherService) VerifyClassOwner(ctx context.Context, teacherID, classID uuid.UUID) error {
	_, err := s.ownedClass(ctx, teacherID, classID)
	return err
}

func (s *TeacherService) ownedClass(ctx context.Context, teacherID, classID uuid.UUID) (*storage.Class, error) {
	class, err := s.store.GetClassByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.TeacherID != teacherID {
		return nil, ErrClassNotOwned
	}
	return class, nil
}

func (s *TeacherService) ownedStudent(ctx context.Context, teacherID, studentID uuid.UUID) (*storage.User, error) {
	student, err := s.store.GetUserByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.ClassID == nil {
		return nil, ErrStudentNotInClass
	}
	if _, err := s.ownedClass(ctx, teacherID, *student.ClassID); err != nil {
		if errors.Is(err, ErrClassNotOwned) {
			return nil, ErrStudentNotInClass
		}
		return nil, err
	}
	return student, nil
}
