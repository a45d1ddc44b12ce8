package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/storage"
)

type LeaderboardStore interface {
	ListStudentsByClass(ctx context.Context, classID uuid.UUID) ([]storage.User, error)
	ListHoldingsByUser(ctx context.Context, userID uuid.UUID) ([]storage.Holding, error)
	CountTransactionsByClass(ctx context.Context, classID uuid.UUID) (int64, error)
}

type LeaderboardEntry struct {
	Rank       int             `json:"rank"`
	UserID     uuid.UUID       `json:"user_id"`
	Name       string          `json:"name"`
	TotalValue decimal.Decimal `json:"total_value"`
	ReturnRate decimal.Decimal `json:"return_rate"`
}

type LeaderboardService struct {
	store  LeaderboardStore
	quotes QuoteProvider
}

func NewLeaderboardService(store LeaderboardStore, quotes QuoteProvider) *LeaderboardService {
	return &LeaderboardService{store: store, quotes: quotes}
}

// ClassLeaderboard ranks a class's students by return on starting
// capital. Ties keep a stable order by name so ranks do not jitter
// between refreshes.
func (s *LeaderboardService) ClassLeaderboard(ctx context.Context, classID uuid.UUID) ([]LeaderboardEntry, error) {
	students, err := s.store.ListStudentsByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(students))
	for _, student := range students {
		total := student.Cash

		holdings, err := s.store.ListHoldingsByUser(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		for _, h := range holdings {
			q, err := s.quotes.Quote(ctx, h.Symbol)
			if err != nil {
				return nil, err
			}
			total = total.Add(q.Price.Mul(decimal.NewFromInt(h.Quantity)))
		}

		rate := decimal.Zero
		if student.InitialCapital.IsPositive() {
			rate = total.Sub(student.InitialCapital).Div(student.InitialCapital)
		}

		entries = append(entries, LeaderboardEntry{
			UserID:     student.ID,
			Name:       student.Name,
			TotalValue: total,
			ReturnRate: rate,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ReturnRate.Equal(entries[j].ReturnRate) {
			return entries[i].ReturnRate.GreaterThan(entries[j].ReturnRate)
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

type ClassStatistics struct {
	StudentCount      int             `json:"student_count"`
	TotalTrades       int64           `json:"total_trades"`
	TotalValue        decimal.Decimal `json:"total_value"`
	AverageReturnRate decimal.Decimal `json:"average_return_rate"`
	TopReturnRate     decimal.Decimal `json:"top_return_rate"`
	BottomReturnRate  decimal.Decimal `json:"bottom_return_rate"`
}

// ClassStatistics summarizes a class for its teacher's dashboard.
func (s *LeaderboardService) ClassStatistics(ctx context.Context, classID uuid.UUID) (*ClassStatistics, error) {
	entries, err := s.ClassLeaderboard(ctx, classID)
	if err != nil {
		return nil, err
	}
	trades, err := s.store.CountTransactionsByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	stats := &ClassStatistics{
		StudentCount:      len(entries),
		TotalTrades:       trades,
		TotalValue:        decimal.Zero,
		AverageReturnRate: decimal.Zero,
		TopReturnRate:     decimal.Zero,
		BottomReturnRate:  decimal.Zero,
	}
	if len(entries) == 0 {
		return stats, nil
	}

	sum := decimal.Zero
	for _, e := range entries {
		stats.TotalValue = stats.TotalValue.Add(e.TotalValue)
		sum = sum.Add(e.ReturnRate)
	}
	stats.AverageReturnRate = sum.Div(decimal.NewFromInt(int64(len(entries))))
	stats.TopReturnRate = entries[0].ReturnRate
	stats.BottomReturnRate = entries[len(entries)-1].ReturnRate
	return stats, nil
}
