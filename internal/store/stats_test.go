package store

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tg_survey_bot/internal/domain"
)

func TestComputeAggregatesAnswers(t *testing.T) {
	users := &stubCountCollection{counts: map[domain.Answer]int64{
		domain.AnswerYes: 3,
		domain.AnswerNo:  2,
	}, total: 7}

	provider := NewStatsProvider(users)

	stats, err := provider.Compute(context.Background())
	if err != nil {
		t.Fatalf("expected stats to compute, got error: %v", err)
	}

	if stats.TotalUsers != 7 {
		t.Fatalf("expected 7 total users, got %d", stats.TotalUsers)
	}
	if len(stats.Counts) != 2 {
		t.Fatalf("expected 2 answer counts, got %d", len(stats.Counts))
	}
	if stats.Counts[domain.AnswerYes] != 3 {
		t.Fatalf("expected 3 Yes answers, got %d", stats.Counts[domain.AnswerYes])
	}
	if stats.Counts[domain.AnswerNo] != 2 {
		t.Fatalf("expected 2 No answers, got %d", stats.Counts[domain.AnswerNo])
	}
}

func TestComputeOmitsZeroCounts(t *testing.T) {
	users := &stubCountCollection{counts: map[domain.Answer]int64{
		domain.AnswerNo: 1,
	}, total: 4}

	provider := NewStatsProvider(users)

	stats, err := provider.Compute(context.Background())
	if err != nil {
		t.Fatalf("expected stats to compute, got error: %v", err)
	}

	if stats.TotalUsers != 4 {
		t.Fatalf("expected 4 total users, got %d", stats.TotalUsers)
	}
	if _, ok := stats.Counts[domain.AnswerYes]; ok {
		t.Fatalf("expected Yes to be absent from counts, got %v", stats.Counts)
	}
	if stats.Counts[domain.AnswerNo] != 1 {
		t.Fatalf("expected 1 No answer, got %d", stats.Counts[domain.AnswerNo])
	}
}

func TestComputeWithNoAnswers(t *testing.T) {
	provider := NewStatsProvider(&stubCountCollection{total: 2})

	stats, err := provider.Compute(context.Background())
	if err != nil {
		t.Fatalf("expected stats to compute, got error: %v", err)
	}

	if stats.TotalUsers != 2 {
		t.Fatalf("expected 2 total users, got %d", stats.TotalUsers)
	}
	if len(stats.Counts) != 0 {
		t.Fatalf("expected empty counts, got %v", stats.Counts)
	}
}

func TestComputeRequiresContext(t *testing.T) {
	provider := NewStatsProvider(&stubCountCollection{})

	if _, err := provider.Compute(nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestComputeRequiresInitialization(t *testing.T) {
	var provider *StatsProvider

	if _, err := provider.Compute(context.Background()); err == nil {
		t.Fatalf("expected error for nil provider")
	}
}

func TestComputePropagatesErrors(t *testing.T) {
	expectedErr := errors.New("count failed")
	provider := NewStatsProvider(&stubCountCollection{err: expectedErr})

	if _, err := provider.Compute(context.Background()); !errors.Is(err, expectedErr) {
		t.Fatalf("expected count error, got %v", err)
	}
}

type stubCountCollection struct {
	total  int64
	counts map[domain.Answer]int64
	err    error
}

func (s *stubCountCollection) CountDocuments(_ context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}

	switch f := filter.(type) {
	case bson.D:
		return s.total, nil
	case bson.M:
		answer, ok := f["answer"].(domain.Answer)
		if !ok {
			return 0, errors.New("unexpected answer filter")
		}
		return s.counts[answer], nil
	default:
		return 0, errors.New("unexpected filter type")
	}
}
