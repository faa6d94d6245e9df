// Package store encapsulates MongoDB client management and collection helpers.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tg_survey_bot/internal/domain"
)

type countCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// StatsProvider aggregates stored survey answers on demand without leaking
// MongoDB internals to callers.
type StatsProvider struct {
	users countCollection
}

// NewStatsProvider constructs a StatsProvider backed by the users collection.
func NewStatsProvider(users countCollection) *StatsProvider {
	return &StatsProvider{users: users}
}

// Compute returns the total number of registered users and per-answer counts.
// Answer values with no occurrences are absent from the counts map.
func (p *StatsProvider) Compute(ctx context.Context) (domain.SurveyStats, error) {
	if ctx == nil {
		return domain.SurveyStats{}, errors.New("context is required")
	}
	if p == nil || p.users == nil {
		return domain.SurveyStats{}, errors.New("stats provider is not initialized")
	}

	total, err := p.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return domain.SurveyStats{}, fmt.Errorf("count users: %w", err)
	}

	stats := domain.SurveyStats{
		TotalUsers: total,
		Counts:     make(map[domain.Answer]int64),
	}

	for _, answer := range []domain.Answer{domain.AnswerYes, domain.AnswerNo} {
		count, err := p.users.CountDocuments(ctx, bson.M{"answer": answer})
		if err != nil {
			return domain.SurveyStats{}, fmt.Errorf("count %s answers: %w", answer, err)
		}
		if count > 0 {
			stats.Counts[answer] = count
		}
	}

	return stats, nil
}
