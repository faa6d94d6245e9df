package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"tg_survey_bot/internal/access"
	"tg_survey_bot/internal/clock"
	"tg_survey_bot/internal/domain"
	"tg_survey_bot/internal/logging"
	"tg_survey_bot/internal/metrics"
)

// Fixed reply texts. Each answer value gets its own confirmation toast; the
// recorded message is shared.
const (
	PromptText = "Hi! I have one question I keep coming back to, and I want to ask everyone.\n" +
		"Would you like to see an ARG-style quest here, something like 'Cicada 3301' or 'Mr. Robot'?"
	RecordedText     = "Good, your answer is in. Thanks for taking part in the survey!"
	HelpText         = "Nothing here yet while we wait for the survey results."
	UnrecognizedText = "Unknown command."
)

// Actor is the external identity initiating a request, with the optional
// display metadata the transport layer extracted from the inbound event.
type Actor struct {
	ID        int64
	Username  string
	FirstName string
}

// Prompt is what the transport layer renders when the survey starts: the
// question text plus the closed set of answer options.
type Prompt struct {
	Registered bool
	Text       string
	Options    []domain.Answer
}

// Confirmation is the two-part acknowledgment of a recorded answer: a short
// per-answer toast and the shared recorded message.
type Confirmation struct {
	Toast    string
	Recorded string
}

type registrar interface {
	Register(ctx context.Context, user domain.User) (bool, error)
	RecordAnswer(ctx context.Context, userID int64, answer domain.Answer) error
}

type statsSource interface {
	Compute(ctx context.Context) (domain.SurveyStats, error)
}

type userLister interface {
	List(ctx context.Context) ([]domain.User, error)
}

// Service wires the access policy, the survey registrar, and the aggregators
// behind the transport-facing operations.
type Service struct {
	policy    *access.Policy
	registrar registrar
	stats     statsSource
	users     userLister
	logger    *logrus.Entry
}

// NewService constructs a Service.
func NewService(policy *access.Policy, reg registrar, stats statsSource, users userLister, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Service{
		policy:    policy,
		registrar: reg,
		stats:     stats,
		users:     users,
		logger:    logger,
	}
}

// Start registers the actor on first contact and returns the survey prompt.
// Banned actors are refused with access.ErrDenied.
func (s *Service) Start(ctx context.Context, actor Actor) (Prompt, error) {
	if s == nil || s.registrar == nil {
		return Prompt{}, errors.New("survey service is not initialized")
	}

	if s.policy.IsBanned(actor.ID) {
		metrics.CommandsDenied.WithLabelValues("start").Inc()
		return Prompt{}, fmt.Errorf("start for user %d: %w", actor.ID, access.ErrDenied)
	}

	created, err := s.registrar.Register(ctx, domain.User{
		UserID:    actor.ID,
		Username:  actor.Username,
		FirstName: actor.FirstName,
	})
	if err != nil {
		metrics.StorageFailures.WithLabelValues("register").Inc()
		return Prompt{}, err
	}

	if created {
		metrics.UsersRegistered.Inc()
	}

	return Prompt{
		Registered: created,
		Text:       PromptText,
		Options:    []domain.Answer{domain.AnswerYes, domain.AnswerNo},
	}, nil
}

// Answer records the actor's choice, overwriting any previous answer. Banned
// actors are refused with access.ErrDenied; actors who never started the
// survey get ErrNotRegistered from the registrar.
func (s *Service) Answer(ctx context.Context, actorID int64, answer domain.Answer) (Confirmation, error) {
	if s == nil || s.registrar == nil {
		return Confirmation{}, errors.New("survey service is not initialized")
	}

	if s.policy.IsBanned(actorID) {
		metrics.CommandsDenied.WithLabelValues("answer").Inc()
		return Confirmation{}, fmt.Errorf("answer for user %d: %w", actorID, access.ErrDenied)
	}

	if err := s.registrar.RecordAnswer(ctx, actorID, answer); err != nil {
		if !errors.Is(err, ErrNotRegistered) {
			metrics.StorageFailures.WithLabelValues("record_answer").Inc()
		}
		return Confirmation{}, err
	}

	metrics.AnswersRecorded.WithLabelValues(string(answer)).Inc()

	return Confirmation{
		Toast:    "You picked: " + string(answer),
		Recorded: RecordedText,
	}, nil
}

// Help returns the fixed help text; banned actors are refused.
func (s *Service) Help(actorID int64) (string, error) {
	if s.policy.IsBanned(actorID) {
		metrics.CommandsDenied.WithLabelValues("help").Inc()
		return "", fmt.Errorf("help for user %d: %w", actorID, access.ErrDenied)
	}

	return HelpText, nil
}

// Stats returns the formatted aggregate report. Admin-only; the ban list does
// not apply to this gate.
func (s *Service) Stats(ctx context.Context, actorID int64) (string, error) {
	if s == nil || s.stats == nil {
		return "", errors.New("survey service is not initialized")
	}

	if !s.policy.IsAdmin(actorID) {
		metrics.CommandsDenied.WithLabelValues("stats").Inc()
		return "", fmt.Errorf("stats for user %d: %w", actorID, access.ErrDenied)
	}

	stats, err := s.stats.Compute(ctx)
	if err != nil {
		metrics.StorageFailures.WithLabelValues("stats").Inc()
		return "", err
	}

	return formatStats(stats), nil
}

// Users returns the formatted registry snapshot. Admin-only.
func (s *Service) Users(ctx context.Context, actorID int64) (string, error) {
	if s == nil || s.users == nil {
		return "", errors.New("survey service is not initialized")
	}

	if !s.policy.IsAdmin(actorID) {
		metrics.CommandsDenied.WithLabelValues("users").Inc()
		return "", fmt.Errorf("users for user %d: %w", actorID, access.ErrDenied)
	}

	users, err := s.users.List(ctx)
	if err != nil {
		metrics.StorageFailures.WithLabelValues("list_users").Inc()
		return "", err
	}

	return formatUsers(users), nil
}

// Unrecognized returns the fallback text for anything the router cannot map.
func (s *Service) Unrecognized() string {
	return UnrecognizedText
}

func formatStats(stats domain.SurveyStats) string {
	var b strings.Builder

	b.WriteString("Survey results:\n\n")
	fmt.Fprintf(&b, "Total users: %d\n\n", stats.TotalUsers)

	if len(stats.Counts) == 0 {
		b.WriteString("No answers yet")
		return b.String()
	}

	marks := map[domain.Answer]string{
		domain.AnswerYes: "✅",
		domain.AnswerNo:  "❌",
	}

	for _, answer := range []domain.Answer{domain.AnswerYes, domain.AnswerNo} {
		count, ok := stats.Counts[answer]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s %s: %d\n", marks[answer], answer, count)
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatUsers(users []domain.User) string {
	if len(users) == 0 {
		return "No registered users yet"
	}

	var b strings.Builder
	b.WriteString("Registered users:\n")

	for _, user := range users {
		answer := "-"
		if user.Answer != nil {
			answer = string(*user.Answer)
		}

		name := user.Username
		if name == "" {
			name = user.FirstName
		}
		if name == "" {
			name = "-"
		}

		fmt.Fprintf(&b, "\n%d | %s | %s | %s", user.UserID, name, answer, clock.Format(user.RecordedAt))
	}

	return b.String()
}
