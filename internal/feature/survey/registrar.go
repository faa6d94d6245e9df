// Package survey implements the survey lifecycle: idempotent user
// registration, answer recording, and the operations the transport layer
// calls. All access gating happens here so the Telegram layer stays a thin
// mapping of updates to calls.
package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tg_survey_bot/internal/clock"
	"tg_survey_bot/internal/domain"
	"tg_survey_bot/internal/logging"
)

// ErrNotRegistered reports an answer submission for an identifier with no
// stored record. Registration must happen first.
var ErrNotRegistered = errors.New("user is not registered")

type userCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Registrar persists survey state transitions for users.
type Registrar struct {
	users  userCollection
	logger *logrus.Entry
	now    func() time.Time
}

// NewRegistrar constructs a Registrar for the provided users collection.
func NewRegistrar(users userCollection, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		users:  users,
		logger: logger,
		now:    clock.Now,
	}
}

// Register inserts the user record on first contact and reports whether a new
// record was created. Re-registering an existing identifier leaves the stored
// record untouched, including its timestamp: all fields live under
// $setOnInsert, so the upsert matching an existing document modifies nothing.
func (r *Registrar) Register(ctx context.Context, user domain.User) (bool, error) {
	if r == nil || r.users == nil {
		return false, errors.New("survey registrar is not initialized")
	}
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if user.UserID == 0 {
		return false, errors.New("user id is required")
	}

	insertFields := bson.M{
		"user_id":     user.UserID,
		"recorded_at": r.now(),
	}
	if username := strings.TrimSpace(user.Username); username != "" {
		insertFields["username"] = username
	}
	if firstName := strings.TrimSpace(user.FirstName); firstName != "" {
		insertFields["first_name"] = firstName
	}

	result, err := r.users.UpdateOne(ctx,
		bson.M{"user_id": user.UserID},
		bson.M{"$setOnInsert": insertFields},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("register user: %w", err)
	}

	created := result != nil && result.UpsertedCount > 0
	if created {
		r.logger.WithFields(logging.Fields{
			"event":   "user_registered",
			"user_id": user.UserID,
		}).Info("registered new user")
		return true, nil
	}

	r.logger.WithFields(logging.Fields{
		"event":   "user_known",
		"user_id": user.UserID,
	}).Debug("registration is a no-op for known user")

	return false, nil
}

// RecordAnswer overwrites the stored answer and refreshes recorded_at. The
// answer never transitions back to unanswered; resubmission overwrites the
// previous value. Fails with ErrNotRegistered when no record exists.
func (r *Registrar) RecordAnswer(ctx context.Context, userID int64, answer domain.Answer) error {
	if r == nil || r.users == nil {
		return errors.New("survey registrar is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if userID == 0 {
		return errors.New("user id is required")
	}
	if !answer.Valid() {
		return fmt.Errorf("invalid answer %q", answer)
	}

	result, err := r.users.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{
			"answer":      answer,
			"recorded_at": r.now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}

	if result == nil || result.MatchedCount == 0 {
		return fmt.Errorf("record answer for user %d: %w", userID, ErrNotRegistered)
	}

	r.logger.WithFields(logging.Fields{
		"event":   "answer_recorded",
		"user_id": userID,
		"answer":  answer,
	}).Info("recorded survey answer")

	return nil
}
