// Package domain defines shared domain types for the survey bot.
package domain

import "time"

// User represents a Telegram user registered with the survey bot. Answer is nil
// until the user submits a response; RecordedAt tracks the last write to the
// record (creation or answer update) in the configured civil timezone.
type User struct {
	UserID     int64     `bson:"user_id" json:"user_id"`
	Username   string    `bson:"username,omitempty" json:"username,omitempty"`
	FirstName  string    `bson:"first_name,omitempty" json:"first_name,omitempty"`
	Answer     *Answer   `bson:"answer,omitempty" json:"answer,omitempty"`
	RecordedAt time.Time `bson:"recorded_at" json:"recorded_at"`
}

// State derives the survey state from the record. A nil receiver stands for an
// identifier the store has never seen.
func (u *User) State() SurveyState {
	switch {
	case u == nil:
		return StateUnregistered
	case u.Answer == nil:
		return StateUnanswered
	default:
		return StateAnswered
	}
}
