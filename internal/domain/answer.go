package domain

// Answer is one of the two closed survey responses.
type Answer string

const (
	// AnswerYes records an affirmative response.
	AnswerYes Answer = "Yes"
	// AnswerNo records a negative response.
	AnswerNo Answer = "No"
)

// Valid reports whether the value is one of the two recognized responses.
func (a Answer) Valid() bool {
	return a == AnswerYes || a == AnswerNo
}

// ParseAnswer converts a raw string into an Answer, reporting whether the value
// is recognized.
func ParseAnswer(raw string) (Answer, bool) {
	answer := Answer(raw)
	return answer, answer.Valid()
}

// SurveyState is the per-user position in the survey lifecycle. The initial
// state for a never-seen identifier is StateUnregistered; once a user answers,
// no operation leaves StateAnswered.
type SurveyState int

const (
	// StateUnregistered means the store has no record for the identifier.
	StateUnregistered SurveyState = iota
	// StateUnanswered means the user is registered but has not answered.
	StateUnanswered
	// StateAnswered means the user has a recorded answer.
	StateAnswered
)

// String returns a stable label for logging.
func (s SurveyState) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateUnanswered:
		return "unanswered"
	case StateAnswered:
		return "answered"
	default:
		return "unknown"
	}
}

// SurveyStats aggregates stored answers. Counts holds only answer values that
// occur at least once.
type SurveyStats struct {
	TotalUsers int64
	Counts     map[Answer]int64
}
