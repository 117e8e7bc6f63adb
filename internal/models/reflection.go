package models

import (
	"strings"
	"time"

	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/errors"
)

type ReflectionQuestion struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Activation
	CreatedAt time.Time `json:"created_at"`
}

func (q *ReflectionQuestion) EntityID() string { return q.ID }

func (q *ReflectionQuestion) Initialize(id string, now time.Time) {
	q.ID = id
	q.CreatedAt = now
	q.Activation = Activation{Active: true}
}

func (q *ReflectionQuestion) Validate() error {
	if q.ID == "" {
		return errors.Validation("id", "empty")
	}
	if strings.TrimSpace(q.Text) == "" {
		return errors.Validation("text", "empty")
	}
	return q.Activation.validate()
}

type ReflectionQuestionPatch struct {
	Text *string
}

func (p ReflectionQuestionPatch) Apply(q *ReflectionQuestion) {
	if p.Text != nil {
		q.Text = *p.Text
	}
}

// ReflectionResponse scores one question for one day. Date is always a
// midnight-normalized timestamp so day lookups can compare by equality.
type ReflectionResponse struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Date       time.Time `json:"date"`
	Score      int       `json:"score"`
	Timestamp  time.Time `json:"timestamp"`
}

func (r *ReflectionResponse) EntityID() string { return r.ID }

func (r *ReflectionResponse) Initialize(id string, now time.Time) {
	r.ID = id
	r.Timestamp = now
	if r.Date.IsZero() {
		r.Date = now
	}
	r.Date = midnight(r.Date)
}

func (r *ReflectionResponse) Validate() error {
	if r.ID == "" {
		return errors.Validation("id", "empty")
	}
	if r.QuestionID == "" {
		return errors.Validation("question_id", "empty")
	}
	if !r.Date.Equal(midnight(r.Date)) {
		return errors.Validation("date", "not normalized to midnight")
	}
	return ValidateScore(r.Score)
}

type ReflectionResponsePatch struct {
	Date  *time.Time
	Score *int
}

func (p ReflectionResponsePatch) Apply(r *ReflectionResponse) {
	if p.Date != nil {
		r.Date = midnight(*p.Date)
	}
	if p.Score != nil {
		r.Score = *p.Score
	}
}

// ValidateScore rejects scores outside [0, 10].
func ValidateScore(score int) error {
	if score < constants.MinScore || score > constants.MaxScore {
		return errors.Validation("score", "must be between %d and %d, got %d", constants.MinScore, constants.MaxScore, score)
	}
	return nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
