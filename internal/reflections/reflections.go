// Package reflections manages daily reflection questions and the scored
// responses given to them.
package reflections

import (
	"context"
	"sort"
	"time"

	"github.com/julianstephens/logbook/internal/collection"
	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/errors"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/storage"
	"github.com/julianstephens/logbook/internal/utils"
)

const (
	KindQuestion = "Reflection question"
	KindResponse = "Reflection response"
)

var Defaults = []models.ReflectionQuestion{
	{Text: "How energized did you feel today?"},
	{Text: "How well did you focus on what mattered?"},
	{Text: "How satisfied are you with today?"},
}

type (
	questionCollection = collection.Collection[models.ReflectionQuestion, *models.ReflectionQuestion]
	responseCollection = collection.Collection[models.ReflectionResponse, *models.ReflectionResponse]
)

type Service struct {
	store     *storage.Store
	questions *questionCollection
	responses *responseCollection
}

func New(store *storage.Store, opts ...collection.Option) *Service {
	return &Service{
		store: store,
		questions: collection.New[models.ReflectionQuestion](store, collection.Config{
			Kind:        KindQuestion,
			IndexLabel:  constants.LabelReflectionQuestions,
			IndexID:     constants.IndexID,
			EntityLabel: constants.LabelReflectionQuestion,
		}, opts...),
		responses: collection.New[models.ReflectionResponse](store, collection.Config{
			Kind:        KindResponse,
			IndexLabel:  constants.LabelReflectionResponses,
			IndexID:     constants.IndexID,
			EntityLabel: constants.LabelReflectionResponse,
		}, opts...),
	}
}

func (s *Service) Load(ctx context.Context) error {
	if err := s.questions.Load(ctx); err != nil {
		return err
	}
	return s.responses.Load(ctx)
}

func (s *Service) Loading() bool {
	return s.questions.Loading() || s.responses.Loading()
}

// Questions

func (s *Service) Questions() []models.ReflectionQuestion         { return s.questions.All() }
func (s *Service) ActiveQuestions() []models.ReflectionQuestion   { return s.questions.Active() }
func (s *Service) InactiveQuestions() []models.ReflectionQuestion { return s.questions.Inactive() }

func (s *Service) Question(id string) (models.ReflectionQuestion, bool) {
	return s.questions.Get(id)
}

func (s *Service) CreateQuestion(ctx context.Context, q models.ReflectionQuestion) (models.ReflectionQuestion, error) {
	return s.questions.Create(ctx, q)
}

func (s *Service) UpdateQuestion(ctx context.Context, id string, patch models.ReflectionQuestionPatch) (models.ReflectionQuestion, error) {
	return s.questions.Update(ctx, id, func(q *models.ReflectionQuestion) error {
		patch.Apply(q)
		return nil
	})
}

func (s *Service) DeactivateQuestion(ctx context.Context, id string) (models.ReflectionQuestion, error) {
	return s.questions.Deactivate(ctx, id)
}

func (s *Service) ReactivateQuestion(ctx context.Context, id string) (models.ReflectionQuestion, error) {
	return s.questions.Reactivate(ctx, id)
}

// DeleteQuestion hard-deletes the question and its per-question index.
// Responses stay in the global index as history.
func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		return err
	}
	return s.store.Remove(ctx, constants.LabelReflectionResponses, id)
}

func (s *Service) CreateDefaults(ctx context.Context) ([]models.ReflectionQuestion, error) {
	created := make([]models.ReflectionQuestion, 0, len(Defaults))
	for _, d := range Defaults {
		q, err := s.questions.Create(ctx, d)
		if err != nil {
			return created, err
		}
		created = append(created, q)
	}
	return created, nil
}

// Responses

func (s *Service) Responses() []models.ReflectionResponse { return s.responses.All() }

// CreateResponse stores a response for an existing question. Date is
// normalized to midnight and defaults to today.
func (s *Service) CreateResponse(ctx context.Context, r models.ReflectionResponse) (models.ReflectionResponse, error) {
	if _, err := s.questions.Fetch(ctx, r.QuestionID); err != nil {
		return models.ReflectionResponse{}, err
	}
	created, err := s.responses.Create(ctx, r)
	if err != nil {
		return created, err
	}
	if _, err := s.store.AppendID(ctx, constants.LabelReflectionResponses, created.QuestionID, created.ID); err != nil {
		return created, err
	}
	return created, nil
}

func (s *Service) UpdateResponse(ctx context.Context, id string, patch models.ReflectionResponsePatch) (models.ReflectionResponse, error) {
	return s.responses.Update(ctx, id, func(r *models.ReflectionResponse) error {
		patch.Apply(r)
		return nil
	})
}

func (s *Service) DeleteResponse(ctx context.Context, id string) error {
	r, err := s.responses.Fetch(ctx, id)
	if err != nil && !errors.IsNotFound(err) {
		return err
	}
	if err := s.responses.Delete(ctx, id); err != nil {
		return err
	}
	questionIDs := []string{r.QuestionID}
	if r.QuestionID == "" {
		// Unreadable record: the owning question is unknown.
		questionIDs = questionIDs[:0]
		for _, q := range s.questions.All() {
			questionIDs = append(questionIDs, q.ID)
		}
	}
	for _, qid := range questionIDs {
		if _, err := s.store.RemoveID(ctx, constants.LabelReflectionResponses, qid, id); err != nil {
			return err
		}
	}
	return nil
}

// RecordResponse sets the score for (questionID, date), updating the
// existing response for that day if there is one.
func (s *Service) RecordResponse(ctx context.Context, questionID string, date time.Time, score int) (models.ReflectionResponse, error) {
	day := utils.Midnight(date)
	for _, r := range s.responses.All() {
		if r.QuestionID == questionID && r.Date.Equal(day) {
			return s.UpdateResponse(ctx, r.ID, models.ReflectionResponsePatch{Score: &score})
		}
	}
	return s.CreateResponse(ctx, models.ReflectionResponse{QuestionID: questionID, Date: day, Score: score})
}

// ResponsesForQuestion reads the question's own index, oldest date first.
func (s *Service) ResponsesForQuestion(ctx context.Context, questionID string) ([]models.ReflectionResponse, error) {
	ids, err := s.store.IDs(ctx, constants.LabelReflectionResponses, questionID)
	if err != nil {
		return nil, err
	}
	responses, err := collection.LoadAll[models.ReflectionResponse](ctx, s.store, constants.LabelReflectionResponse, ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(responses, func(i, j int) bool { return responses[i].Date.Before(responses[j].Date) })
	return responses, nil
}

// ResponsesByDateRange returns responses with start <= date <= end.
func (s *Service) ResponsesByDateRange(start, end time.Time) []models.ReflectionResponse {
	return s.responses.Filter(func(r *models.ReflectionResponse) bool {
		return !r.Date.Before(start) && !r.Date.After(end)
	})
}

// HasResponseForDate compares against the midnight of date exactly; stored
// dates are normalized on write.
func (s *Service) HasResponseForDate(questionID string, date time.Time) bool {
	day := utils.Midnight(date)
	for _, r := range s.responses.All() {
		if r.QuestionID == questionID && r.Date.Equal(day) {
			return true
		}
	}
	return false
}

// AverageScore is the mean score for questionID. With days > 0 only
// responses dated within the last days*24h count. ok is false when nothing
// matched.
func (s *Service) AverageScore(questionID string, days int) (avg float64, ok bool) {
	var cutoff time.Time
	if days > 0 {
		cutoff = s.responses.Now().Add(-time.Duration(days) * 24 * time.Hour)
	}
	sum, n := 0, 0
	for _, r := range s.responses.All() {
		if r.QuestionID != questionID {
			continue
		}
		if days > 0 && r.Date.Before(cutoff) {
			continue
		}
		sum += r.Score
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}
