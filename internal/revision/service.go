// Package revision connects the store to the scheduling and test-generation engine.
package revision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/revisor/internal/model"
	"github.com/pavelanni/revisor/internal/performance"
	"github.com/pavelanni/revisor/internal/plan"
	"github.com/pavelanni/revisor/internal/schedule"
	"github.com/pavelanni/revisor/internal/store"
	"github.com/pavelanni/revisor/internal/testgen"
)

// ErrInvalidInput is returned for requests the service cannot act on.
var ErrInvalidInput = errors.New("invalid input")

// TopicInput holds the fields a learner supplies when registering a topic.
type TopicInput struct {
	Subject    string   `json:"subject"`
	Name       string   `json:"topicName"`
	Difficulty string   `json:"difficulty"`
	Priority   string   `json:"priority"`
	KeyPoints  []string `json:"keyPoints"`
}

// AttemptInput is a completed test submission.
type AttemptInput struct {
	TopicID        int64 `json:"topicId"`
	TotalQuestions int   `json:"totalQuestions"`
	Attempted      int   `json:"attempted"`
	Correct        int   `json:"correct"`
	Wrong          int   `json:"wrong"`
	TimeTaken      int   `json:"timeTaken"`
}

// SubmitResult is returned after a submission is recorded and the topic rescheduled.
type SubmitResult struct {
	Attempt        model.Attempt   `json:"testResult"`
	Classification model.Tier      `json:"classification"`
	Accuracy       float64         `json:"accuracy"`
	Schedule       schedule.Result `json:"schedule"`
}

// Service holds the collaborators used by the HTTP and CLI layers.
type Service struct {
	store     *store.Store
	scheduler *schedule.Calculator
	generator *testgen.Generator
	now       func() time.Time
}

// New creates a revision service.
func New(s *store.Store, sched *schedule.Calculator, gen *testgen.Generator) *Service {
	return &Service{store: s, scheduler: sched, generator: gen, now: time.Now}
}

// AddTopic registers a topic with default scheduling state.
func (s *Service) AddTopic(in TopicInput) (model.Topic, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Topic{}, fmt.Errorf("%w: topic name is required", ErrInvalidInput)
	}

	now := s.now()
	t := model.Topic{
		Subject:        strings.TrimSpace(in.Subject),
		Name:           name,
		Difficulty:     model.ParseDifficulty(in.Difficulty),
		Priority:       model.ParsePriority(in.Priority),
		KeyPoints:      cleanKeyPoints(in.KeyPoints),
		EaseFactor:     s.scheduler.Config().DefaultEaseFactor,
		IntervalDays:   0,
		NextReviewDate: now,
		CreatedAt:      now,
	}
	id, err := s.store.CreateTopic(t)
	if err != nil {
		return model.Topic{}, fmt.Errorf("create topic: %w", err)
	}
	t.ID = id
	slog.Info("added topic", "id", id, "topic", t.Name, "difficulty", t.Difficulty, "priority", t.Priority)
	return t, nil
}

// Topics returns all topics.
func (s *Service) Topics() ([]model.Topic, error) {
	topics, err := s.store.ListTopics()
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// DeleteTopic removes a topic and its attempts.
func (s *Service) DeleteTopic(id int64) error {
	if err := s.store.DeleteTopic(id); err != nil {
		return err
	}
	slog.Info("deleted topic", "id", id)
	return nil
}

// SubmitAttempt records a test, classifies it and reschedules the topic.
// The ease factor is read from the topic but never changed.
func (s *Service) SubmitAttempt(in AttemptInput) (SubmitResult, error) {
	if in.Attempted < 0 || in.Correct < 0 || in.Wrong < 0 || in.TotalQuestions < 0 {
		return SubmitResult{}, fmt.Errorf("%w: counts must not be negative", ErrInvalidInput)
	}

	topic, err := s.store.GetTopic(in.TopicID)
	if err != nil {
		return SubmitResult{}, err
	}

	c := performance.Classify(in.Correct, in.Attempted)
	a := model.Attempt{
		TopicID:        topic.ID,
		TotalQuestions: in.TotalQuestions,
		Attempted:      in.Attempted,
		Correct:        in.Correct,
		Wrong:          in.Wrong,
		Accuracy:       c.Accuracy,
		TimeTaken:      max(0, in.TimeTaken),
		TakenAt:        s.now(),
	}
	if a.ID, err = s.store.InsertAttempt(a); err != nil {
		return SubmitResult{}, fmt.Errorf("insert attempt: %w", err)
	}

	sched := s.scheduler.Next(schedule.Input{
		Difficulty:      topic.Difficulty,
		Priority:        topic.Priority,
		LastScore:       schedule.Score(int(c.Accuracy)),
		CurrentInterval: topic.IntervalDays,
		EaseFactor:      topic.EaseFactor,
	})
	if err := s.store.UpdateTopicSchedule(topic.ID, sched.DaysUntilNext, sched.NextReviewDate); err != nil {
		return SubmitResult{}, fmt.Errorf("update schedule: %w", err)
	}

	slog.Info("recorded attempt",
		"topic_id", topic.ID,
		"accuracy", c.Accuracy,
		"tier", c.Tier,
		"previous_interval", topic.IntervalDays,
		"next_interval", sched.DaysUntilNext,
	)
	return SubmitResult{Attempt: a, Classification: c.Tier, Accuracy: c.Accuracy, Schedule: sched}, nil
}

// Plan returns the revision plan for every topic.
func (s *Service) Plan() ([]plan.Entry, error) {
	topics, attempts, err := s.load()
	if err != nil {
		return nil, err
	}
	return plan.Assemble(topics, attempts, s.now()), nil
}

// Directive returns today's directive.
func (s *Service) Directive() (plan.Directive, error) {
	topics, attempts, err := s.load()
	if err != nil {
		return plan.Directive{}, err
	}
	return plan.Direct(topics, attempts), nil
}

// GenerateTest builds a practice test for a stored topic.
func (s *Service) GenerateTest(ctx context.Context, topicID int64) (model.Test, error) {
	topic, err := s.store.GetTopic(topicID)
	if err != nil {
		return model.Test{}, err
	}
	return s.generator.Generate(ctx, model.TestRequestFor(topic)), nil
}

// GenerateAll builds a test for every topic, running up to limit generations at once.
// Results are in topic order.
func (s *Service) GenerateAll(ctx context.Context, limit int) ([]model.Test, error) {
	topics, err := s.Topics()
	if err != nil {
		return nil, err
	}

	tests := make([]model.Test, len(topics))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, t := range topics {
		g.Go(func() error {
			tests[i] = s.generator.Generate(ctx, model.TestRequestFor(t))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tests, nil
}

func (s *Service) load() ([]model.Topic, []model.Attempt, error) {
	topics, err := s.store.ListTopics()
	if err != nil {
		return nil, nil, fmt.Errorf("list topics: %w", err)
	}
	attempts, err := s.store.ListAttempts()
	if err != nil {
		return nil, nil, fmt.Errorf("list attempts: %w", err)
	}
	return topics, attempts, nil
}

func cleanKeyPoints(points []string) []string {
	out := make([]string, 0, len(points))
	for _, p := range points {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
