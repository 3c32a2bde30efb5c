package testgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/pavelanni/revisor/internal/llm"
	"github.com/pavelanni/revisor/internal/model"
)

// DefaultTimeout bounds a single call to the generative service.
const DefaultTimeout = 45 * time.Second

const optionsPerQuestion = 4

var errNoSource = errors.New("no generative service configured")

// QuestionSource produces multiple-choice questions for a topic.
// *llm.Client implements it.
type QuestionSource interface {
	GenerateQuestions(ctx context.Context, req model.TestRequest) ([]llm.GeneratedQuestion, error)
}

// Generator builds tests with the generative service and falls back to
// Synthesize when the service is slow, unreachable or returns bad output.
type Generator struct {
	source  QuestionSource
	timeout time.Duration
	now     func() time.Time
}

// NewGenerator creates a generator. A nil source always uses the rule-based fallback.
// A non-positive timeout uses DefaultTimeout.
func NewGenerator(source QuestionSource, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{source: source, timeout: timeout, now: time.Now}
}

// Generate returns a test for req. It never fails: any problem with the
// generative service yields a rule-based test with meta.Degraded set.
// Cancelling ctx does not cut the call short; only the generator's own deadline does.
func (g *Generator) Generate(ctx context.Context, req model.TestRequest) model.Test {
	start := g.now()

	questions, err := g.fetch(ctx, req)
	if err == nil {
		var test model.Test
		test, err = g.normalize(req, questions)
		if err == nil {
			slog.Info("generated AI test", "topic", req.Topic, "questions", len(test.Questions), "elapsed", time.Since(start))
			return test
		}
	}

	if errors.Is(err, errNoSource) {
		slog.Debug("using rule-based test", "topic", req.Topic)
	} else {
		slog.Warn("AI test generation failed, using rule-based test", "topic", req.Topic, "error", err)
	}

	test := Synthesize(req, g.now())
	test.Meta.Degraded = true
	test.Meta.FallbackReason = err.Error()
	return test
}

type fetchResult struct {
	questions []llm.GeneratedQuestion
	err       error
}

func (g *Generator) fetch(ctx context.Context, req model.TestRequest) ([]llm.GeneratedQuestion, error) {
	if g.source == nil {
		return nil, errNoSource
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	// Buffered so an abandoned call can still deliver and exit.
	done := make(chan fetchResult, 1)
	go func() {
		qs, err := g.source.GenerateQuestions(ctx, req)
		done <- fetchResult{questions: qs, err: err}
	}()

	select {
	case res := <-done:
		return res.questions, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("generative service: %w", ctx.Err())
	}
}

func (g *Generator) normalize(req model.TestRequest, generated []llm.GeneratedQuestion) (model.Test, error) {
	if len(generated) == 0 {
		return model.Test{}, errors.New("generative service returned no questions")
	}

	questions := make([]model.Question, 0, len(generated))
	for i, gq := range generated {
		if err := validate(gq); err != nil {
			return model.Test{}, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, model.Question{
			ID:            fmt.Sprintf("q_%d", i+1),
			Type:          model.QuestionMCQ,
			Question:      strings.TrimSpace(gq.Question),
			Options:       slices.Clone(gq.Options),
			CorrectAnswer: gq.CorrectAnswer,
			Explanation:   gq.Explanation,
		})
	}

	return model.Test{
		Meta: model.TestMeta{
			Topic:          req.Topic,
			Subject:        req.Subject,
			Difficulty:     req.Difficulty,
			TotalQuestions: len(questions),
			GeneratedAt:    g.now(),
			Source:         model.SourceAI,
		},
		Questions: questions,
	}, nil
}

func validate(q llm.GeneratedQuestion) error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("empty question text")
	}
	if len(q.Options) != optionsPerQuestion {
		return fmt.Errorf("got %d options, want %d", len(q.Options), optionsPerQuestion)
	}
	if !slices.Contains(q.Options, q.CorrectAnswer) {
		return fmt.Errorf("correct answer %q is not among the options", q.CorrectAnswer)
	}
	return nil
}
