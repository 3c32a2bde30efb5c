package testgen

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/revisor/internal/llm"
	"github.com/pavelanni/revisor/internal/model"
)

func physicsRequest(points ...string) model.TestRequest {
	return model.TestRequest{
		Topic:      "Thermodynamics",
		Subject:    "Physics",
		KeyPoints:  points,
		Difficulty: model.DifficultyMedium,
		Priority:   model.PriorityMedium,
	}
}

func questionIDs(qs []model.Question) []string {
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	return ids
}

// assertValidTest checks the structural invariants every returned test must hold.
func assertValidTest(t *testing.T, test model.Test) {
	t.Helper()
	require.NotEmpty(t, test.Questions)
	assert.Equal(t, len(test.Questions), test.Meta.TotalQuestions)
	for _, q := range test.Questions {
		assert.NotEmpty(t, q.ID)
		assert.NotEmpty(t, q.Question)
		if q.Type == model.QuestionMCQ {
			assert.Len(t, q.Options, 4, "question %s", q.ID)
			assert.Contains(t, q.Options, q.CorrectAnswer, "question %s", q.ID)
		} else {
			assert.Empty(t, q.Options, "question %s", q.ID)
			assert.NotEmpty(t, q.AnswerKey, "question %s", q.ID)
		}
	}
}

func TestSynthesize(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	test := Synthesize(physicsRequest("First law", "Entropy", "Heat engines"), now)

	assertValidTest(t, test)
	assert.Equal(t, []string{"mcq_0", "mcq_1", "sa_0", "sa_1", "sa_2", "concept_1", "app_1"}, questionIDs(test.Questions))

	mcq := test.Questions[1]
	assert.Equal(t, model.QuestionMCQ, mcq.Type)
	assert.Equal(t, []string{"Entropy", "Not Entropy", "Unrelated Concept", "None of the above"}, mcq.Options)
	assert.Equal(t, "Entropy", mcq.CorrectAnswer)
	assert.Contains(t, mcq.Question, "Physics")

	concept := test.Questions[5]
	assert.Equal(t, model.QuestionConceptual, concept.Type)
	assert.Contains(t, concept.Question, `"First law" and "Entropy"`)

	app := test.Questions[6]
	assert.Equal(t, model.QuestionApplication, app.Type)
	assert.Contains(t, app.Question, "Heat engines")

	assert.Equal(t, model.TestMeta{
		Topic:          "Thermodynamics",
		Subject:        "Physics",
		Difficulty:     model.DifficultyMedium,
		TotalQuestions: 7,
		GeneratedAt:    now,
		Source:         model.SourceRuleBased,
	}, test.Meta)
}

func TestSynthesizeDeterministic(t *testing.T) {
	req := physicsRequest("First law", "Entropy")
	a := Synthesize(req, time.Now())
	b := Synthesize(req, time.Now().Add(time.Hour))

	assert.Equal(t, a.Questions, b.Questions)
	assert.Equal(t, a.Meta.TotalQuestions, b.Meta.TotalQuestions)
}

func TestSynthesizeEmptyKeyPoints(t *testing.T) {
	now := time.Now()
	empty := Synthesize(physicsRequest(), now)
	substituted := Synthesize(physicsRequest("Thermodynamics", "Thermodynamics Concepts", "Thermodynamics Principles"), now)

	assert.Equal(t, substituted, empty)
	assert.Len(t, empty.Questions, 7)
}

func TestSynthesizeSingleKeyPoint(t *testing.T) {
	test := Synthesize(physicsRequest("Entropy"), time.Now())

	assertValidTest(t, test)
	assert.Equal(t, []string{"mcq_0", "sa_0", "concept_1", "app_1"}, questionIDs(test.Questions))
	assert.Contains(t, test.Questions[2].Question, "Explain the core concept of Thermodynamics")
	assert.Contains(t, test.Questions[3].Question, `"Entropy"`)
}

func TestSynthesizeKeepsKeyPointOrder(t *testing.T) {
	test := Synthesize(physicsRequest("B", "A", "C"), time.Now())
	assert.Equal(t, "B", test.Questions[0].CorrectAnswer)
	assert.Equal(t, "A", test.Questions[1].CorrectAnswer)
	assert.Contains(t, test.Questions[len(test.Questions)-1].Question, `"C"`)
}

// fakeSource is a QuestionSource driven by a function.
type fakeSource func(ctx context.Context, req model.TestRequest) ([]llm.GeneratedQuestion, error)

func (f fakeSource) GenerateQuestions(ctx context.Context, req model.TestRequest) ([]llm.GeneratedQuestion, error) {
	return f(ctx, req)
}

func validGenerated(n int) []llm.GeneratedQuestion {
	qs := make([]llm.GeneratedQuestion, n)
	for i := range qs {
		qs[i] = llm.GeneratedQuestion{
			Question:      "Why does entropy increase?",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: "c",
			Explanation:   "second law",
		}
	}
	return qs
}

func TestGenerateAI(t *testing.T) {
	g := NewGenerator(fakeSource(func(ctx context.Context, req model.TestRequest) ([]llm.GeneratedQuestion, error) {
		return validGenerated(5), nil
	}), time.Second)

	test := g.Generate(context.Background(), physicsRequest("Entropy"))

	assertValidTest(t, test)
	assert.Equal(t, model.SourceAI, test.Meta.Source)
	assert.False(t, test.Meta.Degraded)
	assert.Empty(t, test.Meta.FallbackReason)
	// Counts other than three are passed through.
	assert.Equal(t, 5, test.Meta.TotalQuestions)
	assert.Equal(t, []string{"q_1", "q_2", "q_3", "q_4", "q_5"}, questionIDs(test.Questions))
	for _, q := range test.Questions {
		assert.Equal(t, model.QuestionMCQ, q.Type)
	}
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	// The source ignores its context entirely; the generator must not wait for it.
	g := NewGenerator(fakeSource(func(ctx context.Context, req model.TestRequest) ([]llm.GeneratedQuestion, error) {
		<-release
		return validGenerated(3), nil
	}), 20*time.Millisecond)

	start := time.Now()
	test := g.Generate(context.Background(), physicsRequest("First law", "Entropy"))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 2*time.Second)
	assertValidTest(t, test)
	assert.True(t, test.Meta.Degraded)
	assert.Equal(t, model.SourceRuleBased, test.Meta.Source)
	assert.Contains(t, test.Meta.FallbackReason, "deadline exceeded")
}

func TestGenerateFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		questions  []llm.GeneratedQuestion
		err        error
		wantReason string
	}{
		{"transport error", nil, errors.New("connection refused"), "connection refused"},
		{"malformed payload", nil, llm.ErrMissingQuestions, "no questions field"},
		{"empty list", []llm.GeneratedQuestion{}, nil, "no questions"},
		{"three options", []llm.GeneratedQuestion{{Question: "q", Options: []string{"a", "b", "c"}, CorrectAnswer: "a"}}, nil, "got 3 options"},
		{"answer not an option", []llm.GeneratedQuestion{{Question: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "B"}}, nil, "not among the options"},
		{"blank question", []llm.GeneratedQuestion{{Question: "  ", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"}}, nil, "empty question"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(fakeSource(func(ctx context.Context, req model.TestRequest) ([]llm.GeneratedQuestion, error) {
				return tt.questions, tt.err
			}), time.Second)

			test := g.Generate(context.Background(), physicsRequest("Entropy"))
			assertValidTest(t, test)
			assert.True(t, test.Meta.Degraded)
			assert.Equal(t, model.SourceRuleBased, test.Meta.Source)
			assert.Contains(t, test.Meta.FallbackReason, tt.wantReason)
		})
	}
}

func TestGenerateWithoutSource(t *testing.T) {
	g := NewGenerator(nil, 0)
	assert.Equal(t, DefaultTimeout, g.timeout)

	test := g.Generate(context.Background(), physicsRequest())
	assertValidTest(t, test)
	assert.True(t, test.Meta.Degraded)
	assert.Equal(t, errNoSource.Error(), test.Meta.FallbackReason)
}

func TestGenerateIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGenerator(fakeSource(func(ctx context.Context, req model.TestRequest) ([]llm.GeneratedQuestion, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return validGenerated(3), nil
	}), time.Second)

	test := g.Generate(ctx, physicsRequest("Entropy"))
	assert.Equal(t, model.SourceAI, test.Meta.Source)
}

func TestGenerateSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	g := NewGenerator(fakeSource(func(ctx context.Context, req model.TestRequest) ([]llm.GeneratedQuestion, error) {
		calls.Add(1)
		return nil, errors.New("unavailable")
	}), time.Second)

	g.Generate(context.Background(), physicsRequest("Entropy"))
	g.Generate(context.Background(), physicsRequest("Entropy"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSuggestConcepts(t *testing.T) {
	tests := []struct {
		subject   string
		wantCount int
		wantExtra string
	}{
		{"History", 6, ""},
		{"Physics", 9, "Forces & Motion"},
		{"Applied MATHEMATICS", 9, "Formulas & Theorems"},
		{"Mathematical Physics", 12, "Energy Transfer"},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			got := SuggestConcepts(tt.subject, "Waves")
			assert.Len(t, got, tt.wantCount)
			assert.Equal(t, "Waves Fundamentals", got[0])
			if tt.wantExtra != "" {
				assert.True(t, slices.Contains(got, tt.wantExtra), "missing %q in %v", tt.wantExtra, got)
			}
			for _, s := range got[:6] {
				assert.True(t, strings.Contains(s, "Waves"))
			}
		})
	}
}
