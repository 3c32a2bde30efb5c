package model

import "time"

// QuestionType identifies the category of a practice question.
type QuestionType string

const (
	QuestionMCQ         QuestionType = "MCQ"
	QuestionShortAnswer QuestionType = "Short Answer"
	QuestionConceptual  QuestionType = "Conceptual"
	QuestionApplication QuestionType = "Application"
)

// TestSource tells whether a test came from the generative service or the rule-based synthesizer.
type TestSource string

const (
	SourceAI        TestSource = "ai"
	SourceRuleBased TestSource = "rule-based"
)

// Question is a single practice question.
// Options and CorrectAnswer are set only for MCQ; AnswerKey only for the other types.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	AnswerKey     string       `json:"answerKey,omitempty"`
	Explanation   string       `json:"explanation"`
}

// TestMeta describes how and for what a test was generated.
type TestMeta struct {
	Topic          string     `json:"topic"`
	Subject        string     `json:"subject"`
	Difficulty     Difficulty `json:"difficulty"`
	TotalQuestions int        `json:"totalQuestions"`
	GeneratedAt    time.Time  `json:"generatedAt"`
	Source         TestSource `json:"source"`
	Degraded       bool       `json:"degraded,omitempty"`
	FallbackReason string     `json:"fallbackReason,omitempty"`
}

// Test is the payload returned to the learner.
type Test struct {
	Meta      TestMeta   `json:"meta"`
	Questions []Question `json:"questions"`
}

// TestRequest carries the topic fields used to build a test.
type TestRequest struct {
	Topic      string
	Subject    string
	KeyPoints  []string
	Difficulty Difficulty
	Priority   Priority
}

// TestRequestFor builds a TestRequest from a stored topic.
func TestRequestFor(t Topic) TestRequest {
	return TestRequest{
		Topic:      t.Name,
		Subject:    t.Subject,
		KeyPoints:  t.KeyPoints,
		Difficulty: t.Difficulty,
		Priority:   t.Priority,
	}
}
