package model

import (
	"strings"
	"time"
)

// Difficulty represents how hard a topic is for the learner.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty normalizes a difficulty label case-insensitively.
// Unrecognized values are returned unchanged and treated as neutral by the scheduler.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	default:
		return Difficulty(strings.TrimSpace(s))
	}
}

// Priority represents how urgently a topic should be revised.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority normalizes a priority label. An empty value yields PriorityMedium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium
	case "low":
		return PriorityLow
	case "medium":
		return PriorityMedium
	case "high":
		return PriorityHigh
	default:
		return Priority(strings.TrimSpace(s))
	}
}

// Tier is the mastery classification of a topic.
type Tier string

const (
	TierWeak   Tier = "Weak"
	TierMedium Tier = "Medium"
	TierStrong Tier = "Strong"
)

// DefaultEaseFactor is the ease factor assigned to new topics.
const DefaultEaseFactor = 2.5

// Topic is a learner-defined subject area together with its scheduling state.
type Topic struct {
	ID             int64      `json:"id"`
	Subject        string     `json:"subject"`
	Name           string     `json:"topicName"`
	Difficulty     Difficulty `json:"difficulty"`
	Priority       Priority   `json:"priority"`
	KeyPoints      []string   `json:"keyPoints"`
	EaseFactor     float64    `json:"easeFactor"`
	IntervalDays   int        `json:"interval"`
	NextReviewDate time.Time  `json:"nextReviewDate"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Attempt is one completed test submission for a topic.
type Attempt struct {
	ID             int64     `json:"id"`
	TopicID        int64     `json:"topicId"`
	TotalQuestions int       `json:"totalQuestions"`
	Attempted      int       `json:"attempted"`
	Correct        int       `json:"correct"`
	Wrong          int       `json:"wrong"`
	Accuracy       float64   `json:"accuracy"`
	TimeTaken      int       `json:"timeTaken"`
	TakenAt        time.Time `json:"date"`
}

// Classification is the derived accuracy and tier for a set of attempts.
type Classification struct {
	Accuracy float64 `json:"accuracy"`
	Tier     Tier    `json:"classification"`
}

// RuntimeConfig holds parameters set via CLI flags, environment or config file.
type RuntimeConfig struct {
	LLMTimeout    time.Duration // deadline for a single generative-service call
	LLMDisabled   bool          // skip the generative service and always use rule-based tests
	GenerateRate  float64       // generate-test requests per second
	GenerateBurst int
	Lang          string
}
