// Package schedule computes the next review interval for a topic.
//
// The interval grows with the ease factor on strong scores and shrinks on
// failures. The difficulty multiplier divides the interval, so harder topics
// come back sooner even when the learner does well. High-priority topics
// reset to a one-day interval on failure instead of halving.
package schedule

import (
	"math"
	"time"

	"github.com/pavelanni/revisor/internal/model"
)

// Config holds the scheduling policy.
type Config struct {
	// DefaultEaseFactor is used when the caller passes a non-positive ease factor.
	DefaultEaseFactor float64
	// Multipliers maps difficulty to an interval divisor. Missing entries use 1.0.
	Multipliers map[model.Difficulty]float64
	// PerfectBonus multiplies growth when the score is exactly 100.
	PerfectBonus float64
	// ModerateGrowth is the growth factor for scores in [50, 80).
	ModerateGrowth float64
}

// DefaultConfig returns the standard scheduling policy.
func DefaultConfig() Config {
	return Config{
		DefaultEaseFactor: model.DefaultEaseFactor,
		Multipliers: map[model.Difficulty]float64{
			model.DifficultyEasy:   0.8,
			model.DifficultyMedium: 1.0,
			model.DifficultyHard:   1.3,
		},
		PerfectBonus:   1.1,
		ModerateGrowth: 1.2,
	}
}

// Input describes the topic state and the latest result.
type Input struct {
	Difficulty model.Difficulty
	Priority   model.Priority
	// LastScore is the most recent percentage score, nil if the topic has not been tested.
	LastScore       *int
	CurrentInterval int
	EaseFactor      float64
}

// Result is the computed schedule.
type Result struct {
	NextReviewDate time.Time `json:"nextReviewDate"`
	DaysUntilNext  int       `json:"daysUntilNext"`
	PriorityScore  int       `json:"priorityScore"`
}

// Calculator computes schedules from a fixed policy.
type Calculator struct {
	config Config
	now    func() time.Time
}

// New creates a calculator with the default policy.
func New() *Calculator {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a calculator with a custom policy.
func NewWithConfig(cfg Config) *Calculator {
	return &Calculator{config: cfg, now: time.Now}
}

// WithClock returns a copy of c that reads the current time from now.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	cp := *c
	cp.now = now
	return &cp
}

// Config returns the calculator's policy.
func (c *Calculator) Config() Config {
	return c.config
}

// Next computes the next interval, review date and priority score.
func (c *Calculator) Next(in Input) Result {
	interval := c.interval(in)
	days := max(1, int(math.Round(interval)))

	return Result{
		NextReviewDate: c.now().AddDate(0, 0, days),
		DaysUntilNext:  days,
		PriorityScore:  PriorityScore(in.Priority),
	}
}

func (c *Calculator) interval(in Input) float64 {
	current := max(0, in.CurrentInterval)

	if in.LastScore == nil {
		if current > 0 {
			return float64(current)
		}
		if in.Difficulty == model.DifficultyHard {
			return 1
		}
		return 2
	}

	score := *in.LastScore

	// First test after registration: ease and difficulty are not applied.
	if current == 0 {
		switch {
		case score >= 90:
			return 4
		case score >= 70:
			return 2
		default:
			return 1
		}
	}

	switch {
	case score >= 80:
		bonus := 1.0
		if score == 100 {
			bonus = c.config.PerfectBonus
		}
		return float64(current) * c.easeFactor(in.EaseFactor) * bonus / c.multiplier(in.Difficulty)
	case score >= 50:
		return float64(current) * c.config.ModerateGrowth / c.multiplier(in.Difficulty)
	case in.Priority == model.PriorityHigh:
		return 1
	default:
		return float64(max(1, current/2))
	}
}

func (c *Calculator) multiplier(d model.Difficulty) float64 {
	if m, ok := c.config.Multipliers[d]; ok && m > 0 {
		return m
	}
	return 1.0
}

func (c *Calculator) easeFactor(ef float64) float64 {
	if ef > 0 {
		return ef
	}
	if c.config.DefaultEaseFactor > 0 {
		return c.config.DefaultEaseFactor
	}
	return model.DefaultEaseFactor
}

// PriorityScore weights High-priority topics at 100 and everything else at 50.
func PriorityScore(p model.Priority) int {
	if p == model.PriorityHigh {
		return 100
	}
	return 50
}

// Score returns a pointer to s, for use as Input.LastScore.
func Score(s int) *int {
	return &s
}
