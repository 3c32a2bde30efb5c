// Package plan assembles per-topic revision plans and the daily directive.
package plan

import (
	"fmt"
	"time"

	"github.com/pavelanni/revisor/internal/model"
	"github.com/pavelanni/revisor/internal/performance"
	"github.com/pavelanni/revisor/internal/strategy"
)

// Entry is the revision plan for one topic.
type Entry struct {
	TopicID      int64      `json:"_id"`
	Topic        string     `json:"topic"`
	Subject      string     `json:"subject"`
	Tier         model.Tier `json:"classification"`
	Accuracy     float64    `json:"accuracy"`
	Strategy     []string   `json:"strategy"`
	NextTestDate time.Time  `json:"nextTestDate"`
}

// DirectiveKind identifies which daily message applies. The values double as i18n message IDs.
type DirectiveKind string

const (
	DirectiveFocusWeak DirectiveKind = "DirectiveFocusWeak"
	DirectiveSteady    DirectiveKind = "DirectiveSteady"
	DirectiveMaintain  DirectiveKind = "DirectiveMaintain"
	DirectiveWelcome   DirectiveKind = "DirectiveWelcome"
	DirectiveCalibrate DirectiveKind = "DirectiveCalibrate"
)

// Directive is the single message telling the learner what to do today.
type Directive struct {
	Kind    DirectiveKind `json:"kind"`
	Topic   string        `json:"topic,omitempty"`
	Message string        `json:"message"`
}

// Assemble builds the plan for every topic, in input order.
// A topic's stored NextReviewDate wins over the tier-based lag.
func Assemble(topics []model.Topic, attempts []model.Attempt, now time.Time) []Entry {
	byTopic := groupAttempts(attempts)

	entries := make([]Entry, 0, len(topics))
	for _, t := range topics {
		c := performance.ClassifyAll(byTopic[t.ID])
		s := strategy.Build(c.Tier, t.Name)

		next := t.NextReviewDate
		if next.IsZero() {
			next = now.AddDate(0, 0, s.SuggestedLagDays)
		}

		entries = append(entries, Entry{
			TopicID:      t.ID,
			Topic:        t.Name,
			Subject:      t.Subject,
			Tier:         c.Tier,
			Accuracy:     c.Accuracy,
			Strategy:     s.Actions,
			NextTestDate: next,
		})
	}
	return entries
}

// Direct picks the daily directive: the first Weak topic, else the first
// Medium topic, else the first topic when all are Strong.
func Direct(topics []model.Topic, attempts []model.Attempt) Directive {
	if len(topics) == 0 {
		return newDirective(DirectiveWelcome, "")
	}

	byTopic := groupAttempts(attempts)
	var firstWeak, firstMedium, firstStrong *model.Topic
	for i := range topics {
		t := &topics[i]
		switch performance.ClassifyAll(byTopic[t.ID]).Tier {
		case model.TierWeak:
			if firstWeak == nil {
				firstWeak = t
			}
		case model.TierMedium:
			if firstMedium == nil {
				firstMedium = t
			}
		case model.TierStrong:
			if firstStrong == nil {
				firstStrong = t
			}
		}
	}

	switch {
	case firstWeak != nil:
		return newDirective(DirectiveFocusWeak, firstWeak.Name)
	case firstMedium != nil:
		return newDirective(DirectiveSteady, firstMedium.Name)
	case firstStrong != nil:
		return newDirective(DirectiveMaintain, topics[0].Name)
	default:
		return newDirective(DirectiveCalibrate, "")
	}
}

func newDirective(kind DirectiveKind, topic string) Directive {
	return Directive{Kind: kind, Topic: topic, Message: englishMessage(kind, topic)}
}

func englishMessage(kind DirectiveKind, topic string) string {
	switch kind {
	case DirectiveFocusWeak:
		return fmt.Sprintf("Priority Focus: Review %s today to strengthen your weak areas.", topic)
	case DirectiveSteady:
		return fmt.Sprintf("Steady Progress: Continue practicing %s to reach mastery.", topic)
	case DirectiveMaintain:
		return fmt.Sprintf("You're doing great! Maintain your streak with a quick review of %s.", topic)
	case DirectiveWelcome:
		return "Welcome! Start by adding a new topic to generate your personal AI revision plan."
	default:
		return "Start taking tests to calibrate your AI study plan."
	}
}

// CountDue returns how many entries have a next test date at or before now.
func CountDue(entries []Entry, now time.Time) int {
	n := 0
	for _, e := range entries {
		if !e.NextTestDate.After(now) {
			n++
		}
	}
	return n
}

func groupAttempts(attempts []model.Attempt) map[int64][]model.Attempt {
	m := make(map[int64][]model.Attempt)
	for _, a := range attempts {
		m[a.TopicID] = append(m[a.TopicID], a)
	}
	return m
}
