// Package performance classifies topic mastery from attempt counts.
package performance

import "github.com/pavelanni/revisor/internal/model"

const (
	strongThreshold = 75.0
	mediumThreshold = 50.0
)

// Classify returns the accuracy percentage and mastery tier for the given counts.
// No attempts means Weak with zero accuracy.
func Classify(correct, attempted int) model.Classification {
	if attempted == 0 {
		return model.Classification{Accuracy: 0, Tier: model.TierWeak}
	}

	accuracy := float64(correct) / float64(attempted) * 100
	tier := model.TierWeak
	switch {
	case accuracy >= strongThreshold:
		tier = model.TierStrong
	case accuracy >= mediumThreshold:
		tier = model.TierMedium
	}
	return model.Classification{Accuracy: accuracy, Tier: tier}
}

// Totals holds summed attempt counts for a topic.
type Totals struct {
	Correct   int
	Attempted int
}

// Aggregate sums correct and attempted counts across attempts.
func Aggregate(attempts []model.Attempt) Totals {
	var t Totals
	for _, a := range attempts {
		t.Correct += a.Correct
		t.Attempted += a.Attempted
	}
	return t
}

// ClassifyAll classifies the aggregate of all attempts.
func ClassifyAll(attempts []model.Attempt) model.Classification {
	t := Aggregate(attempts)
	return Classify(t.Correct, t.Attempted)
}
