// Package strategy maps a mastery tier to concrete study actions.
package strategy

import (
	"fmt"

	"github.com/pavelanni/revisor/internal/model"
)

// Strategy is an ordered list of study actions and a suggested re-test lag.
type Strategy struct {
	Actions          []string `json:"strategy"`
	SuggestedLagDays int      `json:"suggestedLagDays"`
}

// Build returns the revision strategy for a tier. Unknown tiers get a generic review.
func Build(tier model.Tier, topicName string) Strategy {
	switch tier {
	case model.TierWeak:
		return Strategy{
			Actions: []string{
				fmt.Sprintf("Revise core concepts of %s", topicName),
				"Study solved examples",
				"Solve 5-8 practice questions",
			},
			SuggestedLagDays: 1,
		}
	case model.TierMedium:
		return Strategy{
			Actions: []string{
				fmt.Sprintf("Revise notes for %s", topicName),
				"Solve 3-5 practice questions",
			},
			SuggestedLagDays: 3,
		}
	case model.TierStrong:
		return Strategy{
			Actions: []string{
				fmt.Sprintf("Quick revision of %s", topicName),
				"Spend 10-15 minutes reviewing key points",
			},
			SuggestedLagDays: 7,
		}
	default:
		return Strategy{Actions: []string{"Review topic"}, SuggestedLagDays: 1}
	}
}
