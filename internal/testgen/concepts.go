package testgen

import (
	"fmt"
	"strings"
)

// SuggestConcepts returns rule-based key-point ideas for a new topic.
func SuggestConcepts(subject, topic string) []string {
	suggestions := []string{
		fmt.Sprintf("%s Fundamentals", topic),
		fmt.Sprintf("Applications of %s", topic),
		fmt.Sprintf("History of %s", topic),
		fmt.Sprintf("%s vs Related Concepts", topic),
		fmt.Sprintf("Advanced %s Theories", topic),
		fmt.Sprintf("Common Misconceptions in %s", topic),
	}

	s := strings.ToLower(subject)
	if strings.Contains(s, "physics") {
		suggestions = append(suggestions, "Conservation Laws", "Forces & Motion", "Energy Transfer")
	}
	if strings.Contains(s, "math") {
		suggestions = append(suggestions, "Formulas & Theorems", "Problem Solving Techniques", "Real-world Examples")
	}
	return suggestions
}
