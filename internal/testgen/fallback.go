// Package testgen builds practice tests from topic key points.
package testgen

import (
	"fmt"
	"time"

	"github.com/pavelanni/revisor/internal/model"
)

// maxMCQ is the number of leading key points that get a multiple-choice question.
const maxMCQ = 2

// Synthesize builds a rule-based test from the topic's key points.
// The result depends only on req, apart from meta.GeneratedAt.
func Synthesize(req model.TestRequest, now time.Time) model.Test {
	points := req.KeyPoints
	if len(points) == 0 {
		points = []string{req.Topic, req.Topic + " Concepts", req.Topic + " Principles"}
	}

	var questions []model.Question

	for i, point := range points[:min(maxMCQ, len(points))] {
		questions = append(questions, model.Question{
			ID:       fmt.Sprintf("mcq_%d", i),
			Type:     model.QuestionMCQ,
			Question: fmt.Sprintf("Which concept is primarily associated with %q in the context of %s?", point, req.Subject),
			Options: []string{
				point,
				"Not " + point,
				"Unrelated Concept",
				"None of the above",
			},
			CorrectAnswer: point,
			Explanation:   fmt.Sprintf("%s is a core key point of %s.", point, req.Topic),
		})
	}

	for i, point := range points {
		questions = append(questions, model.Question{
			ID:          fmt.Sprintf("sa_%d", i),
			Type:        model.QuestionShortAnswer,
			Question:    fmt.Sprintf("Define and explain the significance of %q.", point),
			AnswerKey:   fmt.Sprintf("Key elements: Definition of %s, its role in %s, and examples.", point, req.Subject),
			Explanation: fmt.Sprintf("Understanding %s is crucial for mastering %s.", point, req.Topic),
		})
	}

	if len(points) >= 2 {
		questions = append(questions, model.Question{
			ID:          "concept_1",
			Type:        model.QuestionConceptual,
			Question:    fmt.Sprintf("Compare and contrast %q and %q. How are they connected?", points[0], points[1]),
			AnswerKey:   "Look for: Similarities, differences, and interaction between the two concepts.",
			Explanation: "Conceptual mastery requires understanding relationships between key points.",
		})
	} else {
		questions = append(questions, model.Question{
			ID:          "concept_1",
			Type:        model.QuestionConceptual,
			Question:    fmt.Sprintf("Explain the core concept of %s in your own words.", req.Topic),
			AnswerKey:   "Student should summarize the main idea.",
			Explanation: "Self-explanation is a powerful revision technique.",
		})
	}

	last := points[len(points)-1]
	questions = append(questions, model.Question{
		ID:          "app_1",
		Type:        model.QuestionApplication,
		Question:    fmt.Sprintf("Describe a real-world scenario or a practical problem where %q is applied.", last),
		AnswerKey:   fmt.Sprintf("Example: Using %s to solve X or in situation Y.", last),
		Explanation: fmt.Sprintf("Application proves understanding of how %s works in practice.", last),
	})

	return model.Test{
		Meta: model.TestMeta{
			Topic:          req.Topic,
			Subject:        req.Subject,
			Difficulty:     req.Difficulty,
			TotalQuestions: len(questions),
			GeneratedAt:    now,
			Source:         model.SourceRuleBased,
		},
		Questions: questions,
	}
}
