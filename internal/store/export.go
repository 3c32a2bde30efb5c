package store

import (
	"fmt"

	"github.com/pavelanni/revisor/internal/model"
	"github.com/pavelanni/revisor/internal/performance"
)

// ExportAllTopics builds export-ready topics with their attempts and overall classification.
func (s *Store) ExportAllTopics() ([]model.TopicExport, error) {
	topics, err := s.ListTopics()
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	attempts, err := s.ListAttempts()
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	byTopic := make(map[int64][]model.Attempt)
	for _, a := range attempts {
		byTopic[a.TopicID] = append(byTopic[a.TopicID], a)
	}

	results := make([]model.TopicExport, 0, len(topics))
	for _, t := range topics {
		ta := byTopic[t.ID]
		if ta == nil {
			ta = []model.Attempt{}
		}
		results = append(results, model.TopicExport{
			Topic:          t,
			Attempts:       ta,
			Classification: performance.ClassifyAll(ta),
		})
	}
	return results, nil
}
