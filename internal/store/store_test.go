package store

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/pavelanni/revisor/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestTopic(t *testing.T, s *Store, name string, keyPoints ...string) int64 {
	t.Helper()
	id, err := s.CreateTopic(model.Topic{
		Subject:    "Physics",
		Name:       name,
		Difficulty: model.DifficultyMedium,
		Priority:   model.PriorityMedium,
		KeyPoints:  keyPoints,
		EaseFactor: model.DefaultEaseFactor,
	})
	if err != nil {
		t.Fatalf("insertTestTopic: %v", err)
	}
	return id
}

func insertTestAttempt(t *testing.T, s *Store, topicID int64, correct, attempted int) int64 {
	t.Helper()
	id, err := s.InsertAttempt(model.Attempt{
		TopicID:        topicID,
		TotalQuestions: attempted,
		Attempted:      attempted,
		Correct:        correct,
		Wrong:          attempted - correct,
		Accuracy:       float64(correct) / float64(attempted) * 100,
	})
	if err != nil {
		t.Fatalf("insertTestAttempt: %v", err)
	}
	return id
}

func TestTopicCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.TopicCount()
	if err != nil {
		t.Fatalf("TopicCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 topics, got %d", count)
	}

	id := insertTestTopic(t, s, "Optics", "Refraction", "Lenses")
	got, err := s.GetTopic(id)
	if err != nil {
		t.Fatalf("GetTopic: %v", err)
	}
	if got.Name != "Optics" {
		t.Errorf("expected name 'Optics', got %q", got.Name)
	}
	if got.Difficulty != model.DifficultyMedium {
		t.Errorf("expected difficulty Medium, got %q", got.Difficulty)
	}
	if !slices.Equal(got.KeyPoints, []string{"Refraction", "Lenses"}) {
		t.Errorf("expected key points in insertion order, got %q", got.KeyPoints)
	}
	if got.EaseFactor != 2.5 {
		t.Errorf("expected ease factor 2.5, got %v", got.EaseFactor)
	}
	if got.IntervalDays != 0 {
		t.Errorf("expected interval 0, got %d", got.IntervalDays)
	}
	if !got.NextReviewDate.Equal(got.CreatedAt) {
		t.Errorf("expected next review date %v to default to creation time %v", got.NextReviewDate, got.CreatedAt)
	}

	_, err = s.GetTopic(9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	insertTestTopic(t, s, "Waves")
	list, err := s.ListTopics()
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(list))
	}
	if list[1].KeyPoints == nil || len(list[1].KeyPoints) != 0 {
		t.Errorf("expected empty key points for Waves, got %#v", list[1].KeyPoints)
	}
}

func TestUpdateTopicSchedule(t *testing.T) {
	s := newTestStore(t)
	id := insertTestTopic(t, s, "Optics")

	next := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := s.UpdateTopicSchedule(id, 4, next); err != nil {
		t.Fatalf("UpdateTopicSchedule: %v", err)
	}

	got, err := s.GetTopic(id)
	if err != nil {
		t.Fatalf("GetTopic: %v", err)
	}
	if got.IntervalDays != 4 {
		t.Errorf("expected interval 4, got %d", got.IntervalDays)
	}
	if !got.NextReviewDate.Equal(next) {
		t.Errorf("expected next review %v, got %v", next, got.NextReviewDate)
	}

	if err := s.UpdateTopicSchedule(9999, 1, next); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAttempts(t *testing.T) {
	s := newTestStore(t)
	optics := insertTestTopic(t, s, "Optics")
	waves := insertTestTopic(t, s, "Waves")

	insertTestAttempt(t, s, optics, 3, 10)
	insertTestAttempt(t, s, waves, 8, 10)
	insertTestAttempt(t, s, optics, 9, 10)

	all, err := s.ListAttempts()
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(all))
	}

	forOptics, err := s.ListAttemptsForTopic(optics)
	if err != nil {
		t.Fatalf("ListAttemptsForTopic: %v", err)
	}
	if len(forOptics) != 2 {
		t.Fatalf("expected 2 attempts for optics, got %d", len(forOptics))
	}
	if forOptics[0].Correct != 3 || forOptics[1].Correct != 9 {
		t.Errorf("expected attempts oldest first, got %+v", forOptics)
	}
	if forOptics[0].TakenAt.IsZero() {
		t.Error("expected TakenAt to default to now")
	}

	if _, err := s.InsertAttempt(model.Attempt{TopicID: 9999, Attempted: 1}); err == nil {
		t.Error("expected foreign key error for unknown topic")
	}
}

func TestDeleteTopicCascades(t *testing.T) {
	s := newTestStore(t)
	optics := insertTestTopic(t, s, "Optics")
	waves := insertTestTopic(t, s, "Waves")
	insertTestAttempt(t, s, optics, 3, 10)
	insertTestAttempt(t, s, waves, 8, 10)

	if err := s.DeleteTopic(optics); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}

	if _, err := s.GetTopic(optics); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted topic to be gone, got %v", err)
	}
	all, err := s.ListAttempts()
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(all) != 1 || all[0].TopicID != waves {
		t.Errorf("expected only the waves attempt to remain, got %+v", all)
	}

	if err := s.DeleteTopic(optics); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestExportAllTopics(t *testing.T) {
	s := newTestStore(t)
	optics := insertTestTopic(t, s, "Optics")
	insertTestTopic(t, s, "Waves")
	insertTestAttempt(t, s, optics, 6, 10)
	insertTestAttempt(t, s, optics, 9, 10)

	got, err := s.ExportAllTopics()
	if err != nil {
		t.Fatalf("ExportAllTopics: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(got))
	}
	if len(got[0].Attempts) != 2 {
		t.Errorf("expected 2 optics attempts, got %d", len(got[0].Attempts))
	}
	if got[0].Classification.Tier != model.TierStrong {
		t.Errorf("expected optics Strong (15/20), got %q", got[0].Classification.Tier)
	}
	if got[1].Attempts == nil || got[1].Classification.Tier != model.TierWeak {
		t.Errorf("expected waves with no attempts and Weak, got %+v", got[1])
	}
}
