package store

import (
	"time"

	"github.com/pavelanni/revisor/internal/model"
)

const attemptColumns = `id, topic_id, total_questions, attempted, correct, wrong, accuracy, time_taken, taken_at`

// InsertAttempt stores a test submission. Attempts are never updated afterwards.
func (s *Store) InsertAttempt(a model.Attempt) (int64, error) {
	takenAt := a.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO attempts (topic_id, total_questions, attempted, correct, wrong, accuracy, time_taken, taken_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.TopicID, a.TotalQuestions, a.Attempted, a.Correct, a.Wrong, a.Accuracy, a.TimeTaken, takenAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListAttempts returns every attempt, oldest first.
func (s *Store) ListAttempts() ([]model.Attempt, error) {
	return s.queryAttempts(`SELECT ` + attemptColumns + ` FROM attempts ORDER BY id`)
}

// ListAttemptsForTopic returns the attempts of one topic, oldest first.
func (s *Store) ListAttemptsForTopic(topicID int64) ([]model.Attempt, error) {
	return s.queryAttempts(`SELECT `+attemptColumns+` FROM attempts WHERE topic_id = ? ORDER BY id`, topicID)
}

func (s *Store) queryAttempts(query string, args ...any) ([]model.Attempt, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.TopicID, &a.TotalQuestions, &a.Attempted, &a.Correct, &a.Wrong,
			&a.Accuracy, &a.TimeTaken, &a.TakenAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
