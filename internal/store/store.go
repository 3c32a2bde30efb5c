package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/revisor/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS topics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject TEXT NOT NULL,
		name TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT 'Medium',
		key_points TEXT NOT NULL DEFAULT '[]',
		ease_factor REAL NOT NULL DEFAULT 2.5,
		interval_days INTEGER NOT NULL DEFAULT 0 CHECK (interval_days >= 0),
		next_review_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		topic_id INTEGER NOT NULL,
		total_questions INTEGER NOT NULL,
		attempted INTEGER NOT NULL,
		correct INTEGER NOT NULL,
		wrong INTEGER NOT NULL,
		accuracy REAL NOT NULL,
		time_taken INTEGER NOT NULL DEFAULT 0,
		taken_at DATETIME NOT NULL,
		FOREIGN KEY (topic_id) REFERENCES topics(id)
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_topic ON attempts(topic_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

const topicColumns = `id, subject, name, difficulty, priority, key_points, ease_factor, interval_days, next_review_date, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (model.Topic, error) {
	var t model.Topic
	var keyPoints string
	if err := row.Scan(&t.ID, &t.Subject, &t.Name, &t.Difficulty, &t.Priority, &keyPoints,
		&t.EaseFactor, &t.IntervalDays, &t.NextReviewDate, &t.CreatedAt); err != nil {
		return t, err
	}
	if err := json.Unmarshal([]byte(keyPoints), &t.KeyPoints); err != nil {
		return t, fmt.Errorf("decode key points of topic %d: %w", t.ID, err)
	}
	return t, nil
}

// CreateTopic stores a topic and returns its ID.
func (s *Store) CreateTopic(t model.Topic) (int64, error) {
	keyPoints := t.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}
	kp, err := json.Marshal(keyPoints)
	if err != nil {
		return 0, fmt.Errorf("encode key points: %w", err)
	}
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	nextReview := t.NextReviewDate
	if nextReview.IsZero() {
		nextReview = createdAt
	}

	res, err := s.db.Exec(
		`INSERT INTO topics (subject, name, difficulty, priority, key_points, ease_factor, interval_days, next_review_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Subject, t.Name, t.Difficulty, t.Priority, string(kp), t.EaseFactor, t.IntervalDays, nextReview, createdAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTopic returns a topic by ID.
func (s *Store) GetTopic(id int64) (model.Topic, error) {
	t, err := scanTopic(s.db.QueryRow(`SELECT `+topicColumns+` FROM topics WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("topic %d: %w", id, ErrNotFound)
	}
	return t, err
}

// ListTopics returns all topics in creation order.
func (s *Store) ListTopics() ([]model.Topic, error) {
	rows, err := s.db.Query(`SELECT ` + topicColumns + ` FROM topics ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var topics []model.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// UpdateTopicSchedule stores the interval and next review date computed after a test.
func (s *Store) UpdateTopicSchedule(id int64, intervalDays int, nextReview time.Time) error {
	res, err := s.db.Exec(
		`UPDATE topics SET interval_days = ?, next_review_date = ? WHERE id = ?`,
		intervalDays, nextReview, id,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, "topic", id)
}

// DeleteTopic removes a topic together with its attempts.
func (s *Store) DeleteTopic(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM attempts WHERE topic_id = ?`, id); err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM topics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	if err := requireAffected(res, "topic", id); err != nil {
		return err
	}
	return tx.Commit()
}

// TopicCount returns the number of topics in the database.
func (s *Store) TopicCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM topics`).Scan(&count)
	return count, err
}

func requireAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
