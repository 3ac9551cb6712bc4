package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aivira/grantdna/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
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
	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		program TEXT NOT NULL,
		score INTEGER NOT NULL,
		confidence TEXT NOT NULL,
		category TEXT NOT NULL,
		name TEXT NOT NULL,
		company_name TEXT NOT NULL,
		email TEXT NOT NULL,
		report_json TEXT NOT NULL,
		answers_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS answer_cache (
		key TEXT PRIMARY KEY,
		answers_json TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS app_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertSubmission stores a completed report and the answers that produced
// it. Submissions are immutable; a resubmission inserts a new row.
func (s *Store) InsertSubmission(r model.Report, a model.Answers) error {
	reportJSON, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	answersJSON, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO submissions (id, program, score, confidence, category, name, company_name, email, report_json, answers_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Metadata.ReportID, r.Program, r.Score, r.Confidence, r.Category,
		r.Identity.Name, r.Identity.CompanyName, r.Identity.Email,
		string(reportJSON), string(answersJSON), r.Metadata.CreatedAt,
	)
	return err
}

// GetSubmission returns a submission by report id, or nil if not found.
func (s *Store) GetSubmission(id string) (*model.Submission, error) {
	var (
		sub         model.Submission
		reportJSON  string
		answersJSON string
	)
	err := s.db.QueryRow(
		`SELECT id, report_json, answers_json, created_at FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &reportJSON, &answersJSON, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(reportJSON), &sub.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(answersJSON), &sub.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers %s: %w", id, err)
	}
	return &sub, nil
}

// ListSubmissions returns all submissions, newest first.
func (s *Store) ListSubmissions() ([]model.Submission, error) {
	rows, err := s.db.Query(
		`SELECT id, report_json, answers_json, created_at FROM submissions ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.Submission
	for rows.Next() {
		var (
			sub         model.Submission
			reportJSON  string
			answersJSON string
		)
		if err := rows.Scan(&sub.ID, &reportJSON, &answersJSON, &sub.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(reportJSON), &sub.Report); err != nil {
			return nil, fmt.Errorf("unmarshal report %s: %w", sub.ID, err)
		}
		if err := json.Unmarshal([]byte(answersJSON), &sub.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers %s: %w", sub.ID, err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// SubmissionCount returns the number of stored submissions.
func (s *Store) SubmissionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM submissions`).Scan(&count)
	return count, err
}

// SetCachedAnswers upserts the in-progress answers for a session key.
// Last write wins.
func (s *Store) SetCachedAnswers(key string, a model.Answers) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO answer_cache (key, answers_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET answers_json = ?, updated_at = ?`,
		key, string(data), time.Now(), string(data), time.Now(),
	)
	return err
}

// GetCachedAnswers returns the cached answers for a key. The second return
// is false when no entry exists.
func (s *Store) GetCachedAnswers(key string) (model.Answers, bool, error) {
	var data string
	err := s.db.QueryRow(`SELECT answers_json FROM answer_cache WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return model.Answers{}, false, nil
	}
	if err != nil {
		return model.Answers{}, false, err
	}
	var a model.Answers
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return model.Answers{}, false, fmt.Errorf("unmarshal cached answers: %w", err)
	}
	return a, true, nil
}

// ClearCachedAnswers removes the cache entry for a key.
func (s *Store) ClearCachedAnswers(key string) error {
	_, err := s.db.Exec(`DELETE FROM answer_cache WHERE key = ?`, key)
	return err
}
