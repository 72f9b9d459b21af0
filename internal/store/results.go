package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/aulaflow/aulaflow/internal/model"
)

// CreateResponse inserts a student submission. This subsystem only writes
// responses from the seed tooling and tests; in production they arrive
// through the student-facing surface.
func (s *Store) CreateResponse(r model.Response) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO responses (quiz_id, student_id, status, score, pct_correct, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.QuizID, r.StudentID, r.Status, r.Score, r.PctCorrect, r.SubmittedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CreateAnswer inserts one per-question detail row.
func (s *Store) CreateAnswer(a model.Answer) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO answers (response_id, question_id, value, correct, time_spent_sec)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ResponseID, a.QuestionID, a.Value, a.Correct, a.TimeSpentSec,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListCompletedResponses returns the completed submissions for a quiz.
func (s *Store) ListCompletedResponses(quizID int64) ([]model.Response, error) {
	rows, err := s.db.Query(
		`SELECT id, quiz_id, student_id, status, score, pct_correct, submitted_at
		 FROM responses WHERE quiz_id = ? AND status = ? ORDER BY id`,
		quizID, model.ResponseCompleted,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var responses []model.Response
	for rows.Next() {
		var r model.Response
		if err := rows.Scan(&r.ID, &r.QuizID, &r.StudentID, &r.Status, &r.Score, &r.PctCorrect, &r.SubmittedAt); err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// ListAnswers returns the detail rows for one response.
func (s *Store) ListAnswers(responseID int64) ([]model.Answer, error) {
	rows, err := s.db.Query(
		`SELECT id, response_id, question_id, value, correct, time_spent_sec
		 FROM answers WHERE response_id = ? ORDER BY id`, responseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.ResponseID, &a.QuestionID, &a.Value, &a.Correct, &a.TimeSpentSec); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// CreateRecommendation inserts an unapplied recommendation row.
func (s *Store) CreateRecommendation(r model.Recommendation) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO recommendations (class_id, quiz_id, title, description, priority, area, applied, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		r.ClassID, r.QuizID, r.Title, r.Description, r.Priority, r.Area, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetRecommendation returns a recommendation by ID.
func (s *Store) GetRecommendation(id int64) (*model.Recommendation, error) {
	var r model.Recommendation
	err := s.db.QueryRow(
		`SELECT id, class_id, quiz_id, title, description, priority, area, applied, applied_version_id, created_at
		 FROM recommendations WHERE id = ?`, id,
	).Scan(&r.ID, &r.ClassID, &r.QuizID, &r.Title, &r.Description, &r.Priority, &r.Area,
		&r.Applied, &r.AppliedVersionID, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRecommendations returns a class's recommendations, optionally only
// the unapplied ones.
func (s *Store) ListRecommendations(classID int64, onlyUnapplied bool) ([]model.Recommendation, error) {
	query := `SELECT id, class_id, quiz_id, title, description, priority, area, applied, applied_version_id, created_at
	          FROM recommendations WHERE class_id = ?`
	if onlyUnapplied {
		query += ` AND applied = 0`
	}
	query += ` ORDER BY id`
	rows, err := s.db.Query(query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []model.Recommendation
	for rows.Next() {
		var r model.Recommendation
		if err := rows.Scan(&r.ID, &r.ClassID, &r.QuizID, &r.Title, &r.Description, &r.Priority, &r.Area,
			&r.Applied, &r.AppliedVersionID, &r.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// MarkRecommendationsApplied flips the applied flag and links each
// recommendation to the version it was folded into.
func (s *Store) MarkRecommendationsApplied(ids []int64, versionID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, id := range ids {
		if _, err := tx.Exec(
			`UPDATE recommendations SET applied = 1, applied_version_id = ? WHERE id = ?`,
			versionID, id,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CreateFeedback inserts one generated feedback row.
func (s *Store) CreateFeedback(f model.Feedback) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO feedback (class_id, quiz_id, audience, student_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.ClassID, f.QuizID, f.Audience, f.StudentID, f.Content, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListFeedback returns a class's feedback rows, oldest first.
func (s *Store) ListFeedback(classID int64) ([]model.Feedback, error) {
	rows, err := s.db.Query(
		`SELECT id, class_id, quiz_id, audience, student_id, content, created_at
		 FROM feedback WHERE class_id = ? ORDER BY id`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.ClassID, &f.QuizID, &f.Audience, &f.StudentID, &f.Content, &f.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, f)
	}
	return notes, rows.Err()
}
