package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aulaflow/aulaflow/internal/model"
)

// ErrAlreadyPublished is returned when publishing a quiz a second time.
var ErrAlreadyPublished = errors.New("quiz already published")

const quizColumns = `id, class_id, kind, title, state, time_limit_min, reading, published_at, created_at`

// CreateQuizWithQuestions inserts a quiz and its questions atomically.
// Nothing is persisted when any question insert fails, so a quiz can never
// exist with fewer questions than it was generated with.
func (s *Store) CreateQuizWithQuestions(q model.Quiz, questions []model.Question) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO quizzes (class_id, kind, title, state, time_limit_min, reading, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ClassID, q.Kind, q.Title, q.State, q.TimeLimitMin, q.Reading, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	quizID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, question := range questions {
		question.QuizID = quizID
		question.Position = i + 1
		if _, err := insertQuestion(tx, question); err != nil {
			return 0, err
		}
	}

	return quizID, tx.Commit()
}

func insertQuestion(tx *sql.Tx, q model.Question) (int64, error) {
	options, err := marshalJSON(q.Options)
	if err != nil {
		return 0, fmt.Errorf("encode options: %w", err)
	}
	res, err := tx.Exec(
		`INSERT INTO questions (quiz_id, position, prompt, type, options, correct_option_id, expected_answer, justification, reading)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.QuizID, q.Position, q.Prompt, q.Type, options, q.CorrectOptionID, q.ExpectedAnswer, q.Justification, q.Reading,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetQuiz returns a quiz by ID.
func (s *Store) GetQuiz(id int64) (*model.Quiz, error) {
	return scanQuiz(s.db.QueryRow(`SELECT `+quizColumns+` FROM quizzes WHERE id = ?`, id))
}

// GetQuizByKind returns the class's quiz of the given kind.
func (s *Store) GetQuizByKind(classID int64, kind model.QuizKind) (*model.Quiz, error) {
	return scanQuiz(s.db.QueryRow(
		`SELECT `+quizColumns+` FROM quizzes WHERE class_id = ? AND kind = ?`, classID, kind))
}

func scanQuiz(row *sql.Row) (*model.Quiz, error) {
	var q model.Quiz
	err := row.Scan(&q.ID, &q.ClassID, &q.Kind, &q.Title, &q.State, &q.TimeLimitMin,
		&q.Reading, &q.PublishedAt, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// DeleteQuiz removes a quiz and its questions, used when regeneration must
// replace a draft wholesale.
func (s *Store) DeleteQuiz(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM questions WHERE quiz_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM quizzes WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateQuizReading overwrites the shared reading passage on the quiz and
// its questions.
func (s *Store) UpdateQuizReading(quizID int64, reading string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`UPDATE quizzes SET reading = ? WHERE id = ?`, reading, quizID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE questions SET reading = ? WHERE quiz_id = ?`, reading, quizID); err != nil {
		return err
	}
	return tx.Commit()
}

// PublishQuiz moves a quiz to published exactly once. The second publish
// returns ErrAlreadyPublished and leaves the original timestamp untouched.
func (s *Store) PublishQuiz(id int64) (time.Time, error) {
	now := time.Now()
	res, err := s.db.Exec(
		`UPDATE quizzes SET state = ?, published_at = ? WHERE id = ? AND state = ?`,
		model.QuizPublished, now, id, model.QuizDraft,
	)
	if err != nil {
		return time.Time{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, err
	}
	if affected == 0 {
		q, err := s.GetQuiz(id)
		if err != nil {
			return time.Time{}, err
		}
		if q.State == model.QuizPublished {
			return time.Time{}, ErrAlreadyPublished
		}
		return time.Time{}, fmt.Errorf("quiz %d in state %q cannot be published", id, q.State)
	}
	return now, nil
}

// ReplaceQuestions deletes a quiz's questions and inserts the replacement
// set atomically.
func (s *Store) ReplaceQuestions(quizID int64, questions []model.Question, reading string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM questions WHERE quiz_id = ?`, quizID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE quizzes SET reading = ? WHERE id = ?`, reading, quizID); err != nil {
		return err
	}
	for i, q := range questions {
		q.QuizID = quizID
		q.Position = i + 1
		q.Reading = reading
		if _, err := insertQuestion(tx, q); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const questionColumns = `id, quiz_id, position, prompt, type, options, correct_option_id, expected_answer, justification, reading`

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (*model.Question, error) {
	var q model.Question
	var options string
	err := s.db.QueryRow(
		`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.QuizID, &q.Position, &q.Prompt, &q.Type, &options,
		&q.CorrectOptionID, &q.ExpectedAnswer, &q.Justification, &q.Reading)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(options, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return &q, nil
}

// ListQuestions returns a quiz's questions in order.
func (s *Store) ListQuestions(quizID int64) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT `+questionColumns+` FROM questions WHERE quiz_id = ? ORDER BY position`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var options string
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Position, &q.Prompt, &q.Type, &options,
			&q.CorrectOptionID, &q.ExpectedAnswer, &q.Justification, &q.Reading); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(options, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpdateQuestion overwrites a question's editable fields in place. The row
// identity and quiz ownership never change.
func (s *Store) UpdateQuestion(q model.Question) error {
	options, err := marshalJSON(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE questions SET prompt = ?, type = ?, options = ?, correct_option_id = ?, expected_answer = ?, justification = ?
		 WHERE id = ?`,
		q.Prompt, q.Type, options, q.CorrectOptionID, q.ExpectedAnswer, q.Justification, q.ID,
	)
	return err
}
