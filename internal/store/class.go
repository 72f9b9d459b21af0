package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aulaflow/aulaflow/internal/model"
)

// CreateClass inserts a new class in its initial workflow state.
func (s *Store) CreateClass(c model.Class) (int64, error) {
	tags, err := marshalJSON(c.MethodTags)
	if err != nil {
		return 0, fmt.Errorf("encode method tags: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO classes (teacher_id, topic_id, group_id, template_id, scheduled_at, duration_min, method_tags, context, state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.TeacherID, c.TopicID, c.GroupID, c.TemplateID, c.ScheduledAt, c.DurationMin, tags, c.Context, c.State, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const classColumns = `id, teacher_id, topic_id, group_id, template_id, scheduled_at, duration_min, method_tags, context, state, active_guide_id, created_at, updated_at`

func scanClass(row *sql.Row) (*model.Class, error) {
	var c model.Class
	var tags string
	err := row.Scan(&c.ID, &c.TeacherID, &c.TopicID, &c.GroupID, &c.TemplateID, &c.ScheduledAt,
		&c.DurationMin, &tags, &c.Context, &c.State, &c.ActiveGuideID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(tags, &c.MethodTags); err != nil {
		return nil, fmt.Errorf("decode method tags: %w", err)
	}
	return &c, nil
}

// GetClass returns a class by ID.
func (s *Store) GetClass(id int64) (*model.Class, error) {
	return scanClass(s.db.QueryRow(`SELECT `+classColumns+` FROM classes WHERE id = ?`, id))
}

// GetClassOwned returns a class only when it belongs to the given teacher.
// A class owned by someone else is indistinguishable from a missing one.
func (s *Store) GetClassOwned(id, teacherID int64) (*model.Class, error) {
	return scanClass(s.db.QueryRow(
		`SELECT `+classColumns+` FROM classes WHERE id = ? AND teacher_id = ?`, id, teacherID))
}

// ListClassesByTeacher returns the teacher's classes, newest first.
func (s *Store) ListClassesByTeacher(teacherID int64) ([]model.Class, error) {
	rows, err := s.db.Query(
		`SELECT `+classColumns+` FROM classes WHERE teacher_id = ? ORDER BY id DESC`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var classes []model.Class
	for rows.Next() {
		var c model.Class
		var tags string
		if err := rows.Scan(&c.ID, &c.TeacherID, &c.TopicID, &c.GroupID, &c.TemplateID, &c.ScheduledAt,
			&c.DurationMin, &tags, &c.Context, &c.State, &c.ActiveGuideID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(tags, &c.MethodTags); err != nil {
			return nil, fmt.Errorf("decode method tags: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// UpdateClassState sets the class's workflow state.
func (s *Store) UpdateClassState(id int64, state string) error {
	_, err := s.db.Exec(
		`UPDATE classes SET state = ?, updated_at = ? WHERE id = ?`, state, time.Now(), id)
	return err
}

// UpdateClassContext overwrites the class's pedagogical context fields.
func (s *Store) UpdateClassContext(id int64, methodTags []string, context string, durationMin int) error {
	tags, err := marshalJSON(methodTags)
	if err != nil {
		return fmt.Errorf("encode method tags: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE classes SET method_tags = ?, context = ?, duration_min = ?, updated_at = ? WHERE id = ?`,
		tags, context, durationMin, time.Now(), id)
	return err
}

// GetTopic returns a topic by ID.
func (s *Store) GetTopic(id int64) (*model.Topic, error) {
	var t model.Topic
	err := s.db.QueryRow(
		`SELECT id, name, summary, grade_band, extraordinary FROM topics WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Summary, &t.GradeBand, &t.Extraordinary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTopic inserts a topic.
func (s *Store) CreateTopic(t model.Topic) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO topics (name, summary, grade_band, extraordinary) VALUES (?, ?, ?, ?)`,
		t.Name, t.Summary, t.GradeBand, t.Extraordinary,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetGroup returns a group by ID.
func (s *Store) GetGroup(id int64) (*model.Group, error) {
	var g model.Group
	err := s.db.QueryRow(`SELECT id, name, grade FROM groups WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.Grade)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGroup inserts a group.
func (s *Store) CreateGroup(g model.Group) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO groups (name, grade) VALUES (?, ?)`, g.Name, g.Grade)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CreateStudent inserts a student into a group.
func (s *Store) CreateStudent(st model.Student) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO students (group_id, full_name) VALUES (?, ?)`, st.GroupID, st.FullName)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListStudentsByGroup returns the group roster.
func (s *Store) ListStudentsByGroup(groupID int64) ([]model.Student, error) {
	rows, err := s.db.Query(
		`SELECT id, group_id, full_name FROM students WHERE group_id = ? ORDER BY full_name`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.GroupID, &st.FullName); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// GetStudent returns a student by ID.
func (s *Store) GetStudent(id int64) (*model.Student, error) {
	var st model.Student
	err := s.db.QueryRow(`SELECT id, group_id, full_name FROM students WHERE id = ?`, id).
		Scan(&st.ID, &st.GroupID, &st.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
