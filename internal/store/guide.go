package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aulaflow/aulaflow/internal/model"
)

const guideColumns = `id, class_id, version_number, objectives, structure, guiding_questions, context, approved, approved_by, approved_at, is_final, created_at`

// CreateGuideVersion inserts the next guide version for a class and
// re-points the class's active version to it, in one transaction. The
// version number is read and incremented inside the transaction so two
// concurrent writers cannot both claim the same number; the UNIQUE
// (class_id, version_number) constraint rejects the loser.
func (s *Store) CreateGuideVersion(v model.GuideVersion) (*model.GuideVersion, error) {
	objectives, err := marshalJSON(v.Objectives)
	if err != nil {
		return nil, fmt.Errorf("encode objectives: %w", err)
	}
	structure, err := marshalJSON(v.Structure)
	if err != nil {
		return nil, fmt.Errorf("encode structure: %w", err)
	}
	questions, err := marshalJSON(v.GuidingQuestions)
	if err != nil {
		return nil, fmt.Errorf("encode guiding questions: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.Exec(
		`INSERT INTO guide_versions (class_id, version_number, objectives, structure, guiding_questions, context, approved, is_final, created_at)
		 SELECT ?, COALESCE(MAX(version_number), 0) + 1, ?, ?, ?, ?, ?, ?, ?
		 FROM guide_versions WHERE class_id = ?`,
		v.ClassID, objectives, structure, questions, v.Context, v.Approved, v.IsFinal, now, v.ClassID,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(
		`UPDATE classes SET active_guide_id = ?, updated_at = ? WHERE id = ?`, id, now, v.ClassID)
	if err != nil {
		return nil, err
	}

	var versionNumber int
	if err := tx.QueryRow(
		`SELECT version_number FROM guide_versions WHERE id = ?`, id).Scan(&versionNumber); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	v.ID = id
	v.VersionNumber = versionNumber
	v.CreatedAt = now
	return &v, nil
}

// GetGuideVersion returns a guide version by ID.
func (s *Store) GetGuideVersion(id int64) (*model.GuideVersion, error) {
	return s.scanGuide(s.db.QueryRow(
		`SELECT `+guideColumns+` FROM guide_versions WHERE id = ?`, id))
}

// ListGuideVersions returns all versions for a class, oldest first.
func (s *Store) ListGuideVersions(classID int64) ([]model.GuideVersion, error) {
	rows, err := s.db.Query(
		`SELECT `+guideColumns+` FROM guide_versions WHERE class_id = ? ORDER BY version_number`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var versions []model.GuideVersion
	for rows.Next() {
		v, err := s.scanGuideRows(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// ApproveGuideVersion marks a version approved. The approval timestamp is
// written once; re-approving is a no-op.
func (s *Store) ApproveGuideVersion(id, approverID int64) error {
	_, err := s.db.Exec(
		`UPDATE guide_versions SET approved = 1, approved_by = ?, approved_at = COALESCE(approved_at, ?)
		 WHERE id = ?`, approverID, time.Now(), id)
	return err
}

// SetActiveGuideVersion re-points the class's active guide version.
func (s *Store) SetActiveGuideVersion(classID, versionID int64) error {
	_, err := s.db.Exec(
		`UPDATE classes SET active_guide_id = ?, updated_at = ? WHERE id = ?`,
		versionID, time.Now(), classID)
	return err
}

func (s *Store) scanGuide(row *sql.Row) (*model.GuideVersion, error) {
	var v model.GuideVersion
	var objectives, structure, questions string
	err := row.Scan(&v.ID, &v.ClassID, &v.VersionNumber, &objectives, &structure, &questions,
		&v.Context, &v.Approved, &v.ApprovedBy, &v.ApprovedAt, &v.IsFinal, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeGuide(&v, objectives, structure, questions)
}

func (s *Store) scanGuideRows(rows *sql.Rows) (*model.GuideVersion, error) {
	var v model.GuideVersion
	var objectives, structure, questions string
	if err := rows.Scan(&v.ID, &v.ClassID, &v.VersionNumber, &objectives, &structure, &questions,
		&v.Context, &v.Approved, &v.ApprovedBy, &v.ApprovedAt, &v.IsFinal, &v.CreatedAt); err != nil {
		return nil, err
	}
	return decodeGuide(&v, objectives, structure, questions)
}

func decodeGuide(v *model.GuideVersion, objectives, structure, questions string) (*model.GuideVersion, error) {
	if err := unmarshalJSON(objectives, &v.Objectives); err != nil {
		return nil, fmt.Errorf("decode objectives: %w", err)
	}
	if err := unmarshalJSON(structure, &v.Structure); err != nil {
		return nil, fmt.Errorf("decode structure: %w", err)
	}
	if err := unmarshalJSON(questions, &v.GuidingQuestions); err != nil {
		return nil, fmt.Errorf("decode guiding questions: %w", err)
	}
	return v, nil
}
