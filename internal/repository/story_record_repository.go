package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// StoryRecord is the push stage's ledger entry for one story: the id
// it got on the target side, or the error that prevented it.
type StoryRecord struct {
	ID           int64
	RunID        string
	StoryName    string
	StoryID      string
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

type StoryRecordRepository struct {
	db *sql.DB
}

func NewStoryRecordRepository(db *sql.DB) *StoryRecordRepository {
	return &StoryRecordRepository{db: db}
}

func (r *StoryRecordRepository) Create(record *StoryRecord) error {
	query := `
		INSERT INTO story_records (run_id, story_name, story_id, status, error_message)
        VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		record.RunID,
		record.StoryName,
		record.StoryID,
		record.Status,
		record.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("Error trying to create the story record: %w", err)
	}
	return nil
}

func (r *StoryRecordRepository) GetByRunID(runID string) ([]StoryRecord, error) {
	query := `
	SELECT id, run_id, story_name, story_id, status, error_message, created_at
	FROM story_records WHERE run_id = ? ORDER BY id
	`
	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("Error trying to get story records: %w", err)
	}
	defer rows.Close()

	var records []StoryRecord
	for rows.Next() {
		var rec StoryRecord
		var storyID, errMsg sql.NullString
		err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.StoryName,
			&storyID,
			&rec.Status,
			&errMsg,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rec.StoryID = storyID.String
		rec.ErrorMessage = errMsg.String
		records = append(records, rec)
	}
	return records, rows.Err()
}
