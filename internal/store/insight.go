package store

import (
	"database/sql"
	"fmt"

	"github.com/vraj-maheshwari/pollapp/internal/model"
)

type InsightStore struct {
	db *sql.DB
}

func NewInsightStore(db *sql.DB) *InsightStore {
	return &InsightStore{db: db}
}

// Latest returns the most recent insight for the poll, or nil when none has
// been generated. Only one row contributes to display at a time.
func (s *InsightStore) Latest(pollID int64) (*model.Insight, error) {
	row := s.db.QueryRow(
		`SELECT id, poll_id, insight_text, created_at
		 FROM insights WHERE poll_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`, pollID)

	var in model.Insight
	err := row.Scan(&in.ID, &in.PollID, &in.Text, &in.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get insight: %w", err)
	}
	return &in, nil
}
