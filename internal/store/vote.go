package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vraj-maheshwari/pollapp/internal/identity"
	"github.com/vraj-maheshwari/pollapp/internal/insight"
	"github.com/vraj-maheshwari/pollapp/internal/model"
	"github.com/vraj-maheshwari/pollapp/internal/results"
)

type VoteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewVoteStore(db *sql.DB) *VoteStore {
	return &VoteStore{db: db, now: time.Now}
}

// Cast records one vote for the given identity inside a single transaction:
// eligibility check, append, recount, and (when the running total first
// reaches the threshold) insight generation. It returns the poll's vote total
// after the cast.
//
// The (poll_id, vote_token) unique index is the backstop for racing
// submissions from the same token: the losing insert surfaces as
// ErrAlreadyVoted, never as a second counted vote.
func (s *VoteStore) Cast(pollID, optionID int64, ident identity.Identity) (int, error) {
	if optionID == 0 {
		return 0, ErrMissingOption
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var expiresAt time.Time
	var generated int
	err = tx.QueryRow(`SELECT expires_at, insights_generated FROM polls WHERE id = ?`, pollID).
		Scan(&expiresAt, &generated)
	if err == sql.ErrNoRows {
		return 0, ErrPollNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get poll: %w", err)
	}

	if s.now().After(expiresAt) {
		return 0, ErrPollExpired
	}

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM options WHERE id = ? AND poll_id = ?`, optionID, pollID).Scan(&exists)
	if err == sql.ErrNoRows {
		return 0, ErrInvalidOption
	}
	if err != nil {
		return 0, fmt.Errorf("check option: %w", err)
	}

	if ident.Present {
		err = tx.QueryRow(`SELECT 1 FROM votes WHERE poll_id = ? AND vote_token = ?`, pollID, ident.Token).Scan(&exists)
		if err == nil {
			return 0, ErrAlreadyVoted
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("check prior vote: %w", err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO votes (poll_id, option_id, vote_token, device_hash, addr, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		pollID, optionID, ident.Token, ident.DeviceHash, ident.Addr, s.now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrAlreadyVoted
		}
		return 0, fmt.Errorf("insert vote: %w", err)
	}

	var total int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM votes WHERE poll_id = ?`, pollID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}

	if total >= insight.Threshold && generated == 0 {
		if err := s.generateInsight(tx, pollID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit vote: %w", err)
	}
	return total, nil
}

// generateInsight snapshots the summary exactly once per poll. The flag flip
// is a compare-and-set so two votes crossing the threshold together produce a
// single insight row.
func (s *VoteStore) generateInsight(tx *sql.Tx, pollID int64) error {
	result, err := tx.Exec(`UPDATE polls SET insights_generated = 1 WHERE id = ? AND insights_generated = 0`, pollID)
	if err != nil {
		return fmt.Errorf("set insights flag: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil
	}

	breakdown, total, err := aggregate(tx, pollID)
	if err != nil {
		return err
	}
	text := insight.Generate(breakdown, total)
	if text == "" {
		return nil
	}

	if _, err := tx.Exec(
		`INSERT INTO insights (poll_id, insight_text, created_at) VALUES (?, ?, ?)`,
		pollID, text, s.now().UTC(),
	); err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}

// HasVoted reports whether the token has a counted vote on the poll, and if
// so which option it chose.
func (s *VoteStore) HasVoted(pollID int64, token string) (bool, int64, error) {
	if token == "" {
		return false, 0, nil
	}
	var optionID int64
	err := s.db.QueryRow(`SELECT option_id FROM votes WHERE poll_id = ? AND vote_token = ?`, pollID, token).Scan(&optionID)
	if err == sql.ErrNoRows {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("check vote: %w", err)
	}
	return true, optionID, nil
}

// Results aggregates the poll's vote ledger fresh on every call: per-option
// counts in option insertion order, with half-up one-decimal percentages.
func (s *VoteStore) Results(pollID int64) ([]model.OptionResult, int, error) {
	return aggregate(s.db, pollID)
}

// CountForPoll returns the poll's total vote rows.
func (s *VoteStore) CountForPoll(pollID int64) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM votes WHERE poll_id = ?`, pollID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return n, nil
}

// Timeline returns vote counts bucketed by calendar date, newest first,
// limited to the last 7 dates with activity.
func (s *VoteStore) Timeline(pollID int64) ([]model.TimelineEntry, error) {
	rows, err := s.db.Query(
		`SELECT DATE(created_at) AS vote_date, COUNT(*)
		 FROM votes WHERE poll_id = ?
		 GROUP BY DATE(created_at)
		 ORDER BY vote_date DESC LIMIT 7`, pollID)
	if err != nil {
		return nil, fmt.Errorf("vote timeline: %w", err)
	}
	defer rows.Close()

	var timeline []model.TimelineEntry
	for rows.Next() {
		var e model.TimelineEntry
		if err := rows.Scan(&e.Date, &e.Count); err != nil {
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		timeline = append(timeline, e)
	}
	return timeline, rows.Err()
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// aggregate runs the grouped count query shared by Results and the in-tx
// insight snapshot. Option insertion order is preserved.
func aggregate(q querier, pollID int64) ([]model.OptionResult, int, error) {
	rows, err := q.Query(
		`SELECT o.id, o.text, COUNT(v.id)
		 FROM options o
		 LEFT JOIN votes v ON v.option_id = o.id
		 WHERE o.poll_id = ?
		 GROUP BY o.id, o.text
		 ORDER BY o.id`, pollID)
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate votes: %w", err)
	}
	defer rows.Close()

	var breakdown []model.OptionResult
	total := 0
	for rows.Next() {
		var r model.OptionResult
		if err := rows.Scan(&r.OptionID, &r.Text, &r.Count); err != nil {
			return nil, 0, fmt.Errorf("scan result: %w", err)
		}
		total += r.Count
		breakdown = append(breakdown, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range breakdown {
		breakdown[i].Percentage = results.Percentage(breakdown[i].Count, total)
	}
	return breakdown, total, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
