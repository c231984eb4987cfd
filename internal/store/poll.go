package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vraj-maheshwari/pollapp/internal/model"
)

// PollLifetime is the fixed voting window granted at creation.
const PollLifetime = 24 * time.Hour

type PollStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPollStore(db *sql.DB) *PollStore {
	return &PollStore{db: db, now: time.Now}
}

const pollCols = `id, question, hide_results, insights_generated, created_at, expires_at`

func scanPoll(scanner interface{ Scan(...any) error }) (*model.Poll, error) {
	var p model.Poll
	var hide, generated int

	err := scanner.Scan(&p.ID, &p.Question, &hide, &generated, &p.CreatedAt, &p.ExpiresAt)
	if err != nil {
		return nil, err
	}

	p.HideResults = hide != 0
	p.InsightsGenerated = generated != 0
	return &p, nil
}

// Create inserts a poll and its fixed option set atomically and returns the
// plaintext creator secret. The secret is only ever available here; the store
// keeps a bcrypt hash.
func (s *PollStore) Create(question string, options []string, hideResults bool) (*model.Poll, string, error) {
	secret := uuid.NewString()
	secretHash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash creator secret: %w", err)
	}

	var hide int
	if hideResults {
		hide = 1
	}
	createdAt := s.now().UTC()
	expiresAt := createdAt.Add(PollLifetime)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO polls (question, hide_results, creator_secret_hash, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		question, hide, string(secretHash), createdAt, expiresAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert poll: %w", err)
	}
	pollID, err := result.LastInsertId()
	if err != nil {
		return nil, "", fmt.Errorf("last insert id: %w", err)
	}

	for _, opt := range options {
		if _, err := tx.Exec(`INSERT INTO options (poll_id, text) VALUES (?, ?)`, pollID, opt); err != nil {
			return nil, "", fmt.Errorf("insert option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("commit poll: %w", err)
	}

	poll, err := s.GetByID(pollID)
	if err != nil {
		return nil, "", err
	}
	return poll, secret, nil
}

func (s *PollStore) GetByID(id int64) (*model.Poll, error) {
	row := s.db.QueryRow(`SELECT `+pollCols+` FROM polls WHERE id = ?`, id)
	p, err := scanPoll(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get poll: %w", err)
	}
	return p, nil
}

// Options returns the poll's options in insertion order.
func (s *PollStore) Options(pollID int64) ([]model.Option, error) {
	rows, err := s.db.Query(`SELECT id, poll_id, text FROM options WHERE poll_id = ? ORDER BY id`, pollID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	defer rows.Close()

	var options []model.Option
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.PollID, &o.Text); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// VerifySecret reports whether the presented secret grants creator access to
// the poll. A missing poll verifies as false without error.
func (s *PollStore) VerifySecret(pollID int64, secret string) (bool, error) {
	var hash string
	err := s.db.QueryRow(`SELECT creator_secret_hash FROM polls WHERE id = ?`, pollID).Scan(&hash)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get creator secret: %w", err)
	}
	if secret == "" {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil, nil
}
