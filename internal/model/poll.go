package model

import "time"

type Poll struct {
	ID                int64     `json:"id"`
	Question          string    `json:"question"`
	HideResults       bool      `json:"hide_results"`
	InsightsGenerated bool      `json:"insights_generated"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// Expired reports whether the poll's voting window has closed at the given
// instant. Expiry is always derived from the clock, never stored as a state
// transition.
func (p *Poll) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

type Option struct {
	ID     int64  `json:"id"`
	PollID int64  `json:"poll_id"`
	Text   string `json:"text"`
}
