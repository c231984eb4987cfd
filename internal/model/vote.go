package model

import "time"

type Vote struct {
	ID         int64     `json:"id"`
	PollID     int64     `json:"poll_id"`
	OptionID   int64     `json:"option_id"`
	VoteToken  string    `json:"-"`
	DeviceHash string    `json:"-"`
	Addr       string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// OptionResult is one row of an aggregated poll breakdown, in option
// insertion order.
type OptionResult struct {
	OptionID   int64   `json:"-"`
	Text       string  `json:"text"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TimelineEntry is a per-calendar-date vote count for the creator dashboard.
type TimelineEntry struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
