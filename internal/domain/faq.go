package domain

import "time"

// FAQ is a curated answer surfaced to requesters before triage.
type FAQ struct {
	ID          string
	Title       string
	Description string
	Solution    string
	MainTag     string
	SubTag      string
	Archived    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
