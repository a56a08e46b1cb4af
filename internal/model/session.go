package model

import "time"

type FocusSession struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Mode            Mode      `json:"mode"`
	Subject         string    `json:"subject"`
	DurationMinutes float64   `json:"durationMinutes"`
	CompletedAt     time.Time `json:"completedAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

type SubjectStat struct {
	Subject      string  `json:"subject"`
	Sessions     int     `json:"sessions"`
	TotalMinutes float64 `json:"totalMinutes"`
}

type SessionStats struct {
	Days             int           `json:"days"`
	TotalSessions    int           `json:"totalSessions"`
	FocusMinutes     float64       `json:"focusMinutes"`
	BreakMinutes     float64       `json:"breakMinutes"`
	StopwatchMinutes float64       `json:"stopwatchMinutes"`
	Subjects         []SubjectStat `json:"subjects"`
}

type LeaderboardEntry struct {
	Rank         int     `json:"rank"`
	UserID       string  `json:"userId"`
	DisplayName  string  `json:"displayName"`
	FocusMinutes float64 `json:"focusMinutes"`
	Sessions     int     `json:"sessions"`
}
