// Package queue defines message payloads exchanged over the message
// broker, the publisher that emits them and the background consumer
// that records them.
package queue

// SessionStartedEvent is published when a check-in has fully
// committed.  It carries enough information for downstream consumers
// to log, notify, or feed displays without querying the primary
// database.
type SessionStartedEvent struct {
	SessionID    string `json:"session_id"`
	GarageID     string `json:"garage_id"`
	Plate        string `json:"plate"`
	SpotID       string `json:"spot_id"`
	SpotType     string `json:"spot_type"`
	Floor        int    `json:"floor"`
	RateType     string `json:"rate_type"`
	EntryTime    string `json:"entry_time"`
	ExpectedExit string `json:"expected_exit,omitempty"`
}

// SessionClosedEvent is published when a check-out has fully
// committed.
type SessionClosedEvent struct {
	SessionID       string `json:"session_id"`
	GarageID        string `json:"garage_id"`
	Plate           string `json:"plate"`
	SpotID          string `json:"spot_id"`
	RateType        string `json:"rate_type"`
	EntryTime       string `json:"entry_time"`
	ExitTime        string `json:"exit_time"`
	DurationMinutes int64  `json:"duration_minutes"`
}
