package domain

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeExecution is the persisted record of one scraper invocation.
// It is created at job start, mutated only by the job that created it,
// and finalized exactly once at job end.
type ScrapeExecution struct {
	ID                  uint
	RunID               string
	StartedAt           time.Time
	FinishedAt          *time.Time
	Status              RunStatus
	CommandersAttempted int
	CommandersSucceeded int
	CommandersFailed    int
	CardsProcessed      int
	ErrorSummary        string
}
