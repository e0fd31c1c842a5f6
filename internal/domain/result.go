package domain

import (
	"fmt"
	"time"
)

// AgentResult is the outcome of one platform agent or analysis stage:
// counts plus the non-fatal errors accumulated along the way. Item-level
// failures land here instead of aborting siblings.
type AgentResult struct {
	Platform   Platform
	Fetched    int
	Stored     int
	Duplicates int
	Errors     []string
}

// AddError appends a formatted non-fatal error to the result.
func (r *AgentResult) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Failed reports whether the result represents a total failure: nothing
// processed and at least one error. Partial outcomes count as completed.
func (r AgentResult) Failed() bool {
	return r.Fetched == 0 && r.Stored == 0 && len(r.Errors) > 0
}

// Merge folds other's counters and errors into r.
func (r *AgentResult) Merge(other AgentResult) {
	r.Fetched += other.Fetched
	r.Stored += other.Stored
	r.Duplicates += other.Duplicates
	r.Errors = append(r.Errors, other.Errors...)
}

// StageStatus labels a persisted stage outcome.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// Stage labels written to the job log.
const (
	StageFetchPrefix  = "fetch"
	StageRiskScoring  = "risk_scoring"
	StageCompleteness = "completeness"
	StageFactCheck    = "fact_check"
)

// FetchStage returns the job-log label for one platform's fetch stage.
func FetchStage(p Platform) string {
	return StageFetchPrefix + ":" + string(p)
}

// StageRecord is one audit row: the outcome of a single stage within an
// orchestration run.
type StageRecord struct {
	RunID      string
	ConfigID   string
	Stage      string
	Status     StageStatus
	Fetched    int
	Stored     int
	ErrorText  string
	StartedAt  time.Time
	FinishedAt time.Time
}

// OrchestrationResult aggregates every stage outcome of one run.
type OrchestrationResult struct {
	RunID        string
	ConfigID     string
	TotalFetched int
	TotalStored  int
	Errors       []string
	Duration     time.Duration
	Stages       []StageRecord
}
