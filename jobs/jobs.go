/*
Package jobs tracks asynchronous bulk-download jobs.

PURPOSE:
  Ops staff can request a bulk download of client documents. Collecting the
  files is slow, so the request returns a job ID immediately and the UI polls
  until the job is done. Job state is held in an explicit Store passed into
  the manager - not a package-level map - so tests stay isolated and multiple
  portal instances can run side by side.

LIFECYCLE:
  queued -> running -> done | failed

  Finished jobs are kept for a TTL so the UI can fetch the result, then a
  cron-driven sweeper deletes them.

SEE ALSO:
  - memory.go: in-memory Store implementation
  - sweeper.go: scheduled cleanup of expired jobs
*/
package jobs

import (
	"context"
	"time"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job is one bulk-download request.
type Job struct {
	ID          string
	AccountID   string
	DocumentIDs []string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Populated on completion.
	ArchiveKey string   // object-storage key of the assembled archive
	TotalBytes int64    // sum of collected document sizes
	Missing    []string // requested IDs with no document record
	Error      string   // populated when Status == StatusFailed
}

// Terminal reports whether the job has finished (successfully or not).
func (j Job) Terminal() bool {
	return j.Status == StatusDone || j.Status == StatusFailed
}

// Store maps job IDs to job records.
type Store interface {
	Put(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]Job, error)

	// DeleteExpired removes terminal jobs last updated before cutoff and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}
