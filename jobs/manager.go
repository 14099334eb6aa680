package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/darren-olevson/wts-admin-portal-sub000/portal"
)

// DocumentSource provides document metadata for bulk collection.
// portal.Store satisfies this.
type DocumentSource interface {
	GetDocuments(ctx context.Context, ids []string) ([]portal.Document, error)
}

// Manager creates and executes bulk-download jobs.
type Manager struct {
	Store Store
	Docs  DocumentSource
	Log   *logrus.Logger

	// CollectDelay simulates per-document collection latency. Zero means
	// no delay.
	CollectDelay time.Duration
}

// NewManager creates a job manager.
func NewManager(store Store, docs DocumentSource, log *logrus.Logger) *Manager {
	return &Manager{Store: store, Docs: docs, Log: log}
}

// Start enqueues a bulk-download job for the given document IDs and begins
// executing it in the background. The returned job is in StatusQueued; poll
// the store for progress.
func (m *Manager) Start(ctx context.Context, accountID string, documentIDs []string) (*Job, error) {
	if len(documentIDs) == 0 {
		return nil, fmt.Errorf("bulk download requires at least one document ID")
	}

	now := time.Now().UTC()
	job := Job{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		DocumentIDs: append([]string(nil), documentIDs...),
		Status:      StatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.Store.Put(ctx, job); err != nil {
		return nil, err
	}

	// The job outlives the HTTP request that started it.
	go m.run(context.WithoutCancel(ctx), job)

	return &job, nil
}

func (m *Manager) run(ctx context.Context, job Job) {
	job.Status = StatusRunning
	job.UpdatedAt = time.Now().UTC()
	if err := m.Store.Put(ctx, job); err != nil {
		m.Log.WithError(err).WithField("job", job.ID).Error("failed to mark job running")
		return
	}

	docs, err := m.Docs.GetDocuments(ctx, job.DocumentIDs)
	if err != nil {
		m.fail(ctx, job, err)
		return
	}

	found := make(map[string]bool, len(docs))
	var total int64
	for _, d := range docs {
		found[d.ID] = true
		total += d.SizeBytes
		if m.CollectDelay > 0 {
			time.Sleep(m.CollectDelay)
		}
	}
	for _, id := range job.DocumentIDs {
		if !found[id] {
			job.Missing = append(job.Missing, id)
		}
	}

	job.Status = StatusDone
	job.TotalBytes = total
	job.ArchiveKey = fmt.Sprintf("bulk/%s/%s.zip", job.AccountID, job.ID)
	job.UpdatedAt = time.Now().UTC()
	if err := m.Store.Put(ctx, job); err != nil {
		m.Log.WithError(err).WithField("job", job.ID).Error("failed to complete job")
		return
	}

	m.Log.WithFields(logrus.Fields{
		"job":       job.ID,
		"documents": len(docs),
		"missing":   len(job.Missing),
		"bytes":     total,
	}).Info("bulk download complete")
}

func (m *Manager) fail(ctx context.Context, job Job, cause error) {
	job.Status = StatusFailed
	job.Error = cause.Error()
	job.UpdatedAt = time.Now().UTC()
	if err := m.Store.Put(ctx, job); err != nil {
		m.Log.WithError(err).WithField("job", job.ID).Error("failed to mark job failed")
	}
}
