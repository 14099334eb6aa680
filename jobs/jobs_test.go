package jobs_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darren-olevson/wts-admin-portal-sub000/jobs"
	"github.com/darren-olevson/wts-admin-portal-sub000/portal"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeDocs is a DocumentSource backed by a map.
type fakeDocs struct {
	docs map[string]portal.Document
	err  error
}

func (f *fakeDocs) GetDocuments(_ context.Context, ids []string) ([]portal.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []portal.Document
	for _, id := range ids {
		if d, ok := f.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func waitForTerminal(t *testing.T, store jobs.Store, id string) jobs.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, job)
		if job.Terminal() {
			return *job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return jobs.Job{}
}

func TestManager_BulkDownload_Completes(t *testing.T) {
	// GIVEN: Two known documents and one unknown ID
	docs := &fakeDocs{docs: map[string]portal.Document{
		"doc-1": {ID: "doc-1", SizeBytes: 1000},
		"doc-2": {ID: "doc-2", SizeBytes: 2500},
	}}
	store := jobs.NewMemory()
	mgr := jobs.NewManager(store, docs, quietLogger())

	// WHEN: Starting a bulk download
	job, err := mgr.Start(context.Background(), "acct-1", []string{"doc-1", "doc-2", "doc-ghost"})
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusQueued, job.Status)

	// THEN: The job finishes with the collected total and the missing ID
	done := waitForTerminal(t, store, job.ID)
	assert.Equal(t, jobs.StatusDone, done.Status)
	assert.Equal(t, int64(3500), done.TotalBytes)
	assert.Equal(t, []string{"doc-ghost"}, done.Missing)
	assert.Contains(t, done.ArchiveKey, job.ID)
}

func TestManager_BulkDownload_SourceFailure(t *testing.T) {
	docs := &fakeDocs{err: assert.AnError}
	store := jobs.NewMemory()
	mgr := jobs.NewManager(store, docs, quietLogger())

	job, err := mgr.Start(context.Background(), "acct-1", []string{"doc-1"})
	require.NoError(t, err)

	done := waitForTerminal(t, store, job.ID)
	assert.Equal(t, jobs.StatusFailed, done.Status)
	assert.NotEmpty(t, done.Error)
}

func TestManager_EmptyDocumentList_Rejected(t *testing.T) {
	mgr := jobs.NewManager(jobs.NewMemory(), &fakeDocs{}, quietLogger())

	_, err := mgr.Start(context.Background(), "acct-1", nil)
	assert.Error(t, err)
}

func TestMemory_GetMissing(t *testing.T) {
	store := jobs.NewMemory()

	job, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestMemory_DeleteExpired(t *testing.T) {
	store := jobs.NewMemory()
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()

	require.NoError(t, store.Put(ctx, jobs.Job{ID: "done-old", Status: jobs.StatusDone, UpdatedAt: old}))
	require.NoError(t, store.Put(ctx, jobs.Job{ID: "done-new", Status: jobs.StatusDone, UpdatedAt: recent}))
	require.NoError(t, store.Put(ctx, jobs.Job{ID: "running-old", Status: jobs.StatusRunning, UpdatedAt: old}))

	removed, err := store.DeleteExpired(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "only terminal jobs past the cutoff are swept")

	remaining, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestSweeper_Sweep(t *testing.T) {
	store := jobs.NewMemory()
	ctx := context.Background()

	old := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, store.Put(ctx, jobs.Job{ID: "stale", Status: jobs.StatusDone, UpdatedAt: old}))

	sweeper := jobs.NewSweeper(store, time.Hour, quietLogger())
	sweeper.Sweep()

	job, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, job)
}
