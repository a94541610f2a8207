package service

import (
	"context"
	"sync"
	"time"

	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/internal/store"
)

type syncJob struct {
	noteService NoteService
	sessions    store.SessionRepository
	interval    time.Duration
	logger      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a syncJob that calls RefreshNotes on a ticker while a
// session is active. The job is idle until Start is called. If interval is
// zero or negative it defaults to 5 minutes.
func NewSyncJob(noteService NoteService, sessions store.SessionRepository, interval time.Duration, logger *logger.Logger) SyncJob {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &syncJob{
		noteService: noteService,
		sessions:    sessions,
		interval:    interval,
		logger:      logger,
	}
}

// Start implements SyncJob. It stops any previously running job, then
// launches a background goroutine that calls RefreshNotes every interval.
// Ticks that fire while no session is active are skipped. The goroutine
// exits when ctx is cancelled or Stop is called. The stop-and-replace
// happens under one lock, so concurrent Start calls leave exactly one
// runner.
func (j *syncJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.stopLocked()

	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if !j.sessions.Session().IsLoggedIn() {
					continue
				}
				if err := j.noteService.RefreshNotes(jobCtx); err != nil {
					j.logger.Warn().Err(err).
						Str("func", "syncJob").
						Msg("background sync failed")
				}
			}
		}
	}()
}

// Stop implements SyncJob. It cancels the background goroutine's context and
// blocks until the goroutine has fully exited. Safe to call when the job is
// not running (no-op in that case).
func (j *syncJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.stopLocked()
}

// stopLocked cancels the current runner, if any, and waits for it to exit.
// Callers must hold mu; the runner never takes it, so waiting under the lock
// cannot deadlock.
func (j *syncJob) stopLocked() {
	if j.cancel == nil {
		return
	}

	j.cancel()
	j.cancel = nil
	j.wg.Wait()
}
