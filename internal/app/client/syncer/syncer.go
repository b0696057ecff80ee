package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"fieldsync/internal/app/client/store"
	"fieldsync/internal/domain/submission"
)

// ErrSyncInProgress is returned when a sync pass is requested while
// another one is still running. At most one pass runs at a time.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrOffline is returned when a sync pass is requested while the
// server is unreachable. No events are emitted and the queue is left
// untouched.
var ErrOffline = errors.New("offline, sync not attempted")

// TransientError marks a submit failure worth retrying automatically
// on the next pass (network drop, timeout, server 5xx).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	return &TransientError{Err: err}
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// SubmitOutcome is the server's answer to one submission attempt.
type SubmitOutcome struct {
	ServerID string
	Conflict bool
	Server   *submission.Record
}

// Submitter sends one record to the server.
type Submitter interface {
	Submit(ctx context.Context, req submission.SubmitRequest) (*SubmitOutcome, error)
}

// Queue is the slice of the local store the syncer reads and updates.
type Queue interface {
	GetPendingSubmissions() ([]*submission.Submission, error)
	GetSubmission(localID string) (*submission.Submission, error)
	UpdateSubmission(localID string, patch store.Patch) error
}

// Connectivity exposes the reachability state the syncer consults
// before every record.
type Connectivity interface {
	Online() bool
	Subscribe(l func(online bool)) func()
}

// Syncer drains the pending queue to the server, one record at a
// time, oldest first.
type Syncer struct {
	log       *slog.Logger
	queue     Queue
	submitter Submitter
	monitor   Connectivity
	events    *broadcaster

	mu        sync.Mutex
	strategy  Strategy
	syncing   bool
	lastSync  time.Time
	conflicts map[string]*submission.Conflict
}

func New(log *slog.Logger, queue Queue, submitter Submitter, monitor Connectivity, strategy Strategy) *Syncer {
	return &Syncer{
		log:       log.With("component", "syncer"),
		queue:     queue,
		submitter: submitter,
		monitor:   monitor,
		events:    newBroadcaster(),
		strategy:  strategy,
		conflicts: make(map[string]*submission.Conflict),
	}
}

// Subscribe registers a sync event listener and returns its disposer.
func (s *Syncer) Subscribe(l func(Event)) func() {
	return s.events.subscribe(l)
}

func (s *Syncer) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

func (s *Syncer) LastSyncTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

func (s *Syncer) Strategy() Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}

func (s *Syncer) SetStrategy(strategy Strategy) {
	s.mu.Lock()
	s.strategy = strategy
	s.mu.Unlock()
}

// Conflicts lists the records parked for manual resolution, oldest
// detection first.
func (s *Syncer) Conflicts() []submission.Conflict {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]submission.Conflict, 0, len(s.conflicts))
	for _, c := range s.conflicts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DetectedAt.Before(out[j].DetectedAt)
	})
	return out
}

// SyncPending drains the pending queue in capture order. Records are
// never lost: every outcome lands back in the store as a status
// change, and anything not reached this pass stays queued for the
// next one.
func (s *Syncer) SyncPending(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.syncing = true
	strategy := s.strategy
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	}()

	if !s.monitor.Online() {
		s.log.Info("sync pass skipped, offline")
		return nil, ErrOffline
	}

	pending, err := s.queue.GetPendingSubmissions()
	if err != nil {
		s.events.publish(Event{Type: EventSyncError, Err: err.Error()})
		return nil, fmt.Errorf("read pending queue: %w", err)
	}

	summary := &Summary{Total: len(pending)}
	s.events.publish(Event{Type: EventSyncStart, Progress: &Progress{Total: summary.Total}})
	s.log.Info("sync pass started", "pending", summary.Total, "strategy", strategy)

	for i, rec := range pending {
		if ctx.Err() != nil || !s.monitor.Online() {
			summary.Skipped += len(pending) - i
			s.log.Info("sync pass interrupted", "remaining", len(pending)-i)
			break
		}

		if rec.Status != submission.StatusConflict || strategy != StrategyManual {
			s.syncOne(ctx, rec, strategy, summary)
		} else {
			summary.Skipped++
		}

		// Skipped records still advance the bar so Done reaches Total.
		s.events.publish(Event{Type: EventSyncProgress, Progress: &Progress{
			Done:    i + 1,
			Total:   summary.Total,
			Current: rec.LocalID,
		}})
	}

	s.mu.Lock()
	s.lastSync = time.Now().UTC()
	s.mu.Unlock()

	s.events.publish(Event{Type: EventSyncComplete, Summary: summary})
	s.log.Info("sync pass finished",
		"synced", summary.Synced, "failed", summary.Failed,
		"conflicts", summary.Conflicts, "skipped", summary.Skipped)

	return summary, nil
}

func (s *Syncer) syncOne(ctx context.Context, rec *submission.Submission, strategy Strategy, summary *Summary) {
	if err := s.setStatus(rec.LocalID, submission.StatusSyncing); err != nil {
		s.log.Error("mark syncing", "local_id", rec.LocalID, "error", err)
		summary.Failed++
		return
	}

	out, err := s.submitter.Submit(ctx, s.requestFor(rec, false))
	if err != nil {
		s.markFailed(rec.LocalID, err)
		summary.Failed++
		return
	}

	if !out.Conflict {
		s.markSynced(rec.LocalID, out.ServerID, rec.BaseVersion+1, nil)
		summary.Synced++
		return
	}

	if out.Server == nil {
		s.markFailed(rec.LocalID, Transient(errors.New("conflict response without server record")))
		summary.Failed++
		return
	}

	// Identical answers under a newer version are a stale base, not a
	// real conflict: adopt the server record and move on.
	if !InConflict(rec.Data, out.Server.Data) {
		s.markSynced(rec.LocalID, out.Server.ID, out.Server.Version, nil)
		summary.Synced++
		return
	}

	conflict := &submission.Conflict{
		LocalID:    rec.LocalID,
		Local:      *rec,
		Server:     *out.Server,
		DetectedAt: time.Now().UTC(),
	}
	s.events.publish(Event{Type: EventConflictDetected, Conflict: conflict})

	switch strategy {
	case StrategyServerWins:
		s.markSynced(rec.LocalID, out.Server.ID, out.Server.Version, out.Server.Data)
		s.events.publish(Event{Type: EventConflictResolved, Conflict: conflict})
		summary.Synced++

	case StrategyLocalWins:
		forced, err := s.submitter.Submit(ctx, s.requestFor(rec, true))
		if err != nil {
			s.markFailed(rec.LocalID, err)
			summary.Failed++
			return
		}
		s.markSynced(rec.LocalID, forced.ServerID, out.Server.Version+1, nil)
		s.events.publish(Event{Type: EventConflictResolved, Conflict: conflict})
		summary.Synced++

	case StrategyManual:
		if err := s.setStatus(rec.LocalID, submission.StatusConflict); err != nil {
			s.log.Error("mark conflict", "local_id", rec.LocalID, "error", err)
		}
		s.mu.Lock()
		s.conflicts[rec.LocalID] = conflict
		s.mu.Unlock()
		summary.Conflicts++
	}
}

// ResolveConflictManually settles a parked conflict. The data map is
// the payload the user declares authoritative, typically the local
// answers or a hand-merged record, and is force-submitted over the
// server state. A nil map adopts the server record instead.
func (s *Syncer) ResolveConflictManually(ctx context.Context, localID string, data map[string]any) error {
	s.mu.Lock()
	conflict, ok := s.conflicts[localID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no pending conflict for %s: %w", localID, submission.ErrNotFound)
	}

	if data != nil {
		rec, err := s.queue.GetSubmission(localID)
		if err != nil {
			return fmt.Errorf("load conflicted record: %w", err)
		}
		rec.Data = data
		out, err := s.submitter.Submit(ctx, s.requestFor(rec, true))
		if err != nil {
			return fmt.Errorf("force submit: %w", err)
		}
		s.markSynced(localID, out.ServerID, conflict.Server.Version+1, data)
	} else {
		s.markSynced(localID, conflict.Server.ID, conflict.Server.Version, conflict.Server.Data)
	}

	s.events.publish(Event{Type: EventConflictResolved, Conflict: conflict})
	s.log.Info("conflict resolved", "local_id", localID, "kept_local", data != nil)
	return nil
}

// RequestBackgroundSync starts a sync pass whenever connectivity
// comes back. Returns a disposer that stops the behavior.
func (s *Syncer) RequestBackgroundSync(ctx context.Context) func() {
	return s.monitor.Subscribe(func(online bool) {
		if !online {
			return
		}
		go func() {
			_, err := s.SyncPending(ctx)
			if err != nil && !errors.Is(err, ErrSyncInProgress) && !errors.Is(err, ErrOffline) {
				s.log.Error("background sync", "error", err)
			}
		}()
	})
}

func (s *Syncer) requestFor(rec *submission.Submission, force bool) submission.SubmitRequest {
	return submission.SubmitRequest{
		ClientRef:   rec.LocalID,
		FormID:      rec.FormID,
		CaseID:      rec.CaseID,
		Data:        rec.Data,
		GPS:         rec.GPS,
		Media:       rec.Media,
		BaseVersion: rec.BaseVersion,
		Force:       force,
		SubmittedBy: rec.SubmittedBy,
		DeviceInfo:  rec.DeviceInfo,
	}
}

func (s *Syncer) setStatus(localID string, status submission.Status) error {
	return s.queue.UpdateSubmission(localID, store.Patch{Status: &status})
}

func (s *Syncer) markSynced(localID, serverID string, version int, data map[string]any) {
	status := submission.StatusSynced
	patch := store.Patch{
		Status:      &status,
		ServerID:    &serverID,
		BaseVersion: &version,
		Data:        data,
	}
	if err := s.queue.UpdateSubmission(localID, patch); err != nil {
		s.log.Error("mark synced", "local_id", localID, "error", err)
	}

	// A record that reached the server is no longer in conflict, no
	// matter which strategy or pass got it there.
	s.mu.Lock()
	delete(s.conflicts, localID)
	s.mu.Unlock()
}

// markFailed re-queues transient failures for the next pass; permanent
// rejections (the server said the record itself is invalid) are parked
// as rejected so they stop burning retries.
func (s *Syncer) markFailed(localID string, cause error) {
	status := submission.StatusFailed
	if !IsTransient(cause) {
		status = submission.StatusRejected
	}
	s.log.Warn("submit failed", "local_id", localID, "error", cause, "status", status)
	if err := s.setStatus(localID, status); err != nil {
		s.log.Error("mark failed", "local_id", localID, "error", err)
	}
}
