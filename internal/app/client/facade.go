package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"fieldsync/internal/app/client/syncer"
	"fieldsync/internal/domain/submission"
)

// SyncStatus is the single state surfaced to the UI layer.
type SyncStatus string

const (
	SyncIdle     SyncStatus = "idle"
	SyncSyncing  SyncStatus = "syncing"
	SyncSuccess  SyncStatus = "success"
	SyncError    SyncStatus = "error"
	SyncOffline  SyncStatus = "offline"
	SyncConflict SyncStatus = "conflict"
)

const (
	successHold = 3 * time.Second
	errorHold   = 5 * time.Second
)

// Status is the full snapshot a status listener receives.
type Status struct {
	IsOnline     bool                        `json:"is_online"`
	SyncStatus   SyncStatus                  `json:"sync_status"`
	PendingCount int                         `json:"pending_count"`
	LastSyncTime time.Time                   `json:"last_sync_time,omitempty"`
	Conflicts    []submission.Conflict       `json:"conflicts,omitempty"`
	Progress     *syncer.Progress            `json:"progress,omitempty"`
	StorageInfo  *submission.StorageEstimate `json:"storage_info,omitempty"`
}

type syncEngine interface {
	SyncPending(ctx context.Context) (*syncer.Summary, error)
	ResolveConflictManually(ctx context.Context, localID string, data map[string]any) error
	Subscribe(l func(syncer.Event)) func()
	Conflicts() []submission.Conflict
	LastSyncTime() time.Time
}

type connMonitor interface {
	Online() bool
	Subscribe(l func(online bool)) func()
}

type storeInfo interface {
	GetPendingCount() (int, error)
	GetStorageEstimate() (*submission.StorageEstimate, error)
}

// Facade folds connectivity, the pending queue and sync activity into
// one observable status stream for the UI.
type Facade struct {
	log     *slog.Logger
	info    storeInfo
	monitor connMonitor
	engine  syncEngine

	mu          sync.Mutex
	status      SyncStatus
	progress    *syncer.Progress
	revert      *time.Timer
	successHold time.Duration
	errorHold   time.Duration
	nextID      int
	listeners   map[int]func(Status)
	disposers   []func()
}

func NewFacade(log *slog.Logger, info storeInfo, monitor connMonitor, engine syncEngine) *Facade {
	f := &Facade{
		log:         log.With("component", "facade"),
		info:        info,
		monitor:     monitor,
		engine:      engine,
		status:      SyncIdle,
		successHold: successHold,
		errorHold:   errorHold,
		listeners:   make(map[int]func(Status)),
	}
	if !monitor.Online() {
		f.status = SyncOffline
	}

	f.disposers = append(f.disposers,
		monitor.Subscribe(f.onConnectivity),
		engine.Subscribe(f.onSyncEvent),
	)
	return f
}

// Close detaches the facade from its event sources.
func (f *Facade) Close() {
	f.mu.Lock()
	disposers := f.disposers
	f.disposers = nil
	if f.revert != nil {
		f.revert.Stop()
		f.revert = nil
	}
	f.mu.Unlock()

	for _, d := range disposers {
		d()
	}
}

// Subscribe registers a status listener and returns its disposer. The
// listener immediately receives the current snapshot.
func (f *Facade) Subscribe(l func(Status)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = l
	f.mu.Unlock()

	l(f.Current())

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

// Current builds a point-in-time snapshot.
func (f *Facade) Current() Status {
	f.mu.Lock()
	status := f.status
	progress := f.progress
	f.mu.Unlock()

	st := Status{
		IsOnline:     f.monitor.Online(),
		SyncStatus:   status,
		LastSyncTime: f.engine.LastSyncTime(),
		Conflicts:    f.engine.Conflicts(),
		Progress:     progress,
	}

	if count, err := f.info.GetPendingCount(); err == nil {
		st.PendingCount = count
	} else {
		f.log.Warn("pending count unavailable", "error", err)
	}
	if est, err := f.info.GetStorageEstimate(); err == nil {
		st.StorageInfo = est
	}
	return st
}

// TriggerSync runs one sync pass right now.
func (f *Facade) TriggerSync(ctx context.Context) (*syncer.Summary, error) {
	return f.engine.SyncPending(ctx)
}

// ResolveConflict settles one parked conflict with the payload the
// user declared authoritative (nil adopts the server record) and
// refreshes the status so a cleared conflict leaves the warning state.
func (f *Facade) ResolveConflict(ctx context.Context, localID string, data map[string]any) error {
	if err := f.engine.ResolveConflictManually(ctx, localID, data); err != nil {
		return err
	}
	f.mu.Lock()
	if f.status == SyncConflict && len(f.engine.Conflicts()) == 0 {
		f.setStatusLocked(f.restingStatusLocked())
	}
	f.mu.Unlock()
	f.notify()
	return nil
}

func (f *Facade) onConnectivity(online bool) {
	f.mu.Lock()
	if online {
		if f.status == SyncOffline {
			f.setStatusLocked(f.restingStatusLocked())
		}
	} else if f.status != SyncSyncing {
		f.setStatusLocked(SyncOffline)
	}
	f.mu.Unlock()
	f.notify()
}

func (f *Facade) onSyncEvent(ev syncer.Event) {
	f.mu.Lock()
	switch ev.Type {
	case syncer.EventSyncStart:
		f.setStatusLocked(SyncSyncing)
		f.progress = ev.Progress

	case syncer.EventSyncProgress:
		f.progress = ev.Progress

	case syncer.EventSyncComplete:
		f.progress = nil
		switch {
		case ev.Summary != nil && ev.Summary.Conflicts > 0:
			f.setStatusLocked(SyncConflict)
		case ev.Summary != nil && ev.Summary.Failed > 0:
			f.setStatusLocked(SyncError)
			f.revertAfterLocked(f.errorHold)
		default:
			f.setStatusLocked(SyncSuccess)
			f.revertAfterLocked(f.successHold)
		}

	case syncer.EventSyncError:
		f.progress = nil
		f.setStatusLocked(SyncError)
		f.revertAfterLocked(f.errorHold)

	case syncer.EventConflictDetected, syncer.EventConflictResolved:
		// Status follows the pass summary and ResolveConflict.
	}
	f.mu.Unlock()
	f.notify()
}

// restingStatusLocked is where transient states settle once their
// hold expires.
func (f *Facade) restingStatusLocked() SyncStatus {
	if !f.monitor.Online() {
		return SyncOffline
	}
	if len(f.engine.Conflicts()) > 0 {
		return SyncConflict
	}
	return SyncIdle
}

func (f *Facade) setStatusLocked(next SyncStatus) {
	if f.revert != nil {
		f.revert.Stop()
		f.revert = nil
	}
	f.status = next
}

func (f *Facade) revertAfterLocked(hold time.Duration) {
	f.revert = time.AfterFunc(hold, func() {
		f.mu.Lock()
		f.revert = nil
		f.status = f.restingStatusLocked()
		f.mu.Unlock()
		f.notify()
	})
}

func (f *Facade) notify() {
	f.mu.Lock()
	listeners := make([]func(Status), 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()

	if len(listeners) == 0 {
		return
	}
	snapshot := f.Current()
	for _, l := range listeners {
		l(snapshot)
	}
}
