package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"fieldsync/internal/app/client/store"
	"fieldsync/internal/domain/submission"
)

type mockQueue struct {
	mock.Mock

	mu      sync.Mutex
	patches map[string][]store.Patch
}

func newMockQueue() *mockQueue {
	return &mockQueue{patches: make(map[string][]store.Patch)}
}

func (m *mockQueue) GetPendingSubmissions() ([]*submission.Submission, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*submission.Submission), args.Error(1)
}

func (m *mockQueue) GetSubmission(localID string) (*submission.Submission, error) {
	args := m.Called(localID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*submission.Submission), args.Error(1)
}

func (m *mockQueue) UpdateSubmission(localID string, patch store.Patch) error {
	m.mu.Lock()
	m.patches[localID] = append(m.patches[localID], patch)
	m.mu.Unlock()
	args := m.Called(localID, patch)
	return args.Error(0)
}

// lastStatus returns the final status patched onto a record.
func (m *mockQueue) lastStatus(localID string) submission.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last submission.Status
	for _, p := range m.patches[localID] {
		if p.Status != nil {
			last = *p.Status
		}
	}
	return last
}

func (m *mockQueue) lastPatch(localID string) store.Patch {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps := m.patches[localID]
	if len(ps) == 0 {
		return store.Patch{}
	}
	return ps[len(ps)-1]
}

type mockSubmitter struct {
	mock.Mock

	mu   sync.Mutex
	sent []submission.SubmitRequest
}

func (m *mockSubmitter) Submit(ctx context.Context, req submission.SubmitRequest) (*SubmitOutcome, error) {
	m.mu.Lock()
	m.sent = append(m.sent, req)
	m.mu.Unlock()
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SubmitOutcome), args.Error(1)
}

func (m *mockSubmitter) sentRefs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]string, 0, len(m.sent))
	for _, req := range m.sent {
		refs = append(refs, req.ClientRef)
	}
	return refs
}

type fakeMonitor struct {
	mu        sync.Mutex
	online    bool
	listeners []func(bool)
}

func (f *fakeMonitor) Online() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeMonitor) Subscribe(l func(online bool)) func() {
	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	f.mu.Unlock()
	return func() {}
}

func (f *fakeMonitor) set(online bool) {
	f.mu.Lock()
	f.online = online
	listeners := append([]func(bool){}, f.listeners...)
	f.mu.Unlock()
	for _, l := range listeners {
		l(online)
	}
}

func pendingRecord(id string, data map[string]any) *submission.Submission {
	return &submission.Submission{
		LocalID: id,
		FormID:  "form-1",
		Data:    data,
		Status:  submission.StatusPending,
	}
}

func accepted(serverID string) *SubmitOutcome {
	return &SubmitOutcome{ServerID: serverID}
}

func conflicting(server *submission.Record) *SubmitOutcome {
	return &SubmitOutcome{Conflict: true, Server: server}
}

type capturedEvents struct {
	mu     sync.Mutex
	events []Event
}

func (c *capturedEvents) record(ev Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *capturedEvents) progressDone() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var done []int
	for _, ev := range c.events {
		if ev.Type == EventSyncProgress {
			done = append(done, ev.Progress.Done)
		}
	}
	return done
}

func (c *capturedEvents) types() []EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EventType, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Type)
	}
	return out
}

func TestSyncPendingDrainsQueueInOrder(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	records := []*submission.Submission{
		pendingRecord("a", map[string]any{"q": "1"}),
		pendingRecord("b", map[string]any{"q": "2"}),
		pendingRecord("c", map[string]any{"q": "3"}),
	}
	queue.On("GetPendingSubmissions").Return(records, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(accepted("srv"), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyServerWins)

	events := &capturedEvents{}
	s.Subscribe(events.record)

	summary, err := s.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Summary{Total: 3, Synced: 3}, summary)

	assert.Equal(t, []string{"a", "b", "c"}, submitter.sentRefs(), "queue must drain oldest first")
	for _, rec := range records {
		assert.Equal(t, submission.StatusSynced, queue.lastStatus(rec.LocalID))
	}

	types := events.types()
	require.GreaterOrEqual(t, len(types), 5)
	assert.Equal(t, EventSyncStart, types[0])
	assert.Equal(t, EventSyncComplete, types[len(types)-1])
	assert.False(t, s.LastSyncTime().IsZero())
}

func TestSyncWhileOfflineRejectedBeforeAnyEvent(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: false}

	s := New(slog.Default(), queue, submitter, monitor, StrategyServerWins)
	events := &capturedEvents{}
	s.Subscribe(events.record)

	summary, err := s.SyncPending(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
	assert.Nil(t, summary)

	// The queue is never read and no lifecycle event fires, so the UI
	// cannot flash a success state while disconnected.
	assert.Empty(t, events.types())
	queue.AssertNotCalled(t, "GetPendingSubmissions")
	assert.Empty(t, submitter.sentRefs())
	assert.False(t, s.IsSyncing())
}

func TestSyncStopsWhenConnectivityDrops(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	records := []*submission.Submission{
		pendingRecord("a", map[string]any{"q": "1"}),
		pendingRecord("b", map[string]any{"q": "2"}),
		pendingRecord("c", map[string]any{"q": "3"}),
	}
	queue.On("GetPendingSubmissions").Return(records, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(accepted("srv"), nil).Run(func(mock.Arguments) {
		monitor.set(false)
	})

	s := New(slog.Default(), queue, submitter, monitor, StrategyServerWins)
	summary, err := s.SyncPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, submitter.sentRefs(), "no submit may start while offline")
	assert.Equal(t, &Summary{Total: 3, Synced: 1, Skipped: 2}, summary)
	assert.Equal(t, submission.StatusPending, records[1].Status, "unreached records stay queued")
}

func TestOverlappingSyncRejected(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	release := make(chan struct{})
	started := make(chan struct{})
	queue.On("GetPendingSubmissions").Return([]*submission.Submission{
		pendingRecord("a", map[string]any{"q": "1"}),
	}, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(accepted("srv"), nil).Run(func(mock.Arguments) {
		close(started)
		<-release
	})

	s := New(slog.Default(), queue, submitter, monitor, StrategyServerWins)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.SyncPending(context.Background())
		assert.NoError(t, err)
	}()

	<-started
	assert.True(t, s.IsSyncing())
	_, err := s.SyncPending(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(release)
	<-done
	assert.False(t, s.IsSyncing())
}

func TestConflictServerWins(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	local := pendingRecord("a", map[string]any{"q": "local"})
	server := &submission.Record{ID: "srv-1", Data: map[string]any{"q": "server"}, Version: 4}

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{local}, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(conflicting(server), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyServerWins)
	events := &capturedEvents{}
	s.Subscribe(events.record)

	summary, err := s.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Summary{Total: 1, Synced: 1}, summary)

	patch := queue.lastPatch("a")
	require.NotNil(t, patch.Status)
	assert.Equal(t, submission.StatusSynced, *patch.Status)
	assert.Equal(t, map[string]any{"q": "server"}, patch.Data, "server answers replace local ones")
	require.NotNil(t, patch.BaseVersion)
	assert.Equal(t, 4, *patch.BaseVersion)

	assert.Contains(t, events.types(), EventConflictDetected)
	assert.Contains(t, events.types(), EventConflictResolved)
	assert.Empty(t, s.Conflicts())
}

func TestConflictLocalWinsForcesResubmit(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	local := pendingRecord("a", map[string]any{"q": "local"})
	server := &submission.Record{ID: "srv-1", Data: map[string]any{"q": "server"}, Version: 4}

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{local}, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(req submission.SubmitRequest) bool {
		return !req.Force
	})).Return(conflicting(server), nil)
	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(req submission.SubmitRequest) bool {
		return req.Force
	})).Return(accepted("srv-1"), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyLocalWins)
	summary, err := s.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Summary{Total: 1, Synced: 1}, summary)

	require.Len(t, submitter.sent, 2)
	assert.True(t, submitter.sent[1].Force)
	assert.Equal(t, map[string]any{"q": "local"}, submitter.sent[1].Data)
	assert.Equal(t, submission.StatusSynced, queue.lastStatus("a"))
}

func TestConflictManualParksRecord(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	local := pendingRecord("a", map[string]any{"q": "local"})
	server := &submission.Record{ID: "srv-1", Data: map[string]any{"q": "server"}, Version: 4}

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{local}, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(conflicting(server), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyManual)
	summary, err := s.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Summary{Total: 1, Conflicts: 1}, summary)
	assert.Equal(t, submission.StatusConflict, queue.lastStatus("a"))

	conflicts := s.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "a", conflicts[0].LocalID)
	assert.Equal(t, "srv-1", conflicts[0].Server.ID)
}

func TestManualConflictSkippedOnNextPass(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	parked := pendingRecord("a", map[string]any{"q": "local"})
	parked.Status = submission.StatusConflict
	fresh := pendingRecord("b", map[string]any{"q": "new"})

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{parked, fresh}, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(accepted("srv"), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyManual)
	summary, err := s.SyncPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &Summary{Total: 2, Synced: 1, Skipped: 1}, summary)
	assert.Equal(t, []string{"b"}, submitter.sentRefs())
}

func TestProgressReachesTotalWhenRecordsAreSkipped(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	parked := pendingRecord("a", map[string]any{"q": "local"})
	parked.Status = submission.StatusConflict
	fresh := pendingRecord("b", map[string]any{"q": "new"})

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{parked, fresh}, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(accepted("srv"), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyManual)
	events := &capturedEvents{}
	s.Subscribe(events.record)

	_, err := s.SyncPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, events.progressDone(), "skipped records still advance progress to total")
}

func TestStrategySwitchClearsParkedConflict(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	local := pendingRecord("a", map[string]any{"q": "local"})
	server := &submission.Record{ID: "srv-1", Data: map[string]any{"q": "server"}, Version: 4}

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{local}, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(conflicting(server), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyManual)
	_, err := s.SyncPending(context.Background())
	require.NoError(t, err)
	require.Len(t, s.Conflicts(), 1)

	// A later pass under server_wins settles the record; it must leave
	// the manual queue, not haunt the status as a phantom conflict.
	local.Status = submission.StatusConflict
	s.SetStrategy(StrategyServerWins)

	summary, err := s.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Synced)
	assert.Equal(t, submission.StatusSynced, queue.lastStatus("a"))
	assert.Empty(t, s.Conflicts())
}

func TestResolveConflictManuallyKeepLocal(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	local := pendingRecord("a", map[string]any{"q": "local"})
	server := &submission.Record{ID: "srv-1", Data: map[string]any{"q": "server"}, Version: 4}

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{local}, nil)
	queue.On("GetSubmission", "a").Return(local, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(req submission.SubmitRequest) bool {
		return !req.Force
	})).Return(conflicting(server), nil)
	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(req submission.SubmitRequest) bool {
		return req.Force
	})).Return(accepted("srv-1"), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyManual)
	_, err := s.SyncPending(context.Background())
	require.NoError(t, err)
	require.Len(t, s.Conflicts(), 1)

	err = s.ResolveConflictManually(context.Background(), "a", map[string]any{"q": "local"})
	require.NoError(t, err)
	assert.Empty(t, s.Conflicts())
	assert.Equal(t, submission.StatusSynced, queue.lastStatus("a"))

	patch := queue.lastPatch("a")
	require.NotNil(t, patch.BaseVersion)
	assert.Equal(t, 5, *patch.BaseVersion)
	assert.Equal(t, map[string]any{"q": "local"}, patch.Data)
}

func TestResolveConflictManuallyMergedPayload(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	local := pendingRecord("a", map[string]any{"q": "local", "extra": "mine"})
	server := &submission.Record{ID: "srv-1", Data: map[string]any{"q": "server"}, Version: 4}
	merged := map[string]any{"q": "server", "extra": "mine"}

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{local}, nil)
	queue.On("GetSubmission", "a").Return(local, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(req submission.SubmitRequest) bool {
		return !req.Force
	})).Return(conflicting(server), nil)
	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(req submission.SubmitRequest) bool {
		return req.Force
	})).Return(accepted("srv-1"), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyManual)
	_, err := s.SyncPending(context.Background())
	require.NoError(t, err)
	require.Len(t, s.Conflicts(), 1)

	err = s.ResolveConflictManually(context.Background(), "a", merged)
	require.NoError(t, err)

	// The hand-merged payload is what goes over the wire and what the
	// local record keeps.
	require.Len(t, submitter.sent, 2)
	assert.True(t, submitter.sent[1].Force)
	assert.Equal(t, merged, submitter.sent[1].Data)
	assert.Equal(t, merged, queue.lastPatch("a").Data)
	assert.Empty(t, s.Conflicts())
}

func TestResolveConflictManuallyAdoptServer(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	local := pendingRecord("a", map[string]any{"q": "local"})
	server := &submission.Record{ID: "srv-1", Data: map[string]any{"q": "server"}, Version: 4}

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{local}, nil)
	queue.On("GetSubmission", "a").Return(local, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(conflicting(server), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyManual)
	_, err := s.SyncPending(context.Background())
	require.NoError(t, err)

	err = s.ResolveConflictManually(context.Background(), "a", nil)
	require.NoError(t, err)

	patch := queue.lastPatch("a")
	assert.Equal(t, map[string]any{"q": "server"}, patch.Data)
	require.NotNil(t, patch.ServerID)
	assert.Equal(t, "srv-1", *patch.ServerID)

	err = s.ResolveConflictManually(context.Background(), "a", nil)
	assert.ErrorIs(t, err, submission.ErrNotFound)
}

func TestStaleBaseWithIdenticalAnswersIsNotAConflict(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	local := pendingRecord("a", map[string]any{"q": "same", "device_info": "tablet-1"})
	server := &submission.Record{
		ID:      "srv-1",
		Data:    map[string]any{"q": "same", "device_info": "tablet-2"},
		Version: 7,
	}

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{local}, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(conflicting(server), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyManual)
	events := &capturedEvents{}
	s.Subscribe(events.record)

	summary, err := s.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Summary{Total: 1, Synced: 1}, summary)
	assert.NotContains(t, events.types(), EventConflictDetected)

	patch := queue.lastPatch("a")
	require.NotNil(t, patch.BaseVersion)
	assert.Equal(t, 7, *patch.BaseVersion)
}

func TestTransientFailureMarksFailed(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{
		pendingRecord("a", map[string]any{"q": "1"}),
	}, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, Transient(errors.New("connection reset")))

	s := New(slog.Default(), queue, submitter, monitor, StrategyServerWins)
	summary, err := s.SyncPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &Summary{Total: 1, Failed: 1}, summary)
	assert.Equal(t, submission.StatusFailed, queue.lastStatus("a"))
}

func TestPermanentRejectionLeavesRetryQueue(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{
		pendingRecord("a", map[string]any{"q": "1"}),
	}, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("server error: invalid submission data"))

	s := New(slog.Default(), queue, submitter, monitor, StrategyServerWins)
	summary, err := s.SyncPending(context.Background())
	require.NoError(t, err)

	// An unfixable record must not be retried on every pass forever.
	assert.Equal(t, &Summary{Total: 1, Failed: 1}, summary)
	assert.Equal(t, submission.StatusRejected, queue.lastStatus("a"))
	assert.False(t, submission.StatusRejected.SyncEligible())
}

func TestQueueReadErrorEmitsSyncError(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{online: true}

	queue.On("GetPendingSubmissions").Return(nil, errors.New("disk gone"))

	s := New(slog.Default(), queue, submitter, monitor, StrategyServerWins)
	events := &capturedEvents{}
	s.Subscribe(events.record)

	_, err := s.SyncPending(context.Background())
	require.Error(t, err)
	assert.Equal(t, []EventType{EventSyncError}, events.types())
	assert.False(t, s.IsSyncing())
}

func TestBackgroundSyncOnReconnect(t *testing.T) {
	queue := newMockQueue()
	submitter := &mockSubmitter{}
	monitor := &fakeMonitor{}

	queue.On("GetPendingSubmissions").Return([]*submission.Submission{
		pendingRecord("a", map[string]any{"q": "1"}),
	}, nil)
	queue.On("UpdateSubmission", mock.Anything, mock.Anything).Return(nil)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(accepted("srv"), nil)

	s := New(slog.Default(), queue, submitter, monitor, StrategyServerWins)

	synced := make(chan struct{}, 1)
	s.Subscribe(func(ev Event) {
		if ev.Type == EventSyncComplete {
			synced <- struct{}{}
		}
	})

	dispose := s.RequestBackgroundSync(context.Background())
	defer dispose()

	monitor.set(true)

	select {
	case <-synced:
	case <-time.After(2 * time.Second):
		t.Fatal("reconnect did not trigger a sync pass")
	}
	assert.Equal(t, []string{"a"}, submitter.sentRefs())
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{in: "", want: StrategyServerWins},
		{in: "server_wins", want: StrategyServerWins},
		{in: "local_wins", want: StrategyLocalWins},
		{in: "manual", want: StrategyManual},
		{in: "newest", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
