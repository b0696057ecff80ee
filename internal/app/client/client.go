package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"fieldsync/internal/app/client/config"
	"fieldsync/internal/app/client/connectivity"
	"fieldsync/internal/app/client/store"
	"fieldsync/internal/app/client/syncer"
	"fieldsync/internal/domain/form"
	"fieldsync/internal/domain/submission"
)

// App wires the local store, connectivity monitor, sync engine and
// status facade into the single object the CLI talks to.
type App struct {
	config     *config.Config
	log        *slog.Logger
	store      store.Store
	monitor    *connectivity.Monitor
	httpClient *httpClient
	syncer     *syncer.Syncer
	facade     *Facade

	mu            gosync.RWMutex
	authenticated bool
	cancel        context.CancelFunc
	wg            gosync.WaitGroup
	disposers     []func()
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	httpCl, err := NewHTTPClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init http client: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.DataPath, cfg.StorageQuota)
	if err != nil {
		return nil, fmt.Errorf("init local store: %w", err)
	}

	monitor := connectivity.NewMonitor(log)

	strategy, err := syncer.ParseStrategy(cfg.ConflictStrategy)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:     cfg,
		log:        log,
		store:      st,
		monitor:    monitor,
		httpClient: httpCl,
	}

	app.syncer = syncer.New(log, st, httpCl, monitor, strategy)
	app.facade = NewFacade(log, st, monitor, app.syncer)

	if token, err := app.loadToken(); err == nil && token != "" {
		httpCl.SetToken(token)
		app.authenticated = true
		log.Debug("token loaded from file")
	}

	return app, nil
}

// Run starts the connectivity probe, reconnect-triggered sync and the
// periodic sync ticker, then blocks until a termination signal.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Start(ctx)
	go a.handleSignals()

	a.log.Info("client started",
		"server", a.config.ServerAddress,
		"env", a.config.Env,
	)

	a.wg.Wait()
	return nil
}

// Start launches the background machinery without blocking. Used by
// one-shot CLI commands that need sync behavior for their lifetime.
func (a *App) Start(ctx context.Context) {
	healthURL := a.httpClient.baseURL + "/api/v1/health"
	a.monitor.StartProbe(ctx, healthURL, 10*time.Second)

	a.mu.Lock()
	a.disposers = append(a.disposers, a.syncer.RequestBackgroundSync(ctx))
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.periodicSync(ctx)
	}()
}

func (a *App) periodicSync(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(a.config.SyncInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("periodic sync stopped")
			return
		case <-ticker.C:
			if !a.monitor.Online() {
				continue
			}
			_, err := a.syncer.SyncPending(ctx)
			if err != nil && !errors.Is(err, syncer.ErrSyncInProgress) && !errors.Is(err, syncer.ErrOffline) {
				a.log.Error("periodic sync", "error", err)
			}
		}
	}
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigChan
	a.log.Info("termination signal received", "signal", sig.String())

	if a.cancel != nil {
		a.cancel()
	}
}

// Shutdown stops background work and closes the store.
func (a *App) Shutdown() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.mu.Lock()
	disposers := a.disposers
	a.disposers = nil
	a.mu.Unlock()
	for _, d := range disposers {
		d()
	}

	a.facade.Close()
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", "error", err)
	}
	a.log.Info("client stopped")
}

// ==================== Capture ====================

// Capture validates and saves a submission locally, then kicks off a
// sync pass if the server is reachable. The record is durable the
// moment this returns, online or not.
func (a *App) Capture(ctx context.Context, payload store.SubmissionPayload) (string, error) {
	if payload.SubmittedBy == "" {
		payload.SubmittedBy = a.config.DeviceName
	}
	if payload.DeviceInfo == nil {
		payload.DeviceInfo = map[string]string{"device": a.config.DeviceName}
	}

	localID, err := a.store.SaveSubmission(payload)
	if err != nil {
		return "", fmt.Errorf("save submission: %w", err)
	}

	a.log.Info("submission captured", "local_id", localID, "form_id", payload.FormID)

	if a.monitor.Online() {
		go func() {
			_, err := a.syncer.SyncPending(ctx)
			if err != nil && !errors.Is(err, syncer.ErrSyncInProgress) && !errors.Is(err, syncer.ErrOffline) {
				a.log.Warn("post-capture sync", "error", err)
			}
		}()
	}

	return localID, nil
}

// PendingSubmissions lists everything still waiting to reach the
// server, oldest first.
func (a *App) PendingSubmissions() ([]*submission.Submission, error) {
	return a.store.GetPendingSubmissions()
}

func (a *App) GetSubmission(localID string) (*submission.Submission, error) {
	return a.store.GetSubmission(localID)
}

func (a *App) DeleteSubmission(localID string) error {
	return a.store.DeleteSubmission(localID)
}

// ServerRecords lists the caller's records as the server sees them.
func (a *App) ServerRecords(ctx context.Context) ([]submission.Record, error) {
	return a.httpClient.GetRecords(ctx)
}

// ==================== Forms ====================

// FetchForms refreshes the local form cache from the server.
func (a *App) FetchForms(ctx context.Context, projectID string) ([]*form.Form, error) {
	forms, err := a.httpClient.GetForms(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetch forms: %w", err)
	}

	for _, f := range forms {
		if err := a.store.SaveForm(f); err != nil {
			a.log.Warn("cache form", "form_id", f.ID, "error", err)
		}
	}
	return forms, nil
}

// FetchForm refreshes one form schema from the server, falling back
// to the local cache when the server cannot be reached.
func (a *App) FetchForm(ctx context.Context, formID string) (*form.Form, error) {
	f, err := a.httpClient.GetForm(ctx, formID)
	if err != nil {
		if cached, cacheErr := a.store.GetForm(formID); cacheErr == nil {
			a.log.Debug("serving form from cache", "form_id", formID, "error", err)
			return cached, nil
		}
		return nil, fmt.Errorf("fetch form: %w", err)
	}

	if err := a.store.SaveForm(f); err != nil {
		a.log.Warn("cache form", "form_id", f.ID, "error", err)
	}
	return f, nil
}

// Forms lists the locally cached form schemas.
func (a *App) Forms() ([]*form.Form, error) {
	return a.store.GetAllForms()
}

func (a *App) Form(formID string) (*form.Form, error) {
	return a.store.GetForm(formID)
}

// ==================== Sync ====================

// Sync runs one sync pass right now.
func (a *App) Sync(ctx context.Context) (*syncer.Summary, error) {
	return a.facade.TriggerSync(ctx)
}

// Status returns the current facade snapshot.
func (a *App) Status() Status {
	return a.facade.Current()
}

// SubscribeStatus streams status snapshots to the given listener.
func (a *App) SubscribeStatus(l func(Status)) func() {
	return a.facade.Subscribe(l)
}

// Conflicts lists records waiting for a manual decision.
func (a *App) Conflicts() []submission.Conflict {
	return a.syncer.Conflicts()
}

// ResolveConflict settles one parked conflict. The data map is the
// payload to push as authoritative; nil adopts the server record.
func (a *App) ResolveConflict(ctx context.Context, localID string, data map[string]any) error {
	return a.facade.ResolveConflict(ctx, localID, data)
}

// SetConflictStrategy changes how future passes treat conflicts.
func (a *App) SetConflictStrategy(name string) error {
	strategy, err := syncer.ParseStrategy(name)
	if err != nil {
		return err
	}
	a.syncer.SetStrategy(strategy)
	return nil
}

// ==================== Auth ====================

func (a *App) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authenticated
}

// CheckConnection probes the server once. The result feeds the
// monitor without the flap debounce: a command that just completed a
// round trip must be able to sync right away.
func (a *App) CheckConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.httpClient.HealthCheck(ctx)
	a.monitor.Confirm(err == nil)
	return err
}

func (a *App) Register(ctx context.Context, login, password string) error {
	if err := a.httpClient.Register(ctx, login, password); err != nil {
		return err
	}
	a.log.Info("user registered", "login", login)
	return nil
}

func (a *App) Login(ctx context.Context, login, password string) error {
	token, err := a.httpClient.Login(ctx, login, password)
	if err != nil {
		return err
	}

	if err := a.saveToken(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	a.mu.Lock()
	a.authenticated = true
	a.mu.Unlock()

	a.log.Info("logged in", "login", login)
	return nil
}

func (a *App) Logout() error {
	a.mu.Lock()
	a.authenticated = false
	a.mu.Unlock()

	a.httpClient.SetToken("")
	if err := os.Remove(a.config.TokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func (a *App) loadToken() (string, error) {
	tokenBytes, err := os.ReadFile(a.config.TokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no token found, run: fieldsync auth login")
		}
		return "", fmt.Errorf("read token: %w", err)
	}
	return string(tokenBytes), nil
}

func (a *App) saveToken(token string) error {
	if err := os.WriteFile(a.config.TokenPath, []byte(token), 0600); err != nil {
		return err
	}
	a.httpClient.SetToken(token)
	return nil
}
