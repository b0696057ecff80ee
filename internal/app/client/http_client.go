package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"fieldsync/internal/app/client/config"
	"fieldsync/internal/app/client/syncer"
	"fieldsync/internal/domain/form"
	"fieldsync/internal/domain/submission"
)

// ErrNotAuthenticated is returned when a protected call is attempted
// without a stored session token.
var ErrNotAuthenticated = errors.New("not authenticated")

type httpClient struct {
	client    *http.Client
	config    *config.Config
	log       *slog.Logger
	baseURL   string
	userAgent string

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) (*httpClient, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &httpClient{
		client:    client,
		config:    cfg,
		log:       log,
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "FieldSync-Client/1.0",
	}, nil
}

func (h *httpClient) SetToken(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

func (h *httpClient) getToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// HealthCheck probes server reachability.
func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", h.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status: %d", resp.StatusCode)
	}
	return nil
}

func (h *httpClient) Login(ctx context.Context, login, password string) (string, error) {
	req := struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}{Login: login, Password: password}

	resp, err := h.doRequest(ctx, "POST", "/api/v1/auth/login", req)
	if err != nil {
		return "", err
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := h.parseResponse(resp, &loginResp); err != nil {
		return "", err
	}

	h.SetToken(loginResp.Token)
	return loginResp.Token, nil
}

func (h *httpClient) Register(ctx context.Context, login, password string) error {
	req := struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}{Login: login, Password: password}

	resp, err := h.doRequest(ctx, "POST", "/api/v1/auth/register", req)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

// Submit sends one captured record. Transport failures, 5xx answers
// and a missing token come back as transient errors so the syncer
// keeps the record queued for the next pass.
func (h *httpClient) Submit(ctx context.Context, req submission.SubmitRequest) (*syncer.SubmitOutcome, error) {
	if h.getToken() == "" {
		return nil, syncer.Transient(ErrNotAuthenticated)
	}

	resp, err := h.doRequest(ctx, "POST", "/api/v1/submissions", req)
	if err != nil {
		return nil, syncer.Transient(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, syncer.Transient(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, syncer.Transient(fmt.Errorf("server returned status: %d", resp.StatusCode))
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, syncer.Transient(ErrNotAuthenticated)
	}

	var result submission.SubmitResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 || result.Status == "Error" {
		if result.Error != "" {
			return nil, fmt.Errorf("server error: %s", result.Error)
		}
		return nil, fmt.Errorf("server returned status: %d", resp.StatusCode)
	}

	return &syncer.SubmitOutcome{
		ServerID: result.ID,
		Conflict: result.Conflict,
		Server:   result.ServerRecord,
	}, nil
}

// GetRecords lists the caller's server-side records.
func (h *httpClient) GetRecords(ctx context.Context) ([]submission.Record, error) {
	resp, err := h.doRequest(ctx, "GET", "/api/v1/submissions", nil)
	if err != nil {
		return nil, err
	}

	var result submission.ListResponse
	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.Status == "Error" {
		return nil, fmt.Errorf("server error: %s", result.Error)
	}
	return result.Records, nil
}

// GetForm fetches one form schema.
func (h *httpClient) GetForm(ctx context.Context, formID string) (*form.Form, error) {
	resp, err := h.doRequest(ctx, "GET", "/api/v1/forms/"+url.PathEscape(formID), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Status string     `json:"status"`
		Error  string     `json:"error,omitempty"`
		Form   *form.Form `json:"form,omitempty"`
	}
	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.Status == "Error" {
		return nil, fmt.Errorf("server error: %s", result.Error)
	}
	return result.Form, nil
}

// GetForms fetches all form schemas for a project.
func (h *httpClient) GetForms(ctx context.Context, projectID string) ([]*form.Form, error) {
	path := "/api/v1/forms"
	if projectID != "" {
		path += "?project_id=" + url.QueryEscape(projectID)
	}

	resp, err := h.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Status string       `json:"status"`
		Error  string       `json:"error,omitempty"`
		Forms  []*form.Form `json:"forms,omitempty"`
	}
	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.Status == "Error" {
		return nil, fmt.Errorf("server error: %s", result.Error)
	}
	return result.Forms, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if token := h.getToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	h.log.Debug("sending request",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	h.log.Debug("received response",
		"status", resp.StatusCode,
	)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server returned status: %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
