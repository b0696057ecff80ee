package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"fieldsync/internal/app/client/config"
	"fieldsync/internal/app/client/syncer"
	"fieldsync/internal/domain/submission"
)

func newTestHTTPClient(t *testing.T, handler http.Handler) (*httpClient, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		ServerAddress: strings.TrimPrefix(srv.URL, "http://"),
	}
	cl, err := NewHTTPClient(cfg, slog.Default())
	require.NoError(t, err)
	return cl, srv
}

func submitRequest() submission.SubmitRequest {
	return submission.SubmitRequest{
		ClientRef: "ref-1",
		FormID:    "survey",
		Data:      map[string]any{"answer": "yes"},
	}
}

func TestHTTPClient_Submit_Accepted(t *testing.T) {
	var gotAuth string
	cl, _ := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req submission.SubmitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ref-1", req.ClientRef)

		_ = json.NewEncoder(w).Encode(submission.SubmitResponse{Status: "Ok", ID: "srv-1"})
	}))
	cl.SetToken("token-1")

	outcome, err := cl.Submit(context.Background(), submitRequest())
	require.NoError(t, err)
	assert.Equal(t, "srv-1", outcome.ServerID)
	assert.False(t, outcome.Conflict)
	assert.Equal(t, "Bearer token-1", gotAuth)
}

func TestHTTPClient_Submit_ConflictCarriesServerRecord(t *testing.T) {
	cl, _ := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(submission.SubmitResponse{
			Status:       "Ok",
			Conflict:     true,
			ServerRecord: &submission.Record{ID: "srv-9", Version: 5},
		})
	}))
	cl.SetToken("token-1")

	outcome, err := cl.Submit(context.Background(), submitRequest())
	require.NoError(t, err)
	assert.True(t, outcome.Conflict)
	require.NotNil(t, outcome.Server)
	assert.Equal(t, 5, outcome.Server.Version)
}

func TestHTTPClient_Submit_TransientFailures(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		cl, _ := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Error("request must not reach the server without a token")
		}))

		_, err := cl.Submit(context.Background(), submitRequest())
		assert.True(t, syncer.IsTransient(err))
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("server error", func(t *testing.T) {
		cl, _ := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		cl.SetToken("token-1")

		_, err := cl.Submit(context.Background(), submitRequest())
		assert.True(t, syncer.IsTransient(err))
	})

	t.Run("expired token", func(t *testing.T) {
		cl, _ := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		cl.SetToken("stale")

		_, err := cl.Submit(context.Background(), submitRequest())
		assert.True(t, syncer.IsTransient(err))
	})

	t.Run("unreachable server", func(t *testing.T) {
		cl, srv := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		cl.SetToken("token-1")
		srv.Close()

		_, err := cl.Submit(context.Background(), submitRequest())
		assert.True(t, syncer.IsTransient(err))
	})
}

func TestHTTPClient_Submit_BusinessErrorIsPermanent(t *testing.T) {
	cl, _ := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(submission.SubmitResponse{Status: "Error", Error: "invalid submission data"})
	}))
	cl.SetToken("token-1")

	_, err := cl.Submit(context.Background(), submitRequest())
	require.Error(t, err)
	assert.False(t, syncer.IsTransient(err))
	assert.Contains(t, err.Error(), "invalid submission data")
}

func TestHTTPClient_Login_StoresToken(t *testing.T) {
	cl, _ := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "fresh-token"})
	}))

	token, err := cl.Login(context.Background(), "collector", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, "fresh-token", cl.getToken())
}

func TestHTTPClient_HealthCheck(t *testing.T) {
	cl, _ := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	assert.NoError(t, cl.HealthCheck(context.Background()))
}

func TestHTTPClient_GetForms_FiltersByProject(t *testing.T) {
	cl, _ := newTestHTTPClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "census", r.URL.Query().Get("project_id"))
		_, _ = w.Write([]byte(`{"status":"Ok","forms":[{"id":"f1","project_id":"census","title":"Household","version":2}]}`))
	}))
	cl.SetToken("token-1")

	forms, err := cl.GetForms(context.Background(), "census")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, "f1", forms[0].ID)
	assert.Equal(t, 2, forms[0].Version)
}
