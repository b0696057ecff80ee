package submission

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"fieldsync/internal/app/server/api/http/middleware/auth"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByClientRef(ctx context.Context, userID int, clientRef string) (*Record, error) {
	args := m.Called(ctx, userID, clientRef)
	if rec := args.Get(0); rec != nil {
		return rec.(*Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) LatestForCase(ctx context.Context, userID int, formID, caseID string) (*Record, error) {
	args := m.Called(ctx, userID, formID, caseID)
	if rec := args.Get(0); rec != nil {
		return rec.(*Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, rec *Record) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, rec *Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRepository) Get(ctx context.Context, userID int, id string) (*Record, error) {
	args := m.Called(ctx, userID, id)
	if rec := args.Get(0); rec != nil {
		return rec.(*Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, userID int) ([]Record, error) {
	args := m.Called(ctx, userID)
	if recs := args.Get(0); recs != nil {
		return recs.([]Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func authedCtx(userID int) context.Context {
	return auth.WithUserID(context.Background(), userID)
}

func validRequest() SubmitRequest {
	return SubmitRequest{
		ClientRef: "ref-1",
		FormID:    "survey",
		Data:      map[string]any{"answer": "yes"},
	}
}

func TestService_Submit_NewRecord(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	mockRepo.On("FindByClientRef", mock.Anything, 7, "ref-1").Return(nil, ErrNotFound)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(rec *Record) bool {
		return rec.UserID == 7 && rec.ClientRef == "ref-1" && rec.Version == 1
	})).Return("srv-1", nil)

	resp, err := service.Submit(authedCtx(7), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "Ok", resp.Status)
	assert.Equal(t, "srv-1", resp.ID)
	assert.False(t, resp.Conflict)
	assert.False(t, resp.ServerTime.IsZero())

	mockRepo.AssertExpectations(t)
}

func TestService_Submit_DuplicateClientRef(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	existing := &Record{ID: "srv-1", UserID: 7, ClientRef: "ref-1"}
	mockRepo.On("FindByClientRef", mock.Anything, 7, "ref-1").Return(existing, nil)

	resp, err := service.Submit(authedCtx(7), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "srv-1", resp.ID)
	assert.False(t, resp.Conflict)

	// Create must never run for a replayed ref.
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Submit_CaseVersionBump(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	req := validRequest()
	req.CaseID = "case-9"
	req.BaseVersion = 3

	latest := &Record{ID: "srv-old", Version: 3, Data: map[string]any{"answer": "no"}}
	mockRepo.On("FindByClientRef", mock.Anything, 7, "ref-1").Return(nil, ErrNotFound)
	mockRepo.On("LatestForCase", mock.Anything, 7, "survey", "case-9").Return(latest, nil)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(rec *Record) bool {
		return rec.Version == 4 && rec.CaseID == "case-9"
	})).Return("srv-2", nil)

	resp, err := service.Submit(authedCtx(7), req)
	require.NoError(t, err)
	assert.Equal(t, "srv-2", resp.ID)

	mockRepo.AssertExpectations(t)
}

func TestService_Submit_ConflictOnStaleBase(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	req := validRequest()
	req.CaseID = "case-9"
	req.BaseVersion = 2

	latest := &Record{ID: "srv-old", Version: 5, Data: map[string]any{"answer": "no"}}
	mockRepo.On("FindByClientRef", mock.Anything, 7, "ref-1").Return(nil, ErrNotFound)
	mockRepo.On("LatestForCase", mock.Anything, 7, "survey", "case-9").Return(latest, nil)

	resp, err := service.Submit(authedCtx(7), req)
	require.NoError(t, err)
	assert.True(t, resp.Conflict)
	assert.Empty(t, resp.ID)
	require.NotNil(t, resp.ServerRecord)
	assert.Equal(t, 5, resp.ServerRecord.Version)

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Submit_ForceOverridesConflict(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	req := validRequest()
	req.CaseID = "case-9"
	req.BaseVersion = 2
	req.Force = true

	latest := &Record{ID: "srv-old", Version: 5, Data: map[string]any{"answer": "no"}}
	mockRepo.On("FindByClientRef", mock.Anything, 7, "ref-1").Return(nil, ErrNotFound)
	mockRepo.On("LatestForCase", mock.Anything, 7, "survey", "case-9").Return(latest, nil)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(rec *Record) bool {
		return rec.Version == 6
	})).Return("srv-2", nil)

	resp, err := service.Submit(authedCtx(7), req)
	require.NoError(t, err)
	assert.False(t, resp.Conflict)
	assert.Equal(t, "srv-2", resp.ID)

	mockRepo.AssertExpectations(t)
}

func TestService_Submit_IdenticalDataIsNotAConflict(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	req := validRequest()
	req.CaseID = "case-9"
	req.BaseVersion = 2

	// Same answers as the server copy, only the base is stale.
	latest := &Record{ID: "srv-old", Version: 5, Data: map[string]any{"answer": "yes"}}
	mockRepo.On("FindByClientRef", mock.Anything, 7, "ref-1").Return(nil, ErrNotFound)
	mockRepo.On("LatestForCase", mock.Anything, 7, "survey", "case-9").Return(latest, nil)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(rec *Record) bool {
		return rec.Version == 6
	})).Return("srv-2", nil)

	resp, err := service.Submit(authedCtx(7), req)
	require.NoError(t, err)
	assert.False(t, resp.Conflict)

	mockRepo.AssertExpectations(t)
}

func TestService_Submit_ValidationErrors(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	missingRef := validRequest()
	missingRef.ClientRef = ""
	_, err := service.Submit(authedCtx(7), missingRef)
	assert.ErrorIs(t, err, ErrInvalidData)

	missingForm := validRequest()
	missingForm.FormID = ""
	_, err = service.Submit(authedCtx(7), missingForm)
	assert.ErrorIs(t, err, ErrInvalidData)

	badData := validRequest()
	badData.Data = map[string]any{"answer": make(chan int)}
	_, err = service.Submit(authedCtx(7), badData)
	assert.ErrorIs(t, err, ErrInvalidData)

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Submit_Unauthenticated(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	_, err := service.Submit(context.Background(), validRequest())
	assert.Error(t, err)
}

func TestService_Submit_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	mockRepo.On("FindByClientRef", mock.Anything, 7, "ref-1").Return(nil, errors.New("database error"))

	_, err := service.Submit(authedCtx(7), validRequest())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
}

func TestService_List(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	records := []Record{{ID: "srv-1"}, {ID: "srv-2"}}
	mockRepo.On("List", mock.Anything, 7).Return(records, nil)

	resp, err := service.List(authedCtx(7))
	require.NoError(t, err)
	assert.Equal(t, "Ok", resp.Status)
	assert.Len(t, resp.Records, 2)
}

func TestService_Get(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	mockRepo.On("Get", mock.Anything, 7, "srv-1").Return(&Record{ID: "srv-1"}, nil)

	rec, err := service.Get(authedCtx(7), "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", rec.ID)
}
