package webui

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojinpark/dtSim/internal/mock"
	"github.com/seojinpark/dtSim/internal/storage"
	"github.com/seojinpark/dtSim/pkg/compression"
	"github.com/seojinpark/dtSim/pkg/model"
	"github.com/seojinpark/dtSim/pkg/utils"
)

// newTestServer takes store as the storage.Storage interface, not a
// concrete *mock.MockStorage, so that passing a bare nil for "no
// storage configured" tests produces a truly nil interface rather
// than a non-nil interface wrapping a nil pointer.
func newTestServer(runs *mock.MockSimulationRunRepository, store storage.Storage) *Server {
	return NewServer(runs, store, 0, &utils.NullLogger{})
}

func TestServer_HandleIndex(t *testing.T) {
	runs := &mock.MockSimulationRunRepository{}
	runs.ExpectListRecentRuns(50, []*model.SimulationReport{
		{RunID: "run-1", Makespan: 125.0, TaskCount: 3},
	}, nil)

	s := newTestServer(runs, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.handleIndex(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "run-1")
	runs.AssertExpectations(t)
}

func TestServer_HandleIndex_RepositoryError(t *testing.T) {
	runs := &mock.MockSimulationRunRepository{}
	runs.ExpectListRecentRuns(50, nil, errors.New("db unavailable"))

	s := newTestServer(runs, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.handleIndex(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	runs.AssertExpectations(t)
}

func TestServer_HandleGetRun(t *testing.T) {
	runs := &mock.MockSimulationRunRepository{}
	runs.ExpectGetRunByID("run-1", &model.SimulationReport{RunID: "run-1", Makespan: 125.0}, nil)

	s := newTestServer(runs, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil)
	w := httptest.NewRecorder()
	s.handleGetRun(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"makespan\":125")
	runs.AssertExpectations(t)
}

func TestServer_HandleGetRun_NotFound(t *testing.T) {
	runs := &mock.MockSimulationRunRepository{}
	runs.ExpectGetRunByID("missing", nil, errors.New("not found"))

	s := newTestServer(runs, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil)
	w := httptest.NewRecorder()
	s.handleGetRun(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	runs.AssertExpectations(t)
}

func TestServer_HandleGetRun_ReportSuffix(t *testing.T) {
	runs := &mock.MockSimulationRunRepository{}
	store := &mock.MockStorage{}

	comp := compression.Default()
	defer compression.Close(comp)
	compressed, err := comp.Compress([]byte(`{"makespan":125}`))
	require.NoError(t, err)
	store.ExpectDownload("run-1"+reportObjectSuffix, io.NopCloser(bytes.NewReader(compressed)), nil)

	s := newTestServer(runs, store)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1/report", nil)
	w := httptest.NewRecorder()
	s.handleGetRun(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"makespan":125}`, w.Body.String())
	store.AssertExpectations(t)
}

func TestServer_HandleGetReport_NoStorageConfigured(t *testing.T) {
	runs := &mock.MockSimulationRunRepository{}
	s := newTestServer(runs, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1/report", nil)
	w := httptest.NewRecorder()
	s.handleGetRun(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_HandleListRuns_LimitQueryParam(t *testing.T) {
	runs := &mock.MockSimulationRunRepository{}
	runs.ExpectListRecentRuns(5, []*model.SimulationReport{{RunID: "run-1"}}, nil)

	s := newTestServer(runs, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil)
	w := httptest.NewRecorder()
	s.handleListRuns(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	runs.AssertExpectations(t)
}
