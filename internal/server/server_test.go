package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campfire-export/internal/domain"
	"campfire-export/internal/pkg/config"
)

// Mock implementation for ExportRunner
type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) RunExport(ctx context.Context, subdomain, token string, start, end time.Time) (*domain.ExportSummary, error) {
	args := m.Called(ctx, subdomain, token, start, end)
	if res := args.Get(0); res != nil {
		return res.(*domain.ExportSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.Server{Host: "localhost", Port: 8080},
		Processing: config.Processing{
			TaskTTLMinutes: 60,
		},
	}
}

func TestServer(t *testing.T) {
	mockRun := new(mockRunner)
	taskStore := NewTaskStore()

	srv, err := New(testConfig(), mockRun, taskStore)
	require.NoError(t, err)

	t.Run("Health Check", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]string
		err := json.NewDecoder(rr.Body).Decode(&resp)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp["status"])
	})

	t.Run("Export Endpoint", func(t *testing.T) {
		summary := &domain.ExportSummary{Subdomain: "acme"}
		mockRun.On("RunExport", mock.Anything, "acme", "secret-token",
			time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Time{},
		).Return(summary, nil).Once()

		body := bytes.NewBufferString(`{"subdomain":"acme","api_token":"secret-token","start_date":"2010-01-01"}`)
		req := httptest.NewRequest("POST", "/api/v1/export", body)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusAccepted, rr.Code)
		var resp map[string]string
		err = json.NewDecoder(rr.Body).Decode(&resp)
		require.NoError(t, err)
		assert.NotEmpty(t, resp["task_id"])

		// Allow time for the goroutine to finish
		time.Sleep(10 * time.Millisecond)
		mockRun.AssertExpectations(t)

		task, err := srv.taskStore.GetTask(resp["task_id"])
		require.NoError(t, err)
		assert.Equal(t, TaskStatusCompleted, task.Status)
		assert.Equal(t, summary, task.Result)
	})

	t.Run("Export Endpoint - Missing Credentials", func(t *testing.T) {
		body := bytes.NewBufferString(`{"subdomain":"acme"}`)
		req := httptest.NewRequest("POST", "/api/v1/export", body)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Export Endpoint - Bad Date", func(t *testing.T) {
		body := bytes.NewBufferString(`{"subdomain":"acme","api_token":"secret","start_date":"01/01/2010"}`)
		req := httptest.NewRequest("POST", "/api/v1/export", body)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Export Endpoint - Runner Failure", func(t *testing.T) {
		mockRun.On("RunExport", mock.Anything, "bad", "secret-token", time.Time{}, time.Time{}).
			Return(nil, assert.AnError).Once()

		body := bytes.NewBufferString(`{"subdomain":"bad","api_token":"secret-token"}`)
		req := httptest.NewRequest("POST", "/api/v1/export", body)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusAccepted, rr.Code)
		var resp map[string]string
		err = json.NewDecoder(rr.Body).Decode(&resp)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		task, err := srv.taskStore.GetTask(resp["task_id"])
		require.NoError(t, err)
		assert.Equal(t, TaskStatusFailed, task.Status)
		assert.NotEmpty(t, task.ErrorMessage)
	})

	t.Run("Task Status Endpoint", func(t *testing.T) {
		taskID := "test-task-1"
		srv.taskStore.CreateTask(taskID, time.Minute)

		req := httptest.NewRequest("GET", "/api/v1/tasks/"+taskID, nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]interface{}
		err := json.NewDecoder(rr.Body).Decode(&resp)
		require.NoError(t, err)
		assert.Equal(t, taskID, resp["task_id"])
		assert.Equal(t, string(TaskStatusPending), resp["status"])
	})

	t.Run("Task Not Found", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/tasks/non-existent", nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Task Result Endpoint - Not Completed", func(t *testing.T) {
		taskID := "test-task-2"
		srv.taskStore.CreateTask(taskID, time.Minute)

		req := httptest.NewRequest("GET", "/api/v1/tasks/"+taskID+"/result", nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Task Result Endpoint - Success", func(t *testing.T) {
		taskID := "test-task-3"
		srv.taskStore.CreateTask(taskID, time.Minute)
		srv.taskStore.UpdateTaskResult(taskID, &domain.ExportSummary{
			Subdomain: "acme",
			Rooms: []domain.RoomSummary{
				{RoomID: "1", RoomName: "General", DaysVisited: 3, DaysExported: 2, Messages: 7},
			},
		})

		req := httptest.NewRequest("GET", "/api/v1/tasks/"+taskID+"/result", nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp domain.ExportSummary
		err := json.NewDecoder(rr.Body).Decode(&resp)
		require.NoError(t, err)
		assert.Equal(t, "acme", resp.Subdomain)
		require.Len(t, resp.Rooms, 1)
		assert.Equal(t, "General", resp.Rooms[0].RoomName)
		assert.Equal(t, 3, resp.Rooms[0].DaysVisited)
	})
}
