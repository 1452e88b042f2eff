package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-dashboard/internal/export"
	"task-dashboard/internal/metrics"
	"task-dashboard/internal/model"
	"task-dashboard/internal/repository"
	"task-dashboard/internal/service"
)

// setupTestServer wires the API over a seeded in-memory store with today fixed at 2025-08-26.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := repository.NewDB(repository.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Seed(context.Background(), db, true))

	categoryRepo := repository.NewCategoryRepository(db)
	clock := service.FixedClock(time.Date(2025, time.August, 26, 8, 0, 0, 0, time.UTC))
	tasks := service.NewTaskService(repository.NewTaskRepository(db), categoryRepo, clock)
	categories := service.NewCategoryService(categoryRepo, tasks)
	stats := service.NewStatsService(tasks, categories)

	srv := New(tasks, categories, stats, export.NewExporter(tasks, categories), metrics.New(stats))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestListCategories(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/categories", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	categories := decode[[]model.Category](t, resp)
	require.Len(t, categories, 5)
	assert.Equal(t, "Work", categories[0].Name)
	assert.Equal(t, 2, categories[0].TaskCount)
}

func TestGetCategory(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/categories/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[categoryView](t, resp)
	assert.Equal(t, "Work", got.Name)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, uint(1), got.Tasks[0].ID)
	assert.Equal(t, uint(6), got.Tasks[1].ID)

	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, ts.URL+"/api/categories/42", "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, ts.URL+"/api/categories/abc", "").StatusCode)
}

func TestCategoryStats(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/categories/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	breakdown := decode[[]model.CategoryStats](t, resp)
	require.Len(t, breakdown, 5)
	assert.Equal(t, 50, breakdown[0].CompletionRate)
}

func TestListTasks_Filters(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		query string
		want  []uint
	}{
		{"", []uint{6, 2, 4, 5, 1, 3}},
		{"?category=1", []uint{6, 1}},
		{"?status=completed", []uint{6, 2}},
		{"?filter=overdue", []uint{4, 5, 1}},
		{"?category=5&filter=overdue", []uint{4}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := doJSON(t, http.MethodGet, ts.URL+"/api/tasks"+tt.query, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			views := decode[[]taskView](t, resp)
			ids := make([]uint, 0, len(views))
			for _, v := range views {
				ids = append(ids, v.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	for _, bad := range []string{"?category=x", "?status=archived", "?filter=soon"} {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/tasks"+bad, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestCreateTask(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/tasks",
		`{"title":"X","description":"Y","categoryId":2,"dueDate":"2025-09-01"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[map[string]any](t, resp)
	assert.Equal(t, float64(7), created["id"])
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "medium", created["priority"])
	assert.Equal(t, "2025-08-26", created["createdAt"])
	assert.Nil(t, created["completedAt"])
	assert.Equal(t, "Personal", created["categoryName"])
	assert.Equal(t, false, created["overdue"])
}

func TestCreateTask_Validation(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/tasks", `{"title":"X","categoryId":1}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, []any{"description", "dueDate"}, body["fields"])

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/tasks", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/tasks", `{"title":"X","description":"Y","categoryId":1,"dueDate":"next week"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/tasks", "")
	assert.Len(t, decode[[]taskView](t, resp), 6)
}

func TestGetTask(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/tasks/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[taskView](t, resp)
	assert.Equal(t, "Complete project proposal", got.Title)
	assert.Equal(t, "Work", got.CategoryName)
	assert.True(t, got.Overdue)

	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, ts.URL+"/api/tasks/99", "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, ts.URL+"/api/tasks/0", "").StatusCode)
}

func TestUpdateTask(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodPatch, ts.URL+"/api/tasks/1", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[taskView](t, resp)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, "2025-08-26", got.CompletedAt.String())
	assert.False(t, got.Overdue)

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/tasks/1", `{"status":"pending"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[taskView](t, resp)
	assert.Nil(t, got.CompletedAt)

	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPatch, ts.URL+"/api/tasks/99", `{"title":"x"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPatch, ts.URL+"/api/tasks/1", `{"priority":"urgent"}`).StatusCode)
}

func TestDeleteTask(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/tasks/4", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Buy groceries", decode[model.Task](t, resp).Title)

	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodDelete, ts.URL+"/api/tasks/4", "").StatusCode)
}

func TestStatsAndDashboard(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.Stats{Total: 6, Pending: 3, InProgress: 1, Completed: 2, Overdue: 3, CompletionRate: 33}, decode[model.Stats](t, resp))

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/dashboard", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash := decode[service.Dashboard](t, resp)
	assert.Len(t, dash.Recent, 3)
	assert.Len(t, dash.Overdue, 3)
}

func TestExport(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/export?format=csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, ts.URL+"/api/export?format=xml", "").StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := setupTestServer(t)
	resp := doJSON(t, http.MethodPut, ts.URL+"/api/tasks/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	doJSON(t, http.MethodGet, ts.URL+"/api/stats", "")

	// The request counter is bumped after the handler returns, so poll.
	assert.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		text := string(body)
		return strings.Contains(text, `route="GET /api/stats"`) &&
			strings.Contains(text, "taskdashboard_tasks_overdue 3")
	}, 2*time.Second, 20*time.Millisecond)
}
