package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/autosolutionsai-didac/Falcon/internal/middleware"
	"github.com/autosolutionsai-didac/Falcon/internal/models"
	"github.com/autosolutionsai-didac/Falcon/internal/services"
)

const testSecret = "test-secret"

var errTest = errors.New("analysis failed")

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(tasks *services.TaskService) *gin.Engine {
	handlers := NewHandlers(nil, nil, tasks, nil, nil, nil)
	return SetupRoutes(handlers, testSecret)
}

func authedRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	token, err := middleware.GenerateToken(1, "attorney@example.com", "Test Attorney", testSecret)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(services.NewTaskService())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	router := testRouter(services.NewTaskService())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/cases", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestGetTaskStatus_NotFound(t *testing.T) {
	router := testRouter(services.NewTaskService())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "GET", "/api/analysis/status/nope"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetTaskStatus_ReturnsTask(t *testing.T) {
	tasks := services.NewTaskService()
	task, err := tasks.CreateTask(models.AnalysisRequest{CaseID: 7})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := tasks.SetTaskResult(task.ID, &models.AnalysisResult{
		Status:           string(models.TaskStatusCompleted),
		CaseID:           7,
		ReportsGenerated: []string{models.ReportTypeExecutive},
	}); err != nil {
		t.Fatalf("SetTaskResult failed: %v", err)
	}

	router := testRouter(tasks)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "GET", "/api/analysis/status/"+task.ID))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var response models.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if response.TaskID != task.ID {
		t.Errorf("TaskID = %q, want %q", response.TaskID, task.ID)
	}
	if response.Status != string(models.TaskStatusCompleted) {
		t.Errorf("Status = %q, want completed", response.Status)
	}
	if response.Result == nil || response.Result.CaseID != 7 {
		t.Errorf("Result = %+v", response.Result)
	}
}

func TestGetTaskStatus_FailedTaskCarriesError(t *testing.T) {
	tasks := services.NewTaskService()
	task, err := tasks.CreateTask(models.AnalysisRequest{CaseID: 7})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := tasks.SetTaskError(task.ID, errTest); err != nil {
		t.Fatalf("SetTaskError failed: %v", err)
	}

	router := testRouter(tasks)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "GET", "/api/analysis/status/"+task.ID))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var response models.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if response.Status != string(models.TaskStatusFailed) {
		t.Errorf("Status = %q, want failed", response.Status)
	}
	if response.Error == "" {
		t.Error("failed task status carries no error message")
	}
}
