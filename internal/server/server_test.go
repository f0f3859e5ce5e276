package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskapi/configs"
	"taskapi/internal/delivery/rest"
	"taskapi/internal/domain/models"
	"taskapi/internal/domain/repositories"
	"taskapi/internal/repository/memory"
	"taskapi/internal/service"
)

type listEnvelope struct {
	Success bool          `json:"success"`
	Data    []models.Task `json:"data"`
	Meta    struct {
		Total *int64 `json:"total"`
		Page  *int   `json:"page"`
		Limit *int   `json:"limit"`
	} `json:"meta"`
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) (*Server, repositories.TaskRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memory.NewTaskRepository()
	tasks := service.NewTaskService(repo, zap.NewNop())
	handler := rest.NewHandler(tasks, zap.NewNop())
	return NewServer(configs.ServerConfig{}, handler, zap.NewNop()), repo
}

func doGet(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) listEnvelope {
	t.Helper()
	var env listEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func seed(t *testing.T, repo repositories.TaskRepository, data models.CreateTaskData) {
	t.Helper()
	if _, err := repo.Create(context.Background(), data); err != nil {
		t.Fatalf("seed %q: %v", data.Title, err)
	}
}

func TestSearchRouteHonorsListControls(t *testing.T) {
	srv, repo := newTestServer(t)

	for i := 1; i <= 15; i++ {
		seed(t, repo, models.CreateTaskData{Title: fmt.Sprintf("Alpha report %02d", i)})
	}
	seed(t, repo, models.CreateTaskData{Title: "Beta notes"})

	w := doGet(t, srv, "/api/tasks/search/alpha?page=2&limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	env := decodeList(t, w)
	if env.Meta.Total == nil || *env.Meta.Total != 15 {
		t.Errorf("total = %v, expected 15", env.Meta.Total)
	}
	if env.Meta.Page == nil || *env.Meta.Page != 2 {
		t.Errorf("page = %v, expected 2", env.Meta.Page)
	}
	if env.Meta.Limit == nil || *env.Meta.Limit != 5 {
		t.Errorf("limit = %v, expected 5", env.Meta.Limit)
	}
	if len(env.Data) != 5 {
		t.Errorf("got %d tasks, expected the second page of 5", len(env.Data))
	}
}

func TestSearchRouteRejectsBadControls(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doGet(t, srv, "/api/tasks/search/alpha?sortBy=color")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", w.Code)
	}

	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Success || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestPriorityRouteHonorsSorting(t *testing.T) {
	srv, repo := newTestServer(t)

	seed(t, repo, models.CreateTaskData{Title: "Zulu briefing", Priority: models.PriorityHigh})
	seed(t, repo, models.CreateTaskData{Title: "alpha sync", Priority: models.PriorityHigh})
	seed(t, repo, models.CreateTaskData{Title: "Midway cleanup", Priority: models.PriorityLow})

	w := doGet(t, srv, "/api/tasks/priority/high?sortBy=title&sortOrder=asc")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	env := decodeList(t, w)
	if env.Meta.Total == nil || *env.Meta.Total != 2 {
		t.Fatalf("total = %v, expected 2", env.Meta.Total)
	}
	if env.Data[0].Title != "alpha sync" || env.Data[1].Title != "Zulu briefing" {
		t.Errorf("title order = %q, %q", env.Data[0].Title, env.Data[1].Title)
	}

	if w := doGet(t, srv, "/api/tasks/priority/urgent"); w.Code != http.StatusBadRequest {
		t.Errorf("unknown priority status = %d, expected 400", w.Code)
	}
}

func TestCompletionRouteHonorsPagination(t *testing.T) {
	srv, repo := newTestServer(t)

	seed(t, repo, models.CreateTaskData{Title: "Done one", Completed: true})
	seed(t, repo, models.CreateTaskData{Title: "Done two", Completed: true})
	seed(t, repo, models.CreateTaskData{Title: "Done three", Completed: true})
	seed(t, repo, models.CreateTaskData{Title: "Pending one"})
	seed(t, repo, models.CreateTaskData{Title: "Pending two"})

	w := doGet(t, srv, "/api/tasks/completed/true?page=2&limit=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	env := decodeList(t, w)
	if env.Meta.Total == nil || *env.Meta.Total != 3 {
		t.Errorf("total = %v, expected 3", env.Meta.Total)
	}
	if len(env.Data) != 1 {
		t.Errorf("got %d tasks on page 2, expected 1", len(env.Data))
	}

	pending := decodeList(t, doGet(t, srv, "/api/tasks/completed/false"))
	if pending.Meta.Total == nil || *pending.Meta.Total != 2 {
		t.Errorf("pending total = %v, expected 2", pending.Meta.Total)
	}

	if w := doGet(t, srv, "/api/tasks/completed/maybe"); w.Code != http.StatusBadRequest {
		t.Errorf("bad status value = %d, expected 400", w.Code)
	}
}

func TestRecoveryRendersErrorEnvelope(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.Engine().GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := doGet(t, srv, "/boom")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, expected 500", w.Code)
	}

	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Success {
		t.Errorf("success = true on a panic response")
	}
	if env.Error.Code != "INTERNAL_ERROR" || env.Error.Message != "Internal server error" {
		t.Errorf("error = %+v", env.Error)
	}
}
