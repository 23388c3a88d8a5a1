package runs_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JaimeStill/ml-agent/internal/runs"
	"github.com/JaimeStill/ml-agent/internal/tasks"
	"github.com/JaimeStill/ml-agent/pkg/logging"
	"github.com/JaimeStill/ml-agent/pkg/pagination"
	"github.com/google/uuid"
)

// fakeSystem serves canned runs without a database.
type fakeSystem struct {
	runs     []runs.Run
	lastPage pagination.PageRequest
}

func (f *fakeSystem) Record(ctx context.Context, result *tasks.Result) error {
	return nil
}

func (f *fakeSystem) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[runs.Run], error) {
	f.lastPage = page
	result := pagination.NewPageResult(f.runs, len(f.runs), page.Page, page.PageSize)
	return &result, nil
}

func (f *fakeSystem) Find(ctx context.Context, id uuid.UUID) (*runs.Run, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, runs.ErrNotFound
}

func newHandler(sys runs.System) http.Handler {
	h := runs.NewHandler(sys, logging.Discard(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func sampleRun() runs.Run {
	return runs.Run{
		ID:         uuid.New(),
		TaskName:   "text_generation",
		Status:     "completed",
		Output:     "a haiku",
		DurationMS: 1200,
		Metadata:   map[string]any{"model_name": "gpt2"},
		CreatedAt:  time.Now().UTC(),
	}
}

func TestHandler_List(t *testing.T) {
	sys := &fakeSystem{runs: []runs.Run{sampleRun(), sampleRun()}}
	handler := newHandler(sys)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?page=2&page_size=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[runs.Run]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Data) != 2 {
		t.Errorf("data = %d entries, want 2", len(result.Data))
	}
	if sys.lastPage.Page != 2 || sys.lastPage.PageSize != 10 {
		t.Errorf("page request = %+v, want page 2 size 10", sys.lastPage)
	}
}

func TestHandler_Find(t *testing.T) {
	run := sampleRun()
	handler := newHandler(&fakeSystem{runs: []runs.Run{run}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+run.ID.String(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got runs.Run
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != run.ID || got.TaskName != "text_generation" {
		t.Errorf("run = %+v", got)
	}
}

func TestHandler_Find_NotFound(t *testing.T) {
	handler := newHandler(&fakeSystem{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+uuid.NewString(), nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandler_Find_InvalidID(t *testing.T) {
	handler := newHandler(&fakeSystem{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/not-a-uuid", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
