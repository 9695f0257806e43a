package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/ciim-report-sync/internal/config"
)

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.Server.Mode = "test"

	srv, err := NewServer(cfg, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv, cfg
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: response is not JSON: %s", method, path, w.Body.String())
	}
	return w, out
}

func TestGetStatus(t *testing.T) {
	srv, cfg := newTestServer(t)

	w, body := do(t, srv, http.MethodGet, "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["root"] != cfg.Root || body["weekRule"] != "iso_adjusted" {
		t.Errorf("unexpected status: %v", body)
	}
	if body["workPlanOk"] != false || body["templatesOk"] != false {
		t.Errorf("nothing exists under an empty root: %v", body)
	}
	if week, _ := body["currentWeek"].(string); len(week) != 2 {
		t.Errorf("currentWeek: %v", body["currentWeek"])
	}
}

func TestResolve(t *testing.T) {
	srv, cfg := newTestServer(t)

	w, body := do(t, srv, http.MethodPost, "/api/resolve", `{"date":"2024-03-04"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", w.Code, body)
	}
	if body["week"] != "10" || body["year"] != float64(2024) || body["dot"] != "04.03.24" || body["compact"] != "240304" {
		t.Errorf("unexpected location: %v", body)
	}
	wantReport := filepath.Join(cfg.ConstructionPath(), "2024", "WW10", "240304", "CIIM Report Table 04.03.24.xlsx")
	if body["report"] != wantReport || body["reportExists"] != false {
		t.Errorf("report: %v (exists %v)", body["report"], body["reportExists"])
	}

	// the last days of December can belong to week 1 of the next year
	_, body = do(t, srv, http.MethodPost, "/api/resolve", `{"date":"30/12/2024"}`)
	if body["week"] != "01" || body["year"] != float64(2025) {
		t.Errorf("year boundary: %v", body)
	}
}

func TestResolveErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	w, body := do(t, srv, http.MethodPost, "/api/resolve", `{"date":"yesterday"}`)
	if w.Code != http.StatusUnprocessableEntity || body["field"] != "date" || body["value"] != "yesterday" {
		t.Errorf("malformed date: %d %v", w.Code, body)
	}

	w, _ = do(t, srv, http.MethodPost, "/api/resolve", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing date: expected 400, got %d", w.Code)
	}

	w, _ = do(t, srv, http.MethodGet, "/api/nowhere", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route: expected 404, got %d", w.Code)
	}
}

func TestCheck(t *testing.T) {
	srv, cfg := newTestServer(t)
	if err := os.WriteFile(filepath.Join(cfg.Root, "plan.xlsx"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w, body := do(t, srv, http.MethodPost, "/api/check", `{"paths":["plan.xlsx","absent.xlsx"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	files, _ := body["files"].([]interface{})
	if len(files) != 2 {
		t.Fatalf("files: %v", body)
	}
	first := files[0].(map[string]interface{})
	if first["path"] != filepath.Join(cfg.Root, "plan.xlsx") || first["exists"] != true || first["locked"] != false {
		t.Errorf("plan: %v", first)
	}
	if second := files[1].(map[string]interface{}); second["exists"] != false {
		t.Errorf("absent: %v", second)
	}

	if err := os.WriteFile(filepath.Join(cfg.Root, "~$plan.xlsx"), []byte("owner"), 0644); err != nil {
		t.Fatal(err)
	}
	w, _ = do(t, srv, http.MethodPost, "/api/check", `{"paths":["plan.xlsx"]}`)
	if w.Code != http.StatusConflict {
		t.Errorf("open workbook: expected 409, got %d", w.Code)
	}
}

func TestWorkflowErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		substr string
	}{
		{"bad scope", "/api/transfer", `{"scope":"monthly"}`, http.StatusBadRequest, "unknown scope"},
		{"bad date", "/api/transfer", `{"dates":["2024-13-40"]}`, http.StatusUnprocessableEntity, "malformed date"},
		{"no work plan", "/api/transfer", `{"scope":"weekly"}`, http.StatusUnprocessableEntity, "no construction work plan"},
		{"daily without work plan", "/api/daily", `{"date":"2024-03-04"}`, http.StatusUnprocessableEntity, "no construction work plan"},
		{"daily without date", "/api/daily", `{}`, http.StatusBadRequest, "invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := do(t, srv, http.MethodPost, tc.path, tc.body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %v", tc.status, w.Code, body)
			}
			if msg, _ := body["error"].(string); !strings.Contains(msg, tc.substr) {
				t.Errorf("error %q lacks %q", msg, tc.substr)
			}
		})
	}
}

func TestWorkPlanNotFound(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.WorkPlan = "absent.xlsx"
	cfg.Server.Mode = "test"
	srv, err := NewServer(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	w, body := do(t, srv, http.MethodPost, "/api/daily", `{"date":"2024-03-04"}`)
	if w.Code != http.StatusNotFound || body["path"] != filepath.Join(cfg.Root, "absent.xlsx") {
		t.Errorf("expected 404 with the path, got %d %v", w.Code, body)
	}
}
