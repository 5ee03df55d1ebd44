package adapthttp_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	adapthttp "weighttracker/internal/adapter/http"
	"weighttracker/internal/adapter/memory"
	"weighttracker/internal/app"
	"weighttracker/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock repositories (function-fields pattern)
// ---------------------------------------------------------------------------

type mockWeightRepo struct {
	addFn    func(ctx context.Context, value float64, recordedAt time.Time) (int64, error)
	deleteFn func(ctx context.Context, id int64) (bool, error)
	listFn   func(ctx context.Context, limit int) ([]domain.WeightRecord, error)
	latestFn func(ctx context.Context, localDay string) (*domain.WeightRecord, error)
}

func (m *mockWeightRepo) AddWeightRecord(ctx context.Context, value float64, recordedAt time.Time) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, value, recordedAt)
	}
	return 1, nil
}

func (m *mockWeightRepo) DeleteWeightRecord(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return true, nil
}

func (m *mockWeightRepo) ListWeightRecords(ctx context.Context, limit int) ([]domain.WeightRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockWeightRepo) LatestWeightForLocalDay(ctx context.Context, localDay string) (*domain.WeightRecord, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, localDay)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Test-server helpers
// ---------------------------------------------------------------------------

// newTestServer serves an in-memory backend with auth disabled. A non-nil
// weights repository replaces the in-memory weight table.
func newTestServer(t *testing.T, weights domain.WeightRepository) *httptest.Server {
	t.Helper()
	return httptest.NewServer(newServer(t, weights).WithoutAuth().Handler())
}

func newServer(t *testing.T, weights domain.WeightRepository) *adapthttp.Server {
	t.Helper()
	srv, _ := newServerWithSettings(t, weights)
	return srv
}

func newServerWithSettings(t *testing.T, weights domain.WeightRepository) (*adapthttp.Server, *app.SettingsService) {
	t.Helper()

	db := memory.New()
	if weights == nil {
		weights = db
	}
	log := zap.NewNop()

	ws := app.NewWeightService(weights, log)
	ss := app.NewSettingsService(db, log)
	cs := app.NewChartsService(weights)
	as := app.NewAuthService(db, memory.NewSessionRepo(db), time.Hour)
	t.Cleanup(func() {
		ws.Close()
		ss.Close()
	})

	webDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o600); err != nil {
		t.Fatal(err)
	}
	return adapthttp.New(ws, ss, cs, as, log, webDir), ss
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

func do(t *testing.T, method, url string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func postWeight(t *testing.T, ts *httptest.Server, value float64, recordedAt int64) int64 {
	t.Helper()
	payload := map[string]any{"value": value}
	if recordedAt != 0 {
		payload["recordedAt"] = recordedAt
	}
	resp := do(t, http.MethodPost, ts.URL+"/api/weights", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	return int64(decodeBody(t, resp)["id"].(float64))
}

// readEvent reads one Server-Sent Event.
func readEvent(t *testing.T, br *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	resp := do(t, http.MethodGet, ts.URL+"/api/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
}

func TestWeightAppend(t *testing.T) {
	tests := []struct {
		name       string
		payload    map[string]any
		wantStatus int
		wantKg     float64
	}{
		{
			name:       "valid kg",
			payload:    map[string]any{"value": 85.5},
			wantStatus: http.StatusCreated,
			wantKg:     85.5,
		},
		{
			name:       "valid lb",
			payload:    map[string]any{"value": 220.46226218, "unit": "lb"},
			wantStatus: http.StatusCreated,
			wantKg:     100,
		},
		{
			name:       "value zero",
			payload:    map[string]any{"value": 0},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "value negative",
			payload:    map[string]any{"value": -5.0},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid unit",
			payload:    map[string]any{"value": 80.0, "unit": "stone"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			payload:    map[string]any{"value": 80.0, "note": "x"},
			wantStatus: http.StatusBadRequest,
		},
	}

	ts := newTestServer(t, nil)
	defer ts.Close()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/api/weights", tc.payload)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d; body: %v", tc.wantStatus, resp.StatusCode, decodeBody(t, resp))
			}
			if tc.wantStatus != http.StatusCreated {
				return
			}
			body := decodeBody(t, resp)
			got, _ := body["value"].(float64)
			if diff := got - tc.wantKg; diff > 1e-6 || diff < -1e-6 {
				t.Fatalf("expected %v kg, got %v", tc.wantKg, got)
			}
			if _, ok := body["recordedAt"]; !ok {
				t.Fatal("response missing 'recordedAt' field")
			}
		})
	}
}

func TestWeightListWithTrend(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC).UnixMilli()
	postWeight(t, ts, 70.0, base)
	postWeight(t, ts, 71.0, base+1000)
	postWeight(t, ts, 69.5, base+2000)

	resp := do(t, http.MethodGet, ts.URL+"/api/weights", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	items, ok := body["items"].([]any)
	if !ok || len(items) != 3 {
		t.Fatalf("expected 3 items, got %v", body["items"])
	}

	want := []struct {
		value    float64
		delta    float64
		hasDelta bool
		gain     bool
	}{
		{69.5, -1.5, true, false},
		{71.0, 1.0, true, true},
		{70.0, 0, false, false},
	}
	for i, w := range want {
		item := items[i].(map[string]any)
		if item["value"] != w.value || item["delta"] != w.delta || item["hasDelta"] != w.hasDelta || item["gain"] != w.gain {
			t.Errorf("item %d: expected %+v, got %v", i, w, item)
		}
	}
	latest, ok := body["latest"].(map[string]any)
	if !ok || latest["value"] != 69.5 {
		t.Errorf("expected latest 69.5, got %v", body["latest"])
	}
}

func TestWeightListEmptyAndUnits(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	resp := do(t, http.MethodGet, ts.URL+"/api/weights", nil)
	body := decodeBody(t, resp)
	if items, ok := body["items"].([]any); !ok || len(items) != 0 {
		t.Fatalf("expected empty items array, got %v", body["items"])
	}
	if body["latest"] != nil {
		t.Fatalf("expected null latest, got %v", body["latest"])
	}

	postWeight(t, ts, 100, 0)
	resp = do(t, http.MethodGet, ts.URL+"/api/weights?unit=lb", nil)
	body = decodeBody(t, resp)
	item := body["items"].([]any)[0].(map[string]any)
	if v := item["value"].(float64); v < 220.46 || v > 220.47 {
		t.Errorf("expected ~220.46 lb, got %v", v)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/weights?unit=stone", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown unit, got %d", resp.StatusCode)
	}
}

func TestWeightDelete(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	id := postWeight(t, ts, 72.0, 0)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"existing", "/api/weights/" + jsonNumber(id), http.StatusOK},
		{"already deleted", "/api/weights/" + jsonNumber(id), http.StatusNotFound},
		{"never existed", "/api/weights/9999", http.StatusNotFound},
		{"malformed id", "/api/weights/abc", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, http.MethodDelete, ts.URL+tc.path, nil)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestWeightUndoLast(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	resp := do(t, http.MethodPost, ts.URL+"/api/weights/undo-last", nil)
	body := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK || body["deleted"] != false {
		t.Fatalf("expected deleted=false on empty history, got %d %v", resp.StatusCode, body)
	}

	postWeight(t, ts, 70, 1000)
	postWeight(t, ts, 71, 2000)

	resp = do(t, http.MethodPost, ts.URL+"/api/weights/undo-last", nil)
	body = decodeBody(t, resp)
	if body["deleted"] != true {
		t.Fatalf("expected deleted=true, got %v", body["deleted"])
	}
	if entry := body["entry"].(map[string]any); entry["value"] != 71.0 {
		t.Fatalf("expected the newest record to be undone, got %v", entry)
	}
}

func TestStorageFailure(t *testing.T) {
	ts := newTestServer(t, &mockWeightRepo{
		addFn: func(context.Context, float64, time.Time) (int64, error) {
			return 0, errors.New("disk full")
		},
		listFn: func(context.Context, int) ([]domain.WeightRecord, error) {
			return nil, errors.New("disk full")
		},
	})
	defer ts.Close()

	resp := do(t, http.MethodPost, ts.URL+"/api/weights", map[string]any{"value": 70})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); strings.Contains(body["error"].(string), "disk full") {
		t.Errorf("storage cause leaked to client: %v", body["error"])
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/weights", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	resp := do(t, http.MethodGet, ts.URL+"/api/settings", nil)
	body := decodeBody(t, resp)
	if body["theme"] != "auto" || body["language"] != "en" {
		t.Fatalf("expected defaults auto/en, got %v", body)
	}

	tests := []struct {
		name       string
		path       string
		value      string
		wantStatus int
	}{
		{"dark theme", "/api/settings/theme", "dark", http.StatusOK},
		{"greek", "/api/settings/language", "el", http.StatusOK},
		{"unknown theme", "/api/settings/theme", "sepia", http.StatusBadRequest},
		{"unknown language", "/api/settings/language", "xx", http.StatusBadRequest},
		{"unknown key", "/api/settings/font", "serif", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, http.MethodPut, ts.URL+tc.path, map[string]any{"value": tc.value})
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/settings", nil)
	body = decodeBody(t, resp)
	if body["theme"] != "dark" || body["language"] != "el" {
		t.Fatalf("expected dark/el, got %v", body)
	}
}

func TestChartsDaily(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	postWeight(t, ts, 80, time.Now().UnixMilli())

	resp := do(t, http.MethodGet, ts.URL+"/api/charts/daily?days=7&unit=kg", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	items, ok := body["items"].([]any)
	if !ok || len(items) != 7 {
		t.Fatalf("expected 7 items, got %v", body["items"])
	}
	last := items[6].(map[string]any)
	if w, ok := last["weight"].(map[string]any); !ok || w["value"] != 80.0 {
		t.Errorf("expected today's weight 80, got %v", last)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/charts/daily?days=1000", nil)
	if body := decodeBody(t, resp); body["days"] != float64(app.MaxChartDays) {
		t.Errorf("expected days clamped to %d, got %v", app.MaxChartDays, body["days"])
	}
}

func TestWeightStream(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/weights/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event stream, got %q", ct)
	}
	br := bufio.NewReader(resp.Body)

	event, data := readEvent(t, br)
	if event != "snapshot" || data != "[]" {
		t.Fatalf("expected empty snapshot, got %s %s", event, data)
	}

	postWeight(t, ts, 70.5, 0)

	_, data = readEvent(t, br)
	var points []domain.TrendPoint
	if err := json.Unmarshal([]byte(data), &points); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(points) != 1 || points[0].Value != 70.5 {
		t.Fatalf("expected one record of 70.5, got %+v", points)
	}
	cancel()
}

func TestSettingsStream(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/settings/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	br := bufio.NewReader(resp.Body)

	event, data := readEvent(t, br)
	if event != "settings" || data != `{"theme":"auto","language":"en"}` {
		t.Fatalf("expected default settings, got %s %s", event, data)
	}

	do(t, http.MethodPut, ts.URL+"/api/settings/theme", map[string]any{"value": "light"})

	_, data = readEvent(t, br)
	if data != `{"theme":"light","language":"en"}` {
		t.Fatalf("expected light theme, got %s", data)
	}
	cancel()
}

func TestSettingsStream_ClosedService(t *testing.T) {
	srv, ss := newServerWithSettings(t, nil)
	ts := httptest.NewServer(srv.WithoutAuth().Handler())
	defer ts.Close()
	ss.Close()

	resp := do(t, http.MethodGet, ts.URL+"/api/settings/stream", nil)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if strings.Contains(string(b), "event:") {
		t.Fatalf("expected no events from a closed service, got %q", b)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"PUT weights", http.MethodPut, "/api/weights"},
		{"GET weight by id", http.MethodGet, "/api/weights/1"},
		{"GET weights/undo-last", http.MethodGet, "/api/weights/undo-last"},
		{"POST weights/stream", http.MethodPost, "/api/weights/stream"},
		{"POST settings", http.MethodPost, "/api/settings"},
		{"GET settings/theme", http.MethodGet, "/api/settings/theme"},
		{"POST charts/daily", http.MethodPost, "/api/charts/daily"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, tc.method, ts.URL+tc.path, nil)
			if resp.StatusCode != http.StatusMethodNotAllowed {
				t.Fatalf("expected 405, got %d", resp.StatusCode)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	ts := httptest.NewServer(newServer(t, nil).Handler())
	defer ts.Close()

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}

	resp, err := client.Get(ts.URL + "/api/weights")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", resp.StatusCode)
	}

	resp, _ = client.Get(ts.URL + "/api/auth/config")
	if body := decodeBody(t, resp); body["needs_setup"] != true {
		t.Fatalf("expected needs_setup=true, got %v", body)
	}
	_ = resp.Body.Close()

	creds, _ := json.Marshal(map[string]string{"username": "owner", "password": "longenough"})
	resp, _ = client.Post(ts.URL+"/api/auth/setup", "application/json", bytes.NewReader(creds))
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("setup: expected 200, got %d", resp.StatusCode)
	}

	resp, _ = client.Post(ts.URL+"/api/auth/setup", "application/json", bytes.NewReader(creds))
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second setup: expected 409, got %d", resp.StatusCode)
	}

	bad, _ := json.Marshal(map[string]string{"username": "owner", "password": "wrongpass"})
	resp, _ = client.Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader(bad))
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}

	resp, _ = client.Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader(creds))
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}

	resp, _ = client.Get(ts.URL + "/api/weights")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with a session, got %d", resp.StatusCode)
	}

	resp, _ = client.Get(ts.URL + "/api/auth/me")
	me := decodeBody(t, resp)
	_ = resp.Body.Close()
	if u, ok := me["user"].(map[string]any); !ok || u["username"] != "owner" {
		t.Fatalf("expected owner, got %v", me)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/weights", nil)
	req.Header.Set("Remote-User", "owner")
	resp, _ = http.DefaultClient.Do(req)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected forward auth to be accepted, got %d", resp.StatusCode)
	}

	resp, _ = client.Post(ts.URL+"/api/auth/logout", "application/json", nil)
	_ = resp.Body.Close()
	resp, _ = client.Get(ts.URL + "/api/weights")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestSSODisabled(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()

	resp := do(t, http.MethodGet, ts.URL+"/api/auth/sso/login", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
