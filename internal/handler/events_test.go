package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"motiondetector/internal/config"
	"motiondetector/internal/dto"
	"motiondetector/internal/logger"
	"motiondetector/internal/model"
	"motiondetector/internal/repository/sqlite"
)

type testEnv struct {
	cfg        *config.Config
	logger     *logger.Logger
	eventRepo  *sqlite.EventRepository
	regionRepo *sqlite.RegionRepository
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Defaults(config.ProfileFull)
	cfg.OutputDirectory = filepath.Join(dir, "out")
	cfg.LogDirectory = filepath.Join(dir, "logs")

	l, err := logger.New(cfg.LogDirectory, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	db, err := sqlite.New(filepath.Join(dir, "events.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &testEnv{
		cfg:        cfg,
		logger:     l,
		eventRepo:  sqlite.NewEventRepository(db),
		regionRepo: sqlite.NewRegionRepository(db),
	}
}

// addEvent catalogs an event and creates its files on disk.
func (e *testEnv) addEvent(t *testing.T, id string, at time.Time) model.Event {
	t.Helper()

	day := at.Format("2006-01-02")
	ev := model.Event{
		ID:           id,
		DetectedAt:   at,
		RecordedAt:   at.Add(10 * time.Second),
		SnapshotPath: filepath.Join(day, "captura_"+at.Format("150405")+".jpg"),
		VideoPath:    filepath.Join(day, "video_"+at.Format("150405")+".avi"),
		VideoFrames:  300,
		RegionCount:  1,
	}

	for _, rel := range []string{ev.SnapshotPath, ev.VideoPath} {
		path := filepath.Join(e.cfg.OutputDirectory, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(path, []byte("data of "+id), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	if _, err := e.eventRepo.Insert(&ev); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := e.regionRepo.InsertBatch([]model.Region{{EventID: id, X: 10, Y: 20, Width: 60, Height: 60, Area: 2500}}); err != nil {
		t.Fatalf("Region insert failed: %v", err)
	}
	return ev
}

func decodeEvents(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func TestGetEventsHandler_Pagination(t *testing.T) {
	env := setupTestEnv(t)
	base := time.Date(2025, 6, 15, 8, 0, 0, 0, time.Local)
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		env.addEvent(t, id, base.Add(time.Duration(i)*time.Hour))
	}

	h := GetEventsHandler(env.cfg, env.logger, env.eventRepo, env.regionRepo)

	req := httptest.NewRequest(http.MethodGet, "/api/events?page=2&limit=2", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var data struct {
		Events []struct {
			ID        string `json:"id"`
			Date      string `json:"date"`
			TimeOfDay string `json:"timeOfDay"`
			Regions   []dto.RegionInfo
		} `json:"events"`
		Length      int `json:"length"`
		TotalPages  int `json:"totalPages"`
		CurrentPage int `json:"currentPage"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&data); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if data.Length != 5 || data.TotalPages != 3 || data.CurrentPage != 2 {
		t.Errorf("Unexpected paging %+v", data)
	}
	if len(data.Events) != 2 || data.Events[0].ID != "c" || data.Events[1].ID != "b" {
		t.Fatalf("Expected events c, b on page 2, got %+v", data.Events)
	}
	if data.Events[0].Date != "2025-06-15" || data.Events[0].TimeOfDay != "10:00:00" {
		t.Errorf("Unexpected date formatting %q %q", data.Events[0].Date, data.Events[0].TimeOfDay)
	}
	if len(data.Events[0].Regions) != 1 || data.Events[0].Regions[0].Area != 2500 {
		t.Errorf("Expected regions in response, got %+v", data.Events[0].Regions)
	}
}

func TestGetEventsHandler_Filters(t *testing.T) {
	env := setupTestEnv(t)
	env.addEvent(t, "morning", time.Date(2025, 6, 14, 7, 30, 0, 0, time.Local))
	env.addEvent(t, "evening", time.Date(2025, 6, 15, 20, 0, 0, 0, time.Local))

	h := GetEventsHandler(env.cfg, env.logger, env.eventRepo, env.regionRepo)

	tests := []struct {
		query string
		want  float64
	}{
		{"", 2},
		{"?dateAfter=2025-06-15", 1},
		{"?dateBefore=2025-06-14", 1},
		{"?timeAfter=12:00", 1},
		{"?timeBefore=12:00&dateAfter=2025-06-15", 0},
		{"?dateAfter=garbage", 2},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events"+tt.query, nil))
		body := decodeEvents(t, rec)
		if body["length"] != tt.want {
			t.Errorf("%q: expected %v events, got %v", tt.query, tt.want, body["length"])
		}
	}
}

func TestGetEventStatsAndDays(t *testing.T) {
	env := setupTestEnv(t)
	env.addEvent(t, "a", time.Date(2025, 6, 14, 7, 30, 0, 0, time.Local))
	env.addEvent(t, "b", time.Date(2025, 6, 15, 20, 0, 0, 0, time.Local))

	rec := httptest.NewRecorder()
	GetEventStatsHandler(env.logger, env.eventRepo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/stats", nil))

	var stats model.EventStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.TotalEvents != 2 || stats.TotalFrames != 600 || stats.LargestArea != 2500 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	rec = httptest.NewRecorder()
	GetEventDaysHandler(env.logger, env.eventRepo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/days", nil))

	var days []string
	if err := json.NewDecoder(rec.Body).Decode(&days); err != nil {
		t.Fatalf("Failed to decode days: %v", err)
	}
	if len(days) != 2 || days[0] != "2025-06-15" {
		t.Errorf("Unexpected days %v", days)
	}
}

func TestGetEventDaysHandler_EmptyCatalog(t *testing.T) {
	env := setupTestEnv(t)

	rec := httptest.NewRecorder()
	GetEventDaysHandler(env.logger, env.eventRepo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/days", nil))

	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("Expected empty JSON array, got %q", got)
	}
}

func TestViewEventFileHandler(t *testing.T) {
	env := setupTestEnv(t)
	ev := env.addEvent(t, "a", time.Date(2025, 6, 15, 20, 0, 0, 0, time.Local))

	secret := filepath.Join(filepath.Dir(env.cfg.OutputDirectory), "secret.txt")
	if err := os.WriteFile(secret, []byte("secret"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	h := ViewEventFileHandler(env.cfg)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"snapshot", filepath.ToSlash(ev.SnapshotPath), http.StatusOK},
		{"missing parameter", "", http.StatusBadRequest},
		{"parent escape", "../secret.txt", http.StatusBadRequest},
		{"absolute", "/etc/passwd", http.StatusBadRequest},
		{"env file", ".env", http.StatusBadRequest},
		{"catalog", "events.db", http.StatusBadRequest},
		{"missing file", "2025-06-15/captura_000000.jpg", http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/events/file", nil)
		q := req.URL.Query()
		if tt.path != "" {
			q.Set("path", tt.path)
		}
		req.URL.RawQuery = q.Encode()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.code, rec.Code)
		}
	}
}

func TestDeleteEventHandler(t *testing.T) {
	env := setupTestEnv(t)
	ev := env.addEvent(t, "a", time.Date(2025, 6, 15, 20, 0, 0, 0, time.Local))

	h := DeleteEventHandler(env.cfg, env.logger, env.eventRepo)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/delete?id=a", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET should be rejected, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/events/delete?id=missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown event, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/events/delete?id=a", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	for _, rel := range []string{ev.SnapshotPath, ev.VideoPath} {
		if _, err := os.Stat(filepath.Join(env.cfg.OutputDirectory, rel)); !os.IsNotExist(err) {
			t.Errorf("File %s should be removed", rel)
		}
	}
	if got, _ := env.eventRepo.GetByID("a"); got != nil {
		t.Error("Event should be removed from the catalog")
	}
}

func TestResolveEventFile(t *testing.T) {
	tests := []struct {
		rel string
		ok  bool
	}{
		{"2025-06-15/video_120000.avi", true},
		{"2025-06-15/captura_120000.jpg", true},
		{"log.txt", false},
		{".env", false},
		{"events.db", false},
		{"logs/error.log", false},
		{"2025-06-15/notes.txt", false},
		{"2025-06-15/video_256161.avi", false},
		{"not-a-day/video_120000.avi", false},
		{"x/2025-06-15/video_120000.avi", false},
		{"video_120000.avi", false},
		{"../x", false},
		{"2025-06-15/../../x", false},
		{"/abs", false},
		{"", false},
	}

	for _, tt := range tests {
		_, ok := resolveEventFile("/data", tt.rel)
		if ok != tt.ok {
			t.Errorf("resolveEventFile(%q) ok = %v, expected %v", tt.rel, ok, tt.ok)
		}
	}
}

func TestAtoiDefault(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"10", 5, 10},
		{"", 5, 5},
		{"abc", 10, 10},
		{"-1", 5, 5},
		{"0", 5, 5},
		{"12.5", 5, 5},
	}

	for _, tt := range tests {
		result := atoiDefault(tt.input, tt.def)
		if result != tt.expected {
			t.Errorf("atoiDefault(%q, %d) = %d, expected %d", tt.input, tt.def, result, tt.expected)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	if got := parseTimeOfDay("18:45"); got.Hour() != 18 || got.Minute() != 45 {
		t.Errorf("Unexpected time %v", got)
	}
	if got := parseTimeOfDay("25:00"); !got.IsZero() {
		t.Errorf("Invalid time should be zero, got %v", got)
	}
}

func TestDeleteEventHandler_KeepsNonEventFiles(t *testing.T) {
	env := setupTestEnv(t)
	if err := os.MkdirAll(env.cfg.OutputDirectory, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	envFile := filepath.Join(env.cfg.OutputDirectory, ".env")
	if err := os.WriteFile(envFile, []byte("PASSWORD=s3cret\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	at := time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)
	ev := model.Event{ID: "bad", DetectedAt: at, RecordedAt: at, SnapshotPath: ".env"}
	if _, err := env.eventRepo.Insert(&ev); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	h := DeleteEventHandler(env.cfg, env.logger, env.eventRepo)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/events/delete?id=bad", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	if _, err := os.Stat(envFile); err != nil {
		t.Errorf("Non-event file should survive delete: %v", err)
	}
}
