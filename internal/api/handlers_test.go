package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/backend"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/jobs"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/models"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/store"
)

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type fakeBackend struct {
	dir       string
	results   []backend.VideoSummary
	searchErr error
	meta      *backend.VideoMetadata
	metaErr   error
	hold      chan struct{}
}

func (f *fakeBackend) Search(ctx context.Context, query string, maxResults int) ([]backend.VideoSummary, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.results) > maxResults {
		return f.results[:maxResults], nil
	}
	return f.results, nil
}

func (f *fakeBackend) FetchMetadata(ctx context.Context, videoID string) (*backend.VideoMetadata, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeBackend) Download(ctx context.Context, videoID, quality string, audioOnly bool, events backend.DownloadEvents) (string, error) {
	if f.hold != nil {
		<-f.hold
	}
	path := filepath.Join(f.dir, fmt.Sprintf("%s_%d.mp4", videoID, time.Now().UnixNano()))
	if err := os.WriteFile(path, []byte("media"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func newTestServer(t *testing.T) (http.Handler, *jobs.Manager, *fakeBackend) {
	t.Helper()
	base := t.TempDir()
	st, err := store.New(filepath.Join(base, "downloads"), filepath.Join(base, "temp"))
	if err != nil {
		t.Fatalf("store.New error: %v", err)
	}

	fake := &fakeBackend{
		dir: st.TempDir(),
		meta: &backend.VideoMetadata{
			VideoID: "dQw4w9WgXcQ",
			Title:   "Test Video",
		},
		results: []backend.VideoSummary{
			{ID: "dQw4w9WgXcQ", Title: "First"},
			{ID: "abcdefghijk", Title: "Second"},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := jobs.NewManager(jobs.NewRegistry(), st, fake, logger, 2)
	handler := NewHandler(manager, fake, 20, logger)
	return NewRouter(handler, logger, "*"), manager, fake
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func waitForStatus(t *testing.T, h http.Handler, jobID string, want models.Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec, body := doJSON(t, h, http.MethodGet, "/api/progress/"+jobID, "")
		if rec.Code == http.StatusOK && body["status"] == want.String() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
}

func TestSearch(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/search?q=test", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	if body["total"].(float64) != 2 {
		t.Errorf("total = %v, expected 2", body["total"])
	}
}

func TestSearch_Validation(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/search", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing query: status = %d, expected 400", rec.Code)
	}
	if body["error"] == "" {
		t.Error("missing query: no error message")
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/search?q=test&max_results=zero", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad max_results: status = %d, expected 400", rec.Code)
	}
}

func TestSearch_MaxResultsCap(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/search?q=test&max_results=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	if body["total"].(float64) != 1 {
		t.Errorf("total = %v, expected capped to 1", body["total"])
	}
}

func TestVideoInfo(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/video_info?url="+testURL, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	if body["video_id"] != "dQw4w9WgXcQ" {
		t.Errorf("video_id = %v", body["video_id"])
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/video_info", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing url: status = %d, expected 400", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/video_info?url=garbage", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad url: status = %d, expected 400", rec.Code)
	}
}

func TestVideoInfo_Unavailable(t *testing.T) {
	h, _, fake := newTestServer(t)
	fake.metaErr = fmt.Errorf("%w: region locked", backend.ErrUnavailable)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/video_info?url="+testURL, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", rec.Code)
	}
}

func TestCreateDownload(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodPost, "/api/download",
		`{"url":"`+testURL+`","quality":"720p"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, expected 202", rec.Code)
	}
	if body["job_id"] != "dQw4w9WgXcQ_720p" {
		t.Errorf("job_id = %v, expected dQw4w9WgXcQ_720p", body["job_id"])
	}
	if body["video_id"] != "dQw4w9WgXcQ" {
		t.Errorf("video_id = %v", body["video_id"])
	}
}

func TestCreateDownload_Validation(t *testing.T) {
	h, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{not json`},
		{"missing url", `{"quality":"720p"}`},
		{"bad url", `{"url":"garbage"}`},
		{"bad quality", `{"url":"` + testURL + `","quality":"333p"}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec, _ := doJSON(t, h, http.MethodPost, "/api/download", test.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, expected 400", rec.Code)
			}
		})
	}
}

func TestCreateDownload_Duplicate(t *testing.T) {
	h, _, fake := newTestServer(t)
	fake.hold = make(chan struct{})
	defer close(fake.hold)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/download",
		`{"url":"`+testURL+`","quality":"720p"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first request: status = %d, expected 202", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/download",
		`{"url":"`+testURL+`","quality":"720p"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate request: status = %d, expected 409", rec.Code)
	}
}

func TestProgress_Unknown(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/progress/never_created", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", rec.Code)
	}
}

func TestDownloadFile_Lifecycle(t *testing.T) {
	h, manager, _ := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/download_file/never_created", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown job: status = %d, expected 404", rec.Code)
	}

	rec, body := doJSON(t, h, http.MethodPost, "/api/download",
		`{"url":"`+testURL+`","quality":"720p"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, expected 202", rec.Code)
	}
	jobID := body["job_id"].(string)

	waitForStatus(t, h, jobID, models.StatusCompleted)

	rec, _ = doJSON(t, h, http.MethodGet, "/api/download_file/"+jobID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, "Test_Video_720p.mp4") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	// Once the file is evicted, the same request reports it as expired.
	path, _, err := manager.GetResultFile(jobID)
	if err != nil {
		t.Fatalf("GetResultFile error: %v", err)
	}
	os.Remove(path)

	rec, body = doJSON(t, h, http.MethodGet, "/api/download_file/"+jobID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("after eviction: status = %d, expected 404", rec.Code)
	}
	if body["error"] != "download expired" {
		t.Errorf("error = %v, expected %q", body["error"], "download expired")
	}
}

func TestDownloadFile_NotReady(t *testing.T) {
	h, _, fake := newTestServer(t)
	fake.hold = make(chan struct{})
	defer close(fake.hold)

	rec, body := doJSON(t, h, http.MethodPost, "/api/download",
		`{"url":"`+testURL+`","quality":"720p"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, expected 202", rec.Code)
	}
	jobID := body["job_id"].(string)

	rec, body = doJSON(t, h, http.MethodGet, "/api/download_file/"+jobID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", rec.Code)
	}
	if body["error"] != "download not ready" {
		t.Errorf("error = %v, expected %q", body["error"], "download not ready")
	}
}

func TestCORS_Preflight(t *testing.T) {
	h, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, expected 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Allow-Origin = %q, expected *", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/health/live", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, expected 200", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}
