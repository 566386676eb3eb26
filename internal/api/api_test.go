package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"pulseboard/internal/importer"
	"pulseboard/internal/report"
	"pulseboard/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store, *importer.Coordinator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.New(filepath.Join(t.TempDir(), "pulseboard.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	coord := importer.NewCoordinator(s, importer.Config{
		ReasonKeywords:      []string{"annual leave", "training"},
		InternalProjectName: "Internal",
	}, log)

	router := gin.New()
	NewHandler(s, coord, report.NewService(s)).RegisterRoutes(router.Group("/api"))
	return router, s, coord
}

// staffWorkbook builds a minimal one-sheet workbook upload body.
func staffWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), "Staff SOT"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	rows := [][]interface{}{
		{"Employee ID", "Name", "Type", "Status", "Role", "Team"},
		{"E01", "John Smith", "Permanent", "Active", "Engineer", "Delivery"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Staff SOT", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return &buf
}

func uploadRequest(t *testing.T, workbook *bytes.Buffer) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "weekly.xlsx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.Copy(part, workbook); err != nil {
		t.Fatalf("copy workbook: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportUploadStreamsEvents(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, staffWorkbook(t)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"type":"start"`) || !strings.Contains(body, `"type":"done"`) {
		t.Fatalf("missing lifecycle events in stream:\n%s", body)
	}
	if !strings.Contains(body, `"state":"committed"`) {
		t.Fatalf("final report not committed:\n%s", body)
	}
}

// blockingReader holds the coordinator busy until released.
type blockingReader struct{ release chan struct{} }

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.release
	return 0, io.EOF
}

func TestImportConflictWhileBatchRunning(t *testing.T) {
	router, _, coord := newTestRouter(t)

	blocker := &blockingReader{release: make(chan struct{})}
	events, err := coord.Import(blocker, "slow.xlsx")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, staffWorkbook(t)))
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	close(blocker.release)
	for range events {
	}
}

func TestGetImportReportNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/imports/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestImportReportRoundtripAndExport(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, staffWorkbook(t)))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d", w.Code)
	}

	// pull the batch id out of the final SSE event
	var batchID string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev struct {
			Type string `json:"type"`
			Data struct {
				BatchID string `json:"batchId"`
			} `json:"data"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		if ev.Type == "done" {
			batchID = ev.Data.BatchID
		}
	}
	if batchID == "" {
		t.Fatal("no batch id in done event")
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/imports/"+batchID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("report status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"state":"committed"`) {
		t.Fatalf("report body: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/imports/"+batchID+"/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("export content type = %q", ct)
	}
	if _, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Fatalf("export is not a readable workbook: %v", err)
	}
}

func TestFYOptionsAndUtilizationValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fy-options", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("fy-options status = %d", w.Code)
	}
	var fyResp struct {
		Options []string `json:"options"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fyResp); err != nil {
		t.Fatalf("decode fy-options: %v", err)
	}
	if len(fyResp.Options) == 0 {
		t.Fatal("fy-options empty, expected at least the current year")
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/utilization", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("utilization without fy: status = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/utilization?fy=24/25", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("utilization status = %d", w.Code)
	}
}
