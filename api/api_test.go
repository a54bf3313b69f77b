package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/portfolio/api"
	"github.com/kbukum/portfolio/auth"
	"github.com/kbukum/portfolio/database"
	"github.com/kbukum/portfolio/ingest"
	"github.com/kbukum/portfolio/logger"
	"github.com/kbukum/portfolio/portfolio/portfoliotest"
	"github.com/kbukum/portfolio/server"
	"github.com/kbukum/portfolio/storage"
	"github.com/kbukum/portfolio/storage/memory"
)

const adminPassword = "glassart2024"

type testAPI struct {
	handler http.Handler
	blobs   *memory.Storage
	db      *database.DB
	cookie  *http.Cookie
	logs    *bytes.Buffer
}

func newTestAPI(t *testing.T, blobs storage.Storage, upload ingest.Config) *testAPI {
	t.Helper()
	repo, db := portfoliotest.NewRepository(t)
	if blobs == nil {
		blobs = memory.New()
	}
	authn, err := auth.New(auth.Config{Password: adminPassword, BcryptCost: 4, SessionSecret: "test-secret"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	cfg := server.Config{}
	cfg.ApplyDefaults()
	srv := server.New(cfg, logger.NewNop())
	gin.SetMode(gin.TestMode)
	srv.ApplyMiddleware(nil)

	logs := &bytes.Buffer{}
	log := logger.NewWithWriter(&logger.Config{Level: "info", Format: logger.FormatJSON}, "portfolio", logs)
	pipeline := ingest.New(repo, blobs, upload, ingest.WithLogger(log))
	api.New(pipeline, authn, log).Register(srv.GinEngine(), "/uploads")

	ta := &testAPI{handler: srv.Handler(), db: db, logs: logs}
	if m, ok := blobs.(*memory.Storage); ok {
		ta.blobs = m
	}
	return ta
}

func (ta *testAPI) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if ta.cookie != nil {
		req.AddCookie(ta.cookie)
	}
	rr := httptest.NewRecorder()
	ta.handler.ServeHTTP(rr, req)
	return rr
}

func (ta *testAPI) login(t *testing.T) {
	t.Helper()
	rr := ta.do(t, jsonRequest("POST", "/api/admin/login", `{"password":"`+adminPassword+`"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.DefaultCookieName {
			ta.cookie = c
		}
	}
	if ta.cookie == nil {
		t.Fatal("login did not set the session cookie")
	}
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	w.Close()
	req := httptest.NewRequest("POST", "/api/admin/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Image   struct {
		ID           uint   `json:"id"`
		Title        string `json:"title"`
		Filename     string `json:"filename"`
		IsFeatured   bool   `json:"is_featured"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		ImageURL     string `json:"image_url"`
		ThumbnailURL string `json:"thumbnail_url"`
	} `json:"image"`
}

type errorResponse struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (%s)", rr.Code, status, rr.Body.String())
	}
	if got := decode[errorResponse](t, rr).Error.Code; got != code {
		t.Errorf("code = %q, want %q", got, code)
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	ta := newTestAPI(t, nil, ingest.Config{})
	for _, req := range []*http.Request{
		uploadRequest(t, "a.png", portfoliotest.PNG(t, 10, 10), map[string]string{"title": "x"}),
		httptest.NewRequest("GET", "/api/admin/images", http.NoBody),
		httptest.NewRequest("DELETE", "/api/admin/images/1", http.NoBody),
	} {
		expectError(t, ta.do(t, req), http.StatusUnauthorized, "UNAUTHORIZED")
	}
	if ta.blobs.Len() != 0 {
		t.Error("unauthenticated upload wrote blobs")
	}
}

func TestLogin(t *testing.T) {
	ta := newTestAPI(t, nil, ingest.Config{})

	expectError(t, ta.do(t, jsonRequest("POST", "/api/admin/login", `{"password":"nope"}`)),
		http.StatusUnauthorized, "UNAUTHORIZED")
	expectError(t, ta.do(t, jsonRequest("POST", "/api/admin/login", `{}`)),
		http.StatusBadRequest, "INVALID_INPUT")
	expectError(t, ta.do(t, jsonRequest("POST", "/api/admin/login", `{"password":`)),
		http.StatusBadRequest, "INVALID_INPUT")

	rr := ta.do(t, httptest.NewRequest("GET", "/api/admin/session", http.NoBody))
	if decode[map[string]bool](t, rr)["authenticated"] {
		t.Error("authenticated before login")
	}

	ta.login(t)
	if !ta.cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	rr = ta.do(t, httptest.NewRequest("GET", "/api/admin/session", http.NoBody))
	if !decode[map[string]bool](t, rr)["authenticated"] {
		t.Error("not authenticated after login")
	}

	rr = ta.do(t, httptest.NewRequest("POST", "/api/admin/logout", http.NoBody))
	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.DefaultCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout did not expire the cookie")
	}
}

func TestLogin_Throttled(t *testing.T) {
	ta := newTestAPI(t, nil, ingest.Config{})

	for i := 0; i < 5; i++ {
		expectError(t, ta.do(t, jsonRequest("POST", "/api/admin/login", `{"password":"guess"}`)),
			http.StatusUnauthorized, "UNAUTHORIZED")
	}
	rr := ta.do(t, jsonRequest("POST", "/api/admin/login", `{"password":"`+adminPassword+`"}`))
	expectError(t, rr, http.StatusTooManyRequests, "RATE_LIMITED")
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// other routes are not throttled
	rr = ta.do(t, httptest.NewRequest("GET", "/api/admin/session", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("session = %d", rr.Code)
	}
}

func TestUploadListServeDelete(t *testing.T) {
	ta := newTestAPI(t, nil, ingest.Config{})
	ta.login(t)

	rr := ta.do(t, uploadRequest(t, "vase.png", portfoliotest.PNG(t, 640, 480), map[string]string{
		"title":       "Blue Vase",
		"description": "hand blown",
		"is_featured": "TRUE",
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rr.Code, rr.Body.String())
	}
	res := decode[uploadResponse](t, rr)
	img := res.Image
	if !res.Success || img.ID == 0 || !img.IsFeatured || img.Width != 640 || img.Height != 480 {
		t.Fatalf("upload response = %+v", res)
	}
	if img.ImageURL != "memory://"+img.Filename || img.ThumbnailURL != "memory://thumbnails/"+img.Filename {
		t.Errorf("urls = %q %q", img.ImageURL, img.ThumbnailURL)
	}

	rr = ta.do(t, httptest.NewRequest("GET", "/api/portfolio", http.NoBody))
	list := decode[[]map[string]any](t, rr)
	if len(list) != 1 || list[0]["title"] != "Blue Vase" {
		t.Errorf("public list = %v", list)
	}

	rr = ta.do(t, httptest.NewRequest("GET", "/uploads/"+img.Filename, http.NoBody))
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Errorf("original: %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}
	rr = ta.do(t, httptest.NewRequest("GET", "/uploads/thumbnails/"+img.Filename, http.NoBody))
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/jpeg" {
		t.Errorf("thumbnail: %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}

	path := "/api/admin/images/" + jsonNumber(img.ID)
	if rr := ta.do(t, httptest.NewRequest("DELETE", path, http.NoBody)); rr.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", rr.Code, rr.Body.String())
	}
	expectError(t, ta.do(t, httptest.NewRequest("DELETE", path, http.NoBody)), http.StatusNotFound, "NOT_FOUND")
	expectError(t, ta.do(t, httptest.NewRequest("GET", "/uploads/"+img.Filename, http.NoBody)), http.StatusNotFound, "NOT_FOUND")

	rr = ta.do(t, httptest.NewRequest("GET", "/api/admin/images", http.NoBody))
	if got := decode[[]map[string]any](t, rr); len(got) != 0 {
		t.Errorf("admin list after delete = %v", got)
	}
	if ta.blobs.Len() != 0 {
		t.Errorf("blobs left: %v", ta.blobs.Keys())
	}
}

// messages returns the message of every log line written so far.
func (ta *testAPI) messages(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(ta.logs.String()), "\n") {
		if line == "" {
			continue
		}
		var entry struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		out = append(out, entry.Message)
	}
	return out
}

func TestUploadAndDelete_LogOncePerOperation(t *testing.T) {
	ta := newTestAPI(t, nil, ingest.Config{})
	ta.login(t)

	rr := ta.do(t, uploadRequest(t, "vase.png", portfoliotest.PNG(t, 32, 32), map[string]string{"title": "Vase"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rr.Code, rr.Body.String())
	}
	img := decode[uploadResponse](t, rr).Image
	if rr := ta.do(t, httptest.NewRequest("DELETE", "/api/admin/images/"+jsonNumber(img.ID), http.NoBody)); rr.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", rr.Code, rr.Body.String())
	}

	counts := map[string]int{}
	for _, msg := range ta.messages(t) {
		counts[msg]++
	}
	if counts["image ingested"] != 1 || counts["image removed"] != 1 {
		t.Errorf("log messages = %v, want one ingest and one removal line", counts)
	}
	if len(counts) != 2 {
		t.Errorf("unexpected log messages: %v", counts)
	}
}

func jsonNumber(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestUpload_Rejections(t *testing.T) {
	ta := newTestAPI(t, nil, ingest.Config{MaxFileSize: 2048})
	ta.login(t)
	png := portfoliotest.PNG(t, 8, 8)

	expectError(t, ta.do(t, uploadRequest(t, "payload.exe", png, map[string]string{"title": "x"})),
		http.StatusBadRequest, "INVALID_INPUT")
	expectError(t, ta.do(t, uploadRequest(t, "", nil, map[string]string{"title": "x"})),
		http.StatusBadRequest, "MISSING_FIELD")
	expectError(t, ta.do(t, uploadRequest(t, "a.png", png, map[string]string{"title": "   "})),
		http.StatusBadRequest, "INVALID_INPUT")
	expectError(t, ta.do(t, uploadRequest(t, "big.png", make([]byte, 4096), map[string]string{"title": "x"})),
		http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE")
	expectError(t, ta.do(t, jsonRequest("POST", "/api/admin/upload", `{"title":"x"}`)),
		http.StatusBadRequest, "INVALID_INPUT")

	if ta.blobs.Len() != 0 {
		t.Errorf("rejected uploads wrote blobs: %v", ta.blobs.Keys())
	}
	portfoliotest.AssertRowCount(t, ta.db, 0)
}

func TestDelete_BadID(t *testing.T) {
	ta := newTestAPI(t, nil, ingest.Config{})
	ta.login(t)
	for _, id := range []string{"abc", "-1", "1.5"} {
		expectError(t, ta.do(t, httptest.NewRequest("DELETE", "/api/admin/images/"+id, http.NoBody)),
			http.StatusBadRequest, "INVALID_INPUT")
	}
	expectError(t, ta.do(t, httptest.NewRequest("DELETE", "/api/admin/images/999", http.NoBody)),
		http.StatusNotFound, "NOT_FOUND")
}

func TestBlob_RejectsSeparators(t *testing.T) {
	ta := newTestAPI(t, nil, ingest.Config{})
	ta.blobs.Put(context.Background(), "nested/a.png", bytes.NewReader([]byte("x")), "image/png")

	for _, path := range []string{
		"/uploads/nested/a.png",
		"/uploads/thumbnails/nested/a.png",
		"/uploads/thumbnails/",
		"/uploads/..%5Csecret.png",
	} {
		rr := ta.do(t, httptest.NewRequest("GET", path, http.NoBody))
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d", path, rr.Code)
		}
	}
}

type redirectingStorage struct {
	*memory.Storage
}

func (redirectingStorage) RedirectURL(_ context.Context, key string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func TestBlob_Redirects(t *testing.T) {
	ta := newTestAPI(t, redirectingStorage{memory.New()}, ingest.Config{})
	rr := ta.do(t, httptest.NewRequest("GET", "/uploads/thumbnails/abc.png", http.NoBody))
	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "https://cdn.example.com/thumbnails/abc.png" {
		t.Errorf("Location = %q", loc)
	}
}

func TestPublicList_EmptyArray(t *testing.T) {
	ta := newTestAPI(t, nil, ingest.Config{})
	rr := ta.do(t, httptest.NewRequest("GET", "/api/portfolio", http.NoBody))
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
}
