package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"lens-server-go/internal/domain/agent"
	domainimage "lens-server-go/internal/domain/image"
	"lens-server-go/internal/domain/session"
	"lens-server-go/internal/domain/tool"
	"lens-server-go/internal/domain/vision"
	"lens-server-go/internal/platform/config"
	"lens-server-go/internal/platform/logging"
	"lens-server-go/internal/platform/storage"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New(logging.Config{
		Level:    "error",
		Dir:      t.TempDir(),
		Filename: "test.log",
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func fakeCompletionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		resp := map[string]any{
			"id":     "cmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func testModelConfig(baseURL string) config.ModelConfig {
	return config.ModelConfig{
		Type:      "openai",
		ModelName: "test-model",
		BaseURL:   baseURL + "/v1",
		APIKey:    "test-key",
	}
}

func testSecurity() *config.SecurityConfig {
	return &config.SecurityConfig{
		MaxFileSize:    5 * 1024 * 1024,
		MaxPixels:      16777216,
		MaxWidth:       1024,
		MaxHeight:      1024,
		AllowedFormats: []string{"jpeg", "jpg", "png"},
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func newVisionRouter(t *testing.T, modelContent string) *gin.Engine {
	t.Helper()
	logger := testLogger(t)
	server := fakeCompletionServer(t, modelContent)

	pipeline, err := domainimage.NewPipeline(domainimage.Options{
		Security: testSecurity(),
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	captioner, err := vision.NewCaptioner(config.CaptionerConfig{
		ModelConfig:      testModelConfig(server.URL),
		MaxCaptionTokens: 20,
	}, logger)
	if err != nil {
		t.Fatalf("failed to create captioner: %v", err)
	}
	detector, err := vision.NewDetector(config.DetectorConfig{
		ModelConfig:         testModelConfig(server.URL),
		ConfidenceThreshold: 0.9,
	}, logger)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	service, err := NewVisionService(pipeline, captioner, detector, logger)
	if err != nil {
		t.Fatalf("failed to create vision service: %v", err)
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	service.Register(engine.Group("/api"))
	return engine
}

func TestVisionService_Status(t *testing.T) {
	engine := newVisionRouter(t, "unused")

	req := httptest.NewRequest(http.MethodGet, "/api/vision", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Errorf("expected success envelope, got %+v", resp)
	}
}

func TestVisionService_CaptionByPath(t *testing.T) {
	engine := newVisionRouter(t, "a solid orange square")

	path := filepath.Join(t.TempDir(), "sample.png")
	if err := os.WriteFile(path, testPNG(t), 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"path": path})
	req := httptest.NewRequest(http.MethodPost, "/api/vision/caption", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	data := resp.Data.(map[string]any)
	if data["caption"] != "a solid orange square" {
		t.Errorf("unexpected caption: %v", data["caption"])
	}
}

func TestVisionService_CaptionUpload(t *testing.T) {
	engine := newVisionRouter(t, "an uploaded square")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "upload.png")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write(testPNG(t))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/vision/caption", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVisionService_DetectByPath(t *testing.T) {
	engine := newVisionRouter(t, `[
		{"box": [0, 0, 16, 16], "label": "square", "score": 0.99},
		{"box": [1, 1, 4, 4], "label": "dot", "score": 0.5}
	]`)

	path := filepath.Join(t.TempDir(), "sample.png")
	if err := os.WriteFile(path, testPNG(t), 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"path": path})
	req := httptest.NewRequest(http.MethodPost, "/api/vision/detect", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	data := resp.Data.(map[string]any)
	if data["report"] != "[0, 0, 16, 16] square 0.99" {
		t.Errorf("unexpected report: %v", data["report"])
	}
	detections := data["detections"].([]any)
	if len(detections) != 1 {
		t.Errorf("expected 1 detection above threshold, got %d", len(detections))
	}
}

func TestVisionService_BadImagePath(t *testing.T) {
	engine := newVisionRouter(t, "unused")

	body, _ := json.Marshal(map[string]string{"path": filepath.Join(t.TempDir(), "absent.png")})
	req := httptest.NewRequest(http.MethodPost, "/api/vision/caption", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing file, got %d", rec.Code)
	}
}

func TestVisionService_BackendDown(t *testing.T) {
	logger := testLogger(t)
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	pipeline, err := domainimage.NewPipeline(domainimage.Options{
		Security: testSecurity(),
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	captioner, err := vision.NewCaptioner(config.CaptionerConfig{
		ModelConfig: testModelConfig(baseURL),
	}, logger)
	if err != nil {
		t.Fatalf("failed to create captioner: %v", err)
	}
	detector, err := vision.NewDetector(config.DetectorConfig{
		ModelConfig:         testModelConfig(baseURL),
		ConfidenceThreshold: 0.9,
	}, logger)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}
	service, err := NewVisionService(pipeline, captioner, detector, logger)
	if err != nil {
		t.Fatalf("failed to create vision service: %v", err)
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	service.Register(engine.Group("/api"))

	path := filepath.Join(t.TempDir(), "sample.png")
	if err := os.WriteFile(path, testPNG(t), 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"path": path})
	req := httptest.NewRequest(http.MethodPost, "/api/vision/caption", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when model backend is down, got %d", rec.Code)
	}
}

func TestChatService(t *testing.T) {
	logger := testLogger(t)
	server := fakeCompletionServer(t, "The answer is 42.")

	runner, err := agent.NewRunner(context.Background(), config.AgentConfig{
		Model:         testModelConfig(server.URL),
		Prompt:        "You are a visual assistant.",
		MaxSteps:      5,
		HistoryWindow: 5,
	}, tool.NewRegistry(), session.NewMemoryStore(5), logger)
	if err != nil {
		t.Fatalf("failed to build runner: %v", err)
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewChatService(runner, logger).Register(engine.Group("/api"))

	body, _ := json.Marshal(map[string]string{"message": "What is the answer?"})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	data := resp.Data.(map[string]any)
	if data["answer"] != "The answer is 42." {
		t.Errorf("unexpected answer: %v", data["answer"])
	}
	if data["session_id"] == "" {
		t.Error("expected an assigned session id")
	}
}

func TestChatService_MissingMessage(t *testing.T) {
	logger := testLogger(t)
	server := fakeCompletionServer(t, "unused")

	runner, err := agent.NewRunner(context.Background(), config.AgentConfig{
		Model:    testModelConfig(server.URL),
		MaxSteps: 5,
	}, tool.NewRegistry(), session.NewMemoryStore(5), logger)
	if err != nil {
		t.Fatalf("failed to build runner: %v", err)
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewChatService(runner, logger).Register(engine.Group("/api"))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestInvocationService(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "http.db")
	handle, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := storage.Migrate(handle); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	repo := storage.NewInvocationRepositoryWithDB(handle)

	if err := repo.Create(&storage.ToolInvocation{
		SessionID: "s1",
		Tool:      "describe_image",
		Input:     "/tmp/a.png",
		Output:    "a cat",
		Succeeded: true,
	}); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewInvocationService(repo, testLogger(t)).Register(engine.Group("/api"))

	req := httptest.NewRequest(http.MethodGet, "/api/invocations?tool=describe_image", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	data := resp.Data.(map[string]any)
	if data["total"].(float64) != 1 {
		t.Errorf("expected total 1, got %v", data["total"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/invocations/999", nil)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing record, got %d", rec.Code)
	}
}

func TestHealthService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewHealthService("1.0.0-test").Register(engine.Group("/api"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	data := resp.Data.(map[string]any)
	if data["status"] != "ok" {
		t.Errorf("unexpected status: %v", data["status"])
	}
	if data["version"] != "1.0.0-test" {
		t.Errorf("unexpected version: %v", data["version"])
	}
}

func TestRouter_Build(t *testing.T) {
	cfg := config.Default()
	router, err := Build(Options{Config: cfg, Logger: testLogger(t), StaticRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if router.Secured != nil {
		t.Error("expected no secured group when auth middleware absent")
	}
	if router.Protected() != router.API {
		t.Error("expected protected group to fall back to API group")
	}
}
