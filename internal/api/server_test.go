package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/wallet-profiles/internal/errors"
	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/types"
)

const testAddress = "0x52908400098527886e0f7030069857d2e4169ee7"

// mockProfileService is a scriptable ProfileServiceInterface
type mockProfileService struct {
	getByAddressFunc func(ctx context.Context, address string) (*models.WalletProfile, error)
	getByIDFunc      func(ctx context.Context, id int64) (*models.WalletProfile, error)
	createFunc       func(ctx context.Context, input *models.ProfileInput) (*models.WalletProfile, error)
	updateFunc       func(ctx context.Context, id int64, input *models.ProfileInput) (*models.WalletProfile, error)
	deleteFunc       func(ctx context.Context, id int64) error
	eventsFunc       func(ctx context.Context, id int64, limit int) ([]*models.ProfileEvent, error)
}

func testProfile(id int64) *models.WalletProfile {
	handle := "alice"
	return &models.WalletProfile{
		ID:              id,
		Address:         testAddress,
		TwitterHandle:   &handle,
		TargetPortfolio: types.RiskProfile{"Low": 40, "High": 60},
		CreatedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockProfileService) GetByAddress(ctx context.Context, address string) (*models.WalletProfile, error) {
	if m.getByAddressFunc != nil {
		return m.getByAddressFunc(ctx, address)
	}
	return testProfile(1), nil
}

func (m *mockProfileService) GetByID(ctx context.Context, id int64) (*models.WalletProfile, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return testProfile(id), nil
}

func (m *mockProfileService) Create(ctx context.Context, input *models.ProfileInput) (*models.WalletProfile, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, input)
	}
	return testProfile(1), nil
}

func (m *mockProfileService) Update(ctx context.Context, id int64, input *models.ProfileInput) (*models.WalletProfile, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, input)
	}
	return testProfile(id), nil
}

func (m *mockProfileService) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockProfileService) Events(ctx context.Context, id int64, limit int) ([]*models.ProfileEvent, error) {
	if m.eventsFunc != nil {
		return m.eventsFunc(ctx, id, limit)
	}
	return []*models.ProfileEvent{}, nil
}

func (m *mockProfileService) Categories() []types.RiskCategory {
	return []types.RiskCategory{
		{Key: "Low", Label: "Low risk", Default: 50},
		{Key: "High", Label: "High risk", Default: 50},
	}
}

func testServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:           "localhost",
		Port:           "8080",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestsPerSec: 1000,
		Burst:          1000,
	}
}

// createTestServer creates a server backed by svc
func createTestServer(svc *mockProfileService) *Server {
	if svc == nil {
		svc = &mockProfileService{}
	}
	return NewServer(testServerConfig(), svc, nil, logging.Discard())
}

// TestHealthEndpoint tests the health check endpoint
func TestHealthEndpoint(t *testing.T) {
	server := createTestServer(nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got '%v'", response["status"])
	}
}

func TestHealthEndpoint_Degraded(t *testing.T) {
	server := NewServer(testServerConfig(), &mockProfileService{}, map[string]HealthCheck{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	}, logging.Discard())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}

	var response struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "degraded" {
		t.Errorf("Expected status 'degraded', got '%s'", response.Status)
	}
	if response.Checks["postgres"] != "ok" || response.Checks["redis"] != "unavailable" {
		t.Errorf("Unexpected checks: %v", response.Checks)
	}
}

// TestCORSHeaders tests that CORS headers are properly set
func TestCORSHeaders(t *testing.T) {
	server := createTestServer(nil)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Expected CORS headers to be set")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID to be set")
	}
}

func TestCORSPreflight(t *testing.T) {
	server := createTestServer(nil)

	req := httptest.NewRequest("OPTIONS", "/api/wallet-profiles/1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")

	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("Expected Access-Control-Allow-Methods to be set")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	server := createTestServer(&mockProfileService{
		getByIDFunc: func(ctx context.Context, id int64) (*models.WalletProfile, error) {
			panic("boom")
		},
	})

	req := httptest.NewRequest("GET", "/api/wallet-profiles/1", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestRateLimit_PerClient(t *testing.T) {
	cfg := testServerConfig()
	cfg.RequestsPerSec = 1
	cfg.Burst = 2
	server := NewServer(cfg, &mockProfileService{}, nil, logging.Discard())

	get := func(remote string) int {
		req := httptest.NewRequest("GET", "/api/risk-categories", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)
		return w.Code
	}

	if code := get("10.0.0.1:1000"); code != http.StatusOK {
		t.Fatalf("first request: got %d", code)
	}
	if code := get("10.0.0.1:1001"); code != http.StatusOK {
		t.Fatalf("second request: got %d", code)
	}
	if code := get("10.0.0.1:1002"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after burst, got %d", code)
	}
	if code := get("10.0.0.2:1000"); code != http.StatusOK {
		t.Errorf("Expected another client to be unaffected, got %d", code)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{"remote addr", "192.168.1.5:5555", "", "192.168.1.5"},
		{"forwarded first hop", "10.0.0.1:80", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"no port", "pipe", "", "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientKey(req); got != tt.want {
				t.Errorf("clientKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !rl.Allow("client") {
			t.Fatalf("request %d rejected with limiting disabled", i)
		}
	}
}

func TestRespondServiceError_HidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	respondServiceError(w, logging.Discard(), apperrors.NewDatabaseError("get profile", errors.New("password authentication failed")))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Error != "An internal error occurred" {
		t.Errorf("Unexpected error message %q", body.Error)
	}
}
