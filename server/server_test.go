package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/rxu-api/config"
)

// mockHandler answers every route with its own name
type mockHandler struct{}

func (mockHandler) write(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"route":"` + name + `"}`))
}

func (h mockHandler) Root(w http.ResponseWriter, r *http.Request) {
	h.write(w, "root")
}

func (h mockHandler) SearchDrugs(w http.ResponseWriter, r *http.Request) {
	h.write(w, "search")
}

func (h mockHandler) DrugSentiment(w http.ResponseWriter, r *http.Request) {
	h.write(w, "sentiment")
}

func (h mockHandler) AvailableSentiment(w http.ResponseWriter, r *http.Request) {
	h.write(w, "available")
}

func (h mockHandler) RecommendDrugs(w http.ResponseWriter, r *http.Request) {
	h.write(w, "recommend")
}

func (h mockHandler) SideEffects(w http.ResponseWriter, r *http.Request) {
	h.write(w, "side-effects")
}

func (h mockHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.write(w, "health")
}

func (h mockHandler) Panic(w http.ResponseWriter, r *http.Request) {
	panic("boom")
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Address:        "127.0.0.1",
		Env:            config.EnvTest,
		MaxRequestBody: 1048576,
		MaxHeaderSize:  1048576,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
}

func TestRoutes(t *testing.T) {
	s := NewServer(testConfig(), mockHandler{})

	tests := []struct {
		path  string
		route string
	}{
		{"/", "root"},
		{"/health", "health"},
		{"/api/drugs/search?q=aspirin", "search"},
		{"/api/drugs/sentiment?drug_name=aspirin", "sentiment"},
		{"/api/drugs/sentiment/available", "available"},
		{"/api/drugs/recommend?drug_name=aspirin", "recommend"},
		{"/api/drugs/side-effects?drug_name=aspirin", "side-effects"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := httptest.NewRecorder()

			s.Router().ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), `"route":"`+tt.route+`"`) {
				t.Errorf("Expected route %s, got %s", tt.route, rr.Body.String())
			}
			if rr.Header().Get("X-RateLimit-Limit") != "1000" {
				t.Errorf("Expected rate limit headers, got %v", rr.Header())
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	s := NewServer(testConfig(), mockHandler{})

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/database", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(testConfig(), mockHandler{})

	// One request so the route counter has a sample
	s.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/drugs/search?q=aspirin", nil))

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `path="/api/drugs/search"`) {
		t.Error("Expected the search route pattern in the request metrics")
	}
}

func TestCORS(t *testing.T) {
	s := NewServer(testConfig(), mockHandler{})

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/drugs/search?q=aspirin", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			rr := httptest.NewRecorder()

			s.Router().ServeHTTP(rr, req)

			got := rr.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("Expected origin %s to be allowed, got %q", tt.origin, got)
			}
			if !tt.allowed && got != "" {
				t.Errorf("Expected origin %s to be refused, got %q", tt.origin, got)
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	s := NewServer(testConfig(), mockHandler{})
	s.router.Get("/panic", mockHandler{}.Panic)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 after a panic, got %d", rr.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	cfg := testConfig()

	// Reserve a free port
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()
	cfg.Port = port

	s := NewServer(cfg, mockHandler{})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	url := "http://127.0.0.1:" + port + "/"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("Server did not start: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start returned %v after a graceful shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("Start did not return after shutdown")
	}
}
