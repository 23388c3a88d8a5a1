package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/ml-agent/pkg/middleware"
)

func TestCORSConfig_Finalize_Defaults(t *testing.T) {
	cfg := &middleware.CORSConfig{}

	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if len(cfg.AllowedMethods) != 5 {
		t.Errorf("AllowedMethods = %v, want 5 defaults", cfg.AllowedMethods)
	}
	if len(cfg.AllowedHeaders) != 2 {
		t.Errorf("AllowedHeaders = %v, want 2 defaults", cfg.AllowedHeaders)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", cfg.MaxAge)
	}
}

func TestCORSConfig_Finalize_EnvOverrides(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("TEST_CORS_MAX_AGE", "7200")

	cfg := &middleware.CORSConfig{}
	env := &middleware.CORSEnv{
		Enabled: "TEST_CORS_ENABLED",
		Origins: "TEST_CORS_ORIGINS",
		MaxAge:  "TEST_CORS_MAX_AGE",
	}

	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if !cfg.Enabled {
		t.Error("Enabled = false, want true from env")
	}
	if len(cfg.Origins) != 2 || cfg.Origins[0] != "http://a.test" {
		t.Errorf("Origins = %v", cfg.Origins)
	}
	if cfg.MaxAge != 7200 {
		t.Errorf("MaxAge = %d, want 7200", cfg.MaxAge)
	}
}

func TestCORSConfig_Merge(t *testing.T) {
	base := &middleware.CORSConfig{}
	base.Finalize(nil)

	overlay := &middleware.CORSConfig{
		Enabled: true,
		Origins: []string{"http://app.test"},
		MaxAge:  60,
	}
	base.Merge(overlay)

	if !base.Enabled {
		t.Error("Enabled = false after merge")
	}
	if len(base.Origins) != 1 || base.Origins[0] != "http://app.test" {
		t.Errorf("Origins = %v", base.Origins)
	}
	if base.MaxAge != 60 {
		t.Errorf("MaxAge = %d, want 60", base.MaxAge)
	}
	if len(base.AllowedMethods) != 5 {
		t.Errorf("AllowedMethods = %v, want defaults preserved", base.AllowedMethods)
	}
}

func corsHandler(cfg *middleware.CORSConfig) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return middleware.CORS(cfg)(next)
}

func TestCORS_Disabled(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: false}
	cfg.Finalize(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()

	corsHandler(cfg).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty when disabled", got)
	}
}

func TestCORS_AllowedOrigin(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"http://app.test"}}
	cfg.Finalize(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()

	corsHandler(cfg).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Errorf("Allow-Origin = %q, want http://app.test", got)
	}
}

func TestCORS_WildcardOrigin(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"*"}}
	cfg.Finalize(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://anything.test")
	rec := httptest.NewRecorder()

	corsHandler(cfg).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://anything.test" {
		t.Errorf("Allow-Origin = %q, want echoed origin", got)
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"http://app.test"}}
	cfg.Finalize(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec := httptest.NewRecorder()

	corsHandler(cfg).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty for disallowed origin", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"*"}, AllowCredentials: true}
	cfg.Finalize(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/models", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()

	corsHandler(cfg).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true", got)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("Allow-Methods header missing from preflight response")
	}
}
