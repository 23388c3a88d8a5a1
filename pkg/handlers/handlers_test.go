package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/ml-agent/pkg/handlers"
	"github.com/JaimeStill/ml-agent/pkg/logging"
)

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	handlers.RespondJSON(rec, http.StatusCreated, map[string]string{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["id"] != "abc" {
		t.Errorf("id = %q, want abc", body["id"])
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()

	handlers.RespondError(rec, logging.Discard(), http.StatusNotFound, errors.New("model not found"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "model not found" {
		t.Errorf("error = %q, want model not found", body["error"])
	}
}

func TestRespondMessage(t *testing.T) {
	rec := httptest.NewRecorder()

	handlers.RespondMessage(rec, http.StatusOK, "model unloaded")

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["message"] != "model unloaded" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestRespondBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	payload := []byte{0x89, 0x50, 0x4e, 0x47}

	handlers.RespondBytes(rec, http.StatusOK, "image/png", payload)

	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if rec.Body.String() != string(payload) {
		t.Error("body does not match payload")
	}
}
