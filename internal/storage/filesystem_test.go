package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/lifecycle"
	"github.com/JaimeStill/ml-agent/internal/storage"
	"github.com/JaimeStill/ml-agent/pkg/logging"
)

func newStorage(t *testing.T) storage.System {
	t.Helper()

	cfg := &config.StorageConfig{BasePath: t.TempDir()}
	sys, err := storage.New(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return sys
}

func TestNew_EmptyBasePath(t *testing.T) {
	cfg := &config.StorageConfig{BasePath: ""}

	if _, err := storage.New(cfg, logging.Discard()); err == nil {
		t.Fatal("New() succeeded with empty base_path, want error")
	}
}

func TestStart_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")
	cfg := &config.StorageConfig{BasePath: dir}

	sys, err := storage.New(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	lc.WaitForStartup()

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("base directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("base path is not a directory")
	}
}

func TestStoreAndRetrieve(t *testing.T) {
	sys := newStorage(t)
	ctx := context.Background()

	data := []byte("artifact payload")
	if err := sys.Store(ctx, "images/run-1.png", data); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	got, err := sys.Retrieve(ctx, "images/run-1.png")
	if err != nil {
		t.Fatalf("Retrieve() failed: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Retrieve() = %q, want %q", got, data)
	}
}

func TestStore_Overwrites(t *testing.T) {
	sys := newStorage(t)
	ctx := context.Background()

	sys.Store(ctx, "key", []byte("first"))
	sys.Store(ctx, "key", []byte("second"))

	got, err := sys.Retrieve(ctx, "key")
	if err != nil {
		t.Fatalf("Retrieve() failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Retrieve() = %q, want second", got)
	}
}

func TestRetrieve_NotFound(t *testing.T) {
	sys := newStorage(t)

	_, err := sys.Retrieve(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Retrieve() error = %v, want ErrNotFound", err)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	sys := newStorage(t)
	ctx := context.Background()

	sys.Store(ctx, "images/gone.png", []byte("x"))

	if err := sys.Delete(ctx, "images/gone.png"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := sys.Delete(ctx, "images/gone.png"); err != nil {
		t.Errorf("repeated Delete() = %v, want nil", err)
	}

	exists, err := sys.Validate(ctx, "images/gone.png")
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if exists {
		t.Error("key still exists after Delete()")
	}
}

func TestValidate(t *testing.T) {
	sys := newStorage(t)
	ctx := context.Background()

	exists, err := sys.Validate(ctx, "absent")
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if exists {
		t.Error("Validate(absent) = true, want false")
	}

	sys.Store(ctx, "present", []byte("x"))

	exists, err = sys.Validate(ctx, "present")
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if !exists {
		t.Error("Validate(present) = false, want true")
	}
}

func TestPath(t *testing.T) {
	sys := newStorage(t)

	path, err := sys.Path(context.Background(), "images/a.png")
	if err != nil {
		t.Fatalf("Path() failed: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("Path() = %s, want absolute", path)
	}
	if !strings.HasSuffix(path, filepath.Join("images", "a.png")) {
		t.Errorf("Path() = %s, want key suffix", path)
	}
}

func TestInvalidKeys(t *testing.T) {
	sys := newStorage(t)
	ctx := context.Background()

	keys := []string{"", "../escape", "a/../../b", "/absolute/path"}
	for _, key := range keys {
		if err := sys.Store(ctx, key, []byte("x")); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("Store(%q) error = %v, want ErrInvalidKey", key, err)
		}
		if _, err := sys.Retrieve(ctx, key); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("Retrieve(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}
