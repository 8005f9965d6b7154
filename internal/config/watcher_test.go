package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherFiresOnWrite(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var fired atomic.Int32
	w, err := NewWatcher(path, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("version: 2\n"), 0600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("watcher did not fire within deadline")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	w, err := NewWatcher(path, func() {})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("first Stop failed: %v", err)
	}
	// Second stop must not panic on the closed channel.
	_ = w.Stop()
}
