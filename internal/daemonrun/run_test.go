package daemonrun

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"eris/internal/display"
	"eris/internal/ipc"
	"eris/internal/library"
	"eris/internal/logging"
	"eris/internal/testsupport"
)

func TestRunPublishesStatusAndShutsDown(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWindowTitles("Terminal"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, Options{LogLevel: "error"}) }()

	deadline := time.Now().Add(3 * time.Second)
	for ReadPID(cfg) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ReadPID(cfg) == 0 {
		cancel()
		t.Fatal("expected pid file while running")
	}
	var client *ipc.Client
	for client == nil && time.Now().Before(deadline) {
		c, err := ipc.Dial(cfg.Paths.SocketPath)
		if err == nil {
			client = c
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if client == nil {
		cancel()
		t.Fatal("expected the daemon to accept ipc connections")
	}
	status, err := client.Status(ctx)
	_ = client.Close()
	if err != nil || !status.Running {
		cancel()
		t.Fatalf("ipc status: %+v, %v", status, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if ReadPID(cfg) != 0 {
		t.Fatal("pid file should be removed on shutdown")
	}
	if _, err := display.ReadStatus(cfg.Paths.StatusFile); err != nil {
		t.Fatalf("expected status file after shutdown: %v", err)
	}
}

func TestTrimNewline(t *testing.T) {
	if got := string(trimNewline([]byte("42\r\n"))); got != "42" {
		t.Fatalf("got %q", got)
	}
}

func TestRunLogsUnusableLibrary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	_ = store.Close()
	db, err := sql.Open("sqlite", cfg.Paths.LibraryPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	err = Run(context.Background(), cfg, Options{LogLevel: "error"})
	if !errors.Is(err, library.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	log := string(data)
	for _, want := range []string{`"event_type":"library_open_failed"`, `"alert":"library_unavailable"`, `"level":"error"`} {
		if !strings.Contains(log, want) {
			t.Fatalf("log missing %s:\n%s", want, log)
		}
	}
	if ReadPID(cfg) != 0 {
		t.Fatal("pid file should be removed after a failed start")
	}
}
