package ipc_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"eris/internal/daemon"
	"eris/internal/display"
	"eris/internal/ipc"
	"eris/internal/library"
	"eris/internal/logging"
	"eris/internal/novel"
	"eris/internal/testsupport"
	"eris/internal/tracker"
	"eris/internal/windows"
)

func startServer(t *testing.T) (*ipc.Client, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	lister := windows.Static{"Chapter 12 - Mother of Learning - Royal Road - Mozilla Firefox"}
	d, err := daemon.New(cfg, store, display.NewBoard("", logging.NewNop()), logging.NewNop(), daemon.Options{Lister: lister})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, cfg.Paths.SocketPath
}

func TestIPCLibraryEdits(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	added, err := client.AddNovel(ctx, novel.Novel{Title: "Mother of Learning"})
	if err != nil {
		t.Fatalf("AddNovel: %v", err)
	}
	if added.ID == "" || added.List != novel.ListPlanToRead {
		t.Fatalf("unexpected added novel %+v", added)
	}
	if _, err := client.AddNovel(ctx, novel.Novel{Title: "mother of learning"}); !errors.Is(err, library.ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle across the socket, got %v", err)
	}

	if _, err := client.ChapterRead(ctx, added.ID, novel.Reading{Chapter: 20}); err != nil {
		t.Fatalf("ChapterRead: %v", err)
	}
	commit, err := client.ChapterRead(ctx, added.ID, novel.Reading{Chapter: 7})
	if err != nil {
		t.Fatalf("ChapterRead: %v", err)
	}
	if commit.Novel.Read.Chapters != 7 || commit.Novel.List != novel.ListReading {
		t.Fatalf("expected exact progress on the reading list, got %+v", commit.Novel)
	}

	withKeyword, err := client.AddKeyword(ctx, added.ID, "MoL")
	if err != nil {
		t.Fatalf("AddKeyword: %v", err)
	}
	if len(withKeyword.Keywords) != 1 || withKeyword.Keywords[0] != "MoL" {
		t.Fatalf("unexpected keywords %v", withKeyword.Keywords)
	}

	marked, err := client.MarkStatus(ctx, added.ID, novel.StatusCompleted)
	if err != nil || marked.Status != novel.StatusCompleted {
		t.Fatalf("MarkStatus: %+v, %v", marked, err)
	}
	moved, err := client.Move(ctx, added.ID, novel.ListOnHold)
	if err != nil || moved.List != novel.ListOnHold {
		t.Fatalf("Move: %+v, %v", moved, err)
	}

	if err := client.Remove(ctx, added.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := client.ChapterRead(ctx, added.ID, novel.Reading{Chapter: 1}); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across the socket, got %v", err)
	}
}

func TestIPCStatusAndToggle(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || !status.Enabled || !status.Monitoring || status.PID != os.Getpid() {
		t.Fatalf("unexpected status %+v", status)
	}

	enabled, err := client.SetEnabled(ctx, false)
	if err != nil || enabled {
		t.Fatalf("SetEnabled(false) = %v, %v", enabled, err)
	}
	status, err = client.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Enabled || status.Monitoring || status.Phase != tracker.PhaseIdle {
		t.Fatalf("expected idle disabled daemon, got %+v", status)
	}

	if enabled, err := client.SetEnabled(ctx, true); err != nil || !enabled {
		t.Fatalf("SetEnabled(true) = %v, %v", enabled, err)
	}
}

func TestDialWithoutServer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := ipc.Dial(cfg.Paths.SocketPath); err == nil {
		t.Fatal("expected dial to fail without a listening daemon")
	}
}

func TestCloseDropsConnectionsAndRemovesSocket(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, display.NewBoard("", logging.NewNop()), logging.NewNop(), daemon.Options{Lister: windows.Static{}})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv, err := ipc.NewServer(context.Background(), cfg.Paths.SocketPath, d, nil)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	idle, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	defer idle.Close()

	closed := make(chan struct{})
	go func() {
		srv.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on an idle connection")
	}
	if _, err := idle.Status(context.Background()); err == nil {
		t.Fatal("expected calls on a dropped connection to fail")
	}
	if _, err := os.Stat(cfg.Paths.SocketPath); !os.IsNotExist(err) {
		t.Fatalf("expected socket removed, stat err %v", err)
	}

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err == nil {
		_ = client.Close()
		t.Fatal("expected dial to fail after close")
	}
}
