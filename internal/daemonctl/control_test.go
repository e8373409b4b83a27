package daemonctl

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"eris/internal/config"
	"eris/internal/daemonrun"
	"eris/internal/testsupport"
)

func holdLock(t *testing.T, cfg *config.Config) *flock.Flock {
	t.Helper()
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	lock := flock.New(cfg.Paths.LockPath)
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("acquire lock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })
	return lock
}

func writePID(t *testing.T, cfg *config.Config, pid int) {
	t.Helper()
	if err := os.WriteFile(daemonrun.PIDPath(cfg), []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
}

func TestStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	state, err := Status(cfg)
	if err != nil || state.Running {
		t.Fatalf("expected idle state, got %+v err=%v", state, err)
	}

	writePID(t, cfg, 4242)
	if state, _ := Status(cfg); state.Running || state.PID != 0 {
		t.Fatalf("a stale pid file without the lock is not running: %+v", state)
	}

	holdLock(t, cfg)
	state, err = Status(cfg)
	if err != nil || !state.Running || state.PID != 4242 {
		t.Fatalf("expected running pid 4242, got %+v err=%v", state, err)
	}
}

func TestStopNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if _, err := Stop(cfg, time.Second); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestStopRefusesCurrentProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	holdLock(t, cfg)
	writePID(t, cfg, os.Getpid())
	if _, err := Stop(cfg, time.Second); err == nil {
		t.Fatal("expected refusal to signal the test process")
	}
}

func TestStopTerminatesProcess(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	cfg := testsupport.NewConfig(t)
	holdLock(t, cfg)

	child := exec.Command("sleep", "30")
	if err := child.Start(); err != nil {
		t.Fatalf("start child: %v", err)
	}
	reaped := make(chan struct{})
	go func() {
		_ = child.Wait()
		close(reaped)
	}()
	writePID(t, cfg, child.Process.Pid)

	result, err := Stop(cfg, 5*time.Second)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if result.PID != child.Process.Pid || result.ForcedKill {
		t.Fatalf("unexpected stop result %+v", result)
	}
	select {
	case <-reaped:
	case <-time.After(5 * time.Second):
		t.Fatal("child still running after Stop")
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := Launch("  ", ""); err == nil {
		t.Fatal("expected error for empty executable")
	}
}
