// Package daemonctl starts and stops a background eris daemon using the pid
// file and single-instance lock it leaves in the data directory.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"eris/internal/config"
	"eris/internal/daemonrun"
)

const pollInterval = 100 * time.Millisecond

// ErrNotRunning indicates no daemon holds the instance lock.
var ErrNotRunning = errors.New("daemon not running")

// State is a point-in-time view of the background daemon.
type State struct {
	Running bool
	PID     int
}

// Status reports whether a daemon holds the lock for cfg and its recorded pid.
func Status(cfg *config.Config) (State, error) {
	held, err := lockHeld(cfg.Paths.LockPath)
	if err != nil {
		return State{}, err
	}
	if !held {
		return State{}, nil
	}
	return State{Running: true, PID: daemonrun.ReadPID(cfg)}, nil
}

func lockHeld(path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe daemon lock: %w", err)
	}
	if ok {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}

// StartState describes what EnsureStarted did.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// Launch starts "<executable> run" detached from the calling terminal.
func Launch(executable, configPath string) error {
	if strings.TrimSpace(executable) == "" {
		return errors.New("resolve executable: executable path is empty")
	}
	args := []string{"run"}
	if path := strings.TrimSpace(configPath); path != "" {
		args = append(args, "--config", path)
	}
	proc := exec.Command(executable, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// EnsureStarted launches a daemon unless one is running and waits until it
// holds the instance lock.
func EnsureStarted(cfg *config.Config, executable, configPath string, timeout time.Duration) (StartResult, error) {
	state, err := Status(cfg)
	if err != nil {
		return StartResult{}, err
	}
	if state.Running {
		return StartResult{State: StartStateAlreadyRunning, PID: state.PID}, nil
	}
	if err := Launch(executable, configPath); err != nil {
		return StartResult{}, err
	}

	deadline := time.Now().Add(timeout)
	for {
		state, err := Status(cfg)
		if err != nil {
			return StartResult{}, err
		}
		if state.Running {
			return StartResult{State: StartStateStarted, PID: state.PID}, nil
		}
		if time.Now().After(deadline) {
			return StartResult{}, fmt.Errorf("daemon did not start within %s; see eris logs", timeout)
		}
		time.Sleep(pollInterval)
	}
}

// StopResult captures daemon stop outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// Stop sends SIGTERM and escalates to SIGKILL once gracePeriod passes.
func Stop(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	state, err := Status(cfg)
	if err != nil {
		return StopResult{}, err
	}
	if !state.Running {
		return StopResult{}, ErrNotRunning
	}
	if state.PID <= 0 {
		return StopResult{}, fmt.Errorf("daemon holds %s but no pid is recorded", cfg.Paths.LockPath)
	}
	if state.PID == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", state.PID)
	}

	proc, err := os.FindProcess(state.PID)
	if err != nil {
		return StopResult{}, fmt.Errorf("locate daemon process %d: %w", state.PID, err)
	}
	result := StopResult{PID: state.PID}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return result, cleanup(cfg)
		}
		return result, fmt.Errorf("signal daemon process %d: %w", state.PID, err)
	}
	if waitForExit(cfg, proc, gracePeriod) {
		return result, nil
	}

	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return result, fmt.Errorf("kill daemon process %d: %w", state.PID, err)
	}
	result.ForcedKill = true
	return result, cleanup(cfg)
}

// Restart stops a running daemon, if any, and starts a new one.
func Restart(cfg *config.Config, executable, configPath string, gracePeriod, startTimeout time.Duration) (StartResult, error) {
	if _, err := Stop(cfg, gracePeriod); err != nil && !errors.Is(err, ErrNotRunning) {
		return StartResult{}, err
	}
	return EnsureStarted(cfg, executable, configPath, startTimeout)
}

// waitForExit reports whether the daemon released its lock or exited.
func waitForExit(cfg *config.Config, proc *os.Process, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !alive(proc) {
			return true
		}
		if held, err := lockHeld(cfg.Paths.LockPath); err == nil && !held {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

func alive(proc *os.Process) bool {
	return proc.Signal(syscall.Signal(0)) == nil
}

// cleanup removes the pid file a killed daemon could not remove itself.
func cleanup(cfg *config.Config) error {
	if err := os.Remove(daemonrun.PIDPath(cfg)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}
