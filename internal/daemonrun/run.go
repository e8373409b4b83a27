package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"eris/internal/config"
	"eris/internal/daemon"
	"eris/internal/deps"
	"eris/internal/display"
	"eris/internal/ipc"
	"eris/internal/library"
	"eris/internal/logging"
)

const pidFileName = "eris.pid"

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel   string
	ConfigPath string
	// Development adds source locations to every log line.
	Development bool
}

// Run starts the eris daemon and blocks until the context is cancelled or
// the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout"},
		JSONFile:    filepath.Join(cfg.Paths.LogDir, logging.LogFileName),
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := library.Open(cfg, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "open library store failed", "library_open_failed",
			logging.Error(err),
			logging.Alert("library_unavailable"),
			logging.String("library_path", cfg.Paths.LibraryPath),
			logging.String(logging.FieldErrorHint, "move the library file aside if the schema version changed"),
		)
		return err
	}

	board := display.NewBoard(cfg.Paths.StatusFile, logger)
	d, err := daemon.New(cfg, store, board, logger, daemon.Options{ConfigPath: opts.ConfigPath})
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.WarnWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check configuration and library database access"),
			logging.String(logging.FieldImpact, "reading progress is not tracked"),
		)
		return err
	}

	srv, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		logging.WarnWithContext(logger, "ipc server unavailable", "ipc_listen_failed",
			logging.String("socket", cfg.Paths.SocketPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.socket_path and its directory permissions"),
			logging.String(logging.FieldImpact, "CLI edits reach the tracker only after the index cache expires"),
		)
	} else {
		srv.Serve()
		defer srv.Close()
	}

	<-signalCtx.Done()
	logger.Info("eris daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// PIDPath is where a running daemon records its process id.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, pidFileName)
}

// ReadPID returns the pid recorded by a running daemon, or 0 when none is recorded.
func ReadPID(cfg *config.Config) int {
	data, err := os.ReadFile(PIDPath(cfg))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(string(trimNewline(data)))
	if err != nil {
		return 0
	}
	return pid
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	statuses := deps.Check(deps.Requirements(cfg))
	for _, status := range statuses {
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "dependency_snapshot"),
			logging.String("dependency", status.Name),
			logging.String("command", status.Command),
			logging.Bool("available", status.Available),
		}
		if status.Available {
			logger.Info("dependency snapshot", logging.Args(append(attrs, logging.String("path", status.Path))...)...)
			continue
		}
		attrs = append(attrs,
			logging.String("detail", status.Detail),
			logging.String(logging.FieldErrorHint, "set windows.command to a program that prints window titles"),
			logging.String(logging.FieldImpact, "no window titles are recognized"),
		)
		if status.Optional {
			logger.Info("dependency snapshot", logging.Args(attrs...)...)
			continue
		}
		logging.WarnWithContext(logger, "dependency missing", "dependency_missing", attrs[1:]...)
	}
	logger.Info("library snapshot",
		logging.String("library_path", cfg.Paths.LibraryPath),
		logging.Bool("recognition_enabled", cfg.Recognition.Enabled),
		logging.Int("delay_seconds", cfg.Recognition.DelaySeconds),
	)
}
