package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"eris/internal/daemon"
	"eris/internal/logging"
)

const (
	serviceName    = "Eris"
	requestTimeout = 10 * time.Second
)

// Server exposes daemon operations via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer listens on path, replacing any stale socket file left there.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(serviceName, &service{daemon: d, logger: logger, ctx: serverCtx}); err != nil {
		cancel()
		_ = listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
		conns:     make(map[net.Conn]struct{}),
	}, nil
}

// Serve accepts connections in the background until Close.
func (s *Server) Serve() {
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"),
					logging.String(logging.FieldImpact, "library edits fall back to writing the database directly"),
				)
				continue
			}
			if !s.track(conn) {
				_ = conn.Close()
				return
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer s.untrack(c)
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops accepting, drops open connections and removes the socket.
func (s *Server) Close() {
	s.cancel()
	_ = s.listener.Close()
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
	s.mu.Unlock()
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"),
			logging.String(logging.FieldImpact, "the next daemon start replaces the stale socket"),
		)
	}
}

// track registers conn unless the server is already closed.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) call() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, requestTimeout)
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	ctx, cancel := s.call()
	defer cancel()
	st := s.daemon.Status(ctx)
	*resp = StatusResponse{
		Running:     st.Running,
		Enabled:     st.Enabled,
		Monitoring:  st.Monitoring,
		Phase:       st.Phase,
		Candidate:   st.Candidate,
		LibraryPath: st.LibraryPath,
		LockPath:    st.LockFilePath,
		PID:         os.Getpid(),
	}
	return nil
}

func (s *service) SetEnabled(req SetEnabledRequest, resp *SetEnabledResponse) error {
	ctx, cancel := s.call()
	defer cancel()
	if err := s.daemon.SetEnabled(ctx, req.Enabled); err != nil {
		return err
	}
	resp.Enabled = s.daemon.Config().Recognition.Enabled
	s.logger.Info("recognition toggled",
		logging.String(logging.FieldEventType, "recognition_toggled"),
		logging.Bool("enabled", resp.Enabled),
	)
	return nil
}

func (s *service) AddNovel(req AddNovelRequest, resp *NovelResponse) error {
	ctx, cancel := s.call()
	defer cancel()
	added, err := s.daemon.AddNovel(ctx, req.Novel)
	if err != nil {
		return err
	}
	resp.Novel = *added
	return nil
}

func (s *service) AddKeyword(req AddKeywordRequest, resp *NovelResponse) error {
	ctx, cancel := s.call()
	defer cancel()
	updated, err := s.daemon.AddKeyword(ctx, req.ID, req.Keyword)
	if err != nil {
		return err
	}
	resp.Novel = *updated
	return nil
}

func (s *service) MarkStatus(req MarkStatusRequest, resp *NovelResponse) error {
	ctx, cancel := s.call()
	defer cancel()
	updated, err := s.daemon.MarkStatus(ctx, req.ID, req.Status)
	if err != nil {
		return err
	}
	resp.Novel = *updated
	return nil
}

func (s *service) Move(req MoveRequest, resp *NovelResponse) error {
	ctx, cancel := s.call()
	defer cancel()
	updated, err := s.daemon.Move(ctx, req.ID, req.List)
	if err != nil {
		return err
	}
	resp.Novel = *updated
	return nil
}

func (s *service) ChapterRead(req ChapterReadRequest, resp *ChapterReadResponse) error {
	ctx, cancel := s.call()
	defer cancel()
	commit, err := s.daemon.ChapterRead(ctx, req.ID, req.Reading)
	if err != nil {
		return err
	}
	*resp = ChapterReadResponse{Novel: commit.Novel, Changes: commit.Changes}
	return nil
}

func (s *service) Remove(req RemoveRequest, resp *RemoveResponse) error {
	ctx, cancel := s.call()
	defer cancel()
	if err := s.daemon.Remove(ctx, req.ID); err != nil {
		return err
	}
	resp.Removed = true
	return nil
}
