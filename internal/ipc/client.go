package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"time"

	"eris/internal/daemon"
	"eris/internal/library"
	"eris/internal/novel"
)

const dialTimeout = 2 * time.Second

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the daemon socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call(ctx, "Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetEnabled turns recognition on or off in the running daemon.
func (c *Client) SetEnabled(ctx context.Context, enabled bool) (bool, error) {
	var resp SetEnabledResponse
	if err := c.call(ctx, "SetEnabled", SetEnabledRequest{Enabled: enabled}, &resp); err != nil {
		return false, err
	}
	return resp.Enabled, nil
}

// AddNovel stores n through the daemon.
func (c *Client) AddNovel(ctx context.Context, n novel.Novel) (*novel.Novel, error) {
	return c.novelCall(ctx, "AddNovel", AddNovelRequest{Novel: n})
}

// AddKeyword attaches a recognition keyword through the daemon.
func (c *Client) AddKeyword(ctx context.Context, id, keyword string) (*novel.Novel, error) {
	return c.novelCall(ctx, "AddKeyword", AddKeywordRequest{ID: id, Keyword: keyword})
}

// MarkStatus sets a publication status through the daemon.
func (c *Client) MarkStatus(ctx context.Context, id string, status novel.Status) (*novel.Novel, error) {
	return c.novelCall(ctx, "MarkStatus", MarkStatusRequest{ID: id, Status: status})
}

// Move changes a reading list through the daemon.
func (c *Client) Move(ctx context.Context, id string, list novel.ListStatus) (*novel.Novel, error) {
	return c.novelCall(ctx, "Move", MoveRequest{ID: id, List: list})
}

// ChapterRead replaces recorded progress through the daemon runtime.
func (c *Client) ChapterRead(ctx context.Context, id string, reading novel.Reading) (library.Commit, error) {
	var resp ChapterReadResponse
	if err := c.call(ctx, "ChapterRead", ChapterReadRequest{ID: id, Reading: reading}, &resp); err != nil {
		return library.Commit{}, err
	}
	return library.Commit{Novel: resp.Novel, Changes: resp.Changes}, nil
}

// Remove deletes a novel through the daemon.
func (c *Client) Remove(ctx context.Context, id string) error {
	var resp RemoveResponse
	return c.call(ctx, "Remove", RemoveRequest{ID: id}, &resp)
}

func (c *Client) novelCall(ctx context.Context, method string, req any) (*novel.Novel, error) {
	var resp NovelResponse
	if err := c.call(ctx, method, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Novel, nil
}

func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	pending := c.client.Go(serviceName+"."+method, req, resp, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case done := <-pending.Done:
		return remote(done.Error)
	}
}

// remoteErrors are the sentinels restored from server error text so callers
// can keep using errors.Is across the socket.
var remoteErrors = []error{
	library.ErrNotFound,
	library.ErrDuplicateTitle,
	daemon.ErrNotRunning,
}

type remoteError struct {
	msg      string
	sentinel error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

func remote(err error) error {
	var serverErr rpc.ServerError
	if !errors.As(err, &serverErr) {
		if err != nil {
			return fmt.Errorf("daemon call: %w", err)
		}
		return nil
	}
	msg := string(serverErr)
	for _, sentinel := range remoteErrors {
		if strings.Contains(msg, sentinel.Error()) {
			return &remoteError{msg: msg, sentinel: sentinel}
		}
	}
	return errors.New(msg)
}
