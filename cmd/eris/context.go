package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"eris/internal/config"
	"eris/internal/daemonctl"
	"eris/internal/ipc"
	"eris/internal/library"
	"eris/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// watchPath returns the config file to watch for reloads, if one was loaded.
func (c *commandContext) watchPath() string {
	if !c.configExists {
		return ""
	}
	return c.configPath
}

// withStore opens the library for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *library.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg, logging.NewNop())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// withEditor opens the library for lookups and hands fn an editor that sends
// writes to the running daemon, or to the store when no daemon answers.
func (c *commandContext) withEditor(fn func(*library.Store, libraryEditor) error) error {
	return c.withStore(func(cfg *config.Config, store *library.Store) error {
		client, err := ipc.Dial(cfg.Paths.SocketPath)
		if err != nil {
			return fn(store, newStoreEditor(cfg, store))
		}
		defer client.Close()
		return fn(store, client)
	})
}

// withDaemon calls fn with a client for the running daemon.
func (c *commandContext) withDaemon(fn func(*ipc.Client) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		return fmt.Errorf("%w: no daemon listening on %s", daemonctl.ErrNotRunning, cfg.Paths.SocketPath)
	}
	defer client.Close()
	return fn(client)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
