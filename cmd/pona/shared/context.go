// Package shared holds the state passed to all pona commands.
package shared

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glabrego/pona-cli/internal/config"
	"github.com/glabrego/pona-cli/internal/storage"
)

// Context carries flags set on the root command.
type Context struct {
	// ConfigFile overrides ~/.config/pona/config.yaml.
	ConfigFile string
}

func (c *Context) LoadConfig() (config.Config, error) {
	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// OpenHistory opens the history database and checks that it is writable.
func OpenHistory(ctx context.Context, path string) (*storage.Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	repo, err := storage.NewRepository(path)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("storage schema error: %w", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("storage write check failed (%v). Verify history_db is writable: %s", err, path)
	}
	return repo, nil
}
