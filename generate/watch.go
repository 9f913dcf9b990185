package generate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig reloads the config file at path whenever it is written or
// replaced and applies a changed model to c with SetModel. Other fields need
// a new Client and are ignored.
//
// WatchConfig blocks until ctx is cancelled, returning nil, or until the
// watcher fails. A file that fails to load is logged and skipped.
func WatchConfig(ctx context.Context, path string, c *Client) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer watcher.Close()

	// Watch the directory; editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	baseName := filepath.Base(path)
	logger := c.logger.With(slog.String("config", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != baseName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			applyConfig(logger, path, c)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", slog.Any("error", err))
		}
	}
}

// applyConfig loads path and switches c to its model if it changed.
func applyConfig(logger *slog.Logger, path string, c *Client) {
	cfg, err := LoadConfig(path)
	if err != nil {
		logger.Warn("config reload failed", slog.Any("error", err))
		return
	}
	if cfg.Model == c.Model() {
		return
	}
	old := c.Model()
	if err := c.SetModel(cfg.Model); err != nil {
		logger.Warn("config model rejected", slog.Any("error", err))
		return
	}
	logger.Info("model changed",
		slog.String("from", old),
		slog.String("to", c.Model()),
	)
}
