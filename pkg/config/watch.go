package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch monitors the config file and reloads it on every write. It runs
// until ctx is cancelled.
//
// If a reload fails (e.g. invalid YAML) the error is logged and the
// previous configuration remains active.
func (m *Manager) Watch(ctx context.Context, logger zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(m.path); err != nil {
		return err
	}

	logger.Info().Str("path", m.path).Msg("watching config for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so catch Create as well as
			// Write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if err := m.Reload(); err != nil {
				logger.Error().Err(err).Str("path", m.path).
					Msg("config reload failed, keeping previous config")
				continue
			}
			logger.Info().Str("path", m.path).Msg("config reloaded")

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(m.path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("config watcher error")
		}
	}
}
