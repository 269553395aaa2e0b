package vault

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events editors emit for one save.
const watchDebounce = 100 * time.Millisecond

// ReloadFunc receives the ids of the pages a reload wrote, or why it failed.
type ReloadFunc func(pageIDs []string, err error)

// Watch reloads the workspace file at path each time it is written or
// replaced, until ctx ends. The parent directory is watched so atomic
// renames by editors are seen. Pages that disappear from the file are kept.
func (c *Client) Watch(ctx context.Context, path string, onReload ReloadFunc) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("vault: watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("vault: watch %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		w.Close()
		return fmt.Errorf("vault: watch %s: %w", path, err)
	}

	go func() {
		defer w.Close()
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				fire = time.After(watchDebounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				onReload(nil, err)
			case <-fire:
				fire = nil
				ids, err := c.load(target)
				onReload(ids, err)
			}
		}
	}()
	return nil
}
