package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/gousse/pkg/site"
)

// DefaultReloadDelay is how long Watch waits for writes to settle.
const DefaultReloadDelay = 100 * time.Millisecond

// Watch reloads the site file at path whenever it changes, until ctx is
// done. The directory is watched so editors that replace the file are
// seen. A file that fails to load is logged and the current site is
// kept. Bursts of events within delay cause one reload.
func (s *Server) Watch(ctx context.Context, path string, delay time.Duration) error {
	if delay <= 0 {
		delay = DefaultReloadDelay
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	s.logger.Info("watching site file", "path", abs)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			s.reload(abs)
		}
	}
}

func (s *Server) reload(path string) {
	st, err := site.Load(path)
	if err != nil {
		s.logger.Warn("site reload failed, keeping the current site", "path", path, "error", err)
		return
	}
	s.SetSite(st)
	s.logger.Info("site reloaded", "path", path, "routes", len(st.Routes))
}
