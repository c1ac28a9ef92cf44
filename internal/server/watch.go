package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/altinukshini/hepc-tui/internal/logging"
)

// reloadDelay coalesces the burst of events a catalog rewrite produces.
const reloadDelay = 250 * time.Millisecond

// Watch reloads the catalog whenever its file is written or replaced. It
// returns when ctx is done.
func (s *Server) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("server: watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory; tools often replace the file by renaming over it.
	target := filepath.Clean(s.path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("server: watch %s: %w", filepath.Dir(target), err)
	}

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fire = time.After(reloadDelay)
			}

		case <-fire:
			fire = nil
			if err := s.Reload(ctx); err != nil {
				logging.Warnf("server: reload %s: %v", s.path, err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.Warnf("server: watcher: %v", err)
		}
	}
}

// Run serves the API on addr and watches the catalog until ctx is done, then
// shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Infof("server: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Infof("server: shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return s.Watch(ctx)
	})
	return g.Wait()
}
