package main

import (
	"context"
	"errors"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/session"
)

// followStore logs the session out when another process removes the
// persisted record. Only the file backend can be followed; for other
// backends the returned stop function is a no-op.
func followStore(ctx context.Context, a *app) (stop func(), err error) {
	if !strings.EqualFold(a.cfg.Store.Backend, session.BackendFile) {
		return func() {}, nil
	}

	records, err := session.NewFileStore(a.cfg.Store.Dir)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(a.cfg.Store.Dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if _, err := records.Get(ctx, a.cfg.Session.Key); errors.Is(err, session.ErrNotFound) {
					if _, active := a.manager.Current(); active {
						a.logger.Info("persisted session removed by another process")
						a.manager.Logout(ctx)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				a.logger.Warn("store watcher", zap.Error(err))
			}
		}
	}()

	return func() {
		_ = w.Close()
		<-done
	}, nil
}
