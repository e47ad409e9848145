package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

const watchDelay = time.Second

// changedWatcher batches the events of an fsnotify.Watcher: a batch is sent
// once no event has arrived for delay. One save in an editor is often
// several events (vi gives RENAME, CHMOD and REMOVE), and a removed file is
// watched again so that replacing it by rename keeps being noticed. A file
// that cannot be watched again is reported on Errors.
type changedWatcher struct {
	fsWatcher *fsnotify.Watcher
	Events    chan []fsnotify.Event
	Errors    chan error
	delay     time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

func newChangedWatcher(delay time.Duration) (*changedWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &changedWatcher{
		fsWatcher: fw,
		Events:    make(chan []fsnotify.Event, 50),
		Errors:    make(chan error, 10),
		delay:     delay,
		ctx:       ctx,
		cancel:    cancel,
	}
	go w.readEvents()
	return w, nil
}

func (w *changedWatcher) Close() error {
	w.cancel()
	return w.fsWatcher.Close()
}

func (w *changedWatcher) Add(name string) error {
	return w.fsWatcher.Add(name)
}

func (w *changedWatcher) readEvents() {
	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()

	var pending []fsnotify.Event
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			select {
			case w.Events <- pending:
			case <-w.ctx.Done():
				return
			}
			pending = nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				close(w.Events)
				return
			}
			if event.Has(fsnotify.Remove) {
				if err := w.fsWatcher.Add(event.Name); err != nil {
					if !w.sendError(errors.Wrapf(err, "watch %s again", event.Name)) {
						return
					}
				}
			}
			timer.Reset(w.delay)
			pending = append(pending, event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				close(w.Errors)
				return
			}
			if !w.sendError(err) {
				return
			}
		}
	}
}

func (w *changedWatcher) sendError(err error) bool {
	select {
	case w.Errors <- err:
		return true
	case <-w.ctx.Done():
		return false
	}
}
