package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/timmy/ordermonitor/internal/logger"
)

// SubmitFunc offers a candidate path to the gate and the task queue.
type SubmitFunc func(ctx context.Context, path string, trigger Trigger) bool

// Watcher turns filesystem create/write notifications for one directory into submissions.
type Watcher struct {
	dir    string
	submit SubmitFunc
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, submit SubmitFunc) *Watcher {
	return &Watcher{dir: dir, submit: submit}
}

// Run watches until ctx ends. Failing to attach to the directory is logged
// and Run returns; polling keeps the pipeline going. If ready is non-nil it is
// closed once the subscription is active.
func (w *Watcher) Run(ctx context.Context, ready chan<- struct{}) {
	ctx = logger.SetComponent(ctx, "watcher")
	log := logger.FromContext(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).Warn("Cannot create filesystem watcher, relying on polling")
		return
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		log.WithError(err).WithField("dir", w.dir).Warn("Cannot watch drop folder, relying on polling")
		return
	}
	log.WithField("dir", w.dir).Info("Watching drop folder")

	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("Watcher stopped")
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.handle(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("Filesystem watcher reported an error")
		}
	}
}

// handle submits one notification. A failure here must not stop the event loop.
func (w *Watcher) handle(ctx context.Context, path string) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).WithFields(logger.Fields{
				"path":  path,
				"panic": fmt.Sprint(r),
			}).Error("Recovered panic in watcher notification handler")
		}
	}()

	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}
	w.submit(ctx, path, TriggerWatch)
}
