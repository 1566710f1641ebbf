package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/timmy/ordermonitor/internal/domain"
	"github.com/timmy/ordermonitor/internal/logger"
	"github.com/timmy/ordermonitor/internal/storage"
)

const archiveTimestampFormat = "20060102150405.000"

// Archiver moves a handled file out of the monitored directory so polling does
// not pick it up again.
type Archiver interface {
	// Archive moves a successfully dispatched file and returns its new location.
	Archive(ctx context.Context, task *Task, now time.Time) (string, error)
	// Reject moves a file that failed parsing or validation and returns its new location.
	Reject(ctx context.Context, task *Task, now time.Time) (string, error)
}

// archiveName is the timestamp-qualified name a file is archived under.
func archiveName(task *Task, now time.Time) string {
	return now.UTC().Format(archiveTimestampFormat) + "_" + task.Name
}

// LocalArchiver moves files into subfolders of the monitored directory:
// <root>/<archiveDir>/<Kind>/<timestamp>_<name>.
type LocalArchiver struct {
	root        string
	archiveDir  string
	rejectedDir string
}

// NewLocalArchiver creates an archiver rooted at the monitored folder.
// Parameters:
//   - root: monitored folder.
//   - archiveDir: subfolder for processed files.
//   - rejectedDir: subfolder for rejected files.
// Returns:
//   - *LocalArchiver: archiver instance.
func NewLocalArchiver(root, archiveDir, rejectedDir string) *LocalArchiver {
	return &LocalArchiver{root: root, archiveDir: archiveDir, rejectedDir: rejectedDir}
}

func (a *LocalArchiver) Archive(_ context.Context, task *Task, now time.Time) (string, error) {
	return a.move(task, a.archiveDir, now)
}

func (a *LocalArchiver) Reject(_ context.Context, task *Task, now time.Time) (string, error) {
	return a.move(task, a.rejectedDir, now)
}

func (a *LocalArchiver) move(task *Task, sub string, now time.Time) (string, error) {
	dir := filepath.Join(a.root, sub, task.Kind.DisplayName())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive folder %s: %w", dir, err)
	}
	dest := filepath.Join(dir, archiveName(task, now))
	if err := os.Rename(task.Path, dest); err != nil {
		return "", fmt.Errorf("failed to move %s to %s: %w", task.Path, dest, err)
	}
	return dest, nil
}

// ObjectArchiver uploads handled files to object storage and then removes the
// local copy. Keys look like <prefix>/{processed,rejected}/<Kind>/<timestamp>_<name>.
type ObjectArchiver struct {
	store  storage.ObjectStorage
	prefix string
}

// NewObjectArchiver creates an archiver backed by an object store.
func NewObjectArchiver(store storage.ObjectStorage, prefix string) *ObjectArchiver {
	return &ObjectArchiver{store: store, prefix: prefix}
}

func (a *ObjectArchiver) Archive(ctx context.Context, task *Task, now time.Time) (string, error) {
	return a.upload(ctx, task, "processed", now)
}

func (a *ObjectArchiver) Reject(ctx context.Context, task *Task, now time.Time) (string, error) {
	return a.upload(ctx, task, "rejected", now)
}

func (a *ObjectArchiver) upload(ctx context.Context, task *Task, bucketDir string, now time.Time) (string, error) {
	f, err := os.Open(task.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for archiving: %w", task.Path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return "", fmt.Errorf("failed to stat %s: %w", task.Path, err)
	}

	key := objectKey(a.prefix, bucketDir, task.Kind, archiveName(task, now))
	err = a.store.Upload(ctx, key, f, info.Size(), "application/json")
	f.Close()
	if err != nil {
		return "", err
	}

	if err := os.Remove(task.Path); err != nil {
		// The file stays put and will be archived again; drop this copy.
		if delErr := a.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			logger.FromContext(ctx).WithError(delErr).WithField("key", key).Error("Failed to roll back archived object")
		}
		return "", fmt.Errorf("archived to %s but failed to remove %s: %w", key, task.Path, err)
	}
	return a.store.GetURL(key), nil
}

func objectKey(prefix, dir string, kind domain.Kind, name string) string {
	key := dir + "/" + kind.DisplayName() + "/" + name
	if prefix != "" {
		key = prefix + "/" + key
	}
	return key
}
