package ingest

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/ordermonitor/internal/domain"
)

type memoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) GetURL(key string) string {
	return "mem://" + key
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

var archiveClock = time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.UTC)

func TestLocalArchiver(t *testing.T) {
	dir := t.TempDir()
	path := writeDropFile(t, dir, "OrderTransaction.json", validTransaction)
	task := &Task{Path: path, Name: "OrderTransaction.json", Kind: domain.KindTransaction}

	dest, err := NewLocalArchiver(dir, "_Archive", "_Rejected").Archive(context.Background(), task, archiveClock)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "_Archive", "OrderTransaction", "20240309140507.123_OrderTransaction.json"), dest)
	assert.FileExists(t, dest)
	assert.NoFileExists(t, path)
}

func TestLocalArchiverReject(t *testing.T) {
	dir := t.TempDir()
	path := writeDropFile(t, dir, "OrderCancellation.json", "{}")
	task := &Task{Path: path, Name: "OrderCancellation.json", Kind: domain.KindCancellation}

	dest, err := NewLocalArchiver(dir, "_Archive", "_Rejected").Reject(context.Background(), task, archiveClock)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "_Rejected", "OrderCancellation", "20240309140507.123_OrderCancellation.json"), dest)
}

func TestLocalArchiverMissingSource(t *testing.T) {
	dir := t.TempDir()
	task := &Task{Path: filepath.Join(dir, "OrderTransaction.json"), Name: "OrderTransaction.json", Kind: domain.KindTransaction}

	_, err := NewLocalArchiver(dir, "_Archive", "_Rejected").Archive(context.Background(), task, archiveClock)
	assert.Error(t, err)
}

func TestObjectArchiver(t *testing.T) {
	dir := t.TempDir()
	path := writeDropFile(t, dir, "OrderTransaction.json", validTransaction)
	task := &Task{Path: path, Name: "OrderTransaction.json", Kind: domain.KindTransaction}
	store := newMemoryStore()

	dest, err := NewObjectArchiver(store, "archive").Archive(context.Background(), task, archiveClock)
	require.NoError(t, err)

	key := "archive/processed/OrderTransaction/20240309140507.123_OrderTransaction.json"
	assert.Equal(t, "mem://"+key, dest)
	assert.Equal(t, validTransaction, string(store.objects[key]))
	assert.NoFileExists(t, path)
}

func TestObjectArchiverUploadFailureKeepsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDropFile(t, dir, "OrderCancellation.json", validCancellation)
	task := &Task{Path: path, Name: "OrderCancellation.json", Kind: domain.KindCancellation}
	store := newMemoryStore()
	store.uploadErr = errors.New("bucket unreachable")

	_, err := NewObjectArchiver(store, "").Reject(context.Background(), task, archiveClock)
	assert.Error(t, err)
	assert.FileExists(t, path)
	assert.Empty(t, store.objects)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "rejected/OrderCancellation/x.json", objectKey("", "rejected", domain.KindCancellation, "x.json"))
	assert.Equal(t, "p/processed/OrderTransaction/x.json", objectKey("p", "processed", domain.KindTransaction, "x.json"))
}
