package ingest

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/timmy/ordermonitor/internal/domain"
)

// Ledger remembers which file fingerprints have already been dispatched.
type Ledger interface {
	IsProcessed(ctx context.Context, fingerprint string) (bool, error)
	MarkProcessed(ctx context.Context, rec *domain.ProcessedFile) error
}

// MemoryLedger is a process-local Ledger, used when no database is configured and in tests.
type MemoryLedger struct {
	seen mapset.Set[string]
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: mapset.NewSet[string]()}
}

func (l *MemoryLedger) IsProcessed(_ context.Context, fingerprint string) (bool, error) {
	return l.seen.Contains(fingerprint), nil
}

func (l *MemoryLedger) MarkProcessed(_ context.Context, rec *domain.ProcessedFile) error {
	l.seen.Add(rec.Fingerprint)
	return nil
}

// Len returns the number of remembered fingerprints.
func (l *MemoryLedger) Len() int {
	return l.seen.Cardinality()
}

// fingerprint identifies one write of a drop file. A rewrite changes the
// modification time, so it is treated as new input even with identical content.
func fingerprint(name string, info os.FileInfo, content []byte) string {
	h := md5.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(info.Size(), 10)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(info.ModTime().UnixNano(), 10)))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
