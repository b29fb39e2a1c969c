// Package state keeps the history of exported documents in SQLite.
// Each written document is recorded with a content digest so unchanged
// outputs can be skipped on the next export.
package state

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"
)

// ExportRecord is one document written to disk.
type ExportRecord struct {
	ID        string
	Exporter  string
	Source    string // model file the document was generated from
	Target    string // path of the written document
	Digest    string
	Size      int64
	CreatedAt time.Time
}

// Store persists export records.
type Store interface {
	RecordExport(ctx context.Context, rec *ExportRecord) error
	// LastDigest returns the digest of the newest record for target, or ""
	// when target was never exported.
	LastDigest(ctx context.Context, target string) (string, error)
	// ListExports returns records newest first; limit <= 0 returns all.
	ListExports(ctx context.Context, limit int) ([]*ExportRecord, error)
	Close() error
}

// Digest returns the hex BLAKE3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
