// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/OCAP2/cutscene/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error

	// Definitions. SaveCutscene replaces a stored cutscene of the same name.
	SaveCutscene(ctx context.Context, def core.Definition, source string) error
	DeleteCutscene(ctx context.Context, name string) error
	LoadCutscenes(ctx context.Context) ([]core.Definition, error)

	// Playback records. Playbacks returns the newest first; an empty
	// cutscene matches every record and limit <= 0 means no limit.
	RecordPlayback(ctx context.Context, r core.PlaybackRecord) error
	Playbacks(ctx context.Context, cutscene string, limit int) ([]core.PlaybackRecord, error)

	// Flush persists anything buffered.
	Flush(ctx context.Context) error
}

// Exporter is an optional interface for backends that write export files.
type Exporter interface {
	LastExportPath() string
}

// Limit trims records to at most n entries; n <= 0 keeps them all.
func Limit(records []core.PlaybackRecord, n int) []core.PlaybackRecord {
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[:n]
}
