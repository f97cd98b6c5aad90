// internal/storage/memory/memory.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/OCAP2/cutscene/internal/config"
	"github.com/OCAP2/cutscene/internal/storage"
	"github.com/OCAP2/cutscene/pkg/core"
)

// CutsceneRecord is a stored definition with the file it came from.
type CutsceneRecord struct {
	Definition core.Definition
	Source     string
	SavedAt    time.Time
}

// Backend keeps cutscenes and playback records in memory and exports them to JSON
type Backend struct {
	cfg config.MemoryConfig
	now func() time.Time

	cutscenes map[string]*CutsceneRecord
	playbacks []core.PlaybackRecord

	idCounter      uint
	dirty          bool
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:       cfg,
		now:       time.Now,
		cutscenes: make(map[string]*CutsceneRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init(context.Context) error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// SaveCutscene stores def under its name, replacing any previous version.
func (b *Backend) SaveCutscene(_ context.Context, def core.Definition, source string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cutscenes[def.Name] = &CutsceneRecord{Definition: def, Source: source, SavedAt: b.now()}
	b.dirty = true
	return nil
}

// DeleteCutscene removes a stored cutscene. Unknown names are ignored.
func (b *Backend) DeleteCutscene(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.cutscenes[name]; ok {
		delete(b.cutscenes, name)
		b.dirty = true
	}
	return nil
}

// LoadCutscenes returns every stored definition sorted by name.
func (b *Backend) LoadCutscenes(context.Context) ([]core.Definition, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	defs := make([]core.Definition, 0, len(b.cutscenes))
	for _, r := range b.cutscenes {
		defs = append(defs, r.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// RecordPlayback stores r with the next sequential ID.
func (b *Backend) RecordPlayback(_ context.Context, r core.PlaybackRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	r.ID = b.idCounter
	b.playbacks = append(b.playbacks, r)
	b.dirty = true
	return nil
}

// Playbacks returns recorded sessions, newest first.
func (b *Backend) Playbacks(_ context.Context, cutscene string, limit int) ([]core.PlaybackRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []core.PlaybackRecord
	for i := len(b.playbacks) - 1; i >= 0; i-- {
		if cutscene == "" || b.playbacks[i].Cutscene == cutscene {
			out = append(out, b.playbacks[i])
		}
	}
	return storage.Limit(out, limit), nil
}

// Flush writes an export file when anything changed since the last one.
func (b *Backend) Flush(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.dirty {
		return nil
	}
	if err := b.exportJSON(); err != nil {
		return err
	}
	b.dirty = false
	return nil
}

// LastExportPath returns the path of the most recent export file.
func (b *Backend) LastExportPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
