// Package gormstorage implements the storage.Backend interface on GORM.
// Cutscene definitions are written synchronously; playback records go
// through an internal queue drained by a background writer goroutine.
package gormstorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/cutscene/internal/database"
	"github.com/OCAP2/cutscene/internal/model"
	"github.com/OCAP2/cutscene/internal/model/convert"
	"github.com/OCAP2/cutscene/internal/queue"
	"github.com/OCAP2/cutscene/pkg/core"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultWriteInterval is how often queued playbacks are written.
	DefaultWriteInterval = 2 * time.Second
	// queueCapacity bounds the playbacks held while the database is unreachable.
	queueCapacity = 10000
	batchSize     = 200
)

// ErrNoDB is returned by Init when no database handle was injected.
var ErrNoDB = errors.New("gorm storage: no database")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	WriteInterval time.Duration
}

// Backend implements storage.Backend on a GORM database.
type Backend struct {
	deps      Dependencies
	playbacks *queue.Queue[model.Playback]

	writeMu   sync.Mutex
	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	dbReady   bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.WriteInterval <= 0 {
		deps.WriteInterval = DefaultWriteInterval
	}
	return &Backend{
		deps:      deps,
		playbacks: queue.New[model.Playback](queueCapacity),
	}
}

// DB returns the underlying handle.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema and starts the playback writer.
func (b *Backend) Init(ctx context.Context) error {
	if b.deps.DB == nil {
		return ErrNoDB
	}
	if err := database.Migrate(b.deps.DB.WithContext(ctx)); err != nil {
		return err
	}
	b.dbReady = true

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()

	b.deps.Logger.Info("GORM storage initialized", "dialect", b.deps.DB.Dialector.Name())
	return nil
}

// Close stops the writer and writes any queued playbacks.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			<-b.done
		}
		if b.dbReady {
			err = b.Flush(context.Background())
		}
	})
	return err
}

// SaveCutscene upserts def by name.
func (b *Backend) SaveCutscene(ctx context.Context, def core.Definition, source string) error {
	row, err := convert.CoreToCutscene(def, source)
	if err != nil {
		return err
	}
	err = b.deps.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at", "source", "cancellable", "marker_count",
			"path_length", "path_wkt", "steps", "subtitles",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save cutscene %q: %w", def.Name, err)
	}
	return nil
}

// DeleteCutscene removes a stored cutscene. Unknown names are ignored.
func (b *Backend) DeleteCutscene(ctx context.Context, name string) error {
	err := b.deps.DB.WithContext(ctx).Where("name = ?", name).Delete(&model.Cutscene{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete cutscene %q: %w", name, err)
	}
	return nil
}

// LoadCutscenes returns every stored definition sorted by name. Rows that
// fail to decode are skipped and reported together.
func (b *Backend) LoadCutscenes(ctx context.Context) ([]core.Definition, error) {
	var rows []model.Cutscene
	if err := b.deps.DB.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load cutscenes: %w", err)
	}

	defs := make([]core.Definition, 0, len(rows))
	var errs []error
	for _, row := range rows {
		def, err := convert.CutsceneToCore(row)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	return defs, errors.Join(errs...)
}

// RecordPlayback queues r for the background writer. IDs are assigned on write.
func (b *Backend) RecordPlayback(_ context.Context, r core.PlaybackRecord) error {
	p := convert.CoreToPlayback(r)
	p.ID = 0
	b.playbacks.Push(p)
	return nil
}

// Playbacks writes pending records and returns stored sessions, newest first.
func (b *Backend) Playbacks(ctx context.Context, cutscene string, limit int) ([]core.PlaybackRecord, error) {
	if err := b.Flush(ctx); err != nil {
		return nil, err
	}

	tx := b.deps.DB.WithContext(ctx).Order("id desc")
	if cutscene != "" {
		tx = tx.Where("cutscene = ?", cutscene)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []model.Playback
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load playbacks: %w", err)
	}
	out := make([]core.PlaybackRecord, len(rows))
	for i, row := range rows {
		out[i] = convert.PlaybackToCore(row)
	}
	return out, nil
}

// Flush writes every queued playback. On failure the batch is requeued.
func (b *Backend) Flush(ctx context.Context) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	for {
		batch := b.playbacks.Drain(batchSize)
		if len(batch) == 0 {
			return nil
		}
		if err := b.deps.DB.WithContext(ctx).Create(&batch).Error; err != nil {
			b.playbacks.Requeue(batch)
			return fmt.Errorf("failed to write %d playbacks: %w", len(batch), err)
		}
		b.deps.Logger.Debug("Wrote playbacks", "count", len(batch))
	}
}

// Pending returns how many playbacks are waiting to be written.
func (b *Backend) Pending() int {
	return b.playbacks.Len()
}

func (b *Backend) writeLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.WriteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(context.Background()); err != nil {
				b.deps.Logger.Error("Playback write failed", "error", err, "pending", b.playbacks.Len(), "dropped", b.playbacks.Dropped())
			}
		}
	}
}
