package library

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// Change describes one reload performed by a Watcher.
type Change struct {
	Path    string
	Loaded  string   // name of the definition now registered from Path
	Removed []string // names dropped because Path changed or disappeared
	Err     error
}

// Watcher keeps a Registry in sync with a definitions directory.
type Watcher struct {
	fs       *fsnotify.Watcher
	registry *Registry
	logger   *slog.Logger
	debounce time.Duration

	changes chan Change
	fire    chan string
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching dir. A nil logger discards log output.
func NewWatcher(dir string, registry *Registry, logger *slog.Logger) (*Watcher, error) {
	return newWatcher(dir, registry, logger, DefaultDebounce)
}

func newWatcher(dir string, registry *Registry, logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	w := &Watcher{
		fs:       fw,
		registry: registry,
		logger:   logger,
		debounce: debounce,
		changes:  make(chan Change, 16),
		fire:     make(chan string, 16),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Changes delivers a Change after every reload. Changes are dropped when
// nobody reads them. The channel is closed once the watcher stops.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.fs.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.changes)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !IsDefinitionFile(event.Name) {
				continue
			}
			if t, ok := pending[event.Name]; ok {
				t.Stop()
			}
			path := event.Name
			pending[path] = time.AfterFunc(w.debounce, func() {
				select {
				case w.fire <- path:
				case <-w.closeCh:
				}
			})
		case path := <-w.fire:
			delete(pending, path)
			w.reload(path)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("definition watcher error", "error", err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) reload(path string) {
	change := Change{Path: path}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		change.Removed = w.registry.DeleteSource(path)
		w.logger.Info("cutscene definitions removed", "path", path, "names", change.Removed)
		w.publish(change)
		return
	}

	def, err := LoadFile(path)
	if err != nil {
		// keep the previous version registered until the file is fixed
		change.Err = err
		w.logger.Error("failed to reload cutscene definition", "path", path, "error", err)
		w.publish(change)
		return
	}

	if prev, ok := w.registry.Entry(def.Name); ok && prev.Source != path {
		change.Err = fmt.Errorf("%s: %w: name %q already defined in %s", path, ErrInvalidDefinition, def.Name, prev.Source)
		w.logger.Error("duplicate cutscene name", "path", path, "name", def.Name, "existing", prev.Source)
		w.publish(change)
		return
	}

	for _, name := range w.registry.DeleteSource(path) {
		if name != def.Name {
			change.Removed = append(change.Removed, name)
		}
	}
	w.registry.Put(def, path)
	change.Loaded = def.Name
	w.logger.Info("cutscene definition reloaded", "path", path, "name", def.Name)
	w.publish(change)
}

func (w *Watcher) publish(c Change) {
	select {
	case w.changes <- c:
	default:
	}
}
