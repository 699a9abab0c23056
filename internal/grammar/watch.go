package grammar

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/yegors/atc-semframe/pkg/logger"
)

// watchDebounce coalesces bursts of filesystem events (editors often write
// a file several times in quick succession) into a single reload.
const watchDebounce = 500 * time.Millisecond

// Watcher monitors the grammar source files and invokes onChange after the
// event stream has been quiet for the debounce interval. It does nothing
// when the grammar was loaded from the embedded defaults.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]bool
	onChange func()
	logger   *logger.Logger

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// Watch starts watching the grammar's source files. Returns nil without
// error when there are no files to watch.
func (g *Grammar) Watch(onChange func()) (*Watcher, error) {
	if len(g.files) == 0 {
		return nil, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]bool),
		onChange: onChange,
		logger:   g.logger.Named("watch"),
		done:     make(chan struct{}),
	}

	// Watch directories rather than files so atomic renames are seen.
	dirs := map[string]bool{}
	for _, f := range g.files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	go w.loop()
	w.logger.Info("Watching grammar files", logger.Int("files", len(w.files)))
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				abs = ev.Name
			}
			if !w.files[abs] {
				continue
			}
			w.logger.Debug("Grammar file changed", logger.String("file", ev.Name))
			w.bump()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", logger.Error(err))
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) bump() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, w.onChange)
}

// Close stops the watcher and cancels any pending reload.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	close(w.done)
	return w.fsw.Close()
}
