package catalogs

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watcher invalidates a Provider whenever one of the catalog files in its
// directory changes. Bursts of events per file are debounced.
type Watcher struct {
	Changes <-chan string // base names of changed catalog files

	provider *Provider
	changes  chan string
	done     chan struct{}
	watcher  *fsnotify.Watcher
}

func NewWatcher(p *Provider) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ch := make(chan string, 16)
	return &Watcher{
		Changes:  ch,
		provider: p,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
	}, nil
}

func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.provider.Dir()); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(file)
				}
				return
			}
			if !isCatalogFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case now := <-ticker.C:
			for file, t := range pending {
				if now.Sub(t) >= watchDebounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Non-fatal.
		}
	}
}

func (w *Watcher) emit(file string) {
	w.provider.Invalidate()
	select {
	case w.changes <- filepath.Base(file):
	default:
	}
}

func isCatalogFile(name string) bool {
	switch filepath.Base(name) {
	case ItemsFile, RecipesFile, TagsFile:
		return true
	}
	return false
}
