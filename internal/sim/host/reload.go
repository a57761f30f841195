package host

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader watches config files and calls reload after writes settle.
type Reloader struct {
	watcher  *fsnotify.Watcher
	reload   func() error
	log      *log.Logger
	debounce time.Duration
	paths    []string
}

func NewReloader(paths []string, reload func() error, logger *log.Logger) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	var watched []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := watcher.Add(p); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %q: %w", p, err)
		}
		watched = append(watched, p)
	}
	return &Reloader{
		watcher:  watcher,
		reload:   reload,
		log:      logger,
		debounce: 500 * time.Millisecond,
		paths:    watched,
	}, nil
}

func (r *Reloader) Paths() []string { return r.paths }

// Run blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case ev, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(r.debounce, func() {
				if err := r.reload(); err != nil {
					r.log.Printf("config reload failed: %v", err)
				} else {
					r.log.Printf("config reloaded")
				}
			})

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Printf("file watcher error: %v", err)
		}
	}
}
