// Package watch re-runs analysis whenever the source database export is
// replaced or updated.
package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce delays a re-run after the last write so that a bulk export that
// lands in several writes triggers one analysis, not many.
const debounce = 2 * time.Second

// Run watches sourcePath and invokes rerun after each settled change.
// Blocks until ctx is cancelled. The watch is placed on the parent
// directory because exports are typically replaced by rename.
func Run(ctx context.Context, sourcePath string, rerun func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(sourcePath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(sourcePath)
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("warning: watch error: %v", err)

		case <-fire:
			log.Printf("source changed, re-running analysis")
			if err := rerun(ctx); err != nil {
				log.Printf("warning: analysis failed: %v", err)
			}
		}
	}
}
