package threat

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// WatchSignatureFile reloads the scanner's signatures whenever the given
// YAML file changes, until ctx is cancelled. A file that becomes invalid is
// ignored and the previous signatures stay active; onError (optional)
// receives reload failures.
func WatchSignatureFile(ctx context.Context, scanner *Scanner, path string, onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create signature watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch signature file: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				sigs, err := LoadSignatureFile(path)
				if err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				scanner.Replace(sigs)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
