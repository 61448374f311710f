// Package watcher notifies about changes to a small set of files, in
// practice the osai config file, so that the daemon can reload settings and
// rebuild the index.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify on the parent directory of each file, so editors
//     that save by rename-and-replace are still observed
//   - Fallback: stat polling for environments where fsnotify fails
//     (network mounts, Docker volumes) or the parent directory is missing
//
// Events are debounced so that a burst of writes from one save yields a
// single batch.
//
// Usage:
//
//	w := watcher.NewFileWatcher(watcher.DefaultOptions(), configPath)
//	defer w.Stop()
//	go func() { _ = w.Start(ctx) }()
//
//	for batch := range w.Events() {
//	    // reload settings
//	}
package watcher
