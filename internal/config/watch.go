package config

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-applies a workload config file to the active allocator
// configuration whenever it changes on disk, the same fsnotify-backed
// loop internal/runtime/vfs.FSNotifyWatcher uses for source-tree
// watching, scoped down to a single file.
type Watcher struct {
	w    *fsnotify.Watcher
	path string
	done chan struct{}
}

// WatchFile starts watching path and applies it once immediately.
// Reload errors are logged, not returned, since a transient write
// (editors often replace-then-rename) should not stop the watcher.
func WatchFile(path string) (*Watcher, error) {
	if _, err := Apply(path); err != nil {
		log.Printf("config: initial load of %s failed: %v", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	cw := &Watcher{w: w, path: path, done: make(chan struct{})}

	go cw.loop()

	return cw, nil
}

func (cw *Watcher) loop() {
	defer close(cw.done)

	for {
		select {
		case ev, ok := <-cw.w.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if _, err := Apply(cw.path); err != nil {
				log.Printf("config: reload of %s failed: %v", cw.path, err)
			} else {
				log.Printf("config: reloaded %s", cw.path)
			}
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}

			log.Printf("config: watch error: %v", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (cw *Watcher) Close() error {
	err := cw.w.Close()
	<-cw.done

	return err
}
