package ui

import (
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// sourceChangedMsg is sent when the source file changes on disk.
type sourceChangedMsg struct{}

// sourceWatcher reports changes to the file a corpus was read from. A
// loaded corpus is never replaced behind the reader's back, so changes only
// produce a notice; notices are throttled since editors tend to write a
// file several times in a row.
type sourceWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	notices *rate.Limiter
}

func newSourceWatcher(path string) *sourceWatcher {
	abs, err := filepath.Abs(path)
	if err != nil {
		log.Error("unable to resolve source path", "path", path, "error", err)
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
		return nil
	}

	// Watch the directory: editors often replace the file instead of
	// writing to it.
	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		log.Error("error adding dir to fsnotify watcher", "dir", dir, "error", err)
		_ = w.Close()
		return nil
	}
	log.Debug("fsnotify watching dir", "dir", dir)

	return &sourceWatcher{
		path:    abs,
		watcher: w,
		notices: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
}

// wait blocks until the source file changes.
func (w *sourceWatcher) wait() tea.Msg {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return sourceChangedMsg{}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "path", w.path, "error", err)
		}
	}
}

// shouldNotify reports whether a change notice may be shown now.
func (w *sourceWatcher) shouldNotify() bool {
	return w.notices.Allow()
}

func (w *sourceWatcher) close() {
	if err := w.watcher.Close(); err != nil {
		log.Debug("error closing fsnotify watcher", "error", err)
	}
}
