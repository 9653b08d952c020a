package watcher

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ProbeFSNotify tests whether fsnotify delivers events for dir. It writes a
// temporary file inside dir and waits for its Create event. Config volumes
// mounted over NFS or SMB usually fail this probe.
func ProbeFSNotify(dir string, timeout time.Duration) bool {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return false
	}
	defer w.Close() //nolint:errcheck

	if err := w.Add(dir); err != nil {
		return false
	}

	probeName := fmt.Sprintf(".discresolve_probe_%d", rand.Int63()) //nolint:gosec // G404: not security-sensitive
	probePath := filepath.Join(dir, probeName)

	f, err := os.Create(probePath) //nolint:gosec // G304: path built from the watched dir
	if err != nil {
		return false
	}
	f.Close()                  //nolint:errcheck
	defer os.Remove(probePath) //nolint:errcheck

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return false
			}
			if ev.Has(fsnotify.Create) && filepath.Base(ev.Name) == probeName {
				return true
			}
		case <-w.Errors:
			return false
		case <-timer.C:
			return false
		}
	}
}
