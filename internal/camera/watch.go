package camera

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchSource treats a directory as a camera: the newest image written to
// it is the current frame. Useful with phone sync folders or a separate
// capture tool.
type WatchSource struct {
	Dir     string
	MaxEdge int
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".webp": true,
}

func isImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Open implements Source. The watcher runs until the stream is closed.
func (s WatchSource) Open(ctx context.Context) (Stream, error) {
	info, err := os.Stat(s.Dir)
	if err != nil {
		return nil, acquireError(s.Dir, err)
	}
	if !info.IsDir() {
		return nil, &CameraError{Reason: ReasonUnsupported, Message: msgUnsupported}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &CameraError{Reason: ReasonUnsupported, Message: msgUnsupported, Cause: err}
	}
	if err := w.Add(s.Dir); err != nil {
		w.Close()
		return nil, acquireError(s.Dir, err)
	}

	ws := &watchStream{
		src:     s,
		watcher: w,
		updated: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	ws.latest = newestImage(s.Dir)
	go ws.loop()
	return ws, nil
}

type watchStream struct {
	src     WatchSource
	watcher *fsnotify.Watcher
	updated chan struct{}
	done    chan struct{}

	mu     sync.Mutex
	latest string
	closed bool
}

func (ws *watchStream) loop() {
	defer close(ws.done)
	for {
		select {
		case ev, ok := <-ws.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !isImage(ev.Name) {
				continue
			}
			ws.mu.Lock()
			ws.latest = ev.Name
			ws.mu.Unlock()
			select {
			case ws.updated <- struct{}{}:
			default:
			}
		case _, ok := <-ws.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Capture returns the newest image, waiting for one to appear if the
// directory has none yet. A file that does not decode yet is taken to be
// still in flight: Capture waits for the next write and tries again until
// ctx ends.
func (ws *watchStream) Capture(ctx context.Context) ([]byte, error) {
	var pending error
	for {
		ws.mu.Lock()
		closed, path := ws.closed, ws.latest
		ws.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}
		if path != "" {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, acquireError(path, err)
			}
			jpg, err := EncodeJPEG(raw, ws.src.MaxEdge)
			if err == nil {
				return jpg, nil
			}
			pending = &CameraError{Reason: ReasonCapture, Message: msgCapture, Cause: err}
		}
		select {
		case <-ws.updated:
		case <-ws.done:
			return nil, ErrClosed
		case <-ctx.Done():
			if pending != nil {
				return nil, pending
			}
			return nil, ctx.Err()
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (ws *watchStream) Close() error {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return nil
	}
	ws.closed = true
	ws.mu.Unlock()

	err := ws.watcher.Close()
	<-ws.done
	return err
}

func newestImage(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var newest string
	var newestTime time.Time
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(dir, e.Name())
			newestTime = info.ModTime()
		}
	}
	return newest
}
