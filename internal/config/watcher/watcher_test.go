package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/snipstorm/internal/logging"
)

func newTestWatcher(t *testing.T, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(append([]Option{WithLogger(logging.Discard())}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

// recorder collects delivered events.
type recorder struct {
	mu     sync.Mutex
	events []Event
	notify chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 64)}
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder) wait(t *testing.T) Event {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

// waitFor waits until an event with op has been delivered.
func (r *recorder) waitFor(t *testing.T, op Operation) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		for _, e := range r.all() {
			if e.Op == op {
				return e
			}
		}
		select {
		case <-r.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %v event", op)
		}
	}
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestNew(t *testing.T) {
	w := newTestWatcher(t)
	if w.debounce != DefaultDebounce {
		t.Errorf("default debounce = %v, want %v", w.debounce, DefaultDebounce)
	}

	w = newTestWatcher(t, WithDebounce(0))
	if w.debounce != 0 {
		t.Errorf("debounce = %v, want 0", w.debounce)
	}
}

func TestOperationString(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestConvertOp(t *testing.T) {
	tests := []struct {
		in     fsnotify.Op
		want   Operation
		wantOK bool
	}{
		{fsnotify.Write, OpWrite, true},
		{fsnotify.Create, OpCreate, true},
		{fsnotify.Create | fsnotify.Write, OpCreate, true},
		{fsnotify.Rename, OpRename, true},
		{fsnotify.Remove | fsnotify.Write, OpRemove, true},
		{fsnotify.Chmod, 0, false},
	}
	for _, tt := range tests {
		got, ok := convertOp(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("convertOp(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWatchAndUnwatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.toml")
	b := filepath.Join(dir, "b.toml")

	w := newTestWatcher(t)
	for _, p := range []string{a, b, a} {
		if err := w.Watch(p); err != nil {
			t.Fatalf("Watch(%s) error = %v", p, err)
		}
	}
	if got := len(w.WatchedFiles()); got != 2 {
		t.Errorf("WatchedFiles() = %d files, want 2", got)
	}
	if w.dirs[dir] != 2 {
		t.Errorf("directory refcount = %d, want 2", w.dirs[dir])
	}

	if err := w.Unwatch(a); err != nil {
		t.Fatalf("Unwatch() error = %v", err)
	}
	if err := w.Unwatch(b); err != nil {
		t.Fatalf("Unwatch() error = %v", err)
	}
	if len(w.dirs) != 0 {
		t.Errorf("dirs = %v, want empty", w.dirs)
	}

	if err := w.Watch(filepath.Join(dir, "missing", "x.toml")); err == nil {
		t.Error("Watch() in a missing directory should fail")
	}
}

func TestHandleFSEventFilters(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "snippets.toml")

	w := newTestWatcher(t, WithDebounce(0))
	if err := w.Watch(watched); err != nil {
		t.Fatal(err)
	}
	rec := newRecorder()
	w.OnChange(rec.handle)

	now := time.Now()
	w.handleFSEvent(fsnotify.Event{Name: filepath.Join(dir, "other.toml"), Op: fsnotify.Write}, now)
	w.handleFSEvent(fsnotify.Event{Name: watched, Op: fsnotify.Chmod}, now)
	w.handleFSEvent(fsnotify.Event{Name: watched, Op: fsnotify.Write}, now)

	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("events = %v, want one write", events)
	}
	if events[0].Path != watched || events[0].Op != OpWrite {
		t.Errorf("event = %+v, want write on %s", events[0], watched)
	}
}

func TestDebounceCoalesces(t *testing.T) {
	w := newTestWatcher(t, WithDebounce(100*time.Millisecond))
	rec := newRecorder()
	w.OnChange(rec.handle)

	base := time.Now()
	w.queueEvent(Event{Path: "/a", Op: OpCreate, Time: base})
	w.queueEvent(Event{Path: "/a", Op: OpWrite, Time: base.Add(10 * time.Millisecond)})
	w.queueEvent(Event{Path: "/b", Op: OpWrite, Time: base})
	w.queueEvent(Event{Path: "/b", Op: OpRemove, Time: base.Add(20 * time.Millisecond)})
	w.queueEvent(Event{Path: "/c", Op: OpWrite, Time: base.Add(200 * time.Millisecond)})

	w.processPendingEvents(base.Add(150 * time.Millisecond))

	got := make(map[string]Operation)
	for _, e := range rec.all() {
		got[e.Path] = e.Op
	}
	want := map[string]Operation{"/a": OpCreate, "/b": OpRemove}
	if len(got) != len(want) {
		t.Fatalf("emitted %v, want %v", got, want)
	}
	for path, op := range want {
		if got[path] != op {
			t.Errorf("%s = %v, want %v", path, got[path], op)
		}
	}
	if _, ok := w.pending["/c"]; !ok {
		t.Error("/c is not quiet yet and should stay pending")
	}
}

func TestHandlerPanicRecovered(t *testing.T) {
	w := newTestWatcher(t, WithDebounce(0))
	rec := newRecorder()
	w.OnChange(func(Event) { panic("boom") })
	w.OnChange(rec.handle)

	w.emitEvent(Event{Path: "/x", Op: OpWrite})
	if len(rec.all()) != 1 {
		t.Error("handler after a panicking one should still run")
	}
}

func TestWatcherDetectsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snippets.toml")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, WithDebounce(20*time.Millisecond))
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	rec := newRecorder()
	w.OnChange(rec.handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}

	if err := os.WriteFile(path, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	if e := rec.wait(t); e.Path != path {
		t.Errorf("event path = %s, want %s", e.Path, path)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if e := rec.waitFor(t, OpRemove); e.Path != path {
		t.Errorf("remove path = %s, want %s", e.Path, path)
	}

	w.Stop()
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestClosedWatcher(t *testing.T) {
	w := newTestWatcher(t)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := w.Watch("x.toml"); err != ErrWatcherClosed {
		t.Errorf("Watch() error = %v, want ErrWatcherClosed", err)
	}
	if err := w.Start(context.Background()); err != ErrWatcherClosed {
		t.Errorf("Start() error = %v, want ErrWatcherClosed", err)
	}
}
