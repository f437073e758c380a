package app

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dshills/snipstorm/internal/config"
	"github.com/dshills/snipstorm/internal/config/loader"
	"github.com/dshills/snipstorm/internal/config/watcher"
	"github.com/dshills/snipstorm/internal/engine"
	"github.com/dshills/snipstorm/internal/logging"
	"github.com/dshills/snipstorm/internal/plugin/lua"
	"github.com/dshills/snipstorm/internal/snippet"
)

// Session is one editing surface with snippet expansion.
type Session struct {
	mu sync.Mutex

	cfg       *config.Config
	fs        loader.FileSystem
	engine    *engine.Engine
	evaluator *lua.Evaluator
	manager   *snippet.Manager
	watcher   *watcher.Watcher
	logger    *log.Logger

	// builtin definitions are registered before the files on every reload
	builtin []snippet.Snippet

	// heuristic routes edits through the cursor heuristic instead of the
	// recorded changes.
	heuristic bool
	closed    bool
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	logger     *log.Logger
	fs         loader.FileSystem
	engineOpts []engine.Option
	evalOpts   []lua.EvaluatorOption
	snippets   []snippet.Snippet
	heuristic  bool
}

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) SessionOption {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// WithFS sets the file system snippet definitions are read from.
func WithFS(fsys loader.FileSystem) SessionOption {
	return func(o *sessionOptions) {
		o.fs = fsys
	}
}

// WithEngineOptions passes options to the engine.
func WithEngineOptions(opts ...engine.Option) SessionOption {
	return func(o *sessionOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// WithEvaluatorOptions passes options to the Lua evaluator.
func WithEvaluatorOptions(opts ...lua.EvaluatorOption) SessionOption {
	return func(o *sessionOptions) {
		o.evalOpts = append(o.evalOpts, opts...)
	}
}

// WithSnippets registers definitions in addition to the configured files.
// They survive reloads.
func WithSnippets(snippets ...snippet.Snippet) SessionOption {
	return func(o *sessionOptions) {
		o.snippets = append(o.snippets, snippets...)
	}
}

// WithCursorHeuristic routes edits by comparing cursor positions instead of
// the engine's recorded changes.
func WithCursorHeuristic() SessionOption {
	return func(o *sessionOptions) {
		o.heuristic = true
	}
}

// NewSession creates a session from cfg and loads its snippet files.
func NewSession(cfg *config.Config, opts ...SessionOption) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	o := sessionOptions{
		logger: logging.Default(),
		fs:     loader.DefaultFS(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	evalOpts := append([]lua.EvaluatorOption{
		lua.WithLogger(o.logger),
		lua.WithStateOptions(
			lua.WithExecutionTimeout(cfg.Expression.Timeout),
			lua.WithCallLimit(cfg.Expression.CallLimit),
		),
	}, o.evalOpts...)
	ev, err := lua.NewEvaluator(evalOpts...)
	if err != nil {
		return nil, NewComponentError("evaluator", "create", err)
	}

	eng := engine.New(append([]engine.Option{engine.WithEvaluator(ev)}, o.engineOpts...)...)
	s := &Session{
		cfg:       cfg,
		fs:        o.fs,
		engine:    eng,
		evaluator: ev,
		manager:   snippet.NewManager(eng, snippet.WithLogger(o.logger)),
		logger:    o.logger,
		heuristic: o.heuristic,
		builtin:   o.snippets,
	}

	if err := s.Reload(); err != nil {
		ev.Close()
		return nil, err
	}
	return s, nil
}

// Engine returns the session engine.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// Manager returns the snippet manager.
func (s *Session) Manager() *snippet.Manager {
	return s.manager
}

// Text returns the document text.
func (s *Session) Text() string {
	return s.engine.Text()
}

// ============================================================================
// Editing
// ============================================================================

// Edit runs fn against the engine and reports the resulting changes to the
// snippet manager.
func (s *Session) Edit(fn func(*engine.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editLocked(fn)
}

func (s *Session) editLocked(fn func(*engine.Engine) error) error {
	if s.closed {
		return ErrSessionClosed
	}

	// The edit and the snippet's re-render of it undo as one step.
	return s.engine.UndoGroup(func() error {
		before := s.engine.Cursor()
		rev := s.engine.Revision()
		if err := fn(s.engine); err != nil {
			return err
		}

		if s.heuristic {
			return s.manager.OnTextChanged(before, s.engine.Cursor())
		}
		for _, c := range s.engine.ChangesSince(rev) {
			if err := s.manager.ApplyEdit(c.Edit()); err != nil {
				return err
			}
		}
		return nil
	})
}

// Type inserts text at the cursor.
func (s *Session) Type(text string) error {
	return s.Edit(func(e *engine.Engine) error { return e.InsertText(text) })
}

// Backspace deletes before the cursor.
func (s *Session) Backspace() error {
	return s.Edit(func(e *engine.Engine) error { return e.Backspace() })
}

// Newline splits the line at the cursor.
func (s *Session) Newline() error {
	return s.Edit(func(e *engine.Engine) error { return e.Newline() })
}

// Undo reverts the last edit together with the snippet updates it caused.
// Active snippets are left first, since their regions no longer match the
// restored text.
func (s *Session) Undo() error {
	return s.history((*engine.Engine).Undo)
}

// Redo reapplies the last undone edit. Like Undo it leaves active snippets.
func (s *Session) Redo() error {
	return s.history((*engine.Engine).Redo)
}

func (s *Session) history(step func(*engine.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	for s.manager.Active() != nil {
		s.manager.Retire()
	}
	return step(s.engine)
}

// Tab expands the trigger left of the cursor or moves between stops.
// When nothing consumes the key a tab character is typed.
func (s *Session) Tab(backwards bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	var consumed bool
	err := s.engine.UndoGroup(func() error {
		var err error
		consumed, err = s.manager.TryExpand(backwards)
		return err
	})
	if err != nil || consumed || backwards {
		return err
	}
	return s.editLocked(func(e *engine.Engine) error { return e.InsertText("\t") })
}

// Escape leaves the active snippet and drops the selection.
func (s *Session) Escape() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manager.Retire()
	s.engine.MoveCursor(s.engine.Cursor())
}

// Move moves the cursor without editing.
func (s *Session) Move(fn func(*engine.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine)
}

// ============================================================================
// View
// ============================================================================

// View is a snapshot of what the playground draws.
type View struct {
	Lines     []string
	Cursor    engine.Point
	Selection engine.PointRange

	// Active snippet, if any
	Trigger  string
	Stop     int
	HasStop  bool
	StopSpan engine.PointRange
	Mirrors  []engine.PointRange
	Depth    int
}

// View returns a consistent snapshot of the document and the active snippet.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Lines:     s.engine.Lines(),
		Cursor:    s.engine.Cursor(),
		Selection: s.engine.Selection().Range(),
		Depth:     s.manager.Depth(),
	}
	inst := s.manager.Active()
	if inst == nil {
		return v
	}
	v.Trigger = inst.Trigger()
	if n, ok := inst.CurrentStop(); ok {
		v.Stop, v.HasStop = n, true
		v.StopSpan, _ = inst.StopSpan(n)
		v.Mirrors = inst.Mirrors(n)
	}
	return v
}

// ============================================================================
// Definitions
// ============================================================================

// Reload rereads the configured snippet files and replaces the registry.
// Active snippets are dropped. On error the previous definitions stay.
func (s *Session) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := config.LoadSnippets(s.fs, s.cfg.Snippets.Paths...)
	if err != nil {
		s.logger.Error("snippet reload failed", logging.FieldError, err)
		return NewComponentError("snippets", "load", err)
	}

	all := append(append([]snippet.Snippet(nil), s.builtin...), loaded...)
	if err := s.manager.Replace(all); err != nil {
		s.logger.Error("snippet reload failed", logging.FieldError, err)
		return NewComponentError("snippets", "register", err)
	}
	s.logger.Debug("snippets loaded",
		logging.FieldPaths, s.cfg.Snippets.Paths,
		logging.FieldCount, len(all),
	)
	return nil
}

// Watch reloads the snippet files whenever one changes, until ctx is done
// or the session is closed.
func (s *Session) Watch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.watcher != nil {
		return nil
	}

	w, err := watcher.New(watcher.WithLogger(s.logger))
	if err != nil {
		return NewComponentError("watcher", "create", err)
	}
	for _, path := range s.cfg.Snippets.Paths {
		if err := w.Watch(path); err != nil {
			w.Close()
			return NewComponentError("watcher", "watch "+path, err)
		}
	}
	w.OnChange(func(e watcher.Event) {
		s.logger.Info("snippet file changed", logging.FieldPath, e.Path, "op", e.Op)
		_ = s.Reload() // logged by Reload
	})
	if err := w.Start(ctx); err != nil {
		w.Close()
		return NewComponentError("watcher", "start", err)
	}
	s.watcher = w
	return nil
}

// Close stops the watcher and releases the evaluator.
func (s *Session) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// The watcher handler takes s.mu, so it is stopped unlocked.
	if w != nil {
		w.Close()
	}
	return s.evaluator.Close()
}
