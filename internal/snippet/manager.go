package snippet

import (
	"errors"
	"sort"
	"sync"
	"unicode"

	"github.com/charmbracelet/log"

	"github.com/dshills/snipstorm/internal/engine/buffer"
	"github.com/dshills/snipstorm/internal/logging"
)

// Manager owns the trigger registry and the stack of active instances for
// one host. Every method takes the manager's lock, so hosts that deliver
// events from several goroutines are serialized. Methods never call back
// into the manager.
type Manager struct {
	mu sync.Mutex

	host     Host
	snippets map[string]Snippet
	stack    []*Instance

	lastCursor    buffer.Point
	hasLastCursor bool

	logger *log.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger. Instances launched by the manager
// log through it as well.
func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager bound to host.
func NewManager(host Host, opts ...ManagerOption) *Manager {
	m := &Manager{
		host:     host,
		snippets: make(map[string]Snippet),
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ============================================================================
// Registry
// ============================================================================

// Register adds or replaces a snippet definition.
func (m *Manager) Register(s Snippet) error {
	if s.Trigger == "" {
		return newError("register", "", ErrEmptyTrigger)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snippets[s.Trigger] = s
	return nil
}

// RegisterSnippet adds or replaces the snippet for trigger.
func (m *Manager) RegisterSnippet(trigger, template string) error {
	return m.Register(New(trigger, template))
}

// RegisterAll adds every snippet, stopping at the first invalid one.
func (m *Manager) RegisterAll(snippets []Snippet) error {
	for _, s := range snippets {
		if err := m.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// Replace swaps the whole registry for snippets and drops every active
// instance. Every definition is checked first; on error the registry and
// the active instances are left as they were.
func (m *Manager) Replace(snippets []Snippet) error {
	next := make(map[string]Snippet, len(snippets))
	for _, s := range snippets {
		if s.Trigger == "" {
			return newError("register", "", ErrEmptyTrigger)
		}
		next[s.Trigger] = s
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snippets = next
	m.stack = nil
	m.hasLastCursor = false
	m.logger.Debug("replaced registry", logging.FieldCount, len(next))
	return nil
}

// Lookup returns the snippet registered for trigger.
func (m *Manager) Lookup(trigger string) (Snippet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snippets[trigger]
	return s, ok
}

// Snippets returns every registered snippet sorted by trigger.
func (m *Manager) Snippets() []Snippet {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Snippet, 0, len(m.snippets))
	for _, s := range m.snippets {
		out = append(out, s)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Trigger < out[b].Trigger })
	return out
}

// Reset clears the registry and drops every active instance.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snippets = make(map[string]Snippet)
	m.stack = nil
	m.hasLastCursor = false
	m.logger.Debug("reset")
}

// ============================================================================
// Active Instances
// ============================================================================

// Active returns the instance receiving edits, or nil.
func (m *Manager) Active() *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topLocked()
}

// Depth returns the number of active instances.
func (m *Manager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack)
}

// Retire drops the top instance. The host keeps the text already written.
func (m *Manager) Retire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.popLocked("cancelled")
}

func (m *Manager) topLocked() *Instance {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

func (m *Manager) popLocked(reason string) {
	top := m.topLocked()
	if top == nil {
		return
	}
	m.stack = m.stack[:len(m.stack)-1]
	m.logger.Debug("retired",
		logging.FieldInstance, top.ID(),
		logging.FieldTrigger, top.Trigger(),
		"reason", reason,
	)
}

// fail reports an instance error. A broken tree cannot be trusted with
// further edits, so the instance is dropped.
func (m *Manager) fail(err error) error {
	if errors.Is(err, ErrSpanOverlap) {
		m.logger.Error("region invariant violated", logging.FieldError, err)
		m.popLocked("invariant violated")
		return err
	}
	m.logger.Warn("snippet operation failed", logging.FieldError, err)
	return err
}

// ============================================================================
// Dispatch
// ============================================================================

// TryExpand handles the expand/jump key. With an active instance it moves to
// the next stop, or the previous one when backwards is set, and retires the
// instance when there is none. Otherwise it expands the word left of the
// cursor. It reports whether the key was consumed.
func (m *Manager) TryExpand(backwards bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.recordCursorLocked()

	if top := m.topLocked(); top != nil {
		ok, err := top.SelectNext(backwards)
		if err != nil {
			return true, m.fail(err)
		}
		if !ok {
			m.popLocked("no more stops")
		}
		return true, nil
	}

	return m.expandLocked()
}

func (m *Manager) expandLocked() (bool, error) {
	cur := m.host.Cursor()
	line, err := m.host.LineText(cur.Line)
	if err != nil {
		return false, newError("expand", "", err)
	}

	rs := []rune(line)
	col := cur.Column
	if col <= 0 || col > len(rs) || unicode.IsSpace(rs[col-1]) {
		return false, nil
	}
	start := col
	for start > 0 && !unicode.IsSpace(rs[start-1]) {
		start--
	}
	word := string(rs[start:col])

	s, ok := m.snippets[word]
	if !ok {
		return false, nil
	}

	inst, err := s.Launch(m.host,
		buffer.Point{Line: cur.Line, Column: start}, cur,
		string(rs[:start]), string(rs[col:]),
		WithInstanceLogger(m.logger),
	)
	if err != nil {
		return false, m.fail(err)
	}

	if !inst.HasStops() {
		if err := m.host.SetCursor(inst.End()); err != nil {
			return true, m.fail(newError("expand", word, err))
		}
		m.logger.Debug("expanded without stops", logging.FieldTrigger, word)
		return true, nil
	}

	m.stack = append(m.stack, inst)
	if _, err := inst.SelectNext(false); err != nil {
		return true, m.fail(err)
	}
	return true, nil
}

// ApplyEdit routes an edit the host has already applied to the active
// instance. The edit is in document coordinates from before it was
// applied. Edits outside the active stop retire the instance.
func (m *Manager) ApplyEdit(edit buffer.Edit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.recordCursorLocked()

	return m.applyEditLocked(edit)
}

// ApplyEdits routes edits in order, each as if reported by ApplyEdit.
// Every edit must describe the host state left by the one before it.
func (m *Manager) ApplyEdits(edits []buffer.Edit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.recordCursorLocked()

	for _, e := range edits {
		if err := m.applyEditLocked(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) applyEditLocked(edit buffer.Edit) error {
	top := m.topLocked()
	if top == nil || edit.IsNoOp() {
		return nil
	}
	ok, err := top.ApplyEdit(edit)
	if err != nil {
		return m.fail(err)
	}
	if !ok {
		m.popLocked("edit outside active stop")
	}
	return nil
}

// CursorMoved classifies the host edit between the last observed cursor and
// the current one and forwards it to the active instance.
func (m *Manager) CursorMoved() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.host.Cursor()
	if !m.hasLastCursor {
		m.lastCursor, m.hasLastCursor = cur, true
		return nil
	}
	return m.onTextChangedLocked(m.lastCursor, cur)
}

// OnTextChanged classifies the host edit that moved the cursor from before
// to after. A move to column 0 of the next line is a newline, a smaller
// column on the same line is a deletion, and a larger one is typed text.
// Anything else only records the cursor. The classification assumes one
// contiguous edit at the cursor.
func (m *Manager) OnTextChanged(before, after buffer.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onTextChangedLocked(before, after)
}

func (m *Manager) onTextChangedLocked(before, after buffer.Point) error {
	defer m.recordCursorLocked()

	top := m.topLocked()
	if top == nil {
		return nil
	}

	switch {
	case after.Line == before.Line+1 && after.Column == 0:
		// Undo the host's split so the instance can render the newline
		// itself, then put the cursor back where the user left it.
		prev, err := m.host.LineText(before.Line)
		if err != nil {
			return m.fail(newError("newline", top.Trigger(), err))
		}
		joinAt := buffer.Point{Line: before.Line, Column: buffer.RuneLen(prev)}
		if _, err := m.host.ReplaceRange(joinAt, after, []string{""}); err != nil {
			return m.fail(newError("newline", top.Trigger(), err))
		}
		if err := top.CharsEntered("\n"); err != nil {
			return m.fail(err)
		}
		if err := m.host.SetCursor(after); err != nil {
			return m.fail(newError("newline", top.Trigger(), err))
		}

	case after.Line == before.Line && after.Column < before.Column:
		if err := top.Backspace(before.Column - after.Column); err != nil {
			return m.fail(err)
		}

	case after.Line == before.Line && after.Column > before.Column:
		line, err := m.host.LineText(after.Line)
		if err != nil {
			return m.fail(newError("chars", top.Trigger(), err))
		}
		if err := top.CharsEntered(buffer.RuneSlice(line, before.Column, after.Column)); err != nil {
			return m.fail(err)
		}
	}
	return nil
}

func (m *Manager) recordCursorLocked() {
	m.lastCursor, m.hasLastCursor = m.host.Cursor(), true
}
