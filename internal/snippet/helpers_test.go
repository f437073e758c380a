package snippet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/snipstorm/internal/engine"
	"github.com/dshills/snipstorm/internal/engine/buffer"
	"github.com/dshills/snipstorm/internal/logging"
)

func pt(line, col int) buffer.Point {
	return buffer.Point{Line: line, Column: col}
}

func rng(sl, sc, el, ec int) buffer.PointRange {
	return buffer.PointRange{Start: pt(sl, sc), End: pt(el, ec)}
}

// session drives a manager the way an editor loop does: every user edit is
// applied to the engine first and then reported to the manager as a delta.
type session struct {
	t   *testing.T
	eng *engine.Engine
	mgr *Manager
}

func newSession(t *testing.T, content string, opts ...engine.Option) *session {
	t.Helper()
	eng := engine.New(append([]engine.Option{engine.WithContent(content)}, opts...)...)
	eng.MoveCursor(pt(eng.LineCount()-1, eng.LineLen(eng.LineCount()-1)))
	return &session{
		t:   t,
		eng: eng,
		mgr: NewManager(eng, WithLogger(logging.Discard())),
	}
}

func (s *session) register(trigger, template string) *session {
	s.t.Helper()
	require.NoError(s.t, s.mgr.RegisterSnippet(trigger, template))
	return s
}

func (s *session) edit(fn func() error) {
	s.t.Helper()
	rev := s.eng.Revision()
	require.NoError(s.t, fn())
	for _, c := range s.eng.ChangesSince(rev) {
		require.NoError(s.t, s.mgr.ApplyEdit(c.Edit()))
	}
}

func (s *session) typeText(text string) {
	s.t.Helper()
	s.edit(func() error { return s.eng.InsertText(text) })
}

func (s *session) backspace() {
	s.t.Helper()
	s.edit(s.eng.Backspace)
}

func (s *session) tab() bool {
	s.t.Helper()
	ok, err := s.mgr.TryExpand(false)
	require.NoError(s.t, err)
	return ok
}

func (s *session) shiftTab() bool {
	s.t.Helper()
	ok, err := s.mgr.TryExpand(true)
	require.NoError(s.t, err)
	return ok
}

func (s *session) active() *Instance {
	s.t.Helper()
	inst := s.mgr.Active()
	require.NotNil(s.t, inst, "expected an active instance")
	return inst
}

func (s *session) currentStop() int {
	s.t.Helper()
	n, ok := s.active().CurrentStop()
	require.True(s.t, ok, "expected a selected stop")
	return n
}

// launch expands template directly over the single-line engine content.
func launch(t *testing.T, template string, opts ...engine.Option) (*engine.Engine, *Instance) {
	t.Helper()
	eng := engine.New(append([]engine.Option{engine.WithContent("t")}, opts...)...)
	inst, err := New("t", template).Launch(eng, pt(0, 0), pt(0, 1), "", "", WithInstanceLogger(logging.Discard()))
	require.NoError(t, err)
	return eng, inst
}
