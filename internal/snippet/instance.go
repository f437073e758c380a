package snippet

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dshills/snipstorm/internal/engine/buffer"
	"github.com/dshills/snipstorm/internal/logging"
)

// Instance is one live expansion of a snippet.
// It owns the region tree, the active stop and the adapter that writes the
// root region into the host. An Instance is not safe for concurrent use;
// the Manager serializes access to the instances it owns.
type Instance struct {
	id      uuid.UUID
	trigger string

	tree *tree
	root NodeID
	host Host
	sink textSink

	current    int
	hasCurrent bool

	// selectionPending is set when a stop was just selected: the next typed
	// text replaces its content instead of appending to it.
	selectionPending bool

	logger *log.Logger
}

// InstanceOption configures an Instance at launch.
type InstanceOption func(*Instance)

// WithInstanceLogger sets the logger used to trace updates.
func WithInstanceLogger(logger *log.Logger) InstanceOption {
	return func(i *Instance) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// ID returns the identifier used to correlate log entries.
func (i *Instance) ID() uuid.UUID {
	return i.id
}

// Trigger returns the trigger of the snippet this instance expands.
func (i *Instance) Trigger() string {
	return i.trigger
}

// Text returns the rendered text of the whole snippet.
func (i *Instance) Text() string {
	return i.tree.textOf(i.root)
}

// Span returns the document range the snippet occupies.
func (i *Instance) Span() buffer.PointRange {
	return i.tree.absSpan(i.root)
}

// Start returns where the snippet begins in the document.
func (i *Instance) Start() buffer.Point {
	return i.Span().Start
}

// End returns where the snippet ends in the document.
func (i *Instance) End() buffer.Point {
	return i.Span().End
}

// CurrentStop returns the number of the selected stop.
func (i *Instance) CurrentStop() (int, bool) {
	return i.current, i.hasCurrent
}

// SelectionPending reports whether the next typed text replaces the stop.
func (i *Instance) SelectionPending() bool {
	return i.selectionPending
}

// HasStops reports whether the live tree holds any stop.
func (i *Instance) HasStops() bool {
	return len(i.tree.stops(i.root)) > 0
}

// Stops returns the numbers of the navigable stops in ascending order.
func (i *Instance) Stops() []int {
	return sortedNumbers(i.tree.stops(i.root))
}

// StopText returns the current content of stop number.
func (i *Instance) StopText(number int) (string, bool) {
	id, ok := i.tree.stops(i.root)[number]
	if !ok {
		return "", false
	}
	return i.tree.textOf(id), true
}

// StopSpan returns the document range of stop number.
func (i *Instance) StopSpan(number int) (buffer.PointRange, bool) {
	id, ok := i.tree.stops(i.root)[number]
	if !ok {
		return buffer.PointRange{}, false
	}
	return i.tree.absSpan(id), true
}

// Mirrors returns the document ranges of every live mirror of stop number,
// in document order.
func (i *Instance) Mirrors(number int) []buffer.PointRange {
	src, ok := i.tree.stops(i.root)[number]
	if !ok {
		return nil
	}
	var out []buffer.PointRange
	i.tree.walk(i.root, func(id NodeID) {
		n := i.tree.node(id)
		if n.kind == KindMirror && n.source == src {
			out = append(out, i.tree.absSpan(id))
		}
	})
	return out
}

// SelectNext moves to the next stop, or the previous one when backwards is
// set, and selects its content.
//
// Forward order is ascending by number, ending at stop 0 when declared.
// Backward order is descending and stops at the lowest non-zero stop;
// from stop 0 or before any selection it goes to the highest stop.
// It returns false when there is no stop to move to. Running out of stops
// going forward without a stop 0 leaves the cursor at the snippet end.
func (i *Instance) SelectNext(backwards bool) (bool, error) {
	stops := i.tree.stops(i.root)
	nums := make([]int, 0, len(stops))
	for _, n := range sortedNumbers(stops) {
		if n != 0 {
			nums = append(nums, n)
		}
	}
	_, hasZero := stops[0]

	target, ok := 0, false
	if backwards {
		target, ok = i.previousStop(nums, stops, hasZero)
	} else {
		if i.hasCurrent && i.current == 0 {
			return false, nil
		}
		target, ok = i.nextStop(nums, hasZero)
		if !ok {
			if err := i.host.SetCursor(i.End()); err != nil {
				return false, newError("select", i.trigger, err)
			}
			return false, nil
		}
	}
	if !ok {
		return false, nil
	}

	if err := i.selectStop(target, stops[target]); err != nil {
		return false, err
	}
	return true, nil
}

func (i *Instance) nextStop(nums []int, hasZero bool) (int, bool) {
	for _, n := range nums {
		if !i.hasCurrent || n > i.current {
			return n, true
		}
	}
	if hasZero {
		return 0, true
	}
	return 0, false
}

func (i *Instance) previousStop(nums []int, stops map[int]NodeID, hasZero bool) (int, bool) {
	if !i.hasCurrent || i.current == 0 {
		switch {
		case len(nums) > 0:
			return nums[len(nums)-1], true
		case hasZero:
			return 0, true
		}
		return 0, false
	}

	for k := len(nums) - 1; k >= 0; k-- {
		if nums[k] < i.current {
			return nums[k], true
		}
	}
	// Clamp at the lowest stop.
	if _, ok := stops[i.current]; ok {
		return i.current, true
	}
	if len(nums) > 0 {
		return nums[0], true
	}
	return 0, hasZero
}

func (i *Instance) selectStop(number int, id NodeID) error {
	span := i.tree.absSpan(id)
	length := buffer.RuneLen(i.tree.textOf(id))

	if err := i.host.SetCursor(span.Start); err != nil {
		return newError("select", i.trigger, err)
	}
	if length > 0 {
		if err := i.host.SelectRange(span.Start, length); err != nil {
			return newError("select", i.trigger, err)
		}
	}

	i.current, i.hasCurrent = number, true
	i.selectionPending = true
	i.logger.Debug("selected stop",
		logging.FieldInstance, i.id,
		logging.FieldStop, number,
		logging.FieldSpan, span,
	)
	return nil
}

// activeStop returns the node of the selected stop.
func (i *Instance) activeStop() (NodeID, error) {
	if !i.hasCurrent {
		return noNode, ErrNoActiveStop
	}
	id, ok := i.tree.stops(i.root)[i.current]
	if !ok {
		return noNode, fmt.Errorf("%w: stop %d is gone", ErrNoActiveStop, i.current)
	}
	return id, nil
}

// Backspace removes the last n runes of the active stop. A line break
// counts as one rune.
func (i *Instance) Backspace(n int) error {
	id, err := i.activeStop()
	if err != nil {
		return newError("backspace", i.trigger, err)
	}
	if n <= 0 {
		return nil
	}

	rs := []rune(i.tree.textOf(id))
	if n > len(rs) {
		n = len(rs)
	}
	i.tree.setText(id, buffer.SplitLines(string(rs[:len(rs)-n])))
	i.selectionPending = false

	return i.commit(id, "backspace")
}

// CharsEntered feeds typed text into the active stop. A pending selection is
// replaced; otherwise the text is appended.
func (i *Instance) CharsEntered(chars string) error {
	id, err := i.activeStop()
	if err != nil {
		return newError("chars", i.trigger, err)
	}

	text := chars
	if !i.selectionPending {
		text = i.tree.textOf(id) + chars
	}
	i.tree.setText(id, buffer.SplitLines(text))
	i.selectionPending = false

	return i.commit(id, "chars")
}

// commit re-renders the tree and leaves the cursor at the end of stop id.
func (i *Instance) commit(id NodeID, op string) error {
	if err := i.update(); err != nil {
		return err
	}
	if err := i.host.SetCursor(i.tree.absSpan(id).End); err != nil {
		return newError(op, i.trigger, err)
	}
	return nil
}

// ApplyEdit absorbs an edit the host has already applied. The edit is in
// document coordinates from before it was applied. An edit inside the
// active stop, end included, is spliced into the stop's content and the
// tree is re-rendered. It returns false when the edit falls elsewhere.
func (i *Instance) ApplyEdit(edit buffer.Edit) (bool, error) {
	id, err := i.activeStop()
	if err != nil {
		return false, nil
	}
	span := i.tree.absSpan(id)
	if edit.Range.Start.Before(span.Start) || edit.Range.End.After(span.End) {
		return false, nil
	}

	relStart := relative(span.Start, edit.Range.Start)
	relEnd := relative(span.Start, edit.Range.End)

	text := buffer.NewBufferFromString(i.tree.textOf(id))
	newEnd, err := text.Replace(relStart, relEnd, edit.Lines())
	if err != nil {
		return false, newError("edit", i.trigger, err)
	}
	i.tree.setText(id, text.Lines())
	i.selectionPending = false

	// The host already holds the edit, so the root must cover the lines it
	// produced before it is rewritten.
	root := i.tree.node(i.root)
	root.end = edit.Transform(root.end)

	i.logger.Debug("absorbed edit",
		logging.FieldInstance, i.id,
		logging.FieldStop, i.current,
		logging.FieldEdit, edit,
	)

	if err := i.update(); err != nil {
		return false, err
	}
	if err := i.host.SetCursor(i.tree.absolute(id, newEnd)); err != nil {
		return false, newError("edit", i.trigger, err)
	}
	return true, nil
}

// Update re-renders the whole tree into the host.
func (i *Instance) Update() error {
	return i.update()
}

func (i *Instance) update() error {
	if _, _, err := i.tree.update(i.root, i.sink, i.logger, 0); err != nil {
		return newError("update", i.trigger, err)
	}
	if err := i.tree.checkSpans(i.root); err != nil {
		return newError("update", i.trigger, err)
	}
	return nil
}

// evaluate runs every expression in the live tree through the host.
func (i *Instance) evaluate() error {
	var errs []error
	i.tree.walk(i.root, func(id NodeID) {
		n := i.tree.node(id)
		if n.kind != KindExpression {
			return
		}
		out, err := i.host.Evaluate(n.code)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %w", ErrExpression, n.code, err))
			return
		}
		i.tree.setText(id, buffer.SplitLines(out))
	})
	return errors.Join(errs...)
}

// relative converts document point p to the coordinates of a text that
// starts at origin.
func relative(origin, p buffer.Point) buffer.Point {
	if p.Line == origin.Line {
		return buffer.Point{Column: p.Column - origin.Column}
	}
	return buffer.Point{Line: p.Line - origin.Line, Column: p.Column}
}
