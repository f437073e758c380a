package snippet

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/snipstorm/internal/engine/buffer"
	"github.com/dshills/snipstorm/internal/logging"
)

// Snippet is an immutable snippet definition.
type Snippet struct {
	Trigger     string
	Template    string
	Description string
}

// New creates a snippet definition.
func New(trigger, template string) Snippet {
	return Snippet{Trigger: trigger, Template: template}
}

// Launch expands the snippet over [start, end) on a single host line.
// before and after are the parts of that line outside the expansion; they
// are restored around the snippet text on every render.
//
// Host expressions are evaluated before anything is written, so a failing
// expression leaves the host untouched.
func (s Snippet) Launch(host Host, start, end buffer.Point, before, after string, opts ...InstanceOption) (*Instance, error) {
	if !start.Valid() || !end.Valid() {
		return nil, newError("launch", s.Trigger, fmt.Errorf("%w: %s..%s", ErrInvalidPosition, start, end))
	}

	t := newTree()
	root := t.add(&node{kind: KindRoot, start: start, end: end, parent: noNode, source: noNode})
	t.node(root).text = buffer.NewBufferFromString(t.parse(root, s.Template))

	inst := &Instance{
		id:      uuid.New(),
		trigger: s.Trigger,
		tree:    t,
		root:    root,
		host:    host,
		sink:    hostAdapter{host: host, before: before, after: after},
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(inst)
	}

	if err := inst.evaluate(); err != nil {
		return nil, newError("launch", s.Trigger, err)
	}
	if err := inst.update(); err != nil {
		return nil, err
	}

	inst.logger.Debug("launched",
		logging.FieldInstance, inst.id,
		logging.FieldTrigger, s.Trigger,
		logging.FieldSpan, inst.Span(),
	)
	return inst, nil
}
