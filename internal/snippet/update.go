package snippet

import (
	"slices"

	"github.com/charmbracelet/log"

	"github.com/dshills/snipstorm/internal/logging"
)

// update re-renders the subtree at id into sink and reports how far its end
// moved. Children render into this node's text first, in document order;
// after each one the siblings that follow it are shifted by the child's
// movement. The node's own text then replaces its span in sink.
func (t *tree) update(id NodeID, sink textSink, logger *log.Logger, depth int) (int, int, error) {
	n := t.nodes[id]
	logger.Debug("updating", logging.FieldNode, n, logging.FieldDepth, depth)

	for i, c := range n.children {
		child := t.nodes[c]
		oldEnd := child.end

		dLines, dCols, err := t.update(c, textAdapter{buf: n.text}, logger, depth+1)
		if err != nil {
			return 0, 0, err
		}
		if dLines != 0 || dCols != 0 {
			logger.Debug("moved", logging.FieldNode, child, logging.FieldDelta, [2]int{dLines, dCols}, logging.FieldDepth, depth)
			t.shiftSiblings(n.children[i+1:], oldEnd.Line, oldEnd.Column, dLines, dCols)
		}
	}

	t.resolve(id)

	newEnd, err := sink.replaceText(n.start, n.end, n.text.Lines())
	if err != nil {
		return 0, 0, err
	}
	dLines := newEnd.Line - n.end.Line
	dCols := newEnd.Column - n.end.Column
	n.end = newEnd

	logger.Debug("rendered", logging.FieldNode, n, logging.FieldDepth, depth)
	return dLines, dCols, nil
}

// shiftSiblings moves the regions that start at or after the pivot.
// A region starting on a later line moves by whole lines. A region starting
// on the pivot line also moves its start column; its end column moves only
// when the region is a single line.
func (t *tree) shiftSiblings(siblings []NodeID, pivotLine, pivotCol, dLines, dCols int) {
	for _, s := range siblings {
		m := t.nodes[s]
		switch {
		case m.start.Line > pivotLine:
			m.translate(dLines, 0, 0)
		case m.start.Line == pivotLine && m.start.Column >= pivotCol:
			endCols := 0
			if m.start.Line == m.end.Line {
				endCols = dCols
			}
			m.translate(dLines, dCols, endCols)
		}
	}
}

// resolve finalizes a node's own text before it is rendered.
func (t *tree) resolve(id NodeID) {
	n := t.nodes[id]
	if n.kind != KindMirror {
		return
	}
	src := t.nodes[n.source].text.Lines()
	if slices.Equal(n.text.Lines(), src) {
		return
	}
	t.setText(id, src)
}
