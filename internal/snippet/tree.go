package snippet

import (
	"fmt"
	"sort"

	"github.com/dshills/snipstorm/internal/engine/buffer"
)

// NodeID addresses a node in an instance's arena.
type NodeID int

const noNode NodeID = -1

// NodeKind identifies the role of a region.
type NodeKind uint8

const (
	// KindRoot is the region covering the whole expanded snippet.
	KindRoot NodeKind = iota

	// KindTabStop is an editable region the user can jump to.
	KindTabStop

	// KindMirror repeats the text of a tab stop.
	KindMirror

	// KindExpression holds the host's result for a code string.
	KindExpression
)

// String returns a human-readable representation of the kind.
func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindTabStop:
		return "tabstop"
	case KindMirror:
		return "mirror"
	case KindExpression:
		return "expression"
	default:
		return "unknown"
	}
}

// node is one region of an expanded snippet.
// start and end are in the coordinates of the parent's text; for the root
// they are document coordinates.
type node struct {
	kind     NodeKind
	start    buffer.Point
	end      buffer.Point
	parent   NodeID
	children []NodeID

	// stops declared while parsing this node's text.
	stops map[int]NodeID

	text *buffer.Buffer

	number int    // tab stop number
	source NodeID // mirrored tab stop
	code   string // expression source
}

func (n *node) span() buffer.PointRange {
	return buffer.PointRange{Start: n.start, End: n.end}
}

// translate moves the node by dLines lines and its start and end columns by
// the given amounts.
func (n *node) translate(dLines, dStartCols, dEndCols int) {
	n.start.Line += dLines
	n.end.Line += dLines
	n.start.Column += dStartCols
	n.end.Column += dEndCols
}

func (n *node) String() string {
	text := buffer.JoinLines(n.text.Lines())
	switch n.kind {
	case KindTabStop:
		return fmt.Sprintf("TabStop(%d, %s, %q)", n.number, n.span(), text)
	case KindMirror:
		return fmt.Sprintf("Mirror(%d -> %s, %q)", n.source, n.span(), text)
	case KindExpression:
		return fmt.Sprintf("Expression(%s, %q)", n.span(), n.code)
	default:
		return fmt.Sprintf("Root(%s)", n.span())
	}
}

// tree is the arena holding every node of one instance.
// Nodes are never removed; a node dropped from its parent's children stays
// in the arena but is no longer reachable from the root.
type tree struct {
	nodes []*node
}

func newTree() *tree {
	return &tree{}
}

// add stores n and links it under its parent.
func (t *tree) add(n *node) NodeID {
	if n.text == nil {
		n.text = buffer.NewBuffer()
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	if n.parent != noNode {
		p := t.nodes[n.parent]
		p.children = append(p.children, id)
	}
	return id
}

func (t *tree) node(id NodeID) *node {
	return t.nodes[id]
}

// declare records stop number as id in owner's table.
// A second declaration of the same number replaces the first.
func (t *tree) declare(owner NodeID, number int, id NodeID) {
	n := t.nodes[owner]
	if n.stops == nil {
		n.stops = make(map[int]NodeID)
	}
	n.stops[number] = id
}

// lookup resolves a stop number by walking from owner up the scope chain.
func (t *tree) lookup(owner NodeID, number int) (NodeID, bool) {
	for id := owner; id != noNode; id = t.nodes[id].parent {
		if sid, ok := t.nodes[id].stops[number]; ok {
			return sid, true
		}
	}
	return noNode, false
}

// setText replaces a node's text. Its children and the stops they declared
// are dropped.
func (t *tree) setText(id NodeID, lines []string) {
	n := t.nodes[id]
	n.text = buffer.NewBufferFromString(buffer.JoinLines(lines))
	n.children = nil
	n.stops = nil
}

func (t *tree) textOf(id NodeID) string {
	return t.nodes[id].text.Text()
}

// absolute converts p, given in the coordinates of owner's text, to document
// coordinates.
func (t *tree) absolute(owner NodeID, p buffer.Point) buffer.Point {
	for id := owner; id != noNode; id = t.nodes[id].parent {
		s := t.nodes[id].start
		if p.Line == 0 {
			p.Column += s.Column
		}
		p.Line += s.Line
	}
	return p
}

// absSpan returns a node's span in document coordinates.
func (t *tree) absSpan(id NodeID) buffer.PointRange {
	n := t.nodes[id]
	return buffer.PointRange{
		Start: t.absolute(n.parent, n.start),
		End:   t.absolute(n.parent, n.end),
	}
}

// walk visits every node reachable from id in document order.
func (t *tree) walk(id NodeID, fn func(NodeID)) {
	fn(id)
	for _, c := range t.nodes[id].children {
		t.walk(c, fn)
	}
}

// reachable returns the set of nodes currently linked under root.
func (t *tree) reachable(root NodeID) map[NodeID]bool {
	seen := make(map[NodeID]bool)
	t.walk(root, func(id NodeID) { seen[id] = true })
	return seen
}

// stops collects the navigable stops of the live tree. When a number is
// declared in more than one scope the outermost declaration wins.
func (t *tree) stops(root NodeID) map[int]NodeID {
	live := t.reachable(root)
	out := make(map[int]NodeID)
	t.walk(root, func(id NodeID) {
		for num, sid := range t.nodes[id].stops {
			if _, taken := out[num]; taken || !live[sid] {
				continue
			}
			out[num] = sid
		}
	})
	return out
}

// checkSpans verifies that sibling spans are ordered, do not overlap, and
// lie inside their parent's text.
func (t *tree) checkSpans(root NodeID) error {
	var err error
	t.walk(root, func(id NodeID) {
		if err != nil {
			return
		}
		n := t.nodes[id]
		limit := n.text.End()
		for i, c := range n.children {
			cn := t.nodes[c]
			if cn.end.Before(cn.start) || cn.end.After(limit) {
				err = fmt.Errorf("%w: %s outside %s", ErrSpanOverlap, cn, n)
				return
			}
			if i == 0 {
				continue
			}
			prev := t.nodes[n.children[i-1]]
			if cn.start.Before(prev.end) {
				err = fmt.Errorf("%w: %s and %s", ErrSpanOverlap, prev, cn)
				return
			}
		}
	})
	return err
}

func sortedNumbers(stops map[int]NodeID) []int {
	nums := make([]int, 0, len(stops))
	for n := range stops {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}
