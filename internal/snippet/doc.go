// Package snippet expands trigger words into live placeholder regions and
// keeps every region consistent while the user edits.
//
// # Templates
//
// A template is plain text with three kinds of markers:
//
//	${N:default}  declares stop N with default text
//	$N            mirrors stop N when it is already declared, else declares an empty stop N
//	`!v code`     text produced by the host evaluating code
//
// Stop 0 is where the cursor comes to rest last. Markers that do not parse
// are kept as literal text.
//
// # Regions
//
// An expansion is a tree of regions held in an arena. Each region covers a
// span of its parent's text. After a stop's content changes the tree is
// re-rendered bottom-up: each child rewrites its span in the parent's text,
// the siblings that follow it are shifted by the child's movement, and the
// root finally rewrites its lines in the host.
//
// # Driving an instance
//
// A Manager owns the registry and the active instances for one Host:
//
//	m := snippet.NewManager(host)
//	m.RegisterSnippet("fn", "func ${1:name}($2) {\n\t$0\n}")
//	m.TryExpand(false) // expand the word left of the cursor
//	m.ApplyEdit(edit)  // an edit the host just applied
//	m.TryExpand(false) // jump to the next stop
//
// Hosts that can report explicit edits should use ApplyEdit. Hosts that can
// only report cursor positions use CursorMoved or OnTextChanged, which infer
// the edit from two cursor snapshots.
package snippet
