package tracking

import (
	"sync"
	"testing"

	"github.com/dshills/snipstorm/internal/engine/buffer"
)

func pt(line, col int) buffer.Point {
	return buffer.Point{Line: line, Column: col}
}

func rng(sl, sc, el, ec int) buffer.PointRange {
	return buffer.PointRange{Start: pt(sl, sc), End: pt(el, ec)}
}

func TestChangeTypeString(t *testing.T) {
	tests := []struct {
		ct   ChangeType
		want string
	}{
		{ChangeInsert, "insert"},
		{ChangeDelete, "delete"},
		{ChangeReplace, "replace"},
		{ChangeType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("ChangeType(%d).String() = %q, want %q", tt.ct, got, tt.want)
		}
	}
}

func TestNewChangeClassifies(t *testing.T) {
	tests := []struct {
		name    string
		result  buffer.EditResult
		newText string
		want    ChangeType
	}{
		{"insert", buffer.EditResult{OldRange: rng(0, 1, 0, 1), NewRange: rng(0, 1, 0, 3)}, "ab", ChangeInsert},
		{"delete", buffer.EditResult{OldRange: rng(0, 1, 0, 3), NewRange: rng(0, 1, 0, 1), OldText: "ab"}, "", ChangeDelete},
		{"replace", buffer.EditResult{OldRange: rng(0, 1, 0, 3), NewRange: rng(0, 1, 0, 2), OldText: "ab"}, "x", ChangeReplace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChange(tt.result, tt.newText, 7)
			if c.Type != tt.want {
				t.Errorf("expected %s, got %s", tt.want, c.Type)
			}
			if c.RevisionID != 7 {
				t.Errorf("expected revision 7, got %d", c.RevisionID)
			}
		})
	}
}

func TestChangeInvert(t *testing.T) {
	c := Change{
		Type:     ChangeInsert,
		Range:    rng(0, 2, 0, 2),
		NewRange: rng(0, 2, 1, 1),
		NewText:  "a\nb",
	}
	inv := c.Invert()
	if inv.Type != ChangeDelete {
		t.Errorf("expected delete, got %s", inv.Type)
	}
	if inv.Range != c.NewRange || inv.NewRange != c.Range {
		t.Errorf("ranges not swapped: %v", inv)
	}
	if inv.OldText != "a\nb" || inv.NewText != "" {
		t.Errorf("texts not swapped: %q/%q", inv.OldText, inv.NewText)
	}
}

func TestChangeEditRoundTrip(t *testing.T) {
	buf := buffer.NewBufferFromString("hello world")
	edit := buffer.NewEdit(rng(0, 6, 0, 11), "gopher")
	res, err := buf.ApplyEdit(edit)
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	c := NewChange(res, edit.NewText, buf.RevisionID())

	undo := c.Invert().Edit()
	if _, err := buf.ApplyEdit(undo); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got := buf.Text(); got != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", got)
	}
}

func TestTrackerChangesSince(t *testing.T) {
	tr := NewTracker()
	for i := 1; i <= 5; i++ {
		tr.RecordChange(Change{Type: ChangeInsert, NewText: "x", RevisionID: RevisionID(i)})
	}

	got := tr.ChangesSince(2)
	if len(got) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(got))
	}
	for i, c := range got {
		if want := RevisionID(i + 3); c.RevisionID != want {
			t.Errorf("change %d: expected revision %d, got %d", i, want, c.RevisionID)
		}
	}

	if got := tr.ChangesSince(5); len(got) != 0 {
		t.Errorf("expected no changes since latest, got %d", len(got))
	}
	if tr.LatestRevision() != 5 {
		t.Errorf("expected latest 5, got %d", tr.LatestRevision())
	}
}

func TestTrackerRingBufferWraps(t *testing.T) {
	tr := NewTracker(WithMaxChanges(3))
	for i := 1; i <= 5; i++ {
		tr.RecordChange(Change{RevisionID: RevisionID(i)})
	}

	if tr.ChangeCount() != 3 {
		t.Fatalf("expected 3 retained, got %d", tr.ChangeCount())
	}
	got := tr.ChangesSince(0)
	want := []RevisionID{3, 4, 5}
	for i, c := range got {
		if c.RevisionID != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], c.RevisionID)
		}
	}
}

func TestTrackerLatestChanges(t *testing.T) {
	tr := NewTracker(WithMaxChanges(4))
	if got := tr.LatestChanges(2); got != nil {
		t.Errorf("expected nil from empty tracker, got %v", got)
	}
	for i := 1; i <= 6; i++ {
		tr.RecordChange(Change{RevisionID: RevisionID(i)})
	}

	got := tr.LatestChanges(2)
	if len(got) != 2 || got[0].RevisionID != 5 || got[1].RevisionID != 6 {
		t.Errorf("expected revisions 5,6, got %v", got)
	}
	if got := tr.LatestChanges(10); len(got) != 4 {
		t.Errorf("expected clamp to 4, got %d", len(got))
	}
}

func TestTrackerClear(t *testing.T) {
	tr := NewTracker()
	tr.RecordChange(Change{RevisionID: 1})
	tr.Clear()
	if tr.ChangeCount() != 0 {
		t.Errorf("expected empty tracker, got %d", tr.ChangeCount())
	}
	if got := tr.ChangesSince(0); len(got) != 0 {
		t.Errorf("expected no changes, got %d", len(got))
	}
}

func TestChangeSetSummary(t *testing.T) {
	tr := NewTracker()
	tr.RecordChange(Change{Type: ChangeInsert, RevisionID: 1})
	tr.RecordChange(Change{Type: ChangeInsert, RevisionID: 2})
	tr.RecordChange(Change{Type: ChangeDelete, RevisionID: 3})

	cs := tr.BuildChangeSet(0)
	if cs.Len() != 3 {
		t.Fatalf("expected 3, got %d", cs.Len())
	}
	if cs.EndRevision != 3 {
		t.Errorf("expected end revision 3, got %d", cs.EndRevision)
	}
	if got, want := cs.Summary(), "2 inserts, 1 deletes"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := NewChangeSet(0).Summary(); got != "no changes" {
		t.Errorf("expected %q, got %q", "no changes", got)
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tr := NewTracker(WithMaxChanges(64))
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				tr.RecordChange(Change{RevisionID: RevisionID(base*100 + i + 1)})
				_ = tr.ChangesSince(0)
			}
		}(g)
	}
	wg.Wait()
	if tr.ChangeCount() != 64 {
		t.Errorf("expected full ring of 64, got %d", tr.ChangeCount())
	}
}
