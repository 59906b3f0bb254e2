package study_test

import (
	"testing"

	"github.com/polyhub/studyhub/internal/study"
)

func newTracker(t *testing.T, origin string) (*study.Tracker, *study.MemoryStore) {
	t.Helper()
	store := study.NewMemoryStore()
	tr, err := study.NewTracker(store, "u1", origin)
	if err != nil {
		t.Fatalf("NewTracker() error = %v", err)
	}
	return tr, store
}

func mark(id string) study.Bookmark {
	return study.Bookmark{ID: id, Type: study.BookmarkSubject, Title: "Subject " + id}
}

func TestNormalizePercent(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-10, 0},
		{0, 0},
		{3, 0},
		{5, 5},
		{47, 45},
		{99, 95},
		{100, 100},
		{250, 100},
	}
	for _, tt := range tests {
		if got := study.NormalizePercent(tt.in); got != tt.want {
			t.Errorf("NormalizePercent(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTracker_SliderSetsDirectly(t *testing.T) {
	tr, store := newTracker(t, "tab-a")

	if err := tr.SetSubjectProgress("s1", 52); err != nil {
		t.Fatalf("SetSubjectProgress() error = %v", err)
	}
	if got := tr.SubjectProgress("s1"); got != 50 {
		t.Errorf("progress = %d, want normalized 50", got)
	}

	// The slider may move backwards: a direct set is not a merge.
	if err := tr.SetSubjectProgress("s1", 20); err != nil {
		t.Fatalf("SetSubjectProgress() error = %v", err)
	}
	if got := tr.SubjectProgress("s1"); got != 20 {
		t.Errorf("progress = %d, want 20", got)
	}

	p, err := store.Progress("u1")
	if err != nil {
		t.Fatalf("store.Progress() error = %v", err)
	}
	if p["s1"] != 20 {
		t.Errorf("persisted progress = %d, want 20", p["s1"])
	}
}

func TestTracker_ImportProgressMergesByMax(t *testing.T) {
	tr, _ := newTracker(t, "tab-a")
	tr.SetSubjectProgress("s1", 60)
	tr.SetSubjectProgress("s2", 20)

	if err := tr.ImportProgress(study.Progress{"s1": 40, "s2": 80, "s3": 33}); err != nil {
		t.Fatalf("ImportProgress() error = %v", err)
	}

	want := study.Progress{"s1": 60, "s2": 80, "s3": 30}
	for id, pct := range want {
		if got := tr.SubjectProgress(id); got != pct {
			t.Errorf("progress[%s] = %d, want %d", id, got, pct)
		}
	}
}

func TestTracker_ToggleBookmark(t *testing.T) {
	tr, store := newTracker(t, "tab-a")

	on, err := tr.ToggleBookmark(mark("s1"))
	if err != nil || !on {
		t.Fatalf("first toggle = (%v, %v), want (true, nil)", on, err)
	}
	on, err = tr.ToggleBookmark(mark("s1"))
	if err != nil || on {
		t.Fatalf("second toggle = (%v, %v), want (false, nil)", on, err)
	}
	if tr.Bookmarked("s1") {
		t.Error("double toggle should leave the subject unbookmarked")
	}

	tr.ToggleBookmark(mark("s2"))
	tr.ToggleBookmark(mark("s1"))
	got := tr.Bookmarks()
	if len(got) != 2 || got[0].ID != "s1" || got[1].ID != "s2" {
		t.Errorf("Bookmarks() = %v, want ids sorted [s1 s2]", got)
	}

	marks, _ := store.Bookmarks("u1")
	if len(marks) != 2 {
		t.Errorf("persisted bookmarks = %v, want 2 entries", marks)
	}
}

func TestTracker_EventsCarryFullState(t *testing.T) {
	tr, _ := newTracker(t, "tab-a")

	var events []study.Event
	tr.Subscribe(func(ev study.Event) { events = append(events, ev) })

	tr.SetSubjectProgress("s1", 25)
	tr.ToggleBookmark(mark("s1"))

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != study.EventProgress || events[0].Progress["s1"] != 25 {
		t.Errorf("progress event = %+v", events[0])
	}
	if events[1].Kind != study.EventBookmarks || len(events[1].Bookmarks) != 1 {
		t.Errorf("bookmark event = %+v", events[1])
	}
	for _, ev := range events {
		if ev.Origin != "tab-a" || ev.UserID != "u1" {
			t.Errorf("event origin/user = %q/%q", ev.Origin, ev.UserID)
		}
	}

	// Writing the value already stored emits nothing.
	n := len(events)
	tr.SetSubjectProgress("s1", 25)
	if len(events) != n {
		t.Error("unchanged progress write should not emit an event")
	}
}

func TestTracker_ApplyRemote(t *testing.T) {
	tr, _ := newTracker(t, "tab-a")
	tr.SetSubjectProgress("s1", 60)
	tr.ToggleBookmark(mark("s1"))

	// Remote progress merges by max.
	tr.ApplyRemote(study.Event{
		Kind: study.EventProgress, UserID: "u1", Origin: "tab-b",
		Progress: study.Progress{"s1": 40, "s2": 90},
	})
	if got := tr.SubjectProgress("s1"); got != 60 {
		t.Errorf("progress[s1] = %d, want 60 (remote lower value ignored)", got)
	}
	if got := tr.SubjectProgress("s2"); got != 90 {
		t.Errorf("progress[s2] = %d, want 90", got)
	}

	// Remote bookmarks replace the list wholesale.
	tr.ApplyRemote(study.Event{
		Kind: study.EventBookmarks, UserID: "u1", Origin: "tab-b",
		Bookmarks: []study.Bookmark{mark("s2"), mark("s3")},
	})
	if tr.Bookmarked("s1") {
		t.Error("remote bookmark list should replace the local one")
	}
	if !tr.Bookmarked("s2") || !tr.Bookmarked("s3") {
		t.Errorf("bookmarks = %v, want [s2 s3]", tr.Bookmarks())
	}

	// Own echoes and other users are ignored.
	tr.ApplyRemote(study.Event{
		Kind: study.EventBookmarks, UserID: "u1", Origin: "tab-a", Bookmarks: nil,
	})
	if len(tr.Bookmarks()) != 2 {
		t.Error("own echo must not be applied")
	}
	tr.ApplyRemote(study.Event{
		Kind: study.EventProgress, UserID: "u2", Origin: "tab-b",
		Progress: study.Progress{"s9": 100},
	})
	if tr.SubjectProgress("s9") != 0 {
		t.Error("other user's event must not be applied")
	}
}

func TestTracker_ConvergesRegardlessOfOrder(t *testing.T) {
	// Two sessions of the same user exchanging progress events converge to
	// the higher value no matter the delivery order.
	a, _ := newTracker(t, "tab-a")
	b, _ := newTracker(t, "tab-b")

	var fromA, fromB []study.Event
	a.Subscribe(func(ev study.Event) { fromA = append(fromA, ev) })
	b.Subscribe(func(ev study.Event) { fromB = append(fromB, ev) })

	a.SetSubjectProgress("s1", 30)
	b.SetSubjectProgress("s1", 70)
	a.SetSubjectProgress("s2", 55)

	for i := len(fromA) - 1; i >= 0; i-- { // reversed delivery
		b.ApplyRemote(fromA[i])
	}
	for _, ev := range fromB {
		a.ApplyRemote(ev)
	}

	for _, id := range []string{"s1", "s2"} {
		if a.SubjectProgress(id) != b.SubjectProgress(id) {
			t.Errorf("diverged on %s: a=%d b=%d", id, a.SubjectProgress(id), b.SubjectProgress(id))
		}
	}
	if a.SubjectProgress("s1") != 70 {
		t.Errorf("progress[s1] = %d, want max 70", a.SubjectProgress("s1"))
	}
}

func TestMergeMax(t *testing.T) {
	dst := study.Progress{"a": 50, "b": 20}
	got := study.MergeMax(dst, study.Progress{"a": 30, "b": 60, "c": 10})

	want := study.Progress{"a": 50, "b": 60, "c": 10}
	for id, pct := range want {
		if got[id] != pct {
			t.Errorf("merged[%s] = %d, want %d", id, got[id], pct)
		}
	}

	if got := study.MergeMax(nil, study.Progress{"x": 5}); got["x"] != 5 {
		t.Errorf("MergeMax(nil, …) = %v", got)
	}
}
