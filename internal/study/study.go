// Package study tracks per-user learning state: subject study progress and
// bookmarks. State lives in a Store and is mirrored in memory by a Tracker,
// which also fans out change events so concurrent sessions of the same user
// converge.
package study

import (
	"sort"
	"sync"
	"time"
)

// ProgressStep is the granularity progress is recorded at.
const ProgressStep = 5

// Progress maps a subject id to a studied percentage (0-100, multiples of
// ProgressStep).
type Progress map[string]int

// Clone returns an independent copy.
func (p Progress) Clone() Progress {
	out := make(Progress, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// NormalizePercent clamps a raw percentage into [0, 100] and snaps it down
// to the nearest ProgressStep.
func NormalizePercent(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct - pct%ProgressStep
}

// MergeMax folds src into dst keeping the higher percentage per subject, so
// an import or sync can never regress progress.
func MergeMax(dst, src Progress) Progress {
	if dst == nil {
		dst = Progress{}
	}
	for id, pct := range src {
		if pct > dst[id] {
			dst[id] = pct
		}
	}
	return dst
}

// BookmarkType says what kind of catalog entity a bookmark points at.
type BookmarkType string

const (
	BookmarkSubject BookmarkType = "subject"
	BookmarkVideo   BookmarkType = "video"
)

// Bookmark is one saved catalog entry. Title and subtitle are denormalized
// for listing; DeptID lets the bookmarks view jump back into the drill-down.
type Bookmark struct {
	ID       string       `json:"id"`
	Type     BookmarkType `json:"type"`
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle,omitempty"`
	DeptID   string       `json:"dept_id,omitempty"`
}

// EventKind distinguishes what part of the study state changed.
type EventKind string

const (
	EventProgress  EventKind = "progress"
	EventBookmarks EventKind = "bookmarks"
)

// Event describes one state change. Progress events carry the full progress
// map and are merged by max on receipt; bookmark events carry the full
// bookmark list and the last write wins.
type Event struct {
	Kind      EventKind  `json:"kind"`
	UserID    string     `json:"user_id"`
	Origin    string     `json:"origin"`
	Progress  Progress   `json:"progress,omitempty"`
	Bookmarks []Bookmark `json:"bookmarks,omitempty"`
	At        time.Time  `json:"at"`
}

// Tracker is the in-memory working copy of one user's study state. All
// mutations write through to the store and notify subscribers.
type Tracker struct {
	store  Store
	userID string
	origin string

	mu        sync.RWMutex
	progress  Progress
	bookmarks map[string]Bookmark
	subs      []func(Event)
}

// NewTracker loads the user's persisted state into a tracker. The origin
// string identifies this session in emitted events so it can ignore its own
// echoes.
func NewTracker(store Store, userID, origin string) (*Tracker, error) {
	prog, err := store.Progress(userID)
	if err != nil {
		return nil, err
	}
	marks, err := store.Bookmarks(userID)
	if err != nil {
		return nil, err
	}

	t := &Tracker{
		store:     store,
		userID:    userID,
		origin:    origin,
		progress:  prog.Clone(),
		bookmarks: make(map[string]Bookmark, len(marks)),
	}
	for _, b := range marks {
		t.bookmarks[b.ID] = b
	}
	return t, nil
}

// Subscribe registers a callback invoked after every local mutation.
// Callbacks run synchronously under no lock.
func (t *Tracker) Subscribe(fn func(Event)) {
	t.mu.Lock()
	t.subs = append(t.subs, fn)
	t.mu.Unlock()
}

// SubjectProgress returns the recorded percentage for one subject.
func (t *Tracker) SubjectProgress(subjectID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress[subjectID]
}

// Progress returns a copy of the full progress map.
func (t *Tracker) Progress() Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress.Clone()
}

// SetSubjectProgress records a slider value. The value is normalized and
// set directly; unlike import, a deliberate user drag may lower progress.
func (t *Tracker) SetSubjectProgress(subjectID string, pct int) error {
	pct = NormalizePercent(pct)

	t.mu.Lock()
	if cur, ok := t.progress[subjectID]; ok && cur == pct {
		t.mu.Unlock()
		return nil
	}
	t.progress[subjectID] = pct
	snapshot := t.progress.Clone()
	t.mu.Unlock()

	if err := t.store.SaveProgress(t.userID, snapshot); err != nil {
		return err
	}
	t.notify(Event{Kind: EventProgress, UserID: t.userID, Origin: t.origin, Progress: snapshot, At: time.Now()})
	return nil
}

// ImportProgress merges an external progress map by max and persists the
// result: importing never regresses progress. Used both for explicit
// imports and for sync events from other sessions.
func (t *Tracker) ImportProgress(src Progress) error {
	t.mu.Lock()
	changed := false
	for id, pct := range src {
		if pct = NormalizePercent(pct); pct > t.progress[id] {
			t.progress[id] = pct
			changed = true
		}
	}
	snapshot := t.progress.Clone()
	t.mu.Unlock()

	if !changed {
		return nil
	}
	if err := t.store.SaveProgress(t.userID, snapshot); err != nil {
		return err
	}
	t.notify(Event{Kind: EventProgress, UserID: t.userID, Origin: t.origin, Progress: snapshot, At: time.Now()})
	return nil
}

// Bookmarked reports whether an entity is bookmarked.
func (t *Tracker) Bookmarked(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.bookmarks[id]
	return ok
}

// Bookmarks returns the bookmarks sorted by id.
func (t *Tracker) Bookmarks() []Bookmark {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedBookmarks(t.bookmarks)
}

// ToggleBookmark flips a bookmark by id and reports the new state. Pure set
// semantics: a present id is removed, an absent one added.
func (t *Tracker) ToggleBookmark(b Bookmark) (bookmarked bool, err error) {
	t.mu.Lock()
	if _, ok := t.bookmarks[b.ID]; ok {
		delete(t.bookmarks, b.ID)
	} else {
		t.bookmarks[b.ID] = b
		bookmarked = true
	}
	snapshot := sortedBookmarks(t.bookmarks)
	t.mu.Unlock()

	if err := t.store.SaveBookmarks(t.userID, snapshot); err != nil {
		return bookmarked, err
	}
	t.notify(Event{Kind: EventBookmarks, UserID: t.userID, Origin: t.origin, Bookmarks: snapshot, At: time.Now()})
	return bookmarked, nil
}

// ApplyRemote folds a sync event from another session into local state
// without re-emitting it. Progress merges by max; bookmarks take the remote
// list wholesale (last write wins). Events for other users or from this
// session's own origin are ignored.
func (t *Tracker) ApplyRemote(ev Event) {
	if ev.UserID != t.userID || ev.Origin == t.origin {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Kind {
	case EventProgress:
		for id, pct := range ev.Progress {
			if pct = NormalizePercent(pct); pct > t.progress[id] {
				t.progress[id] = pct
			}
		}
	case EventBookmarks:
		t.bookmarks = make(map[string]Bookmark, len(ev.Bookmarks))
		for _, b := range ev.Bookmarks {
			t.bookmarks[b.ID] = b
		}
	}
}

func (t *Tracker) notify(ev Event) {
	t.mu.RLock()
	subs := make([]func(Event), len(t.subs))
	copy(subs, t.subs)
	t.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func sortedBookmarks(set map[string]Bookmark) []Bookmark {
	out := make([]Bookmark, 0, len(set))
	for _, b := range set {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
