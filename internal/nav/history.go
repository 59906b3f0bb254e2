package nav

import (
	"github.com/polyhub/studyhub/internal/catalog"
)

// View names the kind of state a history snapshot restores.
type View string

const (
	ViewHome      View = "home"
	ViewBookmarks View = "bookmarks"
	ViewDept      View = "dept"
	ViewSem       View = "sem"
	ViewSub       View = "sub"
	ViewVideo     View = "video"
	ViewPDF       View = "pdf"
	ViewModal     View = "modal"
)

// Snapshot is the small restorable record pushed for every navigable state.
// It stores ids, never live objects: entities are re-resolved against the
// catalog on restore.
type Snapshot struct {
	View   View   `json:"view"`
	DeptID string `json:"deptId,omitempty"`
	SemID  string `json:"semId,omitempty"`
	SubID  string `json:"subId,omitempty"`
	Tab    Tab    `json:"tab,omitempty"`
	ID     string `json:"id,omitempty"`    // video or resource id
	Modal  string `json:"modal,omitempty"` // modal name
}

// SnapshotOf records the selection as a restorable snapshot. Overlay states
// get their own snapshot kind so back/forward traversal reopens them.
func SnapshotOf(sel Selection) Snapshot {
	switch sel.Overlay.Kind {
	case OverlayVideo:
		return Snapshot{View: ViewVideo, ID: sel.Overlay.ID}
	case OverlayResource:
		return Snapshot{View: ViewPDF, ID: sel.Overlay.ID}
	case OverlayModal:
		return Snapshot{View: ViewModal, Modal: sel.Overlay.ID}
	}

	switch {
	case sel.Bookmarks:
		return Snapshot{View: ViewBookmarks}
	case sel.DeptID == "":
		return Snapshot{View: ViewHome}
	case sel.Semester == "":
		return Snapshot{View: ViewDept, DeptID: sel.DeptID}
	case sel.SubjectID == "":
		return Snapshot{View: ViewSem, DeptID: sel.DeptID, SemID: string(sel.Semester)}
	default:
		return Snapshot{
			View:   ViewSub,
			DeptID: sel.DeptID,
			SemID:  string(sel.Semester),
			SubID:  sel.SubjectID,
			Tab:    sel.Tab,
		}
	}
}

// Restore rebuilds a selection from a snapshot by re-resolving ids against
// the catalog. A snapshot referencing ids no longer in the catalog falls
// back to Home instead of failing.
func Restore(c *catalog.Catalog, snap Snapshot) Selection {
	switch snap.View {
	case ViewBookmarks:
		return Selection{Bookmarks: true}

	case ViewDept:
		if _, ok := c.DepartmentByID(snap.DeptID); !ok {
			return Selection{}
		}
		return Selection{DeptID: snap.DeptID, Tab: TabMaterials}

	case ViewSem:
		sem, ok := catalog.ParseSemester(snap.SemID)
		if !ok {
			return Selection{}
		}
		if _, found := c.DepartmentByID(snap.DeptID); !found {
			return Selection{}
		}
		return Selection{DeptID: snap.DeptID, Semester: sem, Tab: TabMaterials}

	case ViewSub:
		sub, dept, ok := c.SubjectByID(snap.SubID)
		if !ok {
			return Selection{}
		}
		tab := snap.Tab
		if tab == "" {
			tab = TabMaterials
		}
		return Selection{
			DeptID:    dept.ID,
			Semester:  sub.Semester,
			SubjectID: sub.ID,
			Tab:       tab,
		}

	case ViewVideo:
		vid, dept, ok := c.VideoByID(snap.ID)
		if !ok {
			return Selection{}
		}
		return Selection{
			DeptID:    dept.ID,
			Semester:  vid.Semester,
			SubjectID: vid.SubjectID,
			Tab:       TabVideos,
			Overlay:   Overlay{Kind: OverlayVideo, ID: vid.ID},
		}

	case ViewPDF:
		_, categoryID, subjectID, deptID, ok := c.ResourcePath(snap.ID)
		if !ok {
			return Selection{}
		}
		sub, _, _ := c.SubjectByID(subjectID)
		return Selection{
			DeptID:     deptID,
			Semester:   sub.Semester,
			SubjectID:  subjectID,
			CategoryID: categoryID,
			Tab:        TabMaterials,
			Overlay:    Overlay{Kind: OverlayResource, ID: snap.ID},
		}

	case ViewModal:
		return Selection{Overlay: Overlay{Kind: OverlayModal, ID: snap.Modal}}
	}

	return Selection{}
}

// Machine couples the reducer with a history stack, mirroring how a
// platform history API would drive it.
type Machine struct {
	cat  *catalog.Catalog
	sel  Selection
	hist []Snapshot
}

// NewMachine starts a machine at Home.
func NewMachine(c *catalog.Catalog) *Machine {
	return &Machine{
		cat:  c,
		hist: []Snapshot{{View: ViewHome}},
	}
}

// Selection returns the current selection.
func (m *Machine) Selection() Selection {
	return m.sel
}

// History returns the recorded snapshots, oldest first.
func (m *Machine) History() []Snapshot {
	out := make([]Snapshot, len(m.hist))
	copy(out, m.hist)
	return out
}

// Apply runs one action through the reducer and records a snapshot whenever
// the selection actually changed.
func (m *Machine) Apply(act Action) []Effect {
	next, effects := Reduce(m.cat, m.sel, act)
	if next != m.sel {
		m.sel = next
		m.hist = append(m.hist, SnapshotOf(next))
	}
	return effects
}

// Back pops the most specific applied transition: close the topmost
// overlay, then collapse category, subject, semester, and finally return
// Home. At Home it is a no-op.
func (m *Machine) Back() {
	switch {
	case m.sel.Overlay.Kind != OverlayNone:
		m.sel.Overlay = Overlay{}
	case m.sel.CategoryID != "":
		m.sel.CategoryID = ""
	case m.sel.SubjectID != "":
		m.sel.SubjectID = ""
	case m.sel.Semester != "":
		m.sel.Semester = ""
	case m.sel.DeptID != "" || m.sel.Bookmarks:
		m.sel = Selection{}
	default:
		return
	}

	// Collapsing can skip several pushed snapshots (tab switches push at
	// the same drill-down level), so pop until the top describes the
	// collapsed selection. A state only ever reached by collapsing, such
	// as backing out of a deep link, gets its snapshot appended instead.
	want := SnapshotOf(m.sel)
	for len(m.hist) > 1 && m.hist[len(m.hist)-1] != want {
		m.hist = m.hist[:len(m.hist)-1]
	}
	if m.hist[len(m.hist)-1] != want {
		m.hist = append(m.hist, want)
	}
}

// RestoreSnapshot handles a platform-level back/forward gesture delivering
// a previously pushed snapshot.
func (m *Machine) RestoreSnapshot(snap Snapshot) {
	m.sel = Restore(m.cat, snap)
}
