// Package nav implements the drill-down navigation state machine:
// Home → Department → Semester → Subject → Category, with an orthogonal
// overlay dimension for the video player, the resource viewer and named
// modals. The reducer is pure — platform concerns (history API, window
// scrolling, opening external URLs) are returned as effects for the caller
// to perform — so the whole machine can be unit-tested without a browser.
package nav

import (
	"github.com/polyhub/studyhub/internal/catalog"
)

// Tab is the active content tab inside a subject or semester view.
type Tab string

const (
	TabMaterials Tab = "materials"
	TabVideos    Tab = "videos"
	TabAI        Tab = "ai"
)

// OverlayKind identifies what is stacked on top of the current view.
type OverlayKind string

const (
	OverlayNone     OverlayKind = ""
	OverlayVideo    OverlayKind = "video"
	OverlayResource OverlayKind = "resource"
	OverlayModal    OverlayKind = "modal"
)

// Overlay is the transient view stacked above the selection, if any.
type Overlay struct {
	Kind OverlayKind
	ID   string // video id, resource id, or modal name
}

// Selection is the user's position in the catalog hierarchy. Exactly one of
// home (zero value), bookmarks view, or department drill-down is active.
type Selection struct {
	DeptID     string
	Semester   catalog.Semester
	SubjectID  string
	CategoryID string
	Tab        Tab
	Bookmarks  bool
	Overlay    Overlay
}

// Home reports whether the selection is the root view.
func (s Selection) Home() bool {
	return s.DeptID == "" && !s.Bookmarks
}

// Effect is a side effect the caller must perform after a transition.
type Effect interface{ effect() }

// OpenExternal asks the caller to open a URL in a new browsing context.
type OpenExternal struct{ URL string }

// ScrollTop asks the caller to smoothly reset the scroll position.
type ScrollTop struct{}

func (OpenExternal) effect() {}
func (ScrollTop) effect()    {}

// Action is a navigation input.
type Action interface{ action() }

type (
	// SelectDepartment enters drill-down at a department.
	SelectDepartment struct{ ID string }
	// SelectSemester picks a semester within the current department.
	SelectSemester struct{ Semester catalog.Semester }
	// SelectSubject enters a subject, or opens its external collection if
	// the subject is a direct link.
	SelectSubject struct{ ID string }
	// SelectCategory enters a collection category, or opens the URL of a
	// direct_link category without changing state.
	SelectCategory struct{ ID string }
	// SetTab switches the materials/videos/ai tab.
	SetTab struct{ Tab Tab }
	// GoHome clears the whole selection, overlays included.
	GoHome struct{}
	// GoBookmarks switches to the bookmarks view.
	GoBookmarks struct{}
	// OpenVideo stacks the video player overlay.
	OpenVideo struct{ ID string }
	// OpenResource stacks the resource viewer overlay for a pdf, or opens
	// an external tab for a link resource.
	OpenResource struct{ ID string }
	// OpenModal stacks a named modal.
	OpenModal struct{ Name string }
	// CloseOverlay removes the topmost overlay.
	CloseOverlay struct{}
	// DeepLinkSubject jumps straight to a subject from search, skipping the
	// department and semester screens.
	DeepLinkSubject struct{ ID string }
	// DeepLinkVideo jumps to the owning subject's video tab and starts the
	// player.
	DeepLinkVideo struct{ ID string }
)

func (SelectDepartment) action() {}
func (SelectSemester) action()   {}
func (SelectSubject) action()    {}
func (SelectCategory) action()   {}
func (SetTab) action()           {}
func (GoHome) action()           {}
func (GoBookmarks) action()      {}
func (OpenVideo) action()        {}
func (OpenResource) action()     {}
func (OpenModal) action()        {}
func (CloseOverlay) action()     {}
func (DeepLinkSubject) action()  {}
func (DeepLinkVideo) action()    {}

// Reduce applies one action to a selection. Unknown ids leave the selection
// unchanged; direct links produce an OpenExternal effect instead of a
// transition.
func Reduce(c *catalog.Catalog, sel Selection, act Action) (Selection, []Effect) {
	switch a := act.(type) {
	case SelectDepartment:
		if _, ok := c.DepartmentByID(a.ID); !ok {
			return sel, nil
		}
		return Selection{DeptID: a.ID, Tab: TabMaterials}, []Effect{ScrollTop{}}

	case SelectSemester:
		if sel.DeptID == "" {
			return sel, nil
		}
		sel.Semester = a.Semester
		sel.SubjectID = ""
		sel.CategoryID = ""
		return sel, []Effect{ScrollTop{}}

	case SelectSubject:
		sub, _, ok := c.SubjectByID(a.ID)
		if !ok {
			return sel, nil
		}
		if sub.DirectLink() {
			return sel, []Effect{OpenExternal{URL: sub.DriveLink}}
		}
		sel.SubjectID = sub.ID
		sel.CategoryID = ""
		return sel, []Effect{ScrollTop{}}

	case SelectCategory:
		if sel.SubjectID == "" {
			return sel, nil
		}
		cat, ok := c.CategoryByID(sel.SubjectID, a.ID)
		if !ok {
			return sel, nil
		}
		if cat.Kind == catalog.KindDirectLink {
			return sel, []Effect{OpenExternal{URL: cat.URL}}
		}
		sel.CategoryID = cat.ID
		return sel, []Effect{ScrollTop{}}

	case SetTab:
		sel.Tab = a.Tab
		return sel, nil

	case GoHome:
		return Selection{}, nil

	case GoBookmarks:
		return Selection{Bookmarks: true}, nil

	case OpenVideo:
		sel.Overlay = Overlay{Kind: OverlayVideo, ID: a.ID}
		return sel, nil

	case OpenResource:
		res, _, _, _, ok := c.ResourcePath(a.ID)
		if !ok {
			return sel, nil
		}
		if res.Type == catalog.ResourceLink {
			return sel, []Effect{OpenExternal{URL: res.URL}}
		}
		sel.Overlay = Overlay{Kind: OverlayResource, ID: a.ID}
		return sel, nil

	case OpenModal:
		sel.Overlay = Overlay{Kind: OverlayModal, ID: a.Name}
		return sel, nil

	case CloseOverlay:
		sel.Overlay = Overlay{}
		return sel, nil

	case DeepLinkSubject:
		sub, dept, ok := c.SubjectByID(a.ID)
		if !ok {
			return sel, nil
		}
		if sub.DirectLink() {
			return sel, []Effect{OpenExternal{URL: sub.DriveLink}}
		}
		return Selection{
			DeptID:    dept.ID,
			Semester:  sub.Semester,
			SubjectID: sub.ID,
			Tab:       TabMaterials,
		}, []Effect{ScrollTop{}}

	case DeepLinkVideo:
		vid, dept, ok := c.VideoByID(a.ID)
		if !ok {
			return sel, nil
		}
		return Selection{
			DeptID:    dept.ID,
			Semester:  vid.Semester,
			SubjectID: vid.SubjectID, // empty for general videos
			Tab:       TabVideos,
			Overlay:   Overlay{Kind: OverlayVideo, ID: vid.ID},
		}, []Effect{ScrollTop{}}
	}

	return sel, nil
}
