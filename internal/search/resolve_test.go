package search_test

import (
	"testing"

	"github.com/polyhub/studyhub/internal/nav"
	"github.com/polyhub/studyhub/internal/search"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		result search.Result
		want   nav.Action
	}{
		{"department enters drill-down", search.Result{Kind: search.KindDept, ID: "ce"}, nav.SelectDepartment{ID: "ce"}},
		{"subject deep-links", search.Result{Kind: search.KindSubject, ID: "ce_1"}, nav.DeepLinkSubject{ID: "ce_1"}},
		{"video deep-links", search.Result{Kind: search.KindVideo, ID: "v_ce1"}, nav.DeepLinkVideo{ID: "v_ce1"}},
		{"unknown kind", search.Result{Kind: "playlist", ID: "x"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := search.Resolve(tt.result); got != tt.want {
				t.Errorf("Resolve(%v) = %v, want %v", tt.result.Kind, got, tt.want)
			}
		})
	}
}

func TestResolve_DirectLinkSubjectOpensExternally(t *testing.T) {
	c := testCatalog()
	m := nav.NewMachine(c)

	// cv_1 has no drive link; resolving it lands in the drill-down.
	m.Apply(search.Resolve(search.Result{Kind: search.KindSubject, ID: "cv_1"}))
	sel := m.Selection()
	if sel.DeptID != "civil" || sel.SubjectID != "cv_1" {
		t.Errorf("selection = %+v, want civil/cv_1", sel)
	}
}
