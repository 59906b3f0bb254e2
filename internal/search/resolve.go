package search

import (
	"github.com/polyhub/studyhub/internal/nav"
)

// Resolve translates a picked search result into the navigation action that
// opens it: departments enter the drill-down, subjects and videos deep-link
// so the surrounding context is established in one step. Selecting a
// direct-external subject stays a deep link; the reducer short-circuits it
// into an open-external effect.
func Resolve(r Result) nav.Action {
	switch r.Kind {
	case KindDept:
		return nav.SelectDepartment{ID: r.ID}
	case KindSubject:
		return nav.DeepLinkSubject{ID: r.ID}
	case KindVideo:
		return nav.DeepLinkVideo{ID: r.ID}
	}
	return nil
}
