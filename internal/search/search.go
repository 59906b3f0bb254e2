// Package search scores and ranks catalog entries against a free-text
// query. Ranking is synchronous and recomputed from the static catalog on
// every call; there is no index to maintain.
package search

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/polyhub/studyhub/internal/catalog"
)

// Kind tags the entity variant a result refers to.
type Kind string

const (
	KindDept    Kind = "dept"
	KindSubject Kind = "subject"
	KindVideo   Kind = "video"
)

// Result is one ranked match. Entities are referenced by id so a result can
// always be re-resolved against the catalog.
type Result struct {
	Kind     Kind
	ID       string
	Title    string
	DeptID   string // parent department context (empty for dept results)
	Semester catalog.Semester
	Score    float64
}

// Field weights: subject titles dominate, semester context is worth more
// than department context.
const (
	weightDeptName    = 10
	weightDeptDesc    = 5
	weightSubjectName = 30
	weightSubjectDesc = 8
	weightDeptContext = 5
	weightSemContext  = 15
	weightVideoTitle  = 15
)

// matchScore scores one candidate field against the folded query:
// exact match doubles the weight, a prefix match gives 1.5x, a plain
// substring match gives 1x.
func matchScore(fold cases.Caser, field, query string, weight float64) float64 {
	if field == "" || query == "" {
		return 0
	}
	field = fold.String(field)
	switch {
	case field == query:
		return weight * 2
	case strings.HasPrefix(field, query):
		return weight * 1.5
	case strings.Contains(field, query):
		return weight * 1
	default:
		return 0
	}
}

// contextScore scores an ancestor field (department name, semester label)
// as the best per-token match, so a multi-facet query like
// "computer semester 3" can light both contexts at once.
func contextScore(fold cases.Caser, field string, tokens []string, weight float64) float64 {
	best := 0.0
	for _, tok := range tokens {
		if s := matchScore(fold, field, tok, weight); s > best {
			best = s
		}
	}
	return best
}

// Search ranks the catalog against the query, highest score first. Ties
// keep catalog iteration order. An empty or whitespace-only query clears
// the search and yields no results.
func Search(c *catalog.Catalog, query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	// A Caser may carry state, so each call gets its own instead of
	// sharing one across concurrent searches.
	fold := cases.Fold()
	folded := fold.String(query)
	tokens := strings.Fields(folded)

	var results []Result
	for _, dept := range c.Departments() {
		nameScore := matchScore(fold, dept.Name, folded, weightDeptName)
		descScore := matchScore(fold, dept.Description, folded, weightDeptDesc)
		if nameScore > 0 || descScore > 0 {
			results = append(results, Result{
				Kind:  KindDept,
				ID:    dept.ID,
				Title: dept.Name,
				Score: max(nameScore, descScore),
			})
		}

		for _, sub := range dept.Subjects {
			titleScore := matchScore(fold, sub.Title, folded, weightSubjectName)
			subDescScore := matchScore(fold, sub.Description, folded, weightSubjectDesc)
			deptCtx := contextScore(fold, dept.Name, tokens, weightDeptContext)
			semCtx := contextScore(fold, string(sub.Semester), tokens, weightSemContext)

			var score float64
			switch {
			case titleScore > 0 || subDescScore > 0:
				score = max(titleScore, subDescScore) + deptCtx + semCtx
			case deptCtx > 0 && semCtx > 0:
				// Context-only inclusion: no direct text match needed when
				// both the department and the semester are in the query.
				score = deptCtx + semCtx
			default:
				continue
			}

			results = append(results, Result{
				Kind:     KindSubject,
				ID:       sub.ID,
				Title:    sub.Title,
				DeptID:   dept.ID,
				Semester: sub.Semester,
				Score:    score,
			})
		}

		for _, vid := range dept.Videos {
			titleScore := matchScore(fold, vid.Title, folded, weightVideoTitle)
			if titleScore <= 0 {
				continue
			}
			results = append(results, Result{
				Kind:     KindVideo,
				ID:       vid.ID,
				Title:    vid.Title,
				DeptID:   dept.ID,
				Semester: vid.Semester,
				Score:    titleScore,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
