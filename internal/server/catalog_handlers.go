package server

import (
	"net/http"

	"github.com/polyhub/studyhub/internal/catalog"
	"github.com/polyhub/studyhub/internal/search"
)

type departmentSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
}

type catalogResponse struct {
	Departments []departmentSummary `json:"departments"`
	Semesters   []catalog.Semester  `json:"semesters"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	depts := s.cat.Departments()
	resp := catalogResponse{
		Departments: make([]departmentSummary, 0, len(depts)),
		Semesters:   catalog.Semesters,
	}
	for _, d := range depts {
		resp.Departments = append(resp.Departments, departmentSummary{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Icon:        d.Icon,
			Color:       d.Color,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDepartment(w http.ResponseWriter, r *http.Request) {
	dept, ok := s.cat.DepartmentByID(r.PathValue("deptID"))
	if !ok {
		writeError(w, http.StatusNotFound, "department not found")
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

type semesterResponse struct {
	Theory       []catalog.Subject                 `json:"theory"`
	Practical    []catalog.Subject                 `json:"practical"`
	Videos       map[string][]catalog.VideoLecture `json:"videos"`
	SubjectCount int                               `json:"subject_count"`
	VideoCount   int                               `json:"video_count"`
}

// handleSemester returns one department+semester slice of the catalog:
// subjects split into theory and practical, and videos grouped by subject.
func (s *Server) handleSemester(w http.ResponseWriter, r *http.Request) {
	deptID := r.PathValue("deptID")
	if _, ok := s.cat.DepartmentByID(deptID); !ok {
		writeError(w, http.StatusNotFound, "department not found")
		return
	}
	sem, ok := catalog.ParseSemester(r.PathValue("sem"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown semester")
		return
	}

	subjects := s.cat.SubjectsFor(deptID, sem)
	videos := s.cat.VideosFor(deptID, sem)
	theory, practical := catalog.SplitTheoryPractical(subjects)
	resp := semesterResponse{
		Theory:       theory,
		Practical:    practical,
		Videos:       catalog.GroupVideosBySubject(videos),
		SubjectCount: len(subjects),
		VideoCount:   len(videos),
	}
	writeJSON(w, http.StatusOK, resp)
}

type searchResult struct {
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	DeptID   string `json:"dept_id,omitempty"`
	Semester string `json:"semester,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results := search.Search(s.cat, r.URL.Query().Get("q"))
	out := make([]searchResult, 0, len(results))
	for _, res := range results {
		out = append(out, searchResult{
			Kind:     string(res.Kind),
			ID:       res.ID,
			Title:    res.Title,
			DeptID:   res.DeptID,
			Semester: string(res.Semester),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}
