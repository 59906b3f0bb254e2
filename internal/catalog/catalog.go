// Package catalog holds the static content tree: departments, subjects,
// resource categories, resources and video lectures. The catalog is built
// once at startup and read-only afterwards; every entity carries a stable
// string id so persisted bookmarks and history snapshots can re-resolve
// entities across restarts.
package catalog

import (
	"strings"
)

// Catalog is the full immutable content tree with id indexes.
type Catalog struct {
	departments []Department

	deptByID    map[string]int
	subjectDept map[string]string // subject id -> department id
	videoDept   map[string]string // video id -> department id
}

// New builds a catalog from the given departments and indexes every entity
// by id. Duplicate ids keep the first occurrence.
func New(departments []Department) *Catalog {
	c := &Catalog{
		departments: departments,
		deptByID:    make(map[string]int),
		subjectDept: make(map[string]string),
		videoDept:   make(map[string]string),
	}
	for i, d := range departments {
		if _, ok := c.deptByID[d.ID]; !ok {
			c.deptByID[d.ID] = i
		}
		for _, s := range d.Subjects {
			if _, ok := c.subjectDept[s.ID]; !ok {
				c.subjectDept[s.ID] = d.ID
			}
		}
		for _, v := range d.Videos {
			if _, ok := c.videoDept[v.ID]; !ok {
				c.videoDept[v.ID] = d.ID
			}
		}
	}
	return c
}

// Departments returns all departments in catalog order.
func (c *Catalog) Departments() []Department {
	return c.departments
}

// DepartmentByID returns the department with the given id.
func (c *Catalog) DepartmentByID(id string) (Department, bool) {
	i, ok := c.deptByID[id]
	if !ok {
		return Department{}, false
	}
	return c.departments[i], true
}

// SubjectByID returns a subject and its owning department.
func (c *Catalog) SubjectByID(id string) (Subject, Department, bool) {
	deptID, ok := c.subjectDept[id]
	if !ok {
		return Subject{}, Department{}, false
	}
	dept, _ := c.DepartmentByID(deptID)
	for _, s := range dept.Subjects {
		if s.ID == id {
			return s, dept, true
		}
	}
	return Subject{}, Department{}, false
}

// VideoByID returns a video lecture and its owning department.
func (c *Catalog) VideoByID(id string) (VideoLecture, Department, bool) {
	deptID, ok := c.videoDept[id]
	if !ok {
		return VideoLecture{}, Department{}, false
	}
	dept, _ := c.DepartmentByID(deptID)
	for _, v := range dept.Videos {
		if v.ID == id {
			return v, dept, true
		}
	}
	return VideoLecture{}, Department{}, false
}

// CategoryByID returns a category of the given subject.
func (c *Catalog) CategoryByID(subjectID, categoryID string) (ResourceCategory, bool) {
	sub, _, ok := c.SubjectByID(subjectID)
	if !ok {
		return ResourceCategory{}, false
	}
	for _, cat := range sub.Categories {
		if cat.ID == categoryID {
			return cat, true
		}
	}
	return ResourceCategory{}, false
}

// ResourcePath locates a resource by id and returns it with the ids of the
// category, subject and department it lives under.
func (c *Catalog) ResourcePath(resourceID string) (res Resource, categoryID, subjectID, deptID string, ok bool) {
	for _, d := range c.departments {
		for _, s := range d.Subjects {
			for _, cat := range s.Categories {
				for _, r := range cat.Items {
					if r.ID == resourceID {
						return r, cat.ID, s.ID, d.ID, true
					}
				}
			}
		}
	}
	return Resource{}, "", "", "", false
}

// ParseSemester validates a persisted semester label.
func ParseSemester(label string) (Semester, bool) {
	for _, s := range Semesters {
		if string(s) == label {
			return s, true
		}
	}
	return "", false
}

// SubjectsFor returns the department's subjects for one semester, in
// catalog order.
func (c *Catalog) SubjectsFor(deptID string, sem Semester) []Subject {
	dept, ok := c.DepartmentByID(deptID)
	if !ok {
		return nil
	}
	var out []Subject
	for _, s := range dept.Subjects {
		if s.Semester == sem {
			out = append(out, s)
		}
	}
	return out
}

// VideosFor returns the department's videos for one semester, in catalog
// order.
func (c *Catalog) VideosFor(deptID string, sem Semester) []VideoLecture {
	dept, ok := c.DepartmentByID(deptID)
	if !ok {
		return nil
	}
	var out []VideoLecture
	for _, v := range dept.Videos {
		if v.Semester == sem {
			out = append(out, v)
		}
	}
	return out
}

// OtherVideosKey is the grouping bucket for videos without a subject.
const OtherVideosKey = "other"

// GroupVideosBySubject buckets videos by subject id; videos with no subject
// land in the OtherVideosKey bucket.
func GroupVideosBySubject(videos []VideoLecture) map[string][]VideoLecture {
	groups := make(map[string][]VideoLecture)
	for _, v := range videos {
		key := v.SubjectID
		if key == "" {
			key = OtherVideosKey
		}
		groups[key] = append(groups[key], v)
	}
	return groups
}

// IsPractical reports whether a subject title denotes a lab or practical
// course rather than a theory one.
func IsPractical(title string) bool {
	t := strings.ToLower(title)
	return strings.Contains(t, "lab") ||
		strings.Contains(t, "practical") ||
		strings.Contains(t, "workshop") ||
		strings.Contains(t, "practice")
}

// SplitTheoryPractical partitions subjects into theory and practical lists,
// preserving order.
func SplitTheoryPractical(subjects []Subject) (theory, practical []Subject) {
	for _, s := range subjects {
		if IsPractical(s.Title) {
			practical = append(practical, s)
		} else {
			theory = append(theory, s)
		}
	}
	return theory, practical
}
