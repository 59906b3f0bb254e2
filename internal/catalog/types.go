package catalog

// Semester is one of the six semester labels used across the catalog.
type Semester string

const (
	Semester1 Semester = "Semester 1"
	Semester2 Semester = "Semester 2"
	Semester3 Semester = "3rd Semester"
	Semester4 Semester = "4th Semester"
	Semester5 Semester = "5th Semester"
	Semester6 Semester = "6th Semester"
)

// Semesters lists all semester labels in academic order.
var Semesters = []Semester{
	Semester1, Semester2, Semester3, Semester4, Semester5, Semester6,
}

// ResourceType distinguishes in-app PDF viewing from external links.
type ResourceType string

const (
	ResourcePDF  ResourceType = "pdf"
	ResourceLink ResourceType = "link"
)

// CategoryKind distinguishes browsable collections from direct external links.
type CategoryKind string

const (
	KindCollection CategoryKind = "collection"
	KindDirectLink CategoryKind = "direct_link"
)

// Resource is a terminal leaf: a single PDF or external link.
type Resource struct {
	ID    string       `yaml:"id" json:"id"`
	Title string       `yaml:"title" json:"title"`
	Type  ResourceType `yaml:"type" json:"type"`
	URL   string       `yaml:"url" json:"url"`
}

// ResourceCategory groups resources under a subject. A direct_link category
// always carries a URL and is never entered; selecting it opens the URL.
type ResourceCategory struct {
	ID          string       `yaml:"id" json:"id"`
	Title       string       `yaml:"title" json:"title"`
	Kind        CategoryKind `yaml:"kind" json:"kind"`
	Items       []Resource   `yaml:"items,omitempty" json:"items,omitempty"`
	URL         string       `yaml:"url,omitempty" json:"url,omitempty"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
}

// Subject is one course within a department and semester. A subject with a
// DriveLink is a direct-external leaf and typically has no categories.
type Subject struct {
	ID            string             `yaml:"id" json:"id"`
	Title         string             `yaml:"title" json:"title"`
	Semester      Semester           `yaml:"semester" json:"semester"`
	Description   string             `yaml:"description,omitempty" json:"description,omitempty"`
	Categories    []ResourceCategory `yaml:"categories,omitempty" json:"categories,omitempty"`
	DriveLink     string             `yaml:"drive_link,omitempty" json:"drive_link,omitempty"`
	Prerequisites []string           `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`
}

// VideoLecture is a recorded lecture. VideoID is either a single video id or
// a playlist id; SubjectID may be empty for general videos of the semester.
type VideoLecture struct {
	ID         string   `yaml:"id" json:"id"`
	Title      string   `yaml:"title" json:"title"`
	VideoID    string   `yaml:"video_id" json:"video_id"`
	Instructor string   `yaml:"instructor" json:"instructor"`
	Duration   string   `yaml:"duration" json:"duration"`
	Semester   Semester `yaml:"semester" json:"semester"`
	SubjectID  string   `yaml:"subject_id,omitempty" json:"subject_id,omitempty"`
}

// Department is a top-level branch of the catalog.
type Department struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Icon        string         `yaml:"icon,omitempty" json:"icon,omitempty"`
	Color       string         `yaml:"color,omitempty" json:"color,omitempty"`
	Subjects    []Subject      `yaml:"subjects" json:"subjects"`
	Videos      []VideoLecture `yaml:"videos,omitempty" json:"videos,omitempty"`
}

// DirectLink reports whether selecting the subject should bypass drill-down
// and open an external collection instead.
func (s Subject) DirectLink() bool {
	return s.DriveLink != ""
}
