package study

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/polyhub/studyhub/internal/catalog"
)

// WriteWorkbook renders the tracker's state as an xlsx workbook with a
// Progress sheet and a Bookmarks sheet. Ids no longer present in the
// catalog are skipped.
func WriteWorkbook(c *catalog.Catalog, t *Tracker, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const progressSheet = "Progress"
	f.SetSheetName("Sheet1", progressSheet)

	header := []any{"Department", "Semester", "Subject", "Progress %"}
	if err := f.SetSheetRow(progressSheet, "A1", &header); err != nil {
		return fmt.Errorf("write progress header: %w", err)
	}

	row := 2
	for _, dept := range c.Departments() {
		for _, sub := range dept.Subjects {
			pct := t.SubjectProgress(sub.ID)
			if pct == 0 {
				continue
			}
			cell := fmt.Sprintf("A%d", row)
			values := []any{dept.Name, string(sub.Semester), sub.Title, pct}
			if err := f.SetSheetRow(progressSheet, cell, &values); err != nil {
				return fmt.Errorf("write progress row: %w", err)
			}
			row++
		}
	}

	const bookmarkSheet = "Bookmarks"
	if _, err := f.NewSheet(bookmarkSheet); err != nil {
		return fmt.Errorf("create bookmark sheet: %w", err)
	}
	bHeader := []any{"Type", "Title", "Subtitle", "Department"}
	if err := f.SetSheetRow(bookmarkSheet, "A1", &bHeader); err != nil {
		return fmt.Errorf("write bookmark header: %w", err)
	}

	row = 2
	for _, b := range t.Bookmarks() {
		if !bookmarkResolves(c, b) {
			continue
		}
		deptName := ""
		if dept, ok := c.DepartmentByID(b.DeptID); ok {
			deptName = dept.Name
		}
		cell := fmt.Sprintf("A%d", row)
		values := []any{string(b.Type), b.Title, b.Subtitle, deptName}
		if err := f.SetSheetRow(bookmarkSheet, cell, &values); err != nil {
			return fmt.Errorf("write bookmark row: %w", err)
		}
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func bookmarkResolves(c *catalog.Catalog, b Bookmark) bool {
	switch b.Type {
	case BookmarkSubject:
		_, _, ok := c.SubjectByID(b.ID)
		return ok
	case BookmarkVideo:
		_, _, ok := c.VideoByID(b.ID)
		return ok
	}
	return false
}
