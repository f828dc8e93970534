package core

import (
	"fmt"
	"time"
)

type (
	// ReportTable is a rendered report's tabular body. FooterRow, when
	// present, is a summary row drawn apart from the data rows.
	ReportTable struct {
		Header    []string
		Rows      [][]string
		FooterRow []string
	}

	// Report is the renderer-agnostic document fed to a ReportService.
	Report struct {
		Kind        string // e.g. "student", "course"
		Identifier  string // subject identifier used in the file name
		Title       string
		Meta        []string // lines printed between the title and the table
		Table       ReportTable
		GeneratedAt time.Time
	}

	// ReportService is any service that can render a Report into a document.
	ReportService interface {
		ContentType() string
		Render(r Report) ([]byte, error)
	}
)

// Filename returns the conventional report file name:
// {kind}_report_{identifier}_{timestamp}.{ext}. Cosmetic, not load-bearing.
func (r Report) Filename(ext string) string {
	return fmt.Sprintf("%s_report_%s_%s.%s", r.Kind, r.Identifier, r.GeneratedAt.Format("20060102_150405"), ext)
}
