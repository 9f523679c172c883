package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/domain"

	"github.com/jung-kurt/gofpdf"
)

// Format is an export output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// ParseFormat accepts json|csv|pdf, case-insensitive. Empty means json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %s", s)
	}
}

// Export renders tasks and their stats in the given format.
func Export(tasks []*domain.Task, stats domain.Stats, f Format, now time.Time) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(struct {
			Tasks []*domain.Task `json:"tasks"`
			Stats domain.Stats   `json:"stats"`
		}{tasks, stats}, "", "  ")
	case FormatCSV:
		return exportCSV(tasks)
	case FormatPDF:
		return exportPDF(tasks, stats, now)
	default:
		return nil, fmt.Errorf("unknown format %s", f)
	}
}

func exportCSV(tasks []*domain.Task) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"id", "title", "description", "completed", "priority", "due_date", "created_at", "updated_at"})
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(time.RFC3339)
		}
		_ = w.Write([]string{
			t.ID,
			t.Title,
			t.Description,
			strconv.FormatBool(t.Completed),
			string(t.Priority),
			due,
			t.CreatedAt.Format(time.RFC3339),
			t.UpdatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func exportPDF(tasks []*domain.Task, stats domain.Stats, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// встроенные шрифты только latin-1
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task Report")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s  |  total %d, active %d, completed %d, overdue %d (%d%% done)",
		now.Format("2006-01-02 15:04"), stats.Total, stats.Active, stats.Completed, stats.Overdue, stats.CompletionRate))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	for _, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s (%s)", mark, t.Title, t.Priority)
		if t.DueDate != nil {
			line += " due " + t.DueDate.Format("2006-01-02")
			if t.Overdue(now) {
				line += " OVERDUE"
			}
		}
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
		if t.Description != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 5, tr("    "+t.Description), "0", "L", false)
			pdf.SetFont("Arial", "", 10)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
