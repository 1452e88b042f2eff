package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"task-dashboard/internal/model"
	"task-dashboard/internal/service"
)

// Row is one exported task with its category resolved.
type Row struct {
	model.Task
	Category string `json:"category"`
	Overdue  bool   `json:"overdue"`
}

// Exporter renders the task list in a downloadable format.
type Exporter struct {
	tasks      *service.TaskService
	categories *service.CategoryService
}

func NewExporter(tasks *service.TaskService, categories *service.CategoryService) *Exporter {
	return &Exporter{tasks: tasks, categories: categories}
}

// ContentType returns the MIME type for a supported format.
func ContentType(format string) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		return "application/json", nil
	case "csv":
		return "text/csv", nil
	case "pdf":
		return "application/pdf", nil
	default:
		return "", fmt.Errorf("unknown format %s", format)
	}
}

func (e *Exporter) Rows(ctx context.Context) ([]Row, error) {
	tasks, err := e.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	names, err := e.categories.Names(ctx)
	if err != nil {
		return nil, err
	}
	today := e.tasks.Today()
	rows := make([]Row, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, Row{
			Task:     task,
			Category: service.NameFrom(names, task.CategoryID),
			Overdue:  task.IsOverdue(today),
		})
	}
	return rows, nil
}

func (e *Exporter) Export(ctx context.Context, format string) ([]byte, error) {
	if _, err := ContentType(format); err != nil {
		return nil, err
	}
	rows, err := e.Rows(ctx)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(rows, "", "  ")
	case "csv":
		return renderCSV(rows)
	default:
		return renderPDF(rows, e.tasks.Today())
	}
}

func renderCSV(rows []Row) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"id", "title", "description", "category", "status", "priority", "due_date", "created_at", "completed_at", "overdue"})
	for _, r := range rows {
		completed := ""
		if r.CompletedAt != nil {
			completed = r.CompletedAt.String()
		}
		_ = w.Write([]string{
			fmt.Sprint(r.ID), r.Title, r.Description, r.Category, string(r.Status), string(r.Priority),
			r.DueDate.String(), r.CreatedAt.String(), completed, fmt.Sprint(r.Overdue),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return b.Bytes(), nil
}

func renderPDF(rows []Row, today model.Date) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task Report "+today.String())
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)
	for _, r := range rows {
		line := fmt.Sprintf("#%d [%s] %s (%s, %s priority) due %s", r.ID, r.Status, r.Title, r.Category, r.Priority, r.DueDate)
		if r.Overdue {
			line += " OVERDUE"
		}
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
