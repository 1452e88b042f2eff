package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"task-dashboard/internal/export"
	"task-dashboard/internal/model"
	"task-dashboard/internal/service"
)

// taskView is a task as the API returns it.
type taskView struct {
	model.Task
	CategoryName string `json:"categoryName"`
	Overdue      bool   `json:"overdue"`
}

type categoryView struct {
	model.Category
	Tasks []model.Task `json:"tasks"`
}

func (s *Server) view(r *http.Request, task model.Task) taskView {
	return taskView{
		Task:         task,
		CategoryName: s.categories.CategoryName(r.Context(), task.CategoryID),
		Overdue:      s.tasks.IsOverdue(task),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.ListCategories(r.Context())
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCategoryStats(w http.ResponseWriter, r *http.Request) {
	breakdown, err := s.stats.CategoryBreakdown(r.Context())
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	category, err := s.categories.GetCategory(r.Context(), id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	tasks, err := s.tasks.ListTasksByCategory(r.Context(), id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryView{Category: *category, Tasks: tasks})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q, err := parseTaskQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	tasks, err := s.tasks.QueryTasks(r.Context(), q)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	views := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, s.view(r, task))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var input model.TaskInput
	if err := decodeBody(w, r, &input); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.tasks.ValidateInput(r.Context(), input); err != nil {
		writeServiceErr(w, err)
		return
	}
	task, err := s.tasks.CreateTask(r.Context(), input)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	log.Printf("[info] task created id=%d category=%d", task.ID, task.CategoryID)
	writeJSON(w, http.StatusCreated, s.view(r, *task))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	task, err := s.tasks.GetTask(r.Context(), id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(r, *task))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	var patch model.TaskPatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.tasks.ValidatePatch(r.Context(), patch); err != nil {
		writeServiceErr(w, err)
		return
	}
	task, err := s.tasks.UpdateTask(r.Context(), id, patch)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	log.Printf("[info] task updated id=%d status=%s", task.ID, task.Status)
	writeJSON(w, http.StatusOK, s.view(r, *task))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	task, err := s.tasks.DeleteTask(r.Context(), id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	log.Printf("[info] task deleted id=%d", task.ID)
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.ComputeStats(r.Context())
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.stats.Dashboard(r.Context())
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	contentType, err := export.ContentType(format)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	b, err := s.exporter.Export(r.Context(), format)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tasks.%s", format))
	_, _ = w.Write(b)
}

func parseTaskQuery(r *http.Request) (service.TaskQuery, error) {
	var q service.TaskQuery
	values := r.URL.Query()

	if raw := values.Get("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return q, fmt.Errorf("invalid category %q", raw)
		}
		q.CategoryID = uint(id)
	}
	if raw := values.Get("status"); raw != "" {
		status := model.Status(raw)
		if !status.Valid() {
			return q, fmt.Errorf("invalid status %q", raw)
		}
		q.Status = status
	}
	switch values.Get("filter") {
	case "":
	case "overdue":
		q.OverdueOnly = true
	default:
		return q, fmt.Errorf("invalid filter %q", values.Get("filter"))
	}
	return q, nil
}

func pathID(r *http.Request) (uint, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeServiceErr maps service errors onto HTTP status codes.
func writeServiceErr(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, service.ErrNotFound):
		writeErr(w, http.StatusNotFound, err)
	default:
		log.Printf("http: %v", err)
		writeErr(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
