package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"taskapi/internal/model"
	"taskapi/internal/repo"
	"taskapi/internal/service"
	"taskapi/pkg/respond"
)

type TaskHandler struct {
	service  *service.TaskService
	logger   *zap.Logger
	validate *validator.Validate
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service:  srv,
		logger:   logger,
		validate: validator.New(),
	}
}

// TaskRequest is the body of create and update calls.
type TaskRequest struct {
	Title string `json:"title" validate:"required"`
	Done  bool   `json:"done"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "title is required")
		return
	}

	idempKey := r.Header.Get("Idempotency-Key")
	task, err := h.service.Create(r.Context(), req.Title, req.Done, idempKey)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/tasks/%d", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.List(r.Context(), q)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, result)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "title is required")
		return
	}

	task, err := h.service.Update(r.Context(), id, req.Title, req.Done)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	if !deleted {
		respond.Error(w, r, http.StatusNotFound, "not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, "validation error")
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}

// parseListQuery validates the query string before anything reaches the
// repository: sort and order are whitelisted here, limit/offset must be
// non-negative integers, done must parse as a bool.
func parseListQuery(r *http.Request) (model.ListQuery, error) {
	qs := r.URL.Query()
	q := model.ListQuery{Sort: "id", Order: "asc", Search: qs.Get("search")}

	if v := qs.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid limit: %q", v)
		}
		q.Limit = n
	}
	if v := qs.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid offset: %q", v)
		}
		q.Offset = n
	}
	if v := qs.Get("done"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("invalid done: %q", v)
		}
		q.Done = &b
	}
	switch v := qs.Get("sort"); v {
	case "", "id", "title", "done":
		if v != "" {
			q.Sort = v
		}
	default:
		return q, fmt.Errorf("invalid sort: %q", v)
	}
	switch v := qs.Get("order"); v {
	case "", "asc", "desc":
		if v != "" {
			q.Order = v
		}
	default:
		return q, fmt.Errorf("invalid order: %q", v)
	}

	return q, nil
}
