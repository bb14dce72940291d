package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	internalstrings "github.com/NHHoangTuan/todo-api/internal/strings"
	"github.com/NHHoangTuan/todo-api/task"
)

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var payload createTaskRequest
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	opts := task.CreateOptions{Title: payload.Title, Description: payload.Description}
	if payload.Priority != nil {
		priority, err := task.ParsePriority(*payload.Priority)
		if err != nil {
			s.writeTaskError(w, r, err)
			return
		}
		opts.Priority = priority
	}
	if payload.DueDate != nil {
		due, err := task.ParseDueDate(*payload.DueDate)
		if err != nil {
			s.writeTaskError(w, r, err)
			return
		}
		opts.DueDate = due
	}

	created, err := s.service.Create(r.Context(), opts)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.Show(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, detail)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	var payload updateTaskRequest
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	opts, err := payload.options()
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}

	updated, err := s.service.Update(r.Context(), r.PathValue("id"), opts)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (p updateTaskRequest) options() (task.UpdateOptions, error) {
	opts := task.UpdateOptions{Title: p.Title, Description: p.Description}
	if p.Status != nil {
		status, err := task.ParseStatus(*p.Status)
		if err != nil {
			return opts, err
		}
		opts.Status = &status
	}
	if p.Priority != nil {
		priority, err := task.ParsePriority(*p.Priority)
		if err != nil {
			return opts, err
		}
		opts.Priority = &priority
	}
	if len(p.DueDate) > 0 {
		if bytes.Equal(bytes.TrimSpace(p.DueDate), []byte("null")) {
			opts.ClearDueDate = true
			return opts, nil
		}
		var value string
		if err := json.Unmarshal(p.DueDate, &value); err != nil {
			value = string(p.DueDate)
		}
		due, err := task.ParseDueDate(value)
		if err != nil {
			return opts, err
		}
		if due == nil {
			opts.ClearDueDate = true
		} else {
			opts.DueDate = due
		}
	}
	return opts, nil
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageEnvelope{Success: true, Message: "Task deleted successfully"})
}

func (s *Server) handleTaskReady(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ready, err := s.service.Ready(r.Context(), limit)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ready)
}

// listQuery is a parsed GET /api/tasks query.
type listQuery struct {
	opts   task.ListOptions
	fields []string
}

func parseListQuery(values url.Values) (listQuery, error) {
	var q listQuery
	if v := values.Get("status"); v != "" {
		status, err := task.ParseStatus(v)
		if err != nil {
			return q, err
		}
		q.opts.Filter.Status = status
	}
	if v := values.Get("priority"); v != "" {
		priority, err := task.ParsePriority(v)
		if err != nil {
			return q, err
		}
		q.opts.Filter.Priority = priority
	}
	q.opts.Filter.Title = strings.TrimSpace(values.Get("title"))

	sort, err := task.ParseSort(values.Get("sort"))
	if err != nil {
		return q, err
	}
	q.opts.Sort = sort

	// Non-numeric paging falls back to the defaults.
	q.opts.Page, _ = strconv.Atoi(values.Get("page"))
	if q.opts.Page < 1 {
		q.opts.Page = task.DefaultPage
	}
	q.opts.Limit, _ = strconv.Atoi(values.Get("limit"))
	if q.opts.Limit < 1 {
		q.opts.Limit = task.DefaultLimit
	}
	q.opts.Limit = min(q.opts.Limit, task.MaxLimit)

	q.fields = internalstrings.SplitList(values.Get("fields"))
	slices.Sort(q.fields)
	q.fields = slices.Compact(q.fields)
	return q, nil
}

// cacheKey renders the parsed query canonically, so equivalent URLs share
// an entry.
func (q listQuery) cacheKey() string {
	sortKeys := make([]string, 0, len(q.opts.Sort))
	for _, key := range q.opts.Sort {
		if key.Desc {
			sortKeys = append(sortKeys, "-"+key.Field)
		} else {
			sortKeys = append(sortKeys, key.Field)
		}
	}
	values := url.Values{}
	values.Set("status", string(q.opts.Filter.Status))
	values.Set("priority", string(q.opts.Filter.Priority))
	values.Set("title", strings.ToLower(q.opts.Filter.Title))
	values.Set("sort", strings.Join(sortKeys, ","))
	values.Set("page", strconv.Itoa(q.opts.Page))
	values.Set("limit", strconv.Itoa(q.opts.Limit))
	values.Set("fields", strings.Join(q.fields, ","))
	return values.Encode()
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}

	key := q.cacheKey()
	if body, ok := s.lists.Get(key); ok {
		w.Header().Set(CacheHeader, "HIT")
		writeRaw(w, http.StatusOK, body)
		return
	}

	gen := s.lists.Generation()
	result, err := s.service.List(r.Context(), q.opts)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	data, err := projectTasks(result.Tasks, q.fields)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	body, err := json.Marshal(listEnvelope{
		Success:    true,
		Count:      len(data),
		Pagination: result.Pagination,
		Data:       data,
	})
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	body = append(body, '\n')

	s.lists.SetIfGeneration(key, body, gen)
	w.Header().Set(CacheHeader, "MISS")
	writeRaw(w, http.StatusOK, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// projectTasks keeps only fields (plus _id) of each task. Without fields,
// everything but the version counter is kept.
func projectTasks(tasks []task.Task, fields []string) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(tasks))
	for _, t := range tasks {
		encoded, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("encode task %s: %w", t.ID, err)
		}
		var object map[string]json.RawMessage
		if err := json.Unmarshal(encoded, &object); err != nil {
			return nil, fmt.Errorf("decode task %s: %w", t.ID, err)
		}

		if len(fields) == 0 {
			delete(object, "__v")
		} else {
			for name := range object {
				if name != "_id" && !slices.Contains(fields, name) {
					delete(object, name)
				}
			}
		}

		projected, err := json.Marshal(object)
		if err != nil {
			return nil, fmt.Errorf("encode task %s: %w", t.ID, err)
		}
		out = append(out, projected)
	}
	return out, nil
}
