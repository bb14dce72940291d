package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NHHoangTuan/todo-api/task"
)

// Client calls the HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the given address or URL.
func NewClient(addr string) *Client {
	baseURL := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{baseURL: baseURL, client: &http.Client{}}
}

// Error is a failure reported by the server.
type Error struct {
	StatusCode             int
	Message                string
	IncompleteDependencies []IncompleteDependency
	DependentTasks         []DependentTask
}

func (e *Error) Error() string {
	return fmt.Sprintf("todo-api error (%d): %s", e.StatusCode, e.Message)
}

// CreateTaskInput is the body of a create request.
type CreateTaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// UpdateTaskInput lists the fields to change; nil fields are left alone.
type UpdateTaskInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

// ListQuery configures ListTasks. Zero values are omitted.
type ListQuery struct {
	Status   string
	Priority string
	Title    string
	Sort     string
	Fields   string
	Page     int
	Limit    int
}

func (q ListQuery) values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("status", q.Status)
	set("priority", q.Priority)
	set("title", q.Title)
	set("sort", q.Sort)
	set("fields", q.Fields)
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	return values
}

// ListPage is one page of ListTasks. With a fields projection, unselected
// task fields are zero.
type ListPage struct {
	Count      int             `json:"count"`
	Pagination task.Pagination `json:"pagination"`
	Tasks      []task.Task     `json:"data"`
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, input CreateTaskInput) (*task.Task, error) {
	var created task.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", input, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetTask returns a task with its dependencies resolved.
func (c *Client) GetTask(ctx context.Context, id string) (*task.TaskDetail, error) {
	var detail task.TaskDetail
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateTask applies input to a task.
func (c *Client) UpdateTask(ctx context.Context, id string, input UpdateTaskInput) (*task.Task, error) {
	var updated task.Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), input, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// ListTasks returns one page of tasks.
func (c *Client) ListTasks(ctx context.Context, query ListQuery) (*ListPage, error) {
	path := "/api/tasks"
	if encoded := query.values().Encode(); encoded != "" {
		path += "?" + encoded
	}
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var page ListPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &page, nil
}

// ReadyTasks returns to-do tasks whose dependencies are done.
func (c *Client) ReadyTasks(ctx context.Context, limit int) ([]task.Task, error) {
	path := "/api/tasks/ready"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var ready []task.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &ready); err != nil {
		return nil, err
	}
	return ready, nil
}

func dependencyPath(taskID string) string {
	return "/api/dependencies/tasks/" + url.PathEscape(taskID) + "/dependencies"
}

// AddDependency records that taskID depends on dependencyID.
func (c *Client) AddDependency(ctx context.Context, taskID, dependencyID string) (*task.Task, error) {
	var updated task.Task
	path := dependencyPath(taskID) + "/" + url.PathEscape(dependencyID)
	if err := c.do(ctx, http.MethodPost, path, nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemoveDependency deletes a dependency edge.
func (c *Client) RemoveDependency(ctx context.Context, taskID, dependencyID string) (*task.Task, error) {
	var updated task.Task
	path := dependencyPath(taskID) + "/" + url.PathEscape(dependencyID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetDependencies returns the direct and transitive dependencies of taskID.
func (c *Client) GetDependencies(ctx context.Context, taskID string) (*task.DependencyReport, error) {
	var report task.DependencyReport
	if err := c.do(ctx, http.MethodGet, dependencyPath(taskID), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// AddDependencies adds several dependencies, reporting each outcome.
func (c *Client) AddDependencies(ctx context.Context, taskID string, dependencyIDs []string) (*task.BatchReport, error) {
	var report task.BatchReport
	body := batchDependenciesRequest{DependencyIDs: dependencyIDs}
	if err := c.do(ctx, http.MethodPost, dependencyPath(taskID), body, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// do sends a request and decodes the envelope's data into dest.
func (c *Client) do(ctx context.Context, method, path string, payload any, dest any) error {
	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(body.Data, dest); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// send performs the request and converts non-2xx responses to *Error.
func (c *Client) send(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readErrorResponse(resp)
	}
	return resp, nil
}

func readErrorResponse(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode, Message: resp.Status}
	var payload errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.IncompleteDependencies = payload.IncompleteDependencies
		apiErr.DependentTasks = payload.DependentTasks
	}
	return apiErr
}
