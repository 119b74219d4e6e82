// Package client implements the REST client for the task API. Every
// operation maps to one HTTP round trip; there are no retries and any
// non-2xx response is an opaque ServerError.
package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/Mr-Cheen1/todo-list/domain"
)

// ServerError reports a non-2xx response. Failed response bodies are never
// inspected; the status code is the whole story.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client wraps http.Client with the four task operations.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a Client for the given base URL.
func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: &http.Client{}}
}

// ListTasks fetches tasks matching the query. The sort field is pinned to
// createdDate; an absent status filter returns tasks in every state. The
// result is never nil.
func (c *Client) ListTasks(ctx context.Context, q domain.ListQuery) ([]domain.Task, error) {
	params := url.Values{}
	status := ""
	if q.Status != nil {
		status = strconv.Itoa(int(*q.Status))
	}
	params.Set("status", status)
	order := q.Order
	if order == "" {
		order = domain.SortAsc
	}
	params.Set("sort", string(order))
	params.Set("sortField", domain.DefaultSortField)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/tasks?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer resp.Body.Close()
	if !success(resp) {
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}

	var tasks []domain.Task
	dec := sonic.ConfigStd.NewDecoder(resp.Body)
	if err := dec.Decode(&tasks); err != nil {
		return nil, fmt.Errorf("decode task list: %w", err)
	}
	if tasks == nil {
		// The server encodes "no tasks" as null in older revisions.
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// CreateTask submits a new task. The id is assigned by the server; the
// caller learns it from the next list refresh.
func (c *Client) CreateTask(ctx context.Context, task domain.Task) error {
	return c.sendTask(ctx, http.MethodPost, c.BaseURL+"/api/tasks/create", task)
}

// UpdateTask overwrites the task identified by its id.
func (c *Client) UpdateTask(ctx context.Context, task domain.Task) error {
	target := c.BaseURL + "/api/tasks/update?id=" + strconv.FormatInt(task.ID, 10)
	return c.sendTask(ctx, http.MethodPut, target, task)
}

// DeleteTask removes the task identified by id.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	target := c.BaseURL + "/api/tasks/delete?id=" + strconv.FormatInt(id, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	defer resp.Body.Close()
	if !success(resp) {
		return &ServerError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) sendTask(ctx context.Context, method, target string, task domain.Task) error {
	body, err := sonic.Marshal(task)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s task: %w", strings.ToLower(method), err)
	}
	defer resp.Body.Close()
	if !success(resp) {
		return &ServerError{StatusCode: resp.StatusCode}
	}
	return nil
}

func success(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
