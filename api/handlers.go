package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Mr-Cheen1/todo-list/domain"
	"github.com/Mr-Cheen1/todo-list/storage"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, logger *log.Logger) {
	e.GET("/api/tasks", getTasks(store, logger))
	e.POST("/api/tasks/create", createTask(store))
	e.PUT("/api/tasks/update", updateTask(store))
	e.DELETE("/api/tasks/delete", deleteTask(store))
	e.GET("/healthz", healthz(store))
}

// Task payloads are small; anything larger is not a task.
const taskBodyMaxSize = 64 << 10

func healthz(_ Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newListRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		q := domain.ListQuery{Order: domain.SortAsc, Field: c.QueryParam("sortField")}
		if raw := c.QueryParam("status"); raw != "" {
			status, parseErr := domain.ParseStatus(raw)
			if parseErr != nil {
				metrics.SetErrorStage("invalid_status")
				err = c.String(http.StatusBadRequest, "invalid status filter")
				return err
			}
			q.Status = &status
			metrics.SetFilter(status)
		}
		if c.QueryParam("sort") == string(domain.SortDesc) {
			q.Order = domain.SortDesc
		}

		fetchStart := time.Now()
		tasks, fetchErr := store.ListTasks(ctx, q)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			var invalid storage.InvalidQueryError
			if errors.As(fetchErr, &invalid) {
				metrics.SetErrorStage("invalid_sort_field")
				err = c.String(http.StatusBadRequest, invalid.Error())
				return err
			}
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.String(http.StatusInternalServerError, fetchErr.Error())
			return err
		}
		metrics.SetTasksReturned(len(tasks))
		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func decodeTask(c echo.Context) (domain.Task, error) {
	var task domain.Task
	lr := io.LimitReader(c.Request().Body, taskBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	if err := dec.Decode(&task); err != nil {
		return domain.Task{}, err
	}
	task.Text = strings.TrimSpace(task.Text)
	return task, nil
}

func createTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := decodeTask(c)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		// Ids are assigned here, never by the client.
		task.ID = 0
		if err := task.Validate(); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		id, err := store.CreateTask(c.Request().Context(), task)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to create task")
		}
		task.ID = id
		return c.JSON(http.StatusCreated, task)
	}
}

func updateTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid task id")
		}
		task, err := decodeTask(c)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		task.ID = id
		if err := task.Validate(); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if err := store.UpdateTask(c.Request().Context(), task); err != nil {
			if errors.Is(err, storage.ErrTaskNotFound) {
				return c.String(http.StatusNotFound, "task not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to update task")
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid task id")
		}
		if err := store.DeleteTask(c.Request().Context(), id); err != nil {
			if errors.Is(err, storage.ErrTaskNotFound) {
				return c.String(http.StatusNotFound, "task not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to delete task")
		}
		return c.NoContent(http.StatusOK)
	}
}
