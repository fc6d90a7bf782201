package api

import (
	"context"
	"encoding/json"
)

// TaskAPI is the asynchronous explore task service
type TaskAPI interface {
	PostTasks(ctx context.Context, tasks []TaskRequest) ([]PostedTask, error)
	TasksReady(ctx context.Context) ([]string, error)
	TaskGet(ctx context.Context, id string) (*TaskPayload, error)
}

// PostedTask is the service's answer for one task object of a task_post call
type PostedTask struct {
	ID            string
	Tag           string
	StatusCode    int
	StatusMessage string
}

// Created reports whether the service accepted the task
func (p PostedTask) Created() bool {
	return p.ID != "" && (p.StatusCode == StatusTaskCreated || p.StatusCode == StatusOK)
}

// TaskPayload is a completed task as returned by task_get
type TaskPayload struct {
	ID       string
	Tag      string
	Keywords []string
	Result   json.RawMessage
}
