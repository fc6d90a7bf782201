package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"trends-go/pkg/api"
)

// fakeAPI is a scripted TaskAPI
type fakeAPI struct {
	mu sync.Mutex

	postFn  func(call int, reqs []api.TaskRequest) ([]api.PostedTask, error)
	readyFn func(call int) ([]string, error)
	getFn   func(id string) (*api.TaskPayload, error)

	postCalls  int
	readyCalls int
	getCalls   int
	posted     []api.TaskRequest
}

func (f *fakeAPI) PostTasks(ctx context.Context, reqs []api.TaskRequest) ([]api.PostedTask, error) {
	f.mu.Lock()
	f.postCalls++
	call := f.postCalls
	f.posted = append(f.posted, reqs...)
	fn := f.postFn
	f.mu.Unlock()

	if fn != nil {
		return fn(call, reqs)
	}
	out := make([]api.PostedTask, len(reqs))
	for i, r := range reqs {
		out[i] = api.PostedTask{ID: "id-" + r.Tag, Tag: r.Tag, StatusCode: api.StatusTaskCreated}
	}
	return out, nil
}

func (f *fakeAPI) TasksReady(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	f.readyCalls++
	call := f.readyCalls
	fn := f.readyFn
	f.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(call)
}

func (f *fakeAPI) TaskGet(ctx context.Context, id string) (*api.TaskPayload, error) {
	f.mu.Lock()
	f.getCalls++
	fn := f.getFn
	f.mu.Unlock()

	if fn == nil {
		return nil, api.ErrEmptyResult
	}
	return fn(id)
}

func (f *fakeAPI) calls() (post, ready, get int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.postCalls, f.readyCalls, f.getCalls
}

// risingPayload builds a task_get result with the given rising queries as query/value pairs
func risingPayload(id, tag string, pairs ...string) *api.TaskPayload {
	var items []string
	for i := 0; i+1 < len(pairs); i += 2 {
		items = append(items, fmt.Sprintf(`{"query":%q,"value":%s}`, pairs[i], pairs[i+1]))
	}
	result := fmt.Sprintf(`[{"items":[{"type":"google_trends_queries_list","data":{"rising":[%s]}}]}]`, strings.Join(items, ","))
	return &api.TaskPayload{ID: id, Tag: tag, Result: json.RawMessage(result)}
}
