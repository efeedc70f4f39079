package a2a

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// subTask records which underlying target owns one leg of a fanned-out
// task.
type subTask struct {
	target UnifiedAgent
	taskID string
}

// FanOutAgent dispatches each call to N wrapped targets concurrently and
// merges the resulting messages and artifacts, per spec.md §4.9. For
// streaming it falls back to the first streaming-capable target rather
// than merging event streams.
type FanOutAgent struct {
	targets []UnifiedAgent

	mu    sync.RWMutex
	tasks map[string][]subTask
}

// NewFanOutAgent builds a FanOutAgent dispatching to targets. At least
// one target is required.
func NewFanOutAgent(targets ...UnifiedAgent) *FanOutAgent {
	return &FanOutAgent{
		targets: targets,
		tasks:   make(map[string][]subTask),
	}
}

// fanOutResult captures one target's outcome for merging, preserving
// target order for deterministic merge output.
type fanOutResult struct {
	index int
	task  *Task
	err   error
}

func (f *FanOutAgent) dispatch(ctx context.Context, call func(UnifiedAgent) (*Task, error)) []fanOutResult {
	results := make([]fanOutResult, len(f.targets))
	var wg sync.WaitGroup
	for i, target := range f.targets {
		wg.Add(1)
		go func(i int, target UnifiedAgent) {
			defer wg.Done()
			task, err := call(target)
			results[i] = fanOutResult{index: i, task: task, err: err}
		}(i, target)
	}
	wg.Wait()
	return results
}

func (f *FanOutAgent) merge(results []fanOutResult) (*Task, []subTask, error) {
	merged := &Task{Status: TaskStatusCompleted}
	var subs []subTask
	var lastErr error
	succeeded := 0
	for _, r := range results {
		if r.err != nil {
			lastErr = r.err
			continue
		}
		succeeded++
		merged.Messages = append(merged.Messages, r.task.Messages...)
		merged.Artifacts = append(merged.Artifacts, r.task.Artifacts...)
		if r.task.UpdatedAt.After(merged.UpdatedAt) {
			merged.UpdatedAt = r.task.UpdatedAt
		}
		if r.task.Status == TaskStatusFailed {
			merged.Status = TaskStatusFailed
		}
		subs = append(subs, subTask{target: f.targets[r.index], taskID: r.task.ID})
	}
	if succeeded == 0 {
		return nil, nil, fmt.Errorf("fan-out: all %d targets failed, last error: %w", len(results), lastErr)
	}
	return merged, subs, nil
}

// SendMessage dispatches msg to every target concurrently and merges
// their responses into a single synthetic Task.
func (f *FanOutAgent) SendMessage(ctx context.Context, msg Message) (*Task, error) {
	results := f.dispatch(ctx, func(target UnifiedAgent) (*Task, error) {
		return target.SendMessage(ctx, msg)
	})
	merged, subs, err := f.merge(results)
	if err != nil {
		return nil, err
	}
	merged.ID = uuid.NewString()

	f.mu.Lock()
	f.tasks[merged.ID] = subs
	f.mu.Unlock()

	return merged, nil
}

// SendMessageToTask continues a previously fanned-out task by forwarding
// msg to each of its underlying sub-tasks.
func (f *FanOutAgent) SendMessageToTask(ctx context.Context, taskID string, msg Message) (*Task, error) {
	f.mu.RLock()
	subs, ok := f.tasks[taskID]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("fan-out: unknown task %q", taskID)
	}

	results := make([]fanOutResult, len(subs))
	var wg sync.WaitGroup
	for i, s := range subs {
		wg.Add(1)
		go func(i int, s subTask) {
			defer wg.Done()
			task, err := s.target.SendMessageToTask(ctx, s.taskID, msg)
			results[i] = fanOutResult{index: i, task: task, err: err}
		}(i, s)
	}
	wg.Wait()

	merged := &Task{ID: taskID, Status: TaskStatusCompleted}
	var lastErr error
	succeeded := 0
	for _, r := range results {
		if r.err != nil {
			lastErr = r.err
			continue
		}
		succeeded++
		merged.Messages = append(merged.Messages, r.task.Messages...)
		merged.Artifacts = append(merged.Artifacts, r.task.Artifacts...)
		if r.task.UpdatedAt.After(merged.UpdatedAt) {
			merged.UpdatedAt = r.task.UpdatedAt
		}
		if r.task.Status == TaskStatusFailed {
			merged.Status = TaskStatusFailed
		}
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("fan-out: all sub-tasks of %q failed, last error: %w", taskID, lastErr)
	}
	return merged, nil
}

// SendMessageStreaming falls back to the first streaming-capable target,
// per spec.md §4.9, rather than merging concurrent event streams.
func (f *FanOutAgent) SendMessageStreaming(ctx context.Context, msg Message) (<-chan StreamEvent, error) {
	for _, target := range f.targets {
		sc, ok := target.(StreamCapable)
		if ok && !sc.SupportsStreaming() {
			continue
		}
		return target.SendMessageStreaming(ctx, msg)
	}
	return nil, fmt.Errorf("fan-out: no streaming-capable target among %d targets", len(f.targets))
}

// GetTask aggregates the status of every sub-task of a fanned-out task.
// The merged status is Failed if any sub-task failed, else the status
// of the last-updated sub-task.
func (f *FanOutAgent) GetTask(ctx context.Context, taskID string) (*Task, error) {
	f.mu.RLock()
	subs, ok := f.tasks[taskID]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("fan-out: unknown task %q", taskID)
	}

	merged := &Task{ID: taskID, Status: TaskStatusCompleted}
	for _, s := range subs {
		task, err := s.target.GetTask(ctx, s.taskID)
		if err != nil {
			return nil, err
		}
		merged.Messages = append(merged.Messages, task.Messages...)
		merged.Artifacts = append(merged.Artifacts, task.Artifacts...)
		if task.UpdatedAt.After(merged.UpdatedAt) {
			merged.UpdatedAt = task.UpdatedAt
			merged.Status = task.Status
		}
		if task.Status == TaskStatusFailed {
			merged.Status = TaskStatusFailed
		}
	}
	return merged, nil
}

// CancelTask cancels every sub-task of a fanned-out task, returning the
// first error encountered (if any) after attempting all of them.
func (f *FanOutAgent) CancelTask(ctx context.Context, taskID string) error {
	f.mu.RLock()
	subs, ok := f.tasks[taskID]
	f.mu.RUnlock()
	if !ok {
		return fmt.Errorf("fan-out: unknown task %q", taskID)
	}

	var firstErr error
	for _, s := range subs {
		if err := s.target.CancelTask(ctx, s.taskID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SupportsStreaming reports true iff at least one wrapped target can
// stream.
func (f *FanOutAgent) SupportsStreaming() bool {
	for _, target := range f.targets {
		if sc, ok := target.(StreamCapable); !ok || sc.SupportsStreaming() {
			return true
		}
	}
	return false
}
