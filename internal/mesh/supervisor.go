package mesh

import (
	"fmt"
	"sync"
	"time"
)

// SupervisorConfig tunes worker selection and task retry behavior.
type SupervisorConfig struct {
	MaxTasksPerWorker int
	HeartbeatTimeout  time.Duration
	MaxRetries        int
	TaskTimeout       time.Duration
}

// DefaultSupervisorConfig mirrors original_source's defaults.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		MaxTasksPerWorker: 10,
		HeartbeatTimeout:  30 * time.Second,
		MaxRetries:        3,
		TaskTimeout:       5 * time.Minute,
	}
}

// TaskStatus is the lifecycle state of one distributed task.
type TaskStatus int

const (
	TaskQueued TaskStatus = iota
	TaskAssigned
	TaskCompleted
	TaskFailed
)

// Task pairs a Message with its distribution bookkeeping.
type Task struct {
	ID         string
	Message    Message
	Status     TaskStatus
	Worker     AgentID
	RetryCount int
}

// Worker tracks one pool member's load and health.
type Worker struct {
	ID             AgentID
	ActiveTasks    int
	CompletedTasks uint64
	FailedTasks    uint64
	LastHeartbeat  time.Time
	Available      bool
}

func newWorker(id AgentID) *Worker {
	return &Worker{ID: id, LastHeartbeat: time.Now(), Available: true}
}

// WorkerPool tracks registered workers and selects the least-loaded one
// for the next task.
type WorkerPool struct {
	mu      sync.RWMutex
	workers map[string]*Worker
	config  SupervisorConfig
}

// NewWorkerPool builds an empty pool under config.
func NewWorkerPool(config SupervisorConfig) *WorkerPool {
	return &WorkerPool{workers: make(map[string]*Worker), config: config}
}

// RegisterWorker adds id to the pool, replacing any prior registration.
func (p *WorkerPool) RegisterWorker(id AgentID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workers[id.String()] = newWorker(id)
}

// RemoveWorker drops id from the pool.
func (p *WorkerPool) RemoveWorker(id AgentID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.workers, id.String())
}

// Heartbeat refreshes id's last-seen timestamp.
func (p *WorkerPool) Heartbeat(id AgentID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.workers[id.String()]; ok {
		w.LastHeartbeat = time.Now()
	}
}

// GetAvailableWorker returns the available worker under its task cap with
// the fewest active tasks, or ok=false if none qualify.
func (p *WorkerPool) GetAvailableWorker() (AgentID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var best *Worker
	for _, w := range p.workers {
		if !w.Available || w.ActiveTasks >= p.config.MaxTasksPerWorker {
			continue
		}
		if best == nil || w.ActiveTasks < best.ActiveTasks {
			best = w
		}
	}
	if best == nil {
		var zero AgentID
		return zero, false
	}
	return best.ID, true
}

// AssignTask marks id as holding one more active task.
func (p *WorkerPool) AssignTask(id AgentID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.workers[id.String()]; ok {
		w.ActiveTasks++
	}
}

// CompleteTask decrements id's active task count and records the outcome.
func (p *WorkerPool) CompleteTask(id AgentID, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.workers[id.String()]
	if !ok {
		return
	}
	if w.ActiveTasks > 0 {
		w.ActiveTasks--
	}
	if success {
		w.CompletedTasks = saturatingAddU64(w.CompletedTasks, 1)
	} else {
		w.FailedTasks = saturatingAddU64(w.FailedTasks, 1)
	}
}

// CheckHealth marks any worker whose heartbeat exceeds config.HeartbeatTimeout
// unavailable, returning their ids.
func (p *WorkerPool) CheckHealth() []AgentID {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	var unhealthy []AgentID
	for _, w := range p.workers {
		if now.Sub(w.LastHeartbeat) > p.config.HeartbeatTimeout {
			w.Available = false
			unhealthy = append(unhealthy, w.ID)
		}
	}
	return unhealthy
}

// WorkerStat summarizes one worker's load for reporting.
type WorkerStat struct {
	ActiveTasks    int
	CompletedTasks uint64
	FailedTasks    uint64
}

// Stats returns a per-worker load snapshot.
func (p *WorkerPool) Stats() map[string]WorkerStat {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]WorkerStat, len(p.workers))
	for k, w := range p.workers {
		out[k] = WorkerStat{ActiveTasks: w.ActiveTasks, CompletedTasks: w.CompletedTasks, FailedTasks: w.FailedTasks}
	}
	return out
}

// WorkerCount returns the number of registered workers.
func (p *WorkerPool) WorkerCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.workers)
}

// Supervisor owns a task queue and a worker pool, assigning queued tasks
// to the least-loaded available worker and requeueing failures up to
// config.MaxRetries.
type Supervisor struct {
	mesh   Mesh
	config SupervisorConfig
	pool   *WorkerPool

	mu          sync.Mutex
	queue       []Task
	activeTasks map[string]Task
}

// NewSupervisor builds a Supervisor dispatching through mesh.
func NewSupervisor(mesh Mesh, config SupervisorConfig) *Supervisor {
	return &Supervisor{
		mesh:        mesh,
		config:      config,
		pool:        NewWorkerPool(config),
		activeTasks: make(map[string]Task),
	}
}

// NewSupervisorWithDefaults builds a Supervisor with DefaultSupervisorConfig.
func NewSupervisorWithDefaults(mesh Mesh) *Supervisor {
	return NewSupervisor(mesh, DefaultSupervisorConfig())
}

// SubmitTask enqueues message as a new task, returning its id.
func (s *Supervisor) SubmitTask(message Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, Task{ID: message.ID, Message: message, Status: TaskQueued})
	return message.ID
}

// AssignTasks drains the queue, assigning each task to an available
// worker via mesh.Send, until either the queue is empty or no worker has
// spare capacity. It returns how many tasks were assigned.
func (s *Supervisor) AssignTasks() (int, error) {
	assigned := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			break
		}
		task := s.queue[0]

		workerID, ok := s.pool.GetAvailableWorker()
		if !ok {
			s.mu.Unlock()
			break
		}
		s.queue = s.queue[1:]
		task.Status = TaskAssigned
		task.Worker = workerID
		s.activeTasks[task.ID] = task
		s.mu.Unlock()

		s.pool.AssignTask(workerID)
		if err := s.mesh.Send(workerID, task.Message); err != nil {
			return assigned, fmt.Errorf("mesh: sending task %s to worker %s: %w", task.ID, workerID.String(), err)
		}
		assigned++
	}
	return assigned, nil
}

// CompleteTask records the outcome of taskID on workerID. Failed tasks
// under the retry budget are requeued; otherwise the task is terminal.
func (s *Supervisor) CompleteTask(taskID string, workerID AgentID, success bool) {
	s.mu.Lock()
	task, ok := s.activeTasks[taskID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.activeTasks, taskID)

	if success {
		task.Status = TaskCompleted
	} else {
		task.Status = TaskFailed
	}
	retry := !success && task.RetryCount < s.config.MaxRetries
	if retry {
		task.RetryCount++
		task.Status = TaskQueued
		s.queue = append(s.queue, task)
	}
	s.mu.Unlock()

	s.pool.CompleteTask(workerID, success)
}

// RegisterWorker adds a worker to the pool.
func (s *Supervisor) RegisterWorker(id AgentID) { s.pool.RegisterWorker(id) }

// WorkerHeartbeat refreshes a worker's last-seen timestamp.
func (s *Supervisor) WorkerHeartbeat(id AgentID) { s.pool.Heartbeat(id) }

// QueueSize returns the number of tasks awaiting assignment.
func (s *Supervisor) QueueSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// ActiveTaskCount returns the number of tasks currently assigned to a
// worker.
func (s *Supervisor) ActiveTaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeTasks)
}

// WorkerStats returns a per-worker load snapshot.
func (s *Supervisor) WorkerStats() map[string]WorkerStat { return s.pool.Stats() }
