package a2a

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFanOutSendMessageMergesAllTargets(t *testing.T) {
	a := &fakeAgent{task: &Task{ID: "a1", Status: TaskStatusCompleted, Messages: []Message{{Role: RoleAgent, Parts: []Part{{Text: "from a"}}}}}}
	b := &fakeAgent{task: &Task{ID: "b1", Status: TaskStatusCompleted, Messages: []Message{{Role: RoleAgent, Parts: []Part{{Text: "from b"}}}}}}
	fanout := NewFanOutAgent(a, b)

	task, err := fanout.SendMessage(context.Background(), Message{Role: RoleUser})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(task.Messages) != 2 {
		t.Fatalf("expected 2 merged messages, got %d", len(task.Messages))
	}
	if task.Status != TaskStatusCompleted {
		t.Fatalf("expected completed status, got %v", task.Status)
	}
}

func TestFanOutSendMessageFailsOnlyWhenAllTargetsFail(t *testing.T) {
	a := &fakeAgent{sendErr: errors.New("a failed")}
	b := &fakeAgent{task: &Task{ID: "b1", Status: TaskStatusCompleted}}
	fanout := NewFanOutAgent(a, b)

	task, err := fanout.SendMessage(context.Background(), Message{})
	if err != nil {
		t.Fatalf("expected partial success, got error: %v", err)
	}
	if task == nil {
		t.Fatal("expected merged task despite one failing target")
	}
}

func TestFanOutSendMessageErrorsWhenAllFail(t *testing.T) {
	a := &fakeAgent{sendErr: errors.New("a failed")}
	b := &fakeAgent{sendErr: errors.New("b failed")}
	fanout := NewFanOutAgent(a, b)

	if _, err := fanout.SendMessage(context.Background(), Message{}); err == nil {
		t.Fatal("expected error when all targets fail")
	}
}

func TestFanOutSendMessageToTaskRoutesToSubTasks(t *testing.T) {
	a := &fakeAgent{task: &Task{ID: "a1", Status: TaskStatusCompleted}}
	b := &fakeAgent{task: &Task{ID: "b1", Status: TaskStatusCompleted}}
	fanout := NewFanOutAgent(a, b)

	created, err := fanout.SendMessage(context.Background(), Message{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	continued, err := fanout.SendMessageToTask(context.Background(), created.ID, Message{Role: RoleUser})
	if err != nil {
		t.Fatalf("unexpected error continuing: %v", err)
	}
	if continued.ID != created.ID {
		t.Fatalf("expected same fan-out task id, got %q", continued.ID)
	}
}

func TestFanOutSendMessageToTaskUnknownID(t *testing.T) {
	fanout := NewFanOutAgent(&fakeAgent{task: &Task{ID: "a1"}})
	if _, err := fanout.SendMessageToTask(context.Background(), "missing", Message{}); err == nil {
		t.Fatal("expected error for unknown task id")
	}
}

func TestFanOutStreamingFallsBackToCapableTarget(t *testing.T) {
	noStream := &fakeAgent{streaming: false, streamErr: errors.New("should not be called")}
	canStream := &fakeAgent{streaming: true, events: []StreamEvent{{Type: StreamEventMessage, Final: true}}}
	fanout := NewFanOutAgent(noStream, canStream)

	events, err := fanout.SendMessageStreaming(context.Background(), Message{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case evt := <-events:
		if !evt.Final {
			t.Fatalf("expected final event, got %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for streaming event")
	}
}

func TestFanOutStreamingErrorsWhenNoTargetCanStream(t *testing.T) {
	fanout := NewFanOutAgent(&fakeAgent{streaming: false}, &fakeAgent{streaming: false})
	if _, err := fanout.SendMessageStreaming(context.Background(), Message{}); err == nil {
		t.Fatal("expected error when no target supports streaming")
	}
}

func TestFanOutCancelTaskCancelsAllSubTasks(t *testing.T) {
	a := &fakeAgent{task: &Task{ID: "a1", Status: TaskStatusCompleted}}
	b := &fakeAgent{task: &Task{ID: "b1", Status: TaskStatusCompleted}}
	fanout := NewFanOutAgent(a, b)

	created, err := fanout.SendMessage(context.Background(), Message{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := fanout.CancelTask(context.Background(), created.ID); err != nil {
		t.Fatalf("unexpected cancel error: %v", err)
	}
	if len(a.canceled) != 1 || len(b.canceled) != 1 {
		t.Fatalf("expected both sub-tasks canceled, got a=%v b=%v", a.canceled, b.canceled)
	}
}

func TestFanOutGetTaskAggregatesStatus(t *testing.T) {
	now := time.Now()
	a := &fakeAgent{task: &Task{ID: "a1", Status: TaskStatusWorking, UpdatedAt: now}}
	b := &fakeAgent{task: &Task{ID: "b1", Status: TaskStatusFailed, UpdatedAt: now.Add(time.Second)}}
	fanout := NewFanOutAgent(a, b)

	created, err := fanout.SendMessage(context.Background(), Message{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// overwrite fakes' returned task post-creation to simulate later polling
	a.task = &Task{ID: "a1", Status: TaskStatusWorking, UpdatedAt: now}
	b.task = &Task{ID: "b1", Status: TaskStatusFailed, UpdatedAt: now.Add(time.Second)}

	got, err := fanout.GetTask(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != TaskStatusFailed {
		t.Fatalf("expected aggregated status to surface the failure, got %v", got.Status)
	}
}
