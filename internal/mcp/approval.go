package mcpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"clio/internal/service"
)

const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// PendingAction is a destructive tool call waiting for a decision.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

type decision struct {
	approved bool
}

// ApprovalQueue gates destructive tool calls. With auto-approve on every
// request passes immediately; otherwise the request is announced through
// the emitter and blocks until Approve, Reject, the timeout or ctx.
type ApprovalQueue struct {
	mu          sync.Mutex
	pending     map[string]chan decision
	actions     map[string]PendingAction
	emitter     service.EventEmitter
	timeout     time.Duration
	autoApprove bool
}

func NewApprovalQueue(emitter service.EventEmitter, autoApprove bool, timeout time.Duration) *ApprovalQueue {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ApprovalQueue{
		pending:     make(map[string]chan decision),
		actions:     make(map[string]PendingAction),
		emitter:     emitter,
		timeout:     timeout,
		autoApprove: autoApprove,
	}
}

// Request blocks until the action is approved (nil) or refused (error).
func (q *ApprovalQueue) Request(ctx context.Context, tool, description string) error {
	if q.autoApprove {
		return nil
	}

	action := PendingAction{
		ID:          uuid.New().String(),
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	ch := make(chan decision, 1)

	q.mu.Lock()
	q.pending[action.ID] = ch
	q.actions[action.ID] = action
	q.mu.Unlock()
	defer q.cleanup(action.ID)

	q.emitter.Emit(ctx, EventApprovalRequired, action)

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case d := <-ch:
		if !d.approved {
			return fmt.Errorf("action rejected by user: %s", tool)
		}
		return nil
	case <-timer.C:
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": action.ID})
		return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-ctx.Done():
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": action.ID})
		return ctx.Err()
	}
}

// Pending lists the actions currently waiting for a decision.
func (q *ApprovalQueue) Pending() []PendingAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]PendingAction, 0, len(q.actions))
	for _, a := range q.actions {
		out = append(out, a)
	}
	return out
}

// Approve resolves a pending action. Unknown IDs are ignored.
func (q *ApprovalQueue) Approve(actionID string) bool {
	return q.resolve(actionID, true)
}

// Reject refuses a pending action. Unknown IDs are ignored.
func (q *ApprovalQueue) Reject(actionID string) bool {
	return q.resolve(actionID, false)
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) bool {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	if ok {
		delete(q.pending, actionID)
	}
	q.mu.Unlock()
	if ok {
		ch <- decision{approved: approved}
	}
	return ok
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	delete(q.actions, id)
	q.mu.Unlock()
}
