package a2a

import "context"

// ProxyAgent forwards every call unchanged to a single wrapped
// UnifiedAgent, per spec.md §4.9. It exists so callers can compose
// cross-cutting behavior (logging, auth) around a target without the
// target needing to know it is being proxied.
type ProxyAgent struct {
	target UnifiedAgent
}

// NewProxyAgent wraps target.
func NewProxyAgent(target UnifiedAgent) *ProxyAgent {
	return &ProxyAgent{target: target}
}

func (p *ProxyAgent) SendMessage(ctx context.Context, msg Message) (*Task, error) {
	return p.target.SendMessage(ctx, msg)
}

func (p *ProxyAgent) SendMessageToTask(ctx context.Context, taskID string, msg Message) (*Task, error) {
	return p.target.SendMessageToTask(ctx, taskID, msg)
}

func (p *ProxyAgent) SendMessageStreaming(ctx context.Context, msg Message) (<-chan StreamEvent, error) {
	return p.target.SendMessageStreaming(ctx, msg)
}

func (p *ProxyAgent) GetTask(ctx context.Context, taskID string) (*Task, error) {
	return p.target.GetTask(ctx, taskID)
}

func (p *ProxyAgent) CancelTask(ctx context.Context, taskID string) error {
	return p.target.CancelTask(ctx, taskID)
}

// SupportsStreaming reports the wrapped target's own streaming support,
// falling back to true (assume capable) when the target doesn't opt
// into the StreamCapable contract.
func (p *ProxyAgent) SupportsStreaming() bool {
	if sc, ok := p.target.(StreamCapable); ok {
		return sc.SupportsStreaming()
	}
	return true
}
