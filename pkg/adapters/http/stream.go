package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/pitstop/internal/logging"
	"github.com/aretw0/pitstop/pkg/domain"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string
}

// StreamManager fans lifecycle events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{} // run ID ("" for all runs) -> channels
	logger      *slog.Logger
}

// NewStreamManager creates a stream manager. Its Hooks must be registered
// on the engine for events to flow.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Message]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a subscriber for runID, or for every run when runID is
// empty. The returned function unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(runID string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 32)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Broadcast delivers msg to the subscribers of runID and of every run.
// Slow subscribers lose messages instead of blocking the engine.
func (sm *StreamManager) Broadcast(runID string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{""}
	if runID != "" {
		keys = append(keys, runID)
	}
	for _, key := range keys {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping message", "run_id", runID, "event", msg.Event)
			}
		}
	}
}

func (sm *StreamManager) publish(runID string, event domain.EventType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "event", event, "err", err)
		return
	}
	sm.Broadcast(runID, Message{Event: string(event), Data: string(data)})
}

// nodeView adds the error text that NodeEvent does not serialize.
type nodeView struct {
	*domain.NodeEvent
	Error string `json:"error,omitempty"`
}

// Hooks returns lifecycle hooks publishing every event.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	node := func(_ context.Context, ev *domain.NodeEvent) {
		v := nodeView{NodeEvent: ev}
		if ev.Err != nil {
			v.Error = ev.Err.Error()
		}
		sm.publish(ev.RunID, ev.Type, v)
	}
	return domain.LifecycleHooks{
		OnNodeEnter: node,
		OnNodeLeave: node,
		OnRoute: func(_ context.Context, ev *domain.RouteEvent) {
			sm.publish(ev.RunID, ev.Type, ev)
		},
		OnRunEnd: func(_ context.Context, ev *domain.RunEvent) {
			sm.publish(ev.RunID, ev.Type, ev)
		},
	}
}
