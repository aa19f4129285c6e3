package api

import (
	"sync"
)

// Event is one plan lifecycle notification.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Plan lifecycle event types.
const (
	EventPlanStarted    = "plan.started"
	EventPlanCompleted  = "plan.completed"
	EventPlanInfeasible = "plan.infeasible"
	EventPlanFailed     = "plan.failed"
)

// inlineTopic keys events of requests that carry their own attractions.
const inlineTopic = "inline"

// EventBroker fans plan events out to subscribers of a topic. Topics are
// tenant-scoped dataset IDs.
type EventBroker interface {
	Subscribe(topic string) chan Event
	Unsubscribe(topic string, ch chan Event)
	Publish(topic string, evt Event)
}

func topicFor(tenant, datasetID string) string {
	if datasetID == "" {
		datasetID = inlineTopic
	}
	return tenant + "/" + datasetID
}

type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // topic -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan Event]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes ch and closes it. Unknown channels are ignored.
func (b *Broker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[topic]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, topic)
	}
	close(ch)
}

// Publish never blocks: slow subscribers miss events.
func (b *Broker) Publish(topic string, evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[topic] {
		select {
		case ch <- evt:
		default:
		}
	}
}
