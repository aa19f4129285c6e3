package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket event stream using the graphql-transport-ws message shapes:
// connection_init/connection_ack, subscribe, next, error, complete, ping/pong.

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 20 * time.Second
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// subscribePayload selects a dataset topic. Types optionally narrows the
// stream to the listed event types.
type subscribePayload struct {
	DatasetID string         `json:"datasetId"`
	Types     []string       `json:"types"`
	Variables map[string]any `json:"variables"`
}

func (p subscribePayload) dataset() string {
	if p.DatasetID != "" {
		return p.DatasetID
	}
	if v, ok := p.Variables["datasetId"].(string); ok {
		return v
	}
	return ""
}

// EventsWSHandler handles /v1/events/ws
func (s *Server) EventsWSHandler(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(v)
	}

	type sub struct {
		topic string
		ch    chan Event
	}
	subs := map[string]sub{}
	var fanout sync.WaitGroup
	done := make(chan struct{})
	defer func() {
		close(done)
		for id, s0 := range subs {
			s.Broker.Unsubscribe(s0.topic, s0.ch)
			delete(subs, id)
		}
		fanout.Wait()
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(wsReadTimeout)) })

	acked := false
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		switch msg.Type {
		case "connection_init":
			if acked {
				continue
			}
			acked = true
			_ = write(wsMessage{Type: "connection_ack"})
			go func() {
				ticker := time.NewTicker(wsPingInterval)
				defer ticker.Stop()
				for {
					select {
					case <-done:
						return
					case <-ticker.C:
						if err := write(wsMessage{Type: "ping"}); err != nil {
							return
						}
					}
				}
			}()
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		case "subscribe":
			if !acked {
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: json.RawMessage(`{"message":"connection_init required"}`)})
				continue
			}
			if _, dup := subs[msg.ID]; dup || msg.ID == "" {
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: json.RawMessage(`{"message":"subscription id must be unique"}`)})
				continue
			}
			var pl subscribePayload
			_ = json.Unmarshal(msg.Payload, &pl)
			topic := topicFor(tenant, pl.dataset())
			want := map[string]bool{}
			for _, t := range pl.Types {
				want[t] = true
			}
			ch := s.Broker.Subscribe(topic)
			subs[msg.ID] = sub{topic: topic, ch: ch}
			fanout.Add(1)
			go func(id string, c chan Event) {
				defer fanout.Done()
				for evt := range c {
					if len(want) > 0 && !want[evt.Type] {
						continue
					}
					payload, _ := json.Marshal(map[string]any{"data": map[string]any{"planEvents": evt}})
					_ = write(wsMessage{Type: "next", ID: id, Payload: payload})
				}
				_ = write(wsMessage{Type: "complete", ID: id})
			}(msg.ID, ch)
		case "complete":
			if s0, ok := subs[msg.ID]; ok {
				s.Broker.Unsubscribe(s0.topic, s0.ch)
				delete(subs, msg.ID)
			}
		}
	}
}
