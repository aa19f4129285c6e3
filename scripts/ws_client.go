// Package main runs a demo WebSocket client for plan events: it subscribes
// to inline plans, then requests one over HTTP.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const planBody = `{
  "days": 1,
  "attractions": [
    {"name": "Red Fort", "category": "history", "avgTimeHr": 2, "entryFee": 50, "funScore": 8},
    {"name": "Chandni Chowk", "category": "food", "avgTimeHr": 1.5, "entryFee": 0, "funScore": 9},
    {"name": "Jama Masjid", "category": "culture", "avgTimeHr": 1, "entryFee": 0, "funScore": 7}
  ],
  "distances": [[0, 1.5, 1.2], [1.5, 0, 0.8], [1.2, 0.8, 0]]
}`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/events/ws"}
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_demo")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal().Err(err).Msg("dial")
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal().Err(err).Msg("connection_init")
	}
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: json.RawMessage(`{"datasetId":""}`)}); err != nil {
		log.Fatal().Err(err).Msg("subscribe")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Info().Err(err).Msg("read")
				return
			}
			log.Info().Str("type", m.Type).RawJSON("payload", nonEmpty(m.Payload)).Msg("WS <-")
		}
	}()

	time.Sleep(300 * time.Millisecond)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/itineraries", bytes.NewReader([]byte(planBody)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", "t_demo")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal().Err(err).Msg("plan request")
	}
	var plan struct {
		PlanID    string     `json:"planId"`
		Status    string     `json:"status"`
		Itinerary [][]string `json:"itinerary"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&plan)
	_ = resp.Body.Close()
	log.Info().Str("plan_id", plan.PlanID).Str("status", plan.Status).Interface("itinerary", plan.Itinerary).Msg("planned")

	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}

func nonEmpty(b json.RawMessage) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	return b
}
