// Package main runs a demo WebSocket client for solve events: it queues a
// small problem and streams the job lifecycle until completion.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

const demoProblem = `{
  "vehicles": [{"id": 1, "start_index": 0, "end_index": 0}],
  "jobs": [
    {"id": 1, "location_index": 1},
    {"id": 2, "location_index": 2}
  ],
  "matrices": {"car": {"durations": [[0, 10, 20], [10, 0, 15], [20, 15, 0]]}}
}`

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Queue a solve
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/solves", bytes.NewReader([]byte(demoProblem)))
	req.Header.Set("Content-Type", "application/json")
	if tok := os.Getenv("AUTH_TOKEN"); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		log.Fatal(err)
	}
	if job.ID == "" {
		log.Fatal("no solve id returned")
	}
	log.Printf("Solve ID: %s (%s)", job.ID, job.Status)

	// Connect WS and watch the lifecycle
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/solves/" + job.ID + "/ws"}
	hdr := http.Header{}
	if tok := os.Getenv("AUTH_TOKEN"); tok != "" {
		hdr.Set("Authorization", "Bearer "+tok)
	}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m struct {
				Type string         `json:"type"`
				Data map[string]any `json:"data"`
			}
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			data, _ := json.Marshal(m.Data)
			log.Printf("WS <- %s: %s", m.Type, data)
			if m.Type == "solve.completed" || m.Type == "solve.failed" {
				return
			}
		}
	}()

	select {
	case <-time.After(30 * time.Second):
		log.Print("timed out waiting for completion")
	case <-done:
	}
}
