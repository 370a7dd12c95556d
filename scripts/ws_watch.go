// Package main tails the progress stream of a planner run.
//
//	go run ./scripts -run <run id>
//
// Without -run it prints the latest stored runs and exits.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	host := flag.String("host", "localhost:"+port, "planner API host:port")
	runID := flag.String("run", "", "run id to follow")
	flag.Parse()

	if *runID == "" {
		listRuns(*host)
		return
	}

	u := url.URL{Scheme: "ws", Host: *host, Path: "/v1/runs/" + *runID + "/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	for {
		var m wsMessage
		if err := c.ReadJSON(&m); err != nil {
			log.Printf("read: %v", err)
			return
		}
		log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		if m.Type == "complete" {
			return
		}
	}
}

func listRuns(host string) {
	resp, err := http.Get(fmt.Sprintf("http://%s/v1/runs?limit=10", host))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var body struct {
		Items []struct {
			RunID      string  `json:"runId"`
			Dataset    string  `json:"dataset"`
			Assigned   int     `json:"assigned"`
			Unassigned int     `json:"unassigned"`
			Weight     float64 `json:"weight"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Fatal(err)
	}
	for _, it := range body.Items {
		fmt.Printf("%s  %-12s assigned=%d unassigned=%d weight=%.1f\n", it.RunID, it.Dataset, it.Assigned, it.Unassigned, it.Weight)
	}
}
