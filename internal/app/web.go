// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_tracking/internal/config"
	"github.com/relabs-tech/orientation_tracking/internal/orientation"
)

// maxPending bounds how far behind an unmatched estimate or truth message
// may fall before it is dropped.
const maxPending = 256

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is pushed to websocket clients.
type WSMessage struct {
	Type      string            `json:"type"` // "snapshot", "estimate" or "pair"
	Index     int               `json:"index"`
	Timestamp float64           `json:"ts"`
	Estimated *orientation.Pose `json:"estimated,omitempty"`
	Truth     *orientation.Pose `json:"truth,omitempty"`
	Steps     int               `json:"steps"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(m WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return c.conn.WriteJSON(m)
}

// View pairs the estimate and truth streams by step index into a Sequence
// and serves it over HTTP and websocket. Messages may arrive from the MQTT
// client's goroutines while handlers read.
type View struct {
	mu           sync.Mutex
	seq          *orientation.Sequence
	pendingEst   map[int]PoseMessage
	pendingTruth map[int]PoseMessage
	lastEst      *PoseMessage
	lastTruth    *PoseMessage
	clients      map[*wsClient]struct{}
}

func NewView() *View {
	return &View{
		seq:          orientation.NewSequence(0),
		pendingEst:   make(map[int]PoseMessage),
		pendingTruth: make(map[int]PoseMessage),
		clients:      make(map[*wsClient]struct{}),
	}
}

// Sequence returns the pairs collected for the current run.
func (v *View) Sequence() *orientation.Sequence {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seq
}

// OnEstimate records an estimate message.
func (v *View) OnEstimate(m PoseMessage) {
	v.mu.Lock()
	v.restartIfNewRun(m.Index)
	v.lastEst = &m
	out := []WSMessage{{Type: "estimate", Index: m.Index, Timestamp: m.Timestamp, Estimated: &m.Pose}}
	if t, ok := v.pendingTruth[m.Index]; ok {
		out = append(out, v.pairLocked(m, t))
	} else {
		v.pendingEst[m.Index] = m
	}
	prune(v.pendingEst, m.Index)
	clients := v.clientsLocked()
	v.mu.Unlock()

	v.broadcast(clients, out)
}

// OnTruth records a ground-truth message.
func (v *View) OnTruth(m PoseMessage) {
	v.mu.Lock()
	v.restartIfNewRun(m.Index)
	v.lastTruth = &m
	var out []WSMessage
	if e, ok := v.pendingEst[m.Index]; ok {
		out = append(out, v.pairLocked(e, m))
	} else {
		v.pendingTruth[m.Index] = m
	}
	prune(v.pendingTruth, m.Index)
	clients := v.clientsLocked()
	v.mu.Unlock()

	v.broadcast(clients, out)
}

// restartIfNewRun starts a fresh Sequence when a producer starts over at
// step 0.
func (v *View) restartIfNewRun(index int) {
	if index != 0 || v.seq.Len() == 0 {
		return
	}
	log.Println("web: step 0 received, starting a new sequence")
	v.seq = orientation.NewSequence(0)
	v.pendingEst = make(map[int]PoseMessage)
	v.pendingTruth = make(map[int]PoseMessage)
	v.lastTruth = nil
}

func (v *View) pairLocked(est, truth PoseMessage) WSMessage {
	v.seq.Append(est.Pose, truth.Pose)
	delete(v.pendingEst, est.Index)
	delete(v.pendingTruth, truth.Index)
	return WSMessage{
		Type:      "pair",
		Index:     est.Index,
		Timestamp: est.Timestamp,
		Estimated: &est.Pose,
		Truth:     &truth.Pose,
		Steps:     v.seq.Len(),
	}
}

func prune(pending map[int]PoseMessage, newest int) {
	for k := range pending {
		if k <= newest-maxPending {
			delete(pending, k)
		}
	}
}

func (v *View) clientsLocked() []*wsClient {
	out := make([]*wsClient, 0, len(v.clients))
	for c := range v.clients {
		out = append(out, c)
	}
	return out
}

func (v *View) broadcast(clients []*wsClient, msgs []WSMessage) {
	for _, c := range clients {
		for _, m := range msgs {
			if err := c.send(m); err != nil {
				log.Debugf("web: websocket write error: %v", err)
				v.drop(c)
				break
			}
		}
	}
}

func (v *View) drop(c *wsClient) {
	v.mu.Lock()
	delete(v.clients, c)
	v.mu.Unlock()
	c.conn.Close()
}

// Handler serves the JSON API, the websocket feed and static files from
// staticDir.
func (v *View) Handler(staticDir string) http.Handler {
	mux := http.NewServeMux()

	// Latest estimate, with the latest truth when there is one.
	mux.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		v.mu.Lock()
		est, truth := v.lastEst, v.lastTruth
		v.mu.Unlock()

		if est == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, struct {
			Estimate PoseMessage  `json:"estimate"`
			Truth    *PoseMessage `json:"truth,omitempty"`
		}{*est, truth})
	})

	// Both sequences of the current run and their per-axis RMSE.
	mux.HandleFunc("/api/sequence", func(w http.ResponseWriter, r *http.Request) {
		seq := v.Sequence()
		writeJSON(w, struct {
			Estimated []orientation.Pose `json:"estimated"`
			Truth     []orientation.Pose `json:"truth"`
			RMSE      orientation.Pose   `json:"rmse"`
		}{seq.Estimated(), seq.Truth(), seq.RMSE()})
	})

	mux.HandleFunc("/ws", v.handleWS)

	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func (v *View) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	c := &wsClient{conn: conn}

	v.mu.Lock()
	v.clients[c] = struct{}{}
	steps := v.seq.Len()
	v.mu.Unlock()

	if err := c.send(WSMessage{Type: "snapshot", Steps: steps}); err != nil {
		v.drop(c)
		return
	}

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	v.drop(c)
}

// RunWeb subscribes to both pose topics and serves the view on
// WEB_SERVER_PORT.
func RunWeb(cfg *config.Config) error {
	view := NewView()

	client, err := connectMQTT(cfg, "web")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	subscribe := func(topic string, handle func(PoseMessage)) error {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var m PoseMessage
			if err := json.Unmarshal(msg.Payload(), &m); err != nil {
				log.Printf("MQTT payload unmarshal error: %v", err)
				return
			}
			handle(m)
		})
		token.Wait()
		if token.Error() != nil {
			return errors.Wrapf(token.Error(), "subscribe %s", topic)
		}
		log.Printf("subscribed to MQTT topic %s", topic)
		return nil
	}
	if err := subscribe(cfg.TopicPoseEstimate, view.OnEstimate); err != nil {
		return err
	}
	if err := subscribe(cfg.TopicPoseTruth, view.OnTruth); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, view.Handler("web"))
}
