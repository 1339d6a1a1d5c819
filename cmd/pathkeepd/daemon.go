package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pathkeep/grid"
	"pathkeep/logging"
	"pathkeep/mover"
	"pathkeep/world"
)

const writeWait = 5 * time.Second

// daemon coordinates the world's tick loop and its websocket subscribers,
// grounded in the teacher's Hub: one mutex-protected struct owning the
// simulation and a map of live connections, plus a broadcast helper that
// marshals a snapshot and writes it to every subscriber, dropping any
// connection whose write fails.
type daemon struct {
	mu          sync.Mutex
	world       *world.World
	subscribers map[string]*subscriber
	pub         logging.Publisher
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newDaemon(cfg world.Config, pub logging.Publisher) *daemon {
	return &daemon{
		world:       world.New(cfg, pub),
		subscribers: make(map[string]*subscriber),
		pub:         pub,
	}
}

// runSimulation ticks the world at its configured rate until stop is
// closed, broadcasting a snapshot after every tick — mirrors the teacher's
// Hub.RunSimulation fixed-interval ticker loop.
func (d *daemon) runSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(d.world.TickInterval())
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			d.mu.Lock()
			d.world.Step(now, last)
			snap := d.snapshotLocked()
			d.mu.Unlock()
			last = now
			d.broadcast(snap)
		}
	}
}

type moverSnapshot struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           int     `json:"z"`
	Active      bool    `json:"active"`
	NeedsRepath bool    `json:"needsRepath"`
	PathIndex   int     `json:"pathIndex"`
	PathLength  int     `json:"pathLength"`
}

type worldSnapshot struct {
	Tick   uint64          `json:"tick"`
	Movers []moverSnapshot `json:"movers"`
}

func (d *daemon) snapshotLocked() worldSnapshot {
	movers := d.world.Movers.Movers()
	snap := worldSnapshot{Tick: d.world.CurrentTick(), Movers: make([]moverSnapshot, 0, len(movers))}
	for _, m := range movers {
		snap.Movers = append(snap.Movers, moverSnapshot{
			ID:          m.ID,
			X:           m.X,
			Y:           m.Y,
			Z:           m.Z,
			Active:      m.Active,
			NeedsRepath: m.NeedsRepath,
			PathIndex:   m.PathIndex,
			PathLength:  len(m.Path.Points),
		})
	}
	return snap
}

func (d *daemon) broadcast(snap worldSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		stdlog.Printf("pathkeepd: failed to marshal snapshot: %v", err)
		return
	}

	d.mu.Lock()
	subs := make([]*subscriber, 0, len(d.subscribers))
	for _, sub := range d.subscribers {
		subs = append(subs, sub)
	}
	d.mu.Unlock()

	for _, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			d.removeSubscriber(sub)
		}
	}
}

func (d *daemon) removeSubscriber(target *subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, sub := range d.subscribers {
		if sub == target {
			sub.conn.Close()
			delete(d.subscribers, id)
			return
		}
	}
}

func (d *daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func (d *daemon) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	payload := struct {
		Status     string `json:"status"`
		ServerTime int64  `json:"serverTime"`
		Tick       uint64 `json:"tick"`
		MoverCount int    `json:"moverCount"`
	}{
		Status:     "ok",
		ServerTime: time.Now().UnixMilli(),
		Tick:       d.world.CurrentTick(),
		MoverCount: len(d.world.Movers.Movers()),
	}
	d.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

type worldEditRequest struct {
	X    int       `json:"x"`
	Y    int       `json:"y"`
	Z    int       `json:"z"`
	Kind grid.Kind `json:"kind"`
}

func (d *daemon) handleWorldEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req worldEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	d.world.Grid.SetCell(req.X, req.Y, req.Z, req.Kind)
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type moverSpawnRequest struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     int     `json:"z"`
	GoalX int     `json:"goalX"`
	GoalY int     `json:"goalY"`
	GoalZ int     `json:"goalZ"`
	Speed float64 `json:"speed"`
}

func (d *daemon) handleMoverSpawn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req moverSpawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	if req.Speed <= 0 {
		req.Speed = mover.DefaultSpeed
	}

	d.mu.Lock()
	d.world.Movers.InitMover(req.ID, req.X, req.Y, req.Z, grid.Point{X: req.GoalX, Y: req.GoalY, Z: req.GoalZ}, req.Speed)
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (d *daemon) handleWS(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		stdlog.Printf("pathkeepd: upgrade failed for %s: %v", id, err)
		return
	}

	sub := &subscriber{conn: conn}
	d.mu.Lock()
	d.subscribers[id] = sub
	snap := d.snapshotLocked()
	d.mu.Unlock()

	data, err := json.Marshal(snap)
	if err == nil {
		sub.mu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
	}

	go func() {
		defer d.removeSubscriber(sub)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
