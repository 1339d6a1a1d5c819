// Command pathkeepd runs the pathing/movement world as a standalone debug
// and replay daemon, grounded in the teacher's server/main.go: an HTTP
// mux serving /health and /diagnostics, a world-edit JSON endpoint, and a
// gorilla/websocket subscriber broadcast loop driven by the simulation's own
// tick goroutine.
package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"strconv"

	"pathkeep/logging"
	loggingsinks "pathkeep/logging/sinks"
	"pathkeep/world"
)

func main() {
	logCfg := logging.DefaultConfig()
	sinks := map[string]logging.Sink{
		"console": loggingsinks.NewConsoleSink(os.Stdout, logCfg.Console),
	}
	router, err := logging.NewRouter(logCfg, logging.SystemClock{}, stdlog.Default(), sinks)
	if err != nil {
		stdlog.Fatalf("failed to construct logging router: %v", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			stdlog.Printf("failed to close logging router: %v", cerr)
		}
	}()

	worldCfg := world.DefaultConfig()
	if raw := os.Getenv("PATHKEEPD_TICK_RATE"); raw != "" {
		if rate, err := strconv.Atoi(raw); err == nil && rate > 0 {
			worldCfg.TickRate = rate
		} else {
			stdlog.Printf("invalid PATHKEEPD_TICK_RATE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("PATHKEEPD_SEED"); raw != "" {
		worldCfg.Seed = raw
	}

	d := newDaemon(worldCfg.Normalized(), router)

	stop := make(chan struct{})
	go d.runSimulation(stop)
	defer close(stop)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", d.handleHealth)
	mux.HandleFunc("/diagnostics", d.handleDiagnostics)
	mux.HandleFunc("/world/edit", d.handleWorldEdit)
	mux.HandleFunc("/mover/spawn", d.handleMoverSpawn)
	mux.HandleFunc("/ws", d.handleWS)

	addr := ":8090"
	if raw := os.Getenv("PATHKEEPD_ADDR"); raw != "" {
		addr = raw
	}

	stdlog.Printf("pathkeepd listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		stdlog.Fatalf("pathkeepd failed: %v", err)
	}
}
