// Package main is the entry point for the pet simulation server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/tamaverse/petgotchi/internal/clock"
	"github.com/tamaverse/petgotchi/internal/domain/pet"
	"github.com/tamaverse/petgotchi/internal/engine"
	"github.com/tamaverse/petgotchi/internal/events"
	"github.com/tamaverse/petgotchi/internal/infra/storage"
	"github.com/tamaverse/petgotchi/internal/network"
	"github.com/tamaverse/petgotchi/internal/platform/config"
	"github.com/tamaverse/petgotchi/internal/platform/logger"
	"github.com/tamaverse/petgotchi/internal/platform/metrics"
)

func main() {
	configPath := flag.String("config", "pet-server.yaml", "path to config file")
	flag.Parse()

	log.Println("[PET-SERVER] Initializing pet simulation server...")

	cfg := config.Load(*configPath)
	appLogger := logger.NewLogger()
	clk := clock.NewSystem()

	appLogger.Info("Initializing SQLite database %q...", cfg.DBPath)
	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: %v", err)
		os.Exit(1)
	}

	eventRepo := storage.NewSQLiteEventRepository(db)
	eventLog := events.NewLog(storage.NewEventPersister(eventRepo))

	recordRepo := storage.NewSQLiteRecordRepository(db)
	lifeLedger := storage.NewSQLiteLedger(db, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := loadOrCreateRecord(ctx, recordRepo, cfg, clk, appLogger)

	var rng engine.Rand
	if cfg.Seed != 0 {
		rng = engine.NewSeededRand(cfg.Seed)
	} else {
		rng = engine.NewEntropyRand()
	}

	appLogger.Info("Bootstrapping lifecycle controller...")
	ctrl := engine.NewController(rec, eventLog, appLogger, lifeLedger, clk, rng, engine.SchedulerMode(cfg.SchedulerMode))

	// The loop replays absent time before its first tick.
	loop := engine.NewLoop(ctrl, clk, appLogger)
	go loop.Start(ctx)

	saver := storage.NewSaver(recordRepo, ctrl.Snapshot, appLogger)
	go saver.Run(ctx)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(ctrl, storage.NewEventHistory(eventRepo), appLogger)
	go hub.Run(ctx)
	hub.StartForwarders(ctx, eventLog)

	registerRoutes(hub, ctrl, appLogger)

	go func() {
		log.Printf("[PET-SERVER] HTTP API & WS Server listening on %s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, nil); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[PET-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown: cancel the loop, then flush the final snapshot so
	// the last partial interval of age and needs survives.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[PET-SERVER] Shutting down...")
	cancel()
	saver.Flush()
}

func loadOrCreateRecord(ctx context.Context, repo *storage.SQLiteRecordRepository, cfg config.Config, clk clock.Clock, appLogger *logger.Logger) *pet.Record {
	rec, err := repo.Get(ctx, cfg.Owner)
	if err != nil {
		appLogger.Error("Failed to load record, starting fresh: %v", err)
	}
	if rec != nil {
		appLogger.Info("Loaded existing pet for %s (stage=%s)", rec.Owner, rec.Stage)
		return rec
	}

	appLogger.Info("No record found. A new pet is born for %s", cfg.Owner)
	rec = pet.NewRecord(cfg.Owner, clk.Now())
	if cfg.Sleep.Mode == "custom" {
		rec.Sleep = pet.SleepConfig{
			Mode:        pet.SleepCustom,
			CustomStart: cfg.Sleep.CustomStart,
			CustomEnd:   cfg.Sleep.CustomEnd,
		}
	}
	return rec
}

func registerRoutes(hub *network.Hub, ctrl *engine.Controller, appLogger *logger.Logger) {
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})

	http.HandleFunc("/metrics", metrics.Handler())

	http.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ctrl.View())
	})

	http.HandleFunc("/api/action", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		type requestParams struct {
			Action string `json:"action"`
			Kind   string `json:"kind"`
		}
		var req requestParams
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		var err error
		switch req.Action {
		case "feed":
			kind := pet.FoodKind(req.Kind)
			if kind == "" {
				kind = pet.FoodMeal
			}
			err = ctrl.Feed(kind)
		case "play":
			err = ctrl.Play()
		case "clean":
			err = ctrl.Clean()
		case "heal":
			err = ctrl.Heal()
		default:
			http.Error(w, "Unknown action", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			json.NewEncoder(w).Encode(map[string]string{"status": "rejected", "reason": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	http.HandleFunc("/api/evolve", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		type requestParams struct {
			Variant string `json:"variant"` // empty re-rolls a juvenile
		}
		var req requestParams
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		var ok bool
		if req.Variant != "" {
			ok = ctrl.Hatch(pet.Variant(req.Variant))
		} else {
			ok = ctrl.ForceEvolve()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"ok": ok})
	})

	http.HandleFunc("/api/revive", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ok, outcome := ctrl.Revive()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": ok, "outcome": outcome})
	})

	http.HandleFunc("/api/new-game", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctrl.NewGame()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	http.HandleFunc("/api/life-redeemed", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		type requestParams struct {
			Owner string `json:"owner"`
		}
		var req requestParams
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		ctrl.HandleLifeRedeemed(req.Owner)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	http.HandleFunc("/api/sleep-config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		type requestParams struct {
			Start int  `json:"start"`
			End   int  `json:"end"`
			Lock  bool `json:"lock"`
		}
		var req requestParams
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := ctrl.SetSleepWindow(req.Start, req.End, req.Lock); err != nil {
			json.NewEncoder(w).Encode(map[string]string{"status": "rejected", "reason": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests for local dev frontends
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection: %v", err)
		return
	}

	client := network.NewClient(hub, conn)
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}
