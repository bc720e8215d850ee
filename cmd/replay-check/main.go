// Command replay-check loads a stored pet record and runs the offline
// catch-up against a chosen "now", printing the verdict and the recent
// event trail without writing anything back. Useful for verifying replay
// determinism against a live save file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tamaverse/petgotchi/internal/engine"
	"github.com/tamaverse/petgotchi/internal/events"
	"github.com/tamaverse/petgotchi/internal/infra/storage"
	"github.com/tamaverse/petgotchi/internal/platform/logger"
)

func main() {
	dbPath := flag.String("db", "pet.db", "path to the sqlite database")
	owner := flag.String("owner", "0xLOCAL", "owner key of the record")
	nowStr := flag.String("now", "", "replay target instant (RFC3339, default: current time)")
	seed := flag.Int64("seed", 1, "rng seed for the dry run")
	mode := flag.String("mode", "capped", "scheduler mode: capped or uncapped")
	trail := flag.Int("trail", 10, "print up to this many persisted events after -since (0 disables)")
	since := flag.Int64("since", 0, "only trail events with a sequence greater than this")
	flag.Parse()

	appLogger := logger.NewLogger()

	now := time.Now()
	if *nowStr != "" {
		parsed, err := time.Parse(time.RFC3339, *nowStr)
		if err != nil {
			appLogger.Error("Invalid -now value: %v", err)
			os.Exit(1)
		}
		now = parsed
	}

	db, err := storage.InitSQLite(*dbPath)
	if err != nil {
		appLogger.Error("Failed to open database: %v", err)
		os.Exit(1)
	}

	rec, err := storage.NewSQLiteRecordRepository(db).Get(context.Background(), *owner)
	if err != nil {
		appLogger.Error("Failed to load record: %v", err)
		os.Exit(1)
	}
	if rec == nil {
		appLogger.Error("No record for owner %s", *owner)
		os.Exit(1)
	}

	rng := engine.NewSeededRand(*seed)
	sched := engine.NewScheduler(engine.SchedulerMode(*mode), rng)
	res := engine.NewReplayer(sched, rng).Run(rec, now)

	fmt.Printf("owner:      %s\n", rec.Owner)
	fmt.Printf("last seen:  %s\n", rec.LastSeenWall.Format(time.RFC3339))
	fmt.Printf("replay to:  %s\n", now.Format(time.RFC3339))
	fmt.Printf("steps:      %d (%s)\n", res.Steps, res.Elapsed)
	fmt.Printf("needs:      clean=%.3f hunger=%.3f happy=%.3f health=%.3f\n",
		res.Needs.Cleanliness, res.Needs.Hunger, res.Needs.Happiness, res.Needs.Health)
	fmt.Printf("sick:       %v\n", res.Sick)
	fmt.Printf("consumed:   %d catastrophe entries\n", len(res.Consumed))
	if res.Died {
		fmt.Printf("verdict:    DEAD (%s)\n", res.Reason)
	} else {
		fmt.Printf("verdict:    alive\n")
	}

	eventRepo := storage.NewSQLiteEventRepository(db)
	deaths, err := eventRepo.GetByType(context.Background(), *owner, string(events.EventTypePetDied))
	if err != nil {
		appLogger.Error("Failed to count prior deaths: %v", err)
	} else {
		fmt.Printf("deaths:     %d on record\n", len(deaths))
	}

	if *trail > 0 {
		history, err := eventRepo.GetSince(context.Background(), *owner, *since, *trail)
		if err != nil {
			appLogger.Error("Failed to load event trail: %v", err)
			os.Exit(1)
		}
		fmt.Printf("trail:      %d events after seq %d\n", len(history), *since)
		for _, e := range history {
			fmt.Printf("  #%-6d %s  %s\n", e.Seq, e.Timestamp.Format(time.RFC3339), e.EventType)
		}
	}
}
