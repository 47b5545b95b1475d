package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/valewood/simcore/internal/boundary"
	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/config"
	"github.com/valewood/simcore/internal/core/command"
	"github.com/valewood/simcore/internal/core/ecs"
	"github.com/valewood/simcore/internal/core/job"
	coresys "github.com/valewood/simcore/internal/core/system"
	"github.com/valewood/simcore/internal/data"
	"github.com/valewood/simcore/internal/ecology"
	"github.com/valewood/simcore/internal/gateway"
	"github.com/valewood/simcore/internal/persist"
	"github.com/valewood/simcore/internal/planner"
	"github.com/valewood/simcore/internal/scripting"
	"github.com/valewood/simcore/internal/sim"
	"github.com/valewood/simcore/internal/system"
	"github.com/valewood/simcore/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("  ┌───────────────────────────────────────────┐")
	fmt.Println("  │          Valewood simcore v0.1.0          │")
	fmt.Println("  └───────────────────────────────────────────┘")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  ── %s %s\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s %s %s\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  ✓ %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  ▶ %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	var profileMode string
	flag.StringVar(&profileMode, "profile", "", "enable profiling: cpu or mem")
	flag.Parse()

	if profileMode == "cpu" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	} else if profileMode == "mem" {
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("VALEWOOD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Optional snapshot database
	var snapRepo *persist.SnapshotRepo
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		cancel()
		snapRepo = persist.NewSnapshotRepo(db)
		printOK("snapshot store ready")
		fmt.Println()
	}

	// 4. Load data tables
	printSection("data")

	defs, err := data.LoadDefTable(cfg.Sim.DefsPath)
	if err != nil {
		return fmt.Errorf("load entity defs: %w", err)
	}
	printStat("entity definitions", defs.Count())

	spawns, err := data.LoadSpawnList(cfg.Sim.SpawnsPath)
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}
	printStat("spawn entries", len(spawns))

	factions, initialRelations, err := data.LoadFactionTable(cfg.Sim.FactionsPath)
	if err != nil {
		return fmt.Errorf("load factions: %w", err)
	}
	printStat("factions", len(factions))

	// 5. Behavior scripting engine
	scripts, err := scripting.NewEngine(cfg.Sim.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer scripts.Close()
	printOK("behavior scripts loaded")
	fmt.Println()

	// 6. Core wiring: explicit dependency injection, no ambient globals.
	mailbox := boundary.NewMailbox()
	inputState := &boundary.InputState{}
	notify := boundary.NewBatch()
	clock := world.NewClock(cfg.World.DayLength)
	w := world.NewWorld(cfg.World.Seed, cfg.Sim.EntityCapacity, cfg.Spatial.CellSize, clock, notify, log)
	for _, rel := range initialRelations {
		w.Relations.Set(rel.A, rel.B, rel.Standing)
	}

	commands := command.NewBuffer()
	jobs := job.NewScheduler(cfg.Jobs.Workers, cfg.Jobs.QueueDepth, commands, log)
	defer jobs.Close()

	pool := ecology.NewPool()
	hydrator := ecology.NewHydrator(w, pool, defs, cfg.Ecology.LoadRadiusCells, log)
	dayPlanner := planner.New(cfg.World.Seed, cfg.Planner.TriggerHour, cfg.Planner.BatchSize,
		factions, w.Relations, jobs, log)

	// 7. Restore a saved world, or seed a fresh one.
	printSection("world")
	restored := false
	if snapRepo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		snap, err := snapRepo.Load(ctx)
		cancel()
		switch {
		case err == nil:
			if err := sim.Restore(w, pool, dayPlanner, defs, snap); err != nil {
				return fmt.Errorf("restore snapshot: %w", err)
			}
			restored = true
			printOK("world restored from snapshot")
		case errors.Is(err, persist.ErrNoSnapshot):
		default:
			return fmt.Errorf("load snapshot: %w", err)
		}
	}
	if !restored {
		count := sim.SpawnPopulation(w, defs, spawns, log)
		printStat("entities spawned", count)
	}
	if !w.Entities.Valid(w.Observer) {
		if err := spawnObserver(w, defs); err != nil {
			return fmt.Errorf("spawn observer: %w", err)
		}
	}
	printStat("active entities", w.Entities.Active())
	printStat("virtual agents", pool.Len())
	fmt.Println()

	// 8. Systems, in explicit phase order.
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(w, inputState, cfg.Sim.PlayerSpeed))
	runner.Register(system.NewBehaviorSystem(w, scripts, log))
	runner.Register(system.NewMovementSystem(w))
	runner.Register(system.NewVitalsSystem(w, defs, commands))
	runner.Register(system.NewEcologySystem(w, hydrator, cfg.Ecology.VirtualTickInterval))
	runner.Register(system.NewPlannerSystem(w, dayPlanner))

	loop := sim.NewLoop(w, runner, commands, mailbox, inputState, notify, defs, log)

	// 9. Presentation gateway
	var hub *gateway.Hub
	if cfg.Gateway.Enabled {
		hub = gateway.NewHub(mailbox, cfg.Gateway.SendQueueSize, log)
		notify.AddSink(hub)
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.ServeWS)
		srv := &http.Server{Addr: cfg.Gateway.BindAddress, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("gateway server", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	// 10. Fixed-tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	printSection("ready")
	if cfg.Gateway.Enabled {
		printReady(fmt.Sprintf("gateway listening on %s", cfg.Gateway.BindAddress))
	}
	printReady(fmt.Sprintf("simulation loop started (tick: %s)", cfg.Sim.TickRate))
	fmt.Println()

	saveEvery := 0
	if snapRepo != nil && cfg.Sim.AutosaveInterval > 0 {
		saveEvery = int(cfg.Sim.AutosaveInterval / cfg.Sim.TickRate)
	}
	saveCounter := 0

	for {
		select {
		case <-ticker.C:
			loop.Step(cfg.Sim.TickRate)
			if saveEvery > 0 {
				saveCounter++
				if saveCounter >= saveEvery {
					saveCounter = 0
					saveSnapshot(snapRepo, w, pool, dayPlanner, log)
				}
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			if snapRepo != nil {
				saveSnapshot(snapRepo, w, pool, dayPlanner, log)
			}
			if hub != nil {
				hub.Shutdown()
			}
			log.Info("simulation stopped",
				zap.Uint64("ticks", loop.Ticks()),
				zap.Int("active_entities", w.Entities.Active()))
			return nil
		}
	}
}

// spawnObserver creates the player entity the ecology radius centers on.
func spawnObserver(w *world.World, defs *data.DefTable) error {
	var (
		h   ecs.Handle
		err error
	)
	if def, ok := defs.Get("player"); ok {
		h, err = w.SpawnFromDef(def, component.Vec2{}, 0)
	} else {
		h, err = w.Spawn(ecs.KindPlayer, "player", component.Vec2{}, 0)
		if err == nil {
			w.Stats.Set(h, &component.Stats{Health: 100, MaxHealth: 100, Hunger: 100, Thirst: 100})
		}
	}
	if err != nil {
		return err
	}
	w.Observer = h
	return nil
}

func saveSnapshot(repo *persist.SnapshotRepo, w *world.World, pool *ecology.Pool, p *planner.Planner, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	snap := sim.Capture(w, pool, p)
	if err := repo.Save(ctx, snap); err != nil {
		log.Error("snapshot save failed", zap.Error(err))
		return
	}
	log.Info("world snapshot saved",
		zap.Int("entities", len(snap.Entities)),
		zap.Int("virtual", len(snap.Virtual)))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
