package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/duxbuse/waryes-sub005/internal/replay"
	"github.com/duxbuse/waryes-sub005/internal/session"
	"github.com/duxbuse/waryes-sub005/internal/sim"
	"github.com/duxbuse/waryes-sub005/internal/ws"
	"github.com/duxbuse/waryes-sub005/logging"
	loggingsinks "github.com/duxbuse/waryes-sub005/logging/sinks"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}

func loadConfig() {
	viper.SetDefault("addr", ":8080")
	viper.SetDefault("seed", "skirmish")
	viper.SetDefault("tickRate", sim.DefaultTickRate)
	viper.SetDefault("keyframeInterval", 120)
	viper.SetDefault("plannerBudget", 4096)
	viper.SetDefault("map.cols", 64)
	viper.SetDefault("map.rows", 64)
	viper.SetDefault("setupSeconds", 30)
	viper.SetDefault("record.path", "matches.db")
	viper.SetDefault("log.events", "")

	viper.SetConfigName("server")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("skirmish")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("config file ignored: %v", err)
		}
	}
}

func run(ctx context.Context) error {
	loadConfig()

	sinks := []logging.NamedSink{
		{Name: "console", Sink: loggingsinks.NewZerologSink(os.Stdout)},
	}
	if path := viper.GetString("log.events"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open event log %s: %w", path, err)
		}
		sinks = append(sinks, logging.NamedSink{Name: "events", Sink: loggingsinks.NewJSONSink(f)})
	}
	router := logging.NewRouter(logging.Config{MinimumSeverity: logging.SeverityInfo}, sinks)
	defer router.Close(ctx)

	cfg := sim.Config{
		Seed:             viper.GetString("seed"),
		TickRate:         viper.GetInt("tickRate"),
		KeyframeInterval: viper.GetInt("keyframeInterval"),
		PlannerBudget:    viper.GetInt("plannerBudget"),
	}
	cols := viper.GetInt("map.cols")
	rows := viper.GetInt("map.rows")
	terrain := sim.FlatTerrain(cols, rows, 0)

	world := sim.NewWorld(cfg, terrain, router)
	for _, zone := range sim.DefaultZones(terrain) {
		world.AddZone(zone)
	}

	match := session.NewAuthoritative(world)
	matchID := uuid.NewString()

	var store *replay.Store
	if path := viper.GetString("record.path"); path != "" {
		var err error
		store, err = replay.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.CreateMatch(matchID, world.Config(), cols, rows); err != nil {
			return err
		}
		match.SetRecorder(func(tick uint64, commands []sim.Command) {
			if err := store.RecordCommands(matchID, tick, commands); err != nil {
				log.Printf("recording failed at tick %d: %v", tick, err)
			}
		})
	}

	hub := ws.NewHub(match, router, log.Default())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	// The setup phase ends on a wall-clock timer; the phase switch lands
	// at the next tick boundary.
	setup := time.Duration(viper.GetInt("setupSeconds")) * time.Second
	go func() {
		select {
		case <-ctx.Done():
		case <-time.After(setup):
			match.SetPhase(sim.PhaseBattle)
			if store != nil {
				if err := store.MarkBattleStart(matchID, match.Tick()+1); err != nil {
					log.Printf("recording battle start failed: %v", err)
				}
			}
		}
	}()

	handler := ws.NewHandler(hub, ws.HandlerConfig{Logger: log.Default()})
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.Handle)

	srv := &http.Server{Addr: viper.GetString("addr"), Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("match %s listening on %s", matchID, srv.Addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		err = nil
	}

	if store != nil {
		frame := match.Keyframe()
		if ferr := store.FinishMatch(matchID, frame.Tick, match.World().Digest(), frame.Scores); ferr != nil {
			log.Printf("recording final score failed: %v", ferr)
		}
	}
	return err
}
