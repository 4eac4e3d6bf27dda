package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/coverlabs/mulberry/internal/config"
	"github.com/coverlabs/mulberry/internal/covertime"
	"github.com/coverlabs/mulberry/internal/engine"
	"github.com/coverlabs/mulberry/internal/event"
	"github.com/coverlabs/mulberry/internal/store"
	"github.com/coverlabs/mulberry/pkg/db"
	"github.com/coverlabs/mulberry/pkg/db/pebble"
	"github.com/coverlabs/mulberry/pkg/log"
)

// main starts an assessment node.
// go run main.go -config mulberry.yaml
func main() {
	configFile := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := cfg.InitLogging(); err != nil {
		os.Stderr.WriteString("logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	var kv db.KVStore
	if cfg.InMemory {
		kv, err = pebble.NewKVStore()
	} else {
		kv, err = pebble.NewPersistentKVStore(filepath.Join(cfg.DataDir, "db"))
	}
	if err != nil {
		log.Root.Fatal().Err(err).Msg("opening store")
	}
	defer kv.Close() //nolint:errcheck

	eng, err := engine.Load(
		covertime.SystemClock{},
		engine.Params{VotingPeriod: cfg.VotingPeriodDuration()},
		store.New(kv),
		engine.WithLogger(log.Engine),
	)
	if err != nil {
		log.Root.Fatal().Err(err).Msg("loading engine state")
	}

	for _, et := range event.Types() {
		eng.Bus().SubscribeFunc(et, func(e event.Event) {
			log.Engine.Info().Str("event", string(e.Type)).Msg("event")
		})
	}

	log.Root.Info().
		Str("dataDir", cfg.DataDir).
		Uint64("votingPeriod", uint64(eng.VotingPeriod())).
		Msg("node started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Root.Info().Msg("shutting down")
}
