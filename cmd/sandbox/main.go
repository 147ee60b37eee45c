package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Squad-Command/internal/config"
	"github.com/Garsondee/Squad-Command/internal/game"
	"github.com/Garsondee/Squad-Command/internal/logging"
	"github.com/Garsondee/Squad-Command/internal/viewer"
)

func main() {
	var cfgPath string
	var logLevel string
	flag.StringVar(&cfgPath, "config", "", "config file (yaml, json or toml)")
	flag.StringVar(&logLevel, "log-level", "", "override log level")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	cfg.Log.Writer = os.Stderr
	logger := logging.New(cfg.Log)

	opts, err := cfg.SimOptions(logging.Component(logger, "sim"))
	if err != nil {
		logger.Fatal().Err(err).Msg("difficulty")
	}
	ts := game.NewTestSim(append(opts, sandboxWorld(cfg.Sim.Width, cfg.Sim.Depth)...)...)
	logger.Info().
		Int64("seed", cfg.Sim.Seed).
		Str("difficulty", cfg.Difficulty.Level).
		Int("wraiths", len(ts.Wraiths)).
		Msg("sandbox ready")

	v := viewer.New(ts, viewer.Options{Logger: logger})
	ebiten.SetWindowTitle("Squad Command")
	ebiten.SetWindowSize(v.Size())
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}

// sandboxWorld lays out a small firebase: the player in the middle, a few
// walls, hostiles and pickups to the north, and a patrolling Wraith.
func sandboxWorld(w, d float64) []game.SimOption {
	cx, cz := w/2, d/2
	return []game.SimOption{
		game.WithPlayer(cx, cz),
		game.WithCompanion(cx+2, cz-2),

		game.WithObstacle(cx-20, cz+14, cx-6, cz+17),
		game.WithObstacle(cx+8, cz+22, cx+11, cz+34),
		game.WithObstacle(cx-30, cz-10, cx-26, cz+6),

		game.WithEnemy(cx-4, cz+30, 100),
		game.WithEnemy(cx+2, cz+33, 100),
		game.WithEnemy(cx+18, cz+40, 100),
		game.WithBoss(cx-12, cz+52, 250),

		game.WithCollectible(cx+24, cz+10, "ammo"),
		game.WithCollectible(cx-18, cz+36, "health"),
		game.WithSecret(cx+30, cz+60, "skull"),

		game.WithWraith(cx+40, cz+70,
			game.V3(cx+40, 0, cz+70),
			game.V3(cx-40, 0, cz+70),
			game.V3(cx-40, 0, cz+95),
			game.V3(cx+40, 0, cz+95),
		),
	}
}
