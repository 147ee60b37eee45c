package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Garsondee/Squad-Command/internal/config"
	"github.com/Garsondee/Squad-Command/internal/game"
	"github.com/Garsondee/Squad-Command/internal/logging"
	"github.com/Garsondee/Squad-Command/internal/recorder"
)

type runStats struct {
	runIndex int
	seed     int64
	ticks    int

	firstOrderTick  int
	firstTargetTick int
	firstAlertTick  int
	firstCombatTick int
	firstMortarTick int
	firstIntelTick  int
	scoutDoneTick   int
	firstDownTick   int

	ordersIssued   int
	ordersRejected int
	ordersExpired  int
	modeChanges    int
	targetSwitches int
	wraithStates   int
	mortarLaunches int
	intelReports   int
	voiceLines     int

	damage map[string]float64 // by weapon
	taken  map[string]float64 // by victim label
	intel  map[string]struct{}

	runID string
}

// scenario seeds a sim and gives the opening orders.
type scenario struct {
	name   string
	world  func(w, d float64) []game.SimOption
	orders func(ts *game.TestSim)
}

var scenarios = []scenario{
	{
		name: "follow",
		world: func(w, d float64) []game.SimOption {
			cx, cz := w/2, d/4
			return []game.SimOption{
				game.WithPlayer(cx, cz),
				game.WithPlayerVelocity(0, 2),
				game.WithCompanion(cx+2, cz-6),
			}
		},
		orders: func(ts *game.TestSim) { ts.Issue(game.DirectiveFollowMe, 0, nil) },
	},
	{
		name: "scout",
		world: func(w, d float64) []game.SimOption {
			cx, cz := w/2, d/4
			return []game.SimOption{
				game.WithPlayer(cx, cz),
				game.WithCompanion(cx+2, cz),
				game.WithEnemy(cx+1, cz+31, 100),
				game.WithEnemy(cx+3, cz+33, 100),
				game.WithEnemy(cx+2, cz+36, 100),
				game.WithCollectible(cx-6, cz+20, "ammo"),
			}
		},
		orders: func(ts *game.TestSim) { ts.Issue(game.DirectiveScoutAhead, 0, nil) },
	},
	{
		name: "wraith",
		world: func(w, d float64) []game.SimOption {
			cx, cz := w/2, d/4
			return []game.SimOption{
				game.WithPlayer(cx, cz),
				game.WithCompanion(cx+2, cz-2),
				game.WithWraith(cx, cz+35),
			}
		},
		orders: func(ts *game.TestSim) { ts.Issue(game.DirectiveHoldPosition, 0, nil) },
	},
	{
		name: "mixed",
		world: func(w, d float64) []game.SimOption {
			cx, cz := w/2, d/4
			return []game.SimOption{
				game.WithPlayer(cx, cz),
				game.WithCompanion(cx+2, cz-2),
				game.WithObstacle(cx-12, cz+14, cx-2, cz+17),
				game.WithEnemy(cx-6, cz+28, 100),
				game.WithEnemy(cx+6, cz+30, 100),
				game.WithBoss(cx, cz+45, 250),
				game.WithSecret(cx+20, cz+25, "skull"),
				game.WithWraith(cx+30, cz+80,
					game.V3(cx+30, 0, cz+80),
					game.V3(cx-30, 0, cz+80),
				),
			}
		},
		orders: func(ts *game.TestSim) { ts.Issue(game.DirectiveScoutAhead, 0, nil) },
	},
}

func lookupScenario(name string) (scenario, bool) {
	for _, s := range scenarios {
		if s.name == name {
			return s, true
		}
	}
	return scenario{}, false
}

func scenarioNames() string {
	names := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		names = append(names, s.name)
	}
	return strings.Join(names, ", ")
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var scenarioName string
	var cfgPath string
	var dbPath string
	var logLevel string

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 600, "ticks per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&scenarioName, "scenario", "mixed", "scenario name")
	flag.StringVar(&cfgPath, "config", "", "config file (yaml, json or toml)")
	flag.StringVar(&dbPath, "db", "", "sqlite file for the after-action record (overrides recorder.path)")
	flag.StringVar(&logLevel, "log-level", "", "override log level")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}
	sc, ok := lookupScenario(scenarioName)
	if !ok {
		fmt.Printf("error: unsupported scenario %q (supported: %s)\n", scenarioName, scenarioNames())
		return
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	cfg.Log.Writer = os.Stderr
	logger := logging.New(cfg.Log)

	if dbPath == "" {
		dbPath = cfg.Recorder.Path
	}
	var rec *recorder.Recorder
	if dbPath != "" {
		rec, err = recorder.Open(dbPath, logger)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		defer func() { _ = rec.Close() }()
	}

	fmt.Printf("=== Headless Squad Report ===\n")
	fmt.Printf("scenario=%s runs=%d ticks=%d seed_base=%d seed_step=%d difficulty=%s\n\n",
		sc.name, runs, ticks, seedBase, seedStep, cfg.Difficulty.Level)

	ctx := context.Background()
	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		cfg.Sim.Seed = seedBase + int64(i)*seedStep
		stats, err := runScenario(ctx, sc, cfg, i+1, ticks, rec, logger)
		if err != nil {
			fmt.Printf("error: run %d: %v\n", i+1, err)
			return
		}
		all = append(all, stats)
		printRun(stats)
	}
	printAggregate(all)
}

func runScenario(ctx context.Context, sc scenario, cfg config.Config, runIndex, ticks int,
	rec *recorder.Recorder, logger zerolog.Logger) (runStats, error) {
	opts, err := cfg.SimOptions(logging.Component(logger, "sim"))
	if err != nil {
		return runStats{}, err
	}
	ts := game.NewTestSim(append(opts, sc.world(cfg.Sim.Width, cfg.Sim.Depth)...)...)

	var missions []game.ScoutMission
	if ts.Squad != nil {
		ts.Squad.Scout.OnComplete(func(m game.ScoutMission) { missions = append(missions, m) })
	}
	sc.orders(ts)
	ts.RunTicks(ticks)

	stats := collectStats(ts.SimLog.Entries())
	stats.runIndex = runIndex
	stats.seed = cfg.Sim.Seed
	stats.ticks = ts.CurrentTick()

	if rec == nil {
		return stats, nil
	}
	run, err := rec.StartRun(ctx, sc.name, cfg.Sim.Seed, cfg.Difficulty.Level)
	if err != nil {
		return stats, err
	}
	if err := rec.RecordEvents(ctx, run.ID, ts.SimLog.Entries()); err != nil {
		return stats, err
	}
	for _, m := range missions {
		if err := rec.RecordMission(ctx, run.ID, m); err != nil {
			return stats, err
		}
	}
	if err := rec.FinishRun(ctx, run.ID, ts.CurrentTick(), ts.SimLog.Summary(ts)); err != nil {
		return stats, err
	}
	stats.runID = run.ID
	return stats, nil
}

// collectStats folds a run's log into phase markers and counters.
func collectStats(entries []game.SimLogEntry) runStats {
	rs := runStats{
		firstOrderTick:  firstTick(entries, "command", "issued", ""),
		firstTargetTick: firstTick(entries, "target", "current", ""),
		firstAlertTick:  firstTick(entries, "wraith", "state", "→ alert"),
		firstCombatTick: firstTick(entries, "wraith", "state", "→ combat"),
		firstMortarTick: firstTick(entries, "wraith", "mortar_launch", ""),
		firstIntelTick:  firstTick(entries, "intel", "", ""),
		scoutDoneTick:   firstTick(entries, "scout", "complete", ""),
		firstDownTick:   firstTick(entries, "damage", "killed", ""),
		damage:          map[string]float64{},
		taken:           map[string]float64{},
		intel:           map[string]struct{}{},
	}
	for _, e := range entries {
		switch e.Category {
		case "command":
			switch e.Key {
			case "issued":
				rs.ordersIssued++
			case "rejected":
				rs.ordersRejected++
			case "expired":
				rs.ordersExpired++
			}
		case "steer":
			if e.Key == "mode_change" {
				rs.modeChanges++
			}
		case "target":
			if e.Key == "switch" {
				rs.targetSwitches++
			}
		case "wraith":
			switch e.Key {
			case "state":
				rs.wraithStates++
			case "mortar_launch":
				rs.mortarLaunches++
			}
		case "intel":
			rs.intelReports++
			rs.intel[e.Key] = struct{}{}
		case "voice":
			rs.voiceLines++
		case "damage":
			if e.Key == "killed" {
				continue
			}
			if e.Key != "taken" {
				rs.damage[e.Key] += e.NumVal
			}
			rs.taken[e.Actor] += e.NumVal
		}
	}
	return rs
}

func firstTick(entries []game.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || (key != "" && e.Key != key) {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d ticks=%d) ---\n", rs.runIndex, rs.seed, rs.ticks)
	fmt.Printf("phase_markers: order=%d target=%d wraith_alert=%d wraith_combat=%d first_mortar=%d first_intel=%d scout_done=%d first_down=%d\n",
		rs.firstOrderTick, rs.firstTargetTick, rs.firstAlertTick, rs.firstCombatTick,
		rs.firstMortarTick, rs.firstIntelTick, rs.scoutDoneTick, rs.firstDownTick)
	fmt.Printf("command_events: issued=%d rejected=%d expired=%d mode_change=%d target_switch=%d\n",
		rs.ordersIssued, rs.ordersRejected, rs.ordersExpired, rs.modeChanges, rs.targetSwitches)
	fmt.Printf("wraith_events: state_change=%d mortar_launch=%d\n", rs.wraithStates, rs.mortarLaunches)
	fmt.Printf("intel: reports=%d kinds=%s voice_lines=%d\n", rs.intelReports, joinSet(rs.intel), rs.voiceLines)
	fmt.Printf("damage_by_weapon: %s\n", joinTotals(rs.damage))
	fmt.Printf("damage_taken: %s\n", joinTotals(rs.taken))
	if rs.runID != "" {
		fmt.Printf("recorded_run=%s\n", rs.runID)
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	totalIssued := 0
	totalRejected := 0
	totalExpired := 0
	totalModes := 0
	totalSwitches := 0
	totalMortars := 0
	totalIntel := 0

	alertTicks := make([]int, 0, len(all))
	combatTicks := make([]int, 0, len(all))
	mortarTicks := make([]int, 0, len(all))
	scoutTicks := make([]int, 0, len(all))
	downTicks := make([]int, 0, len(all))
	damage := map[string]float64{}
	taken := map[string]float64{}
	kinds := map[string]struct{}{}

	for _, rs := range all {
		totalIssued += rs.ordersIssued
		totalRejected += rs.ordersRejected
		totalExpired += rs.ordersExpired
		totalModes += rs.modeChanges
		totalSwitches += rs.targetSwitches
		totalMortars += rs.mortarLaunches
		totalIntel += rs.intelReports
		if rs.firstAlertTick >= 0 {
			alertTicks = append(alertTicks, rs.firstAlertTick)
		}
		if rs.firstCombatTick >= 0 {
			combatTicks = append(combatTicks, rs.firstCombatTick)
		}
		if rs.firstMortarTick >= 0 {
			mortarTicks = append(mortarTicks, rs.firstMortarTick)
		}
		if rs.scoutDoneTick >= 0 {
			scoutTicks = append(scoutTicks, rs.scoutDoneTick)
		}
		if rs.firstDownTick >= 0 {
			downTicks = append(downTicks, rs.firstDownTick)
		}
		for k, v := range rs.damage {
			damage[k] += v
		}
		for k, v := range rs.taken {
			taken[k] += v
		}
		for k := range rs.intel {
			kinds[k] = struct{}{}
		}
	}

	n := len(all)
	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d\n", n)
	fmt.Printf("avg_events_per_run: issued=%.1f rejected=%.1f expired=%.1f mode_change=%.1f target_switch=%.1f mortar_launch=%.1f intel=%.1f\n",
		avg(totalIssued, n), avg(totalRejected, n), avg(totalExpired, n), avg(totalModes, n),
		avg(totalSwitches, n), avg(totalMortars, n), avg(totalIntel, n))
	fmt.Printf("phase_marker_avg_ticks: wraith_alert=%s wraith_combat=%s first_mortar=%s scout_done=%s first_down=%s\n",
		avgTickString(alertTicks), avgTickString(combatTicks), avgTickString(mortarTicks),
		avgTickString(scoutTicks), avgTickString(downTicks))
	fmt.Printf("avg_damage_by_weapon: %s\n", joinTotals(scaleTotals(damage, n)))
	fmt.Printf("avg_damage_taken: %s\n", joinTotals(scaleTotals(taken, n)))
	fmt.Printf("intel_kinds_seen=%d [%s]\n", len(kinds), joinSet(kinds))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func scaleTotals(m map[string]float64, n int) map[string]float64 {
	out := make(map[string]float64, len(m))
	if n <= 0 {
		return out
	}
	for k, v := range m {
		out[k] = v / float64(n)
	}
	return out
}

func joinTotals(m map[string]float64) string {
	if len(m) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%.1f", k, m[k]))
	}
	return strings.Join(parts, " ")
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}
