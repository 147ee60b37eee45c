package game

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a headless simulation.
type SimLogEntry struct {
	Tick     int
	Actor    string  // label e.g. "Marcus", "W1", or "--" for global events
	Side     string  // "player", "ally", "hostile", or "--"
	Category string  // command, scout, intel, steer, target, wraith, damage, world, voice, ui, fx
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] Marcus  steer     mode_change      follow → scout
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-7s %-9s %-16s %s",
		e.Tick, e.Actor, e.Category, e.Key, e.Value)
}

// SimLog collects structured events during a headless simulation.
// Unlike ThoughtLog (UI ring-buffer), SimLog is unbounded and machine-readable.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-tick position and
// health entries are also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry.
func (sl *SimLog) Add(tick int, actor, side, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Actor:    actor,
		Side:     side,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, actor, side, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, actor, side, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Tail returns the last n entries.
func (sl *SimLog) Tail(n int) []SimLogEntry {
	if n <= 0 {
		return nil
	}
	if len(sl.entries) > n {
		return sl.entries[len(sl.entries)-n:]
	}
	return sl.entries
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// FirstOf returns the earliest entry matching category+key+value substring.
func (sl *SimLog) FirstOf(category, key, valueSubstr string) (SimLogEntry, bool) {
	for _, e := range sl.Filter(category, key) {
		if valueSubstr == "" || strings.Contains(e.Value, valueSubstr) {
			return e, true
		}
	}
	return SimLogEntry{}, false
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	_, ok := sl.FirstOf(category, key, valueSubstr)
	return ok
}

// Summary returns a short human-readable summary of the simulation state.
func (sl *SimLog) Summary(ts *TestSim) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d (%.1fs) ---\n", ts.CurrentTick(), ts.Now())

	if p, ok := ts.Player(); ok {
		fmt.Fprintf(&sb, "Player: (%.1f,%.1f) hp=%.0f\n", p.Position.X, p.Position.Z, p.Health.Current)
	}
	if sq := ts.Squad; sq != nil {
		order := "none"
		if d, ok := sq.ActiveCommand(); ok {
			order = fmt.Sprintf("%s (%.1fs left)", d.Kind, d.ExpiresAt-ts.Now())
		}
		pos := sq.Brain.Position()
		fmt.Fprintf(&sb, "Marcus: (%.1f,%.1f) mode=%s target=%d order=%s\n",
			pos.X, pos.Z, sq.Brain.Mode(), sq.Brain.CurrentTarget(), order)
		m := sq.Scout.Mission()
		if sq.Scout.Busy() {
			fmt.Fprintf(&sb, "Scout: %s intel=%d\n", m.State, len(m.CollectedIntel))
		}
	}
	for _, w := range ts.Wraiths {
		h := w.Health()
		fmt.Fprintf(&sb, "%s: %s hp=%.0f/%.0f shells=%d craters=%d\n",
			w.Label(), w.State(), h.Current, h.Max, len(w.Mortars()), len(w.Craters()))
	}

	hostiles := ts.World.Select(func(e Entity) bool { return e.Has(TagEnemy) && e.IsAlive() })
	fmt.Fprintf(&sb, "Hostiles alive: %d\n", len(hostiles))
	fmt.Fprintf(&sb, "Damage taken: player=%.0f marcus=%.0f\n",
		ts.DamageTaken(ts.PlayerID()), ts.DamageTaken(ts.MarcusID()))
	return sb.String()
}
