package game

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// IntelKind classifies a scouting report.
type IntelKind int

const (
	IntelEnemyContact IntelKind = iota // single hostile
	IntelEnemyGroup                    // a handful of hostiles in one cell
	IntelDangerZone                    // big or critical group
	IntelCollectible
	IntelSecret
	IntelAreaClear
)

func (k IntelKind) String() string {
	switch k {
	case IntelEnemyContact:
		return "EnemyContact"
	case IntelEnemyGroup:
		return "EnemyGroup"
	case IntelDangerZone:
		return "DangerZone"
	case IntelCollectible:
		return "Collectible"
	case IntelSecret:
		return "Secret"
	case IntelAreaClear:
		return "AreaClear"
	default:
		return "Unknown"
	}
}

// IsEnemy reports whether the kind describes hostiles.
func (k IntelKind) IsEnemy() bool {
	return k == IntelEnemyContact || k == IntelEnemyGroup || k == IntelDangerZone
}

// ThreatLevel grades an enemy group.
type ThreatLevel int

const (
	ThreatLow ThreatLevel = iota
	ThreatMedium
	ThreatHigh
	ThreatCritical
)

func (t ThreatLevel) String() string {
	switch t {
	case ThreatLow:
		return "low"
	case ThreatMedium:
		return "medium"
	case ThreatHigh:
		return "high"
	case ThreatCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// IntelReport is one item of information gathered while scanning.
type IntelReport struct {
	Kind            IntelKind
	Position        Vec3
	Description     string
	EnemyCount      int
	Threat          ThreatLevel
	Timestamp       float64
	CollectibleKind string
	EntityIDs       []EntityID
}

// enemyGroup is a set of hostiles that share one grid cell.
type enemyGroup struct {
	cellX, cellZ int
	members      []Entity
}

// centroid is the mean member position.
func (g enemyGroup) centroid() Vec3 {
	var sum Vec3
	for _, m := range g.members {
		sum = sum.Add(m.Position)
	}
	return sum.Scale(1 / float64(len(g.members)))
}

func (g enemyGroup) ids() []EntityID {
	out := make([]EntityID, len(g.members))
	for i, m := range g.members {
		out[i] = m.ID
	}
	return out
}

// groupByCell buckets enemies into square cells on the ground plane. Groups
// are returned in a stable order (by cell) so reports are deterministic.
func groupByCell(enemies []Entity, cellSize float64) []enemyGroup {
	if cellSize <= 0 {
		cellSize = 1
	}
	type key struct{ x, z int }
	buckets := make(map[key]*enemyGroup)
	var keys []key
	for _, e := range enemies {
		k := key{int(math.Floor(e.Position.X / cellSize)), int(math.Floor(e.Position.Z / cellSize))}
		g, ok := buckets[k]
		if !ok {
			g = &enemyGroup{cellX: k.x, cellZ: k.z}
			buckets[k] = g
			keys = append(keys, k)
		}
		g.members = append(g.members, e)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].z != keys[j].z {
			return keys[i].z < keys[j].z
		}
		return keys[i].x < keys[j].x
	})
	out := make([]enemyGroup, len(keys))
	for i, k := range keys {
		out[i] = *buckets[k]
	}
	return out
}

// classifyThreat grades a group from its size and how tough its members
// are. Toughness is max health relative to baseline; any boss is critical.
func classifyThreat(members []Entity, baseline float64) ThreatLevel {
	if baseline <= 0 {
		baseline = 100
	}
	weight := 0.0
	for _, m := range members {
		if m.IsBoss() {
			return ThreatCritical
		}
		tough := 1.0
		if m.HasHealth() {
			tough = m.Health.Max / baseline
		}
		weight += math.Max(tough, 0.25)
	}
	n := len(members)
	switch {
	case n >= 5 || weight >= 6:
		return ThreatHigh
	case n >= 3 || weight >= 3:
		return ThreatMedium
	default:
		return ThreatLow
	}
}

// groupKind maps group size and threat to a report kind.
func groupKind(n int, threat ThreatLevel, dangerSize int) IntelKind {
	switch {
	case n >= dangerSize || threat == ThreatCritical:
		return IntelDangerZone
	case n > 1:
		return IntelEnemyGroup
	default:
		return IntelEnemyContact
	}
}

// compassName is a coarse bearing word from one point to another.
func compassName(from, to Vec3) string {
	d := to.Sub(from).Flat()
	if d.LenSq() < 1 {
		return "right here"
	}
	deg := math.Mod(d.Heading()*180/math.Pi+360, 360)
	names := []string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}
	return names[int(math.Floor((deg+22.5)/45))%8]
}

// SummarizeIntel condenses a mission's reports into one sentence, picking
// the most important tier present: danger zones, then contacts, then
// pickups, then all-clear.
func SummarizeIntel(reports []IntelReport) string {
	var danger, contacts, contactGroups, pickups, secrets, clears int
	var worst ThreatLevel
	for _, r := range reports {
		switch r.Kind {
		case IntelDangerZone:
			danger++
			contacts += r.EnemyCount
			if r.Threat > worst {
				worst = r.Threat
			}
		case IntelEnemyContact, IntelEnemyGroup:
			contacts += r.EnemyCount
			contactGroups++
		case IntelCollectible:
			pickups++
		case IntelSecret:
			secrets++
		case IntelAreaClear:
			clears++
		}
	}

	items := ""
	if pickups+secrets > 0 {
		items = fmt.Sprintf("%d %s worth grabbing", pickups+secrets, plural(pickups+secrets, "item", "items"))
		if secrets > 0 {
			items += fmt.Sprintf(", %d hidden", secrets)
		}
	}

	switch {
	case danger > 0:
		s := fmt.Sprintf("Danger zone ahead, %d hostiles, threat %s.", contacts, worst)
		if items != "" {
			s += " Also spotted " + items + "."
		}
		return s
	case contactGroups > 0:
		s := fmt.Sprintf("Counted %d %s in %d %s.", contacts, plural(contacts, "hostile", "hostiles"),
			contactGroups, plural(contactGroups, "group", "groups"))
		if items != "" {
			s += " Plus " + items + "."
		}
		return s
	case items != "":
		return "No hostiles. Found " + items + "."
	case clears > 0:
		return "Area's clear."
	default:
		return "Nothing to report."
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// describeGroup is the Description line for an enemy report.
func describeGroup(kind IntelKind, n int, threat ThreatLevel, where string) string {
	var b strings.Builder
	switch kind {
	case IntelDangerZone:
		fmt.Fprintf(&b, "danger zone: %d hostiles", n)
	case IntelEnemyGroup:
		fmt.Fprintf(&b, "group of %d", n)
	default:
		b.WriteString("lone hostile")
	}
	fmt.Fprintf(&b, " (%s threat) %s", threat, where)
	return b.String()
}
