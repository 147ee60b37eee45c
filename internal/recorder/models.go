package recorder

import "time"

// Run is one recorded simulation.
type Run struct {
	ID         string `gorm:"primaryKey;size:36"`
	Scenario   string `gorm:"index"`
	Seed       int64
	Difficulty string
	Ticks      int
	Summary    string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// EventRecord mirrors one SimLog entry.
type EventRecord struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index;size:36"`
	Tick     int
	Actor    string
	Side     string
	Category string `gorm:"index"`
	Key      string
	Value    string
	NumVal   float64
}

// IntelRecord is one report collected by a recon mission.
type IntelRecord struct {
	ID          uint   `gorm:"primaryKey"`
	RunID       string `gorm:"index;size:36"`
	MissionID   string `gorm:"index;size:36"`
	Kind        string
	Threat      string
	X           float64
	Z           float64
	EnemyCount  int
	Collectible string
	Description string
	Timestamp   float64
}

var models = []any{&Run{}, &EventRecord{}, &IntelRecord{}}
