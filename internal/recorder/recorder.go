// Package recorder persists simulation runs for after-action review.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Garsondee/Squad-Command/internal/game"
)

// ErrClosed is returned by every call made after Close.
var ErrClosed = errors.New("recorder closed")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Recorder writes runs, their SimLog events and recon intel to sqlite.
type Recorder struct {
	mu     sync.Mutex
	db     *gorm.DB
	log    zerolog.Logger
	closed bool
}

// Open connects to the sqlite file at path and migrates the schema.
func Open(path string, log zerolog.Logger) (*Recorder, error) {
	if path == "" {
		path = MemoryPath
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql interface: %w", err)
	}
	// Every pooled connection would get its own empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models...); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	log.Info().Str("path", path).Msg("recorder ready")
	return &Recorder{db: db, log: log}, nil
}

func (r *Recorder) conn(ctx context.Context) (*gorm.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	return r.db.WithContext(ctx), nil
}

// StartRun creates a run row with a fresh ID.
func (r *Recorder) StartRun(ctx context.Context, scenario string, seed int64, level string) (Run, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return Run{}, err
	}
	run := Run{
		ID:         uuid.NewString(),
		Scenario:   scenario,
		Seed:       seed,
		Difficulty: level,
		StartedAt:  time.Now().UTC(),
	}
	if err := db.Create(&run).Error; err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	r.log.Debug().Str("run", run.ID).Str("scenario", scenario).Int64("seed", seed).Msg("run started")
	return run, nil
}

// RecordEvents stores SimLog entries against runID.
func (r *Recorder) RecordEvents(ctx context.Context, runID string, entries []game.SimLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	rows := make([]EventRecord, len(entries))
	for i, e := range entries {
		rows[i] = EventRecord{
			RunID:    runID,
			Tick:     e.Tick,
			Actor:    e.Actor,
			Side:     e.Side,
			Category: e.Category,
			Key:      e.Key,
			Value:    e.Value,
			NumVal:   e.NumVal,
		}
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert %d events: %w", len(rows), err)
	}
	return nil
}

// RecordMission stores every intel report of a finished recon.
func (r *Recorder) RecordMission(ctx context.Context, runID string, m game.ScoutMission) error {
	if len(m.CollectedIntel) == 0 {
		return nil
	}
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	rows := make([]IntelRecord, len(m.CollectedIntel))
	for i, in := range m.CollectedIntel {
		rows[i] = IntelRecord{
			RunID:       runID,
			MissionID:   m.ID,
			Kind:        in.Kind.String(),
			Threat:      in.Threat.String(),
			X:           in.Position.X,
			Z:           in.Position.Z,
			EnemyCount:  in.EnemyCount,
			Collectible: in.CollectibleKind,
			Description: in.Description,
			Timestamp:   in.Timestamp,
		}
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert intel for mission %s: %w", m.ID, err)
	}
	return nil
}

// FinishRun stamps the run with its length and summary.
func (r *Recorder) FinishRun(ctx context.Context, runID string, ticks int, summary string) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res := db.Model(&Run{}).Where("id = ?", runID).Updates(map[string]any{
		"ticks":       ticks,
		"summary":     summary,
		"finished_at": &now,
	})
	if res.Error != nil {
		return fmt.Errorf("finish run %s: %w", runID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finish run %s: %w", runID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Runs lists recorded runs, newest first.
func (r *Recorder) Runs(ctx context.Context) ([]Run, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []Run
	if err := db.Order("started_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// Events returns a run's events in tick order. An empty category matches all.
func (r *Recorder) Events(ctx context.Context, runID, category string) ([]EventRecord, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Where("run_id = ?", runID)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []EventRecord
	if err := q.Order("tick, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// Intel returns a run's recon reports.
func (r *Recorder) Intel(ctx context.Context, runID string) ([]IntelRecord, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []IntelRecord
	if err := db.Where("run_id = ?", runID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list intel: %w", err)
	}
	return out, nil
}

// DamageTotals sums recorded damage per event key: the weapon for hits on
// people, "taken" for hits on vehicles.
func (r *Recorder) DamageTotals(ctx context.Context, runID string) (map[string]float64, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Key   string
		Total float64
	}
	err = db.Model(&EventRecord{}).
		Select("`key`, SUM(num_val) AS total").
		Where("run_id = ? AND category = ?", runID, "damage").
		Group("`key`").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum damage: %w", err)
	}
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Total
	}
	return out, nil
}

// Close releases the database. Further calls return ErrClosed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("access sql interface: %w", err)
	}
	return sqlDB.Close()
}
