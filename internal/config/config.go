// Package config loads every tunable of the squad simulation through viper.
package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Garsondee/Squad-Command/internal/difficulty"
	"github.com/Garsondee/Squad-Command/internal/game"
	"github.com/Garsondee/Squad-Command/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. SQUAD_WRAITH_ALERT_RADIUS.
const EnvPrefix = "SQUAD"

// SimConfig describes the simulated playfield.
type SimConfig struct {
	TickRate float64 `mapstructure:"tick_rate"`
	Seed     int64   `mapstructure:"seed"`
	Width    float64 `mapstructure:"width"`
	Depth    float64 `mapstructure:"depth"`
	NavGrid  bool    `mapstructure:"nav_grid"`
}

// DifficultyConfig picks the level and the scaling formulas.
type DifficultyConfig struct {
	Level    string              `mapstructure:"level"`
	Formulas difficulty.Formulas `mapstructure:"formulas"`
}

// RecorderConfig points the after-action recorder at a sqlite file. An empty
// path disables recording.
type RecorderConfig struct {
	Path string `mapstructure:"path"`
}

// Config is the full application configuration. Controller tuning sits at
// the top level (command, scout, steering, wraith).
type Config struct {
	Log         logging.Options  `mapstructure:"log"`
	Sim         SimConfig        `mapstructure:"sim"`
	Difficulty  DifficultyConfig `mapstructure:"difficulty"`
	Recorder    RecorderConfig   `mapstructure:"recorder"`
	game.Tuning `mapstructure:",squash"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Log: logging.Options{Level: "info", Format: "console"},
		Sim: SimConfig{
			TickRate: 10,
			Seed:     42,
			Width:    200,
			Depth:    200,
		},
		Difficulty: DifficultyConfig{
			Level:    difficulty.Normal.String(),
			Formulas: difficulty.DefaultFormulas(),
		},
		Tuning: game.DefaultTuning(),
	}
}

// Load builds a Config from defaults, the optional file at path
// (yaml, json or toml by extension) and SQUAD_* environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, "", reflect.ValueOf(Default()))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if _, err := difficulty.ParseLevel(cfg.Difficulty.Level); err != nil {
		return Config{}, fmt.Errorf("difficulty: %w", err)
	}
	return cfg, nil
}

// Scaler compiles the configured difficulty formulas.
func (c Config) Scaler() (*difficulty.Scaler, error) {
	lvl, err := difficulty.ParseLevel(c.Difficulty.Level)
	if err != nil {
		return nil, err
	}
	return difficulty.New(lvl, c.Difficulty.Formulas)
}

// setDefaults registers every leaf of val under its mapstructure key so that
// environment overrides reach nested fields.
func setDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "-" || !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := val.Field(i)
		if opts == "squash" {
			setDefaults(v, prefix, fv)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		switch fv.Kind() {
		case reflect.Struct:
			setDefaults(v, key, fv)
		case reflect.Interface, reflect.Func, reflect.Chan:
		default:
			v.SetDefault(key, fv.Interface())
		}
	}
}

// SimOptions turns the sim, tuning and difficulty sections into TestSim
// options. Callers append their own actors.
func (c Config) SimOptions(log zerolog.Logger) ([]game.SimOption, error) {
	scaler, err := c.Scaler()
	if err != nil {
		return nil, err
	}
	opts := []game.SimOption{
		game.WithSeed(c.Sim.Seed),
		game.WithTuning(c.Tuning),
		game.WithDifficulty(scaler),
		game.WithLogger(log),
	}
	if c.Sim.TickRate > 0 {
		opts = append(opts, game.WithTickRate(c.Sim.TickRate))
	}
	if c.Sim.Width > 0 && c.Sim.Depth > 0 {
		opts = append(opts, game.WithMapSize(c.Sim.Width, c.Sim.Depth))
	}
	if c.Sim.NavGrid {
		opts = append(opts, game.WithNavMesh(true))
	}
	return opts, nil
}
