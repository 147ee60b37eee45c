package game

import "time"

// CommandConfig tunes the command authority.
type CommandConfig struct {
	Duration            time.Duration `mapstructure:"duration"`
	AckCooldown         time.Duration `mapstructure:"ack_cooldown"`
	NotifyDuration      time.Duration `mapstructure:"notify_duration"`
	FollowDistance      float64       `mapstructure:"follow_distance"`
	HoldTolerance       float64       `mapstructure:"hold_tolerance"`
	AttackCloseDistance float64       `mapstructure:"attack_close_distance"`
	SuppressionRange    float64       `mapstructure:"suppression_range"`
	RegroupNearDistance float64       `mapstructure:"regroup_near_distance"`
}

// DefaultCommandConfig returns the stock directive tuning.
func DefaultCommandConfig() CommandConfig {
	return CommandConfig{
		Duration:            30 * time.Second,
		AckCooldown:         2 * time.Second,
		NotifyDuration:      3 * time.Second,
		FollowDistance:      4,
		HoldTolerance:       3,
		AttackCloseDistance: 15,
		SuppressionRange:    30,
		RegroupNearDistance: 3,
	}
}

// ScoutConfig tunes the scouting mission controller.
type ScoutConfig struct {
	ArrivalRadius     float64       `mapstructure:"arrival_radius"`
	ReturnRadius      float64       `mapstructure:"return_radius"`
	ScanDuration      time.Duration `mapstructure:"scan_duration"`
	DetectionRadius   float64       `mapstructure:"detection_radius"`
	CollectibleRadius float64       `mapstructure:"collectible_radius"`
	GroupCellSize     float64       `mapstructure:"group_cell_size"`
	DangerGroupSize   int           `mapstructure:"danger_group_size"`
	ToughnessBaseline float64       `mapstructure:"toughness_baseline"`
	MinDistance       float64       `mapstructure:"min_distance"`
	MaxDistance       float64       `mapstructure:"max_distance"`
	Cooldown          time.Duration `mapstructure:"cooldown"`
	ReportHold        time.Duration `mapstructure:"report_hold"`
	VoiceCooldown     time.Duration `mapstructure:"voice_cooldown"`
}

// DefaultScoutConfig returns the stock recon tuning.
func DefaultScoutConfig() ScoutConfig {
	return ScoutConfig{
		ArrivalRadius:     5,
		ReturnRadius:      10,
		ScanDuration:      3 * time.Second,
		DetectionRadius:   25,
		CollectibleRadius: 15,
		GroupCellSize:     10,
		DangerGroupSize:   5,
		ToughnessBaseline: 100,
		MinDistance:       10,
		MaxDistance:       80,
		Cooldown:          10 * time.Second,
		ReportHold:        2 * time.Second,
		VoiceCooldown:     3 * time.Second,
	}
}

// SteeringConfig tunes the companion's motion.
type SteeringConfig struct {
	MaxSpeed               float64       `mapstructure:"max_speed"`
	ArriveRadius           float64       `mapstructure:"arrive_radius"`
	FollowDistance         float64       `mapstructure:"follow_distance"`
	IdleLeash              float64       `mapstructure:"idle_leash"`
	WanderSpeed            float64       `mapstructure:"wander_speed"`
	AttackMinRange         float64       `mapstructure:"attack_min_range"`
	AttackMaxRange         float64       `mapstructure:"attack_max_range"`
	SeparationRadius       float64       `mapstructure:"separation_radius"`
	SeparationStrength     float64       `mapstructure:"separation_strength"`
	RegroupSpeedMultiplier float64       `mapstructure:"regroup_speed_multiplier"`
	FlankDistance          float64       `mapstructure:"flank_distance"`
	FlankRecalc            time.Duration `mapstructure:"flank_recalc"`
	PathArrival            float64       `mapstructure:"path_arrival"`
	ScoutDistance          float64       `mapstructure:"scout_distance"`
	CalloutCooldown        time.Duration `mapstructure:"callout_cooldown"`
}

// DefaultSteeringConfig returns the stock steering tuning.
func DefaultSteeringConfig() SteeringConfig {
	return SteeringConfig{
		MaxSpeed:               6,
		ArriveRadius:           5,
		FollowDistance:         4,
		IdleLeash:              8,
		WanderSpeed:            1,
		AttackMinRange:         8,
		AttackMaxRange:         20,
		SeparationRadius:       2,
		SeparationStrength:     4,
		RegroupSpeedMultiplier: 1.5,
		FlankDistance:          15,
		FlankRecalc:            2 * time.Second,
		PathArrival:            1.5,
		ScoutDistance:          30,
		CalloutCooldown:        4 * time.Second,
	}
}

// WraithConfig tunes the hostile hover-tank.
type WraithConfig struct {
	MaxHealth          float64       `mapstructure:"max_health"`
	MoveSpeed          float64       `mapstructure:"move_speed"`
	TurnRate           float64       `mapstructure:"turn_rate"`
	TurretTurnRate     float64       `mapstructure:"turret_turn_rate"`
	AlertRadius        float64       `mapstructure:"alert_radius"`
	CombatRange        float64       `mapstructure:"combat_range"`
	PursuitThreshold   float64       `mapstructure:"pursuit_threshold"`
	AlertExitFactor    float64       `mapstructure:"alert_exit_factor"`
	CombatExitFactor   float64       `mapstructure:"combat_exit_factor"`
	PursuitExitFactor  float64       `mapstructure:"pursuit_exit_factor"`
	WaypointArrival    float64       `mapstructure:"waypoint_arrival"`
	WaypointPause      time.Duration `mapstructure:"waypoint_pause"`
	StrafeFlipInterval time.Duration `mapstructure:"strafe_flip_interval"`
	StrafeBandFraction float64       `mapstructure:"strafe_band_fraction"`

	MortarCharge       time.Duration `mapstructure:"mortar_charge"`
	MortarCooldown     time.Duration `mapstructure:"mortar_cooldown"`
	MortarFlight       time.Duration `mapstructure:"mortar_flight"`
	MortarGrace        time.Duration `mapstructure:"mortar_grace"`
	MortarApex         float64       `mapstructure:"mortar_apex"`
	MortarMuzzleHeight float64       `mapstructure:"mortar_muzzle_height"`
	MortarRadius       float64       `mapstructure:"mortar_radius"`
	MortarMaxDamage    float64       `mapstructure:"mortar_max_damage"`
	MortarMinDamage    float64       `mapstructure:"mortar_min_damage"`
	MortarScatter      float64       `mapstructure:"mortar_scatter"`
	DamagedScatterMul  float64       `mapstructure:"damaged_scatter_multiplier"`
	ShakeRadius        float64       `mapstructure:"shake_radius"`
	ShakeMax           float64       `mapstructure:"shake_max"`
	CraterLifetime     time.Duration `mapstructure:"crater_lifetime"`
	CraterFade         time.Duration `mapstructure:"crater_fade"`

	TurretRange     float64       `mapstructure:"turret_range"`
	TurretCooldown  time.Duration `mapstructure:"turret_cooldown"`
	TurretDamage    float64       `mapstructure:"turret_damage"`
	TurretScatter   float64       `mapstructure:"turret_scatter"`
	TurretHitRadius float64       `mapstructure:"turret_hit_radius"`

	HijackThreshold  float64 `mapstructure:"hijack_threshold"`
	DamagedThreshold float64 `mapstructure:"damaged_threshold"`
	DamagedSpeedMul  float64 `mapstructure:"damaged_speed_multiplier"`
	RearDot          float64 `mapstructure:"rear_dot"`
	RearMultiplier   float64 `mapstructure:"rear_multiplier"`
}

// DefaultWraithConfig returns the stock vehicle tuning.
func DefaultWraithConfig() WraithConfig {
	return WraithConfig{
		MaxHealth:          400,
		MoveSpeed:          8,
		TurnRate:           1.5,
		TurretTurnRate:     3,
		AlertRadius:        60,
		CombatRange:        40,
		PursuitThreshold:   55,
		AlertExitFactor:    1.2,
		CombatExitFactor:   1.3,
		PursuitExitFactor:  1.5,
		WaypointArrival:    3,
		WaypointPause:      1500 * time.Millisecond,
		StrafeFlipInterval: 3 * time.Second,
		StrafeBandFraction: 0.6,

		MortarCharge:       2 * time.Second,
		MortarCooldown:     4 * time.Second,
		MortarFlight:       1500 * time.Millisecond,
		MortarGrace:        500 * time.Millisecond,
		MortarApex:         15,
		MortarMuzzleHeight: 2.5,
		MortarRadius:       8,
		MortarMaxDamage:    40,
		MortarMinDamage:    10,
		MortarScatter:      2,
		DamagedScatterMul:  2.5,
		ShakeRadius:        40,
		ShakeMax:           1,
		CraterLifetime:     8 * time.Second,
		CraterFade:         2 * time.Second,

		TurretRange:     30,
		TurretCooldown:  250 * time.Millisecond,
		TurretDamage:    4,
		TurretScatter:   0.06,
		TurretHitRadius: 0.8,

		HijackThreshold:  0.25,
		DamagedThreshold: 0.5,
		DamagedSpeedMul:  0.6,
		RearDot:          -0.5,
		RearMultiplier:   2,
	}
}

// Tuning groups every controller's configuration.
type Tuning struct {
	Command  CommandConfig  `mapstructure:"command"`
	Scout    ScoutConfig    `mapstructure:"scout"`
	Steering SteeringConfig `mapstructure:"steering"`
	Wraith   WraithConfig   `mapstructure:"wraith"`
}

// DefaultTuning returns stock values for every controller.
func DefaultTuning() Tuning {
	return Tuning{
		Command:  DefaultCommandConfig(),
		Scout:    DefaultScoutConfig(),
		Steering: DefaultSteeringConfig(),
		Wraith:   DefaultWraithConfig(),
	}
}

func secs(d time.Duration) float64 { return d.Seconds() }
