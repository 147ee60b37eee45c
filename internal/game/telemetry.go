package game

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/Garsondee/Squad-Command/internal/game"

// telemetry holds the counters the controllers bump. The global meter
// provider is a no-op until the host installs one.
type telemetry struct {
	commandsIssued metric.Int64Counter
	intelReports   metric.Int64Counter
	mortarsFired   metric.Int64Counter
	vehicleDamage  metric.Float64Counter
}

var metrics = newTelemetry(otel.Meter(instrumentationName))

func newTelemetry(m metric.Meter) *telemetry {
	t := &telemetry{}
	var err error
	if t.commandsIssued, err = m.Int64Counter("squad.commands.issued",
		metric.WithDescription("Directives accepted by the command authority")); err != nil {
		t.commandsIssued = noop.Int64Counter{}
	}
	if t.intelReports, err = m.Int64Counter("squad.scout.intel",
		metric.WithDescription("Intel reports produced by scouting missions")); err != nil {
		t.intelReports = noop.Int64Counter{}
	}
	if t.mortarsFired, err = m.Int64Counter("wraith.mortar.launched",
		metric.WithDescription("Mortar shells launched by hostile vehicles")); err != nil {
		t.mortarsFired = noop.Int64Counter{}
	}
	if t.vehicleDamage, err = m.Float64Counter("wraith.damage.taken",
		metric.WithDescription("Damage absorbed by hostile vehicles")); err != nil {
		t.vehicleDamage = noop.Float64Counter{}
	}
	return t
}

func (t *telemetry) commandIssued(kind DirectiveKind) {
	t.commandsIssued.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", kind.String())))
}

func (t *telemetry) intel(kind IntelKind) {
	t.intelReports.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", kind.String())))
}

func (t *telemetry) mortarLaunched(state WraithState) {
	t.mortarsFired.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("state", state.String())))
}

func (t *telemetry) damage(amount float64, rear bool) {
	t.vehicleDamage.Add(context.Background(), amount,
		metric.WithAttributes(attribute.Bool("rear", rear)))
}
