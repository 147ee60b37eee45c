package game

import (
	"fmt"
	"math/rand"
	"strings"
)

// ackPhrases are Marcus's acknowledgments per directive.
var ackPhrases = map[DirectiveKind][]string{
	DirectiveFollowMe:        {"Right behind you.", "On your six.", "Moving with you.", "Lead the way."},
	DirectiveHoldPosition:    {"Holding here.", "I'll keep this spot.", "Digging in.", "Not moving."},
	DirectiveAttackTarget:    {"Engaging!", "On it!", "Target marked, moving in.", "I see it. Going loud."},
	DirectiveSuppressingFire: {"Laying down fire!", "Keep their heads down!", "Suppressing!"},
	DirectiveRegroup:         {"Coming to you.", "Falling back to your position.", "Regrouping!"},
	DirectiveScoutAhead:      {"I'll take a look.", "Going to scout it out.", "Checking ahead, stay put."},
	DirectiveFlankTarget:     {"Swinging around.", "Going wide.", "Flanking, keep them busy."},
}

// intelPhrases are shouted when a scan turns something up. %d is a count
// where the kind has one.
var intelPhrases = map[IntelKind][]string{
	IntelEnemyContact: {"Got one hostile.", "Single contact.", "Eyes on a hostile."},
	IntelEnemyGroup:   {"Group of %d here.", "Counting %d of them.", "%d hostiles bunched up."},
	IntelDangerZone:   {"This is bad. %d of them!", "Heavy presence, %d at least!", "Danger close, %d hostiles!"},
	IntelCollectible:  {"Found some supplies.", "Got something useful here.", "Pickup over here."},
	IntelSecret:       {"Huh. Something hidden here.", "Found a stash.", "You'll want to see this."},
	IntelAreaClear:    {"Clear here.", "Nothing at this spot.", "All quiet."},
}

// targetSwitchPhrases are used when the brain picks a new target.
var targetSwitchPhrases = []string{
	"Switching targets!",
	"New target!",
	"Shifting fire!",
	"Taking the %s!",
}

// reportTemplates wrap the mission summary when Marcus gets back.
var reportTemplates = []string{
	"Back. {summary}",
	"Recon done. {summary}",
	"Here's what I saw: {summary}",
}

// rejectionPhrases explain why an order could not be followed.
var rejectionPhrases = map[string]string{
	"busy":      "Already scouting.",
	"cooldown":  "Give me a second to catch my breath.",
	"too_close": "That's right here, no need to scout it.",
	"too_far":   "That's too far out.",
	"no_target": "No target for that.",
}

// VoiceLines picks lines from the phrase pools with a seeded RNG.
type VoiceLines struct {
	rng *rand.Rand
}

// NewVoiceLines returns a picker over rng.
func NewVoiceLines(rng *rand.Rand) *VoiceLines {
	return &VoiceLines{rng: rng}
}

func (v *VoiceLines) pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[v.rng.Intn(len(pool))]
}

// Ack returns an acknowledgment for the directive kind.
func (v *VoiceLines) Ack(kind DirectiveKind) string {
	return v.pick(ackPhrases[kind])
}

// Intel returns a callout for a report.
func (v *VoiceLines) Intel(r IntelReport) string {
	line := v.pick(intelPhrases[r.Kind])
	if strings.Contains(line, "%d") {
		line = fmt.Sprintf(line, r.EnemyCount)
	}
	return line
}

// TargetSwitch returns a callout for a target change.
func (v *VoiceLines) TargetSwitch(target Entity) string {
	line := v.pick(targetSwitchPhrases)
	if strings.Contains(line, "%s") {
		name := target.Label
		if name == "" {
			name = "next one"
		}
		line = fmt.Sprintf(line, name)
	}
	return line
}

// Report substitutes summary into a random report template.
func (v *VoiceLines) Report(summary string) string {
	return strings.ReplaceAll(v.pick(reportTemplates), "{summary}", summary)
}

// Rejection returns the line for a rejection reason.
func (v *VoiceLines) Rejection(reason string) string {
	if s, ok := rejectionPhrases[reason]; ok {
		return s
	}
	return "Can't do that."
}
