package viewer

import (
	"strings"

	"github.com/Garsondee/Squad-Command/internal/game"
)

// buildReport renders the sim summary followed by the last n log lines.
func buildReport(ts *game.TestSim, n int) string {
	var sb strings.Builder
	sb.WriteString(ts.SimLog.Summary(ts))
	entries := ts.SimLog.Tail(n)
	if len(entries) > 0 {
		sb.WriteString("--- Recent events ---\n")
	}
	for _, e := range entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
