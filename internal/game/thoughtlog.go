package game

const logMaxEntries = 60

// ThoughtEntry is a single line in the dialogue log.
type ThoughtEntry struct {
	Tick    int
	Speaker string // e.g. "Marcus", "W1", "HUD"
	Message string
}

// ThoughtLog is a ring buffer of dialogue and notifications shown by the
// viewer.
type ThoughtLog struct {
	entries []ThoughtEntry
	head    int
	count   int
}

// NewThoughtLog creates a thought log with a fixed capacity.
func NewThoughtLog() *ThoughtLog {
	return &ThoughtLog{
		entries: make([]ThoughtEntry, logMaxEntries),
	}
}

// Add appends an entry to the log.
func (tl *ThoughtLog) Add(tick int, speaker, msg string) {
	tl.entries[tl.head] = ThoughtEntry{
		Tick:    tick,
		Speaker: speaker,
		Message: msg,
	}
	tl.head = (tl.head + 1) % logMaxEntries
	if tl.count < logMaxEntries {
		tl.count++
	}
}

// Recent returns entries in chronological order (oldest first).
func (tl *ThoughtLog) Recent() []ThoughtEntry {
	result := make([]ThoughtEntry, tl.count)
	for i := 0; i < tl.count; i++ {
		idx := (tl.head - tl.count + i + logMaxEntries) % logMaxEntries
		result[i] = tl.entries[idx]
	}
	return result
}

// Len returns how many entries are stored.
func (tl *ThoughtLog) Len() int { return tl.count }
