// Package history keeps the bounded list of lines sent during one session and
// the cursor used to recall them with the arrow keys.
package history

// DefaultMaxLength counts the trailing empty slot, so at most
// DefaultMaxLength-1 sent lines are remembered.
const DefaultMaxLength = 21

// Ring is an oldest-first list of sent lines ending in an empty "not yet
// committed" slot. Cursor 0 selects that slot; larger values walk back in time.
//
// Ring is not safe for concurrent use; it belongs to the single UI loop.
type Ring struct {
	entries []string
	max     int
	cursor  int
}

// New returns an empty ring holding at most maxLength slots, including the
// trailing empty slot. Values below 2 fall back to DefaultMaxLength.
func New(maxLength int) *Ring {
	if maxLength < 2 {
		maxLength = DefaultMaxLength
	}

	entries := make([]string, 1, maxLength)
	return &Ring{entries: entries, max: maxLength}
}

// Commit records a sent line. Empty lines and repeats of the newest entry do
// not grow the ring. The cursor always returns to the empty slot.
func (r *Ring) Commit(line string) {
	r.cursor = 0

	if line == "" || line == r.newest() {
		return
	}

	if len(r.entries) >= r.max {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:len(r.entries)-1]
	}

	r.entries[len(r.entries)-1] = line
	r.entries = append(r.entries, "")
}

// StepBack moves the cursor one entry older, stopping at the oldest.
func (r *Ring) StepBack() string {
	r.cursor = min(r.cursor+1, len(r.entries)-1)
	return r.current()
}

// StepForward moves the cursor one entry newer, stopping at the empty slot.
func (r *Ring) StepForward() string {
	r.cursor = max(r.cursor-1, 0)
	return r.current()
}

// Entries returns the committed lines, oldest first, without the empty slot.
func (r *Ring) Entries() []string {
	out := make([]string, len(r.entries)-1)
	copy(out, r.entries[:len(r.entries)-1])
	return out
}

// Len reports the number of committed lines.
func (r *Ring) Len() int {
	return len(r.entries) - 1
}

// Cursor reports the recall position; 0 is the empty slot.
func (r *Ring) Cursor() int {
	return r.cursor
}

func (r *Ring) current() string {
	return r.entries[len(r.entries)-1-r.cursor]
}

func (r *Ring) newest() string {
	if len(r.entries) < 2 {
		return ""
	}

	return r.entries[len(r.entries)-2]
}
