package relay

import (
	"iter"
	"slices"

	"github.com/example/meetrelay/domain/call"
)

// History keeps the chat log of every open room.
type History struct {
	logs  map[string][]call.ChatMessage
	limit int
}

// NewHistory creates a history store. A limit above zero keeps only the most
// recent limit messages per room; zero keeps everything.
func NewHistory(limit int) *History {
	if limit < 0 {
		limit = 0
	}
	return &History{
		logs:  make(map[string][]call.ChatMessage),
		limit: limit,
	}
}

// Append adds msg to the end of the room's log.
func (h *History) Append(key string, msg call.ChatMessage) {
	log := append(h.logs[key], msg)
	if h.limit > 0 && len(log) > h.limit {
		log = slices.Clone(log[len(log)-h.limit:])
	}
	h.logs[key] = log
}

// Replay returns the room's log as it is now, oldest first. The sequence can be
// ranged over any number of times and does not see later appends.
func (h *History) Replay(key string) iter.Seq[call.ChatMessage] {
	snapshot := slices.Clone(h.logs[key])
	return slices.Values(snapshot)
}

// Drop discards the room's log.
func (h *History) Drop(key string) {
	delete(h.logs, key)
}

// Len returns the number of messages kept for a room.
func (h *History) Len(key string) int {
	return len(h.logs[key])
}
