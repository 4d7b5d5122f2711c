package chat

import "github.com/sodam-chat/sodam/internal/api"

// messageLog keeps one room's messages in first-seen order with an id
// index, so inserting a live message that duplicates an optimistic echo
// or a history row is an O(1) rejection instead of a rescan.
type messageLog struct {
	entries []api.Message
	index   map[string]int
}

func newMessageLog() *messageLog {
	return &messageLog{index: map[string]int{}}
}

// append records the message unless its id is already present and
// reports whether it was added.
func (l *messageLog) append(msg api.Message) bool {
	if _, ok := l.index[msg.ID]; ok {
		return false
	}
	l.index[msg.ID] = len(l.entries)
	l.entries = append(l.entries, msg)
	return true
}

func (l *messageLog) len() int {
	return len(l.entries)
}

func (l *messageLog) snapshot() []api.Message {
	out := make([]api.Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// oldestID is the backward-pagination cursor: the earliest createdAt in
// the log, first-seen winning ties.
func (l *messageLog) oldestID() string {
	if len(l.entries) == 0 {
		return ""
	}
	oldest := l.entries[0]
	for _, m := range l.entries[1:] {
		if m.CreatedAt.Before(oldest.CreatedAt) {
			oldest = m
		}
	}
	return oldest.ID
}
