package chat

import (
	"time"

	"github.com/sodam-chat/sodam/internal/api"
)

// groupWindow is the largest gap between two consecutive messages from
// the same sender that still merges them into one visual group.
const groupWindow = 5 * time.Minute

const dateFormat = "Jan 2, 2006"

type MessageGroup struct {
	UserID   string
	Username string
	Messages []api.Message
}

type DateGroup struct {
	Date   string
	Groups []MessageGroup
}

// GroupForDisplay buckets messages by calendar date, then merges
// consecutive same-sender runs closer than groupWindow. System messages
// are always singleton groups. The projection is pure: identical input
// produces identical output on every call.
func GroupForDisplay(messages []api.Message) []DateGroup {
	out := []DateGroup{}

	for _, msg := range messages {
		date := msg.CreatedAt.Format(dateFormat)

		var dateGroup *DateGroup
		for i := range out {
			if out[i].Date == date {
				dateGroup = &out[i]
				break
			}
		}
		if dateGroup == nil {
			out = append(out, DateGroup{Date: date})
			dateGroup = &out[len(out)-1]
		}

		if msg.UserID == api.SystemUserID {
			dateGroup.Groups = append(dateGroup.Groups, MessageGroup{
				UserID:   api.SystemUserID,
				Username: "System",
				Messages: []api.Message{msg},
			})
			continue
		}

		if n := len(dateGroup.Groups); n > 0 {
			last := &dateGroup.Groups[n-1]
			if last.UserID == msg.UserID && last.UserID != api.SystemUserID {
				prev := last.Messages[len(last.Messages)-1]
				if msg.CreatedAt.Sub(prev.CreatedAt) < groupWindow {
					last.Messages = append(last.Messages, msg)
					continue
				}
			}
		}

		dateGroup.Groups = append(dateGroup.Groups, MessageGroup{
			UserID:   msg.UserID,
			Username: msg.Username,
			Messages: []api.Message{msg},
		})
	}

	return out
}
