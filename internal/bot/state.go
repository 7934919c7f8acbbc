package bot

import (
	"github.com/seravkin/notify-go/internal/reminder"
)

// Phase of a chat's confirmation conversation
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseParsed
	PhaseParsedWithError
)

// State is the per-chat conversation state. Text keeps the original query so
// Repeat can re-run it; Notification holds the parse awaiting confirmation.
type State struct {
	Phase        Phase
	Text         string
	Notification *reminder.Notification
}

func idleState() State {
	return State{Phase: PhaseIdle}
}

func parsedState(text string, notification *reminder.Notification) State {
	return State{Phase: PhaseParsed, Text: text, Notification: notification}
}

func parsedWithErrorState(text string) State {
	return State{Phase: PhaseParsedWithError, Text: text}
}

type stateUpdate struct {
	chatID int64
	state  State
}
