package telegram

import (
	"fmt"
	"strings"
)

// ActionKind is what the user pressed on a delivered job.
type ActionKind string

const (
	ActionAccept  ActionKind = "accept"
	ActionDecline ActionKind = "decline"
)

// Action is one parsed button press, tagged with the job it belongs to.
// Inbound callback data moves through three explicit steps: parsed here,
// matched to a stored job, then applied — so the accept/decline path is
// testable without a live chat connection.
type Action struct {
	Kind  ActionKind
	JobID string
}

// ParseAction decodes "accept|<id>" / "decline|<id>" callback data.
func ParseAction(data string) (Action, error) {
	kind, jobID, ok := strings.Cut(data, "|")
	if !ok || jobID == "" {
		return Action{}, fmt.Errorf("telegram: malformed callback data %q", data)
	}
	switch ActionKind(kind) {
	case ActionAccept, ActionDecline:
		return Action{Kind: ActionKind(kind), JobID: jobID}, nil
	}
	return Action{}, fmt.Errorf("telegram: unknown action %q", kind)
}

// callbackData builds the button payload for a job id.
func callbackData(kind ActionKind, jobID string) string {
	return string(kind) + "|" + jobID
}
