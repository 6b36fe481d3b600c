package annotation

import "github.com/ronyyyyy619/Yaadein-Final-sub001/core"

// Action is a review decision applied to an annotation tag.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

// Transition returns the state reached by applying a to a tag in state from.
//
//	pending  --accept--> accepted
//	pending  --reject--> rejected
//	accepted --reject--> rejected   (undo accept)
//	rejected --accept--> accepted   (undo reject)
//
// Repeating the action that produced the current state leaves it unchanged.
// The result depends only on the current state and the action.
func Transition(from core.State, a Action) core.State {
	switch a {
	case ActionAccept:
		return core.StateAccepted
	case ActionReject:
		return core.StateRejected
	}
	return from
}
