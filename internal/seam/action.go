package seam

import "fmt"

// Action is one supported lock operation.
type Action int

const (
	// ActionLock locks the device.
	ActionLock Action = iota + 1
	// ActionUnlock unlocks the device.
	ActionUnlock
)

const (
	lockDoorPath   = "/locks/lock_door"
	unlockDoorPath = "/locks/unlock_door"
)

// Path returns the downstream endpoint path for the action.
func (a Action) Path() string {
	switch a {
	case ActionLock:
		return lockDoorPath
	case ActionUnlock:
		return unlockDoorPath
	default:
		return ""
	}
}

// Title is the capitalized action name used in failure messages.
func (a Action) Title() string {
	switch a {
	case ActionLock:
		return "Lock"
	case ActionUnlock:
		return "Unlock"
	default:
		return "Unknown action"
	}
}

// Verb is the past-tense verb used in success messages.
func (a Action) Verb() string {
	switch a {
	case ActionLock:
		return "locked"
	case ActionUnlock:
		return "unlocked"
	default:
		return ""
	}
}

// String returns the lowercase action name.
func (a Action) String() string {
	switch a {
	case ActionLock:
		return "lock"
	case ActionUnlock:
		return "unlock"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// SuccessMessage is the fixed message returned when the downstream API accepts the action.
func (a Action) SuccessMessage() string {
	return fmt.Sprintf("Door %s successfully.", a.Verb())
}

func (a Action) valid() bool {
	return a == ActionLock || a == ActionUnlock
}
