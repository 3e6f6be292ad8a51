package model

// Action is the kind of structured response produced by the interpreter
type Action string

const (
	ActionTrack         Action = "track"
	ActionCreateRoutine Action = "create_routine"
	ActionUpdateRoutine Action = "update_routine"
	ActionDeleteRoutine Action = "delete_routine"
	ActionShowRoutines  Action = "show_routines"
	ActionQuery         Action = "query"
	ActionChat          Action = "chat"
	ActionError         Action = "error"
)

// Valid reports whether the action is one the backend knows how to handle
func (a Action) Valid() bool {
	switch a {
	case ActionTrack, ActionCreateRoutine, ActionUpdateRoutine, ActionDeleteRoutine,
		ActionShowRoutines, ActionQuery, ActionChat, ActionError:
		return true
	}
	return false
}

// Intent is the structured interpretation of a chat message
type Intent struct {
	Action    Action         `json:"action"`
	Tracker   string         `json:"tracker,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Message   string         `json:"message"`
	Component string         `json:"component,omitempty"`
}

// ErrorIntent builds the degraded intent returned when interpretation fails
func ErrorIntent(message string) Intent {
	return Intent{Action: ActionError, Message: message}
}
