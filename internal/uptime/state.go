package uptime

// MonitorState makes the two-state incident machine explicit even though
// the monitors table persists it as the is_down boolean.
type MonitorState string

const (
	StateUp   MonitorState = "up"
	StateDown MonitorState = "down"
)

func stateFromFlag(isDown bool) MonitorState {
	if isDown {
		return StateDown
	}
	return StateUp
}

func stateFromCheck(success bool) MonitorState {
	if success {
		return StateUp
	}
	return StateDown
}
