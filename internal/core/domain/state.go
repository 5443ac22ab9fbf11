package domain

import "strings"

// NodeState represents the lifecycle state of a node during a build.
type NodeState string

const (
	// StatePending indicates the node is waiting for its dependencies.
	StatePending NodeState = "pending"
	// StateReady indicates every dependency succeeded and the node may be dispatched.
	StateReady NodeState = "ready"
	// StateRunning indicates the node's action is executing.
	StateRunning NodeState = "running"
	// StateSucceeded indicates the node's action completed or the node was already fresh.
	StateSucceeded NodeState = "succeeded"
	// StateFailed indicates the node's action failed.
	StateFailed NodeState = "failed"
	// StateSkipped indicates the node never ran because a dependency failed or the build was cancelled.
	StateSkipped NodeState = "skipped"
)

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// IsTerminal checks if a state is final (Succeeded, Failed, Skipped).
func (s NodeState) IsTerminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateSkipped:
		return true
	default:
		return false
	}
}

// NormalizeNodeState converts a string to a NodeState, defaulting to pending if unknown.
func NormalizeNodeState(s string) NodeState {
	switch strings.ToLower(s) {
	case string(StateReady):
		return StateReady
	case string(StateRunning):
		return StateRunning
	case string(StateSucceeded):
		return StateSucceeded
	case string(StateFailed):
		return StateFailed
	case string(StateSkipped):
		return StateSkipped
	default:
		return StatePending
	}
}
