// Package state defines the lifecycle states a scene moves through.
package state

// Lifecycle represents where a scene is in its Init/Load/Unload/Exit sequence
type Lifecycle int

const (
	StateCreated Lifecycle = iota
	StateInitialized
	StateLoaded
	StateUnloaded
	StateExited
)

// String returns the string representation of the lifecycle state
func (s Lifecycle) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateInitialized:
		return "Initialized"
	case StateLoaded:
		return "Loaded"
	case StateUnloaded:
		return "Unloaded"
	case StateExited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// Op is a lifecycle operation the host invokes on a scene
type Op int

const (
	OpInit Op = iota
	OpLoad
	OpUpdate
	OpDraw
	OpDrawUI
	OpUnload
	OpExit
)

// String returns the string representation of the operation
func (o Op) String() string {
	switch o {
	case OpInit:
		return "Init"
	case OpLoad:
		return "Load"
	case OpUpdate:
		return "Update"
	case OpDraw:
		return "Draw"
	case OpDrawUI:
		return "DrawUI"
	case OpUnload:
		return "Unload"
	case OpExit:
		return "Exit"
	default:
		return "Unknown"
	}
}

// Allowed reports whether op may be invoked in state s
func (s Lifecycle) Allowed(op Op) bool {
	switch op {
	case OpInit:
		return s == StateCreated
	case OpLoad:
		return s == StateInitialized || s == StateUnloaded
	case OpUpdate, OpDraw, OpDrawUI, OpUnload:
		return s == StateLoaded
	case OpExit:
		return s == StateInitialized || s == StateUnloaded
	default:
		return false
	}
}

// After returns the state a successful op leaves the scene in
func (s Lifecycle) After(op Op) Lifecycle {
	switch op {
	case OpInit:
		return StateInitialized
	case OpLoad:
		return StateLoaded
	case OpUnload:
		return StateUnloaded
	case OpExit:
		return StateExited
	default:
		return s
	}
}
