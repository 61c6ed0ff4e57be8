package runstate

// State is the application-level run state driving tile advancement and dispatch.
type State int

const (
	// Waiting is the initial state. No tile advancement and no update dispatch.
	Waiting State = iota

	// Running advances the tile cursor once per simulation tick and dispatches the update kernel.
	Running

	// Done is entered when a full pass has completed. Nothing advances until a Reset is requested.
	Done

	// Reset re-initializes the output image for exactly one frame before returning to Waiting.
	Reset
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Waiting:
		return "Waiting"
	case Running:
		return "Running"
	case Done:
		return "Done"
	case Reset:
		return "Reset"
	default:
		return "Unknown"
	}
}

// StatusText returns the short status shown to the user for this state.
//
// Returns:
//   - string: "Ready", "Rendering" or "Done!"
func (s State) StatusText() string {
	switch s {
	case Running:
		return "Rendering"
	case Done:
		return "Done!"
	default:
		// Reset is only ever visible for a single frame.
		return "Ready"
	}
}

// ActionLabel returns the label of the single control button for this state,
// i.e. the action a Toggle command would perform.
//
// Returns:
//   - string: "Start", "Pause" or "Reset"
func (s State) ActionLabel() string {
	switch s {
	case Running:
		return "Pause"
	case Done:
		return "Reset"
	default:
		return "Start"
	}
}

// Command is a user action issued by a UI collaborator.
type Command int

const (
	// CommandStart moves Waiting to Running.
	CommandStart Command = iota

	// CommandPause moves Running back to Waiting.
	CommandPause

	// CommandReset acknowledges a finished pass and moves Done to Reset.
	CommandReset

	// CommandToggle performs the single-button action for the current state
	// (Start, Pause or Reset).
	CommandToggle
)

// String returns the lower-case command name used on the wire.
func (c Command) String() string {
	switch c {
	case CommandStart:
		return "start"
	case CommandPause:
		return "pause"
	case CommandReset:
		return "reset"
	case CommandToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// ParseCommand maps a wire name back to a Command.
//
// Parameters:
//   - name: one of "start", "pause", "reset", "toggle"
//
// Returns:
//   - Command: the parsed command
//   - bool: false if the name is not a known command
func ParseCommand(name string) (Command, bool) {
	switch name {
	case "start":
		return CommandStart, true
	case "pause":
		return CommandPause, true
	case "reset":
		return CommandReset, true
	case "toggle":
		return CommandToggle, true
	default:
		return 0, false
	}
}

// Machine holds the single run state instance owned by the simulation domain.
// Transitions are pure in-memory updates and cannot fail; commands that are not
// valid for the current state are ignored.
type Machine struct {
	state State
}

// NewMachine creates a Machine in the Waiting state.
//
// Returns:
//   - *Machine: the new state machine
func NewMachine() *Machine {
	return &Machine{state: Waiting}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Apply performs the transition for a user command, if one exists from the current state.
//
// Parameters:
//   - cmd: the command to apply
//
// Returns:
//   - bool: true if the state changed
func (m *Machine) Apply(cmd Command) bool {
	if cmd == CommandToggle {
		switch m.state {
		case Waiting:
			cmd = CommandStart
		case Running:
			cmd = CommandPause
		case Done:
			cmd = CommandReset
		default:
			return false
		}
	}

	switch {
	case cmd == CommandStart && m.state == Waiting:
		m.state = Running
	case cmd == CommandPause && m.state == Running:
		m.state = Waiting
	case cmd == CommandReset && m.state == Done:
		m.state = Reset
	default:
		return false
	}
	return true
}

// Complete moves Running to Done when the tile scheduler reports a finished pass.
//
// Returns:
//   - bool: true if the state changed
func (m *Machine) Complete() bool {
	if m.state != Running {
		return false
	}
	m.state = Done
	return true
}

// EndFrame applies the end-of-frame transition: a Reset frame always returns to Waiting.
//
// Returns:
//   - bool: true if the state changed
func (m *Machine) EndFrame() bool {
	if m.state != Reset {
		return false
	}
	m.state = Waiting
	return true
}
