package input

// IntentType discriminates semantic actions
type IntentType uint8

const (
	IntentNone IntentType = iota

	// System-level intents
	IntentQuit       // q, Esc, Ctrl+C, Ctrl+Q
	IntentToggleMute // m, Ctrl+S
	IntentResize     // Terminal resize event

	// Machine intents
	IntentSpin  // Space, Enter
	IntentNudge // 1..9, Reel carries the zero-based index
)

// Intent is the parsed result of one terminal event
type Intent struct {
	Type IntentType
	Reel int
}

func (t IntentType) String() string {
	switch t {
	case IntentQuit:
		return "quit"
	case IntentToggleMute:
		return "mute"
	case IntentResize:
		return "resize"
	case IntentSpin:
		return "spin"
	case IntentNudge:
		return "nudge"
	default:
		return "none"
	}
}
