package input

import "github.com/gdamore/tcell/v2"

// Machine parses tcell events into semantic Intents
// reelCount bounds the nudge digits
type Machine struct {
	keyTable  *KeyTable
	reelCount int
}

// NewMachine creates a new input machine
func NewMachine(reelCount int) *Machine {
	return &Machine{
		keyTable:  DefaultKeyTable(),
		reelCount: reelCount,
	}
}

// Process maps one event to an intent, IntentNone for unbound input
func (m *Machine) Process(ev tcell.Event) Intent {
	switch e := ev.(type) {
	case *tcell.EventResize:
		return Intent{Type: IntentResize}
	case *tcell.EventKey:
		return m.processKey(e)
	}
	return Intent{}
}

func (m *Machine) processKey(ev *tcell.EventKey) Intent {
	if ev.Key() != tcell.KeyRune {
		if it, ok := m.keyTable.SpecialKeys[ev.Key()]; ok {
			return Intent{Type: it}
		}
		return Intent{}
	}

	r := ev.Rune()
	if r >= '1' && r <= '9' {
		idx := int(r - '1')
		if idx < m.reelCount {
			return Intent{Type: IntentNudge, Reel: idx}
		}
		return Intent{}
	}
	if it, ok := m.keyTable.Runes[r]; ok {
		return Intent{Type: it}
	}
	return Intent{}
}
