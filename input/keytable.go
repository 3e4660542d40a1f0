package input

import "github.com/gdamore/tcell/v2"

// KeyTable maps keys to intents
type KeyTable struct {
	// Special keys (Ctrl+*, Enter, Esc)
	SpecialKeys map[tcell.Key]IntentType

	// Rune bindings; digits are handled separately as nudges
	Runes map[rune]IntentType
}

// DefaultKeyTable returns the default key bindings
func DefaultKeyTable() *KeyTable {
	return &KeyTable{
		SpecialKeys: map[tcell.Key]IntentType{
			tcell.KeyCtrlC:  IntentQuit,
			tcell.KeyCtrlQ:  IntentQuit,
			tcell.KeyEscape: IntentQuit,
			tcell.KeyEnter:  IntentSpin,
			tcell.KeyCtrlS:  IntentToggleMute,
		},
		Runes: map[rune]IntentType{
			' ': IntentSpin,
			'q': IntentQuit,
			'Q': IntentQuit,
			'm': IntentToggleMute,
			'M': IntentToggleMute,
		},
	}
}
