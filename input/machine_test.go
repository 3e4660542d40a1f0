package input

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestProcessKeys(t *testing.T) {
	m := NewMachine(3)

	tests := []struct {
		name string
		ev   tcell.Event
		want Intent
	}{
		{"space spins", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), Intent{Type: IntentSpin}},
		{"enter spins", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), Intent{Type: IntentSpin}},
		{"q quits", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), Intent{Type: IntentQuit}},
		{"esc quits", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), Intent{Type: IntentQuit}},
		{"ctrl-c quits", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), Intent{Type: IntentQuit}},
		{"m mutes", tcell.NewEventKey(tcell.KeyRune, 'm', tcell.ModNone), Intent{Type: IntentToggleMute}},
		{"1 nudges reel 0", tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone), Intent{Type: IntentNudge, Reel: 0}},
		{"3 nudges reel 2", tcell.NewEventKey(tcell.KeyRune, '3', tcell.ModNone), Intent{Type: IntentNudge, Reel: 2}},
		{"4 out of range", tcell.NewEventKey(tcell.KeyRune, '4', tcell.ModNone), Intent{}},
		{"0 unbound", tcell.NewEventKey(tcell.KeyRune, '0', tcell.ModNone), Intent{}},
		{"x unbound", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), Intent{}},
		{"tab unbound", tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), Intent{}},
		{"resize", tcell.NewEventResize(80, 24), Intent{Type: IntentResize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Process(tt.ev); got != tt.want {
				t.Errorf("Expected %v/%d, got %v/%d", tt.want.Type, tt.want.Reel, got.Type, got.Reel)
			}
		})
	}
}

func TestProcessUnknownEvent(t *testing.T) {
	m := NewMachine(3)
	if got := m.Process(tcell.NewEventInterrupt(nil)); got.Type != IntentNone {
		t.Errorf("Expected none for interrupt, got %v", got.Type)
	}
}
