package input

import (
	"fmt"

	"github.com/roach88/chatplay/internal/action"
)

// namedKeys maps raw virtual-key codes onto robotgo key names.
// Letters, digits and function keys are filled in by init.
var namedKeys = map[action.KeyCode]string{
	8:  "backspace",
	9:  "tab",
	13: "enter",
	16: "shift",
	17: "ctrl",
	18: "alt",
	20: "capslock",
	27: "esc",
	32: "space",
	33: "pageup",
	34: "pagedown",
	35: "end",
	36: "home",
	37: "left",
	38: "up",
	39: "right",
	40: "down",
	45: "insert",
	46: "delete",
}

func init() {
	for c := '0'; c <= '9'; c++ {
		namedKeys[action.KeyCode(c)] = string(c)
	}
	for c := 'A'; c <= 'Z'; c++ {
		namedKeys[action.KeyCode(c)] = string(c - 'A' + 'a')
	}
	for i := 0; i < 12; i++ {
		namedKeys[action.KeyCode(112+i)] = fmt.Sprintf("f%d", i+1)
	}
}

// KeyName returns the robotgo name for code.
func KeyName(code action.KeyCode) (string, bool) {
	name, ok := namedKeys[code]
	return name, ok
}
