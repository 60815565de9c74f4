package shell

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// DefaultBindings maps key names to toolbar command keys.
var DefaultBindings = map[string]string{
	"Ctrl+B": "bold",
	"Ctrl+E": "italic",
	"Ctrl+U": "underline",
	"Ctrl+K": "strike",
	"Alt+0":  "paragraph",
	"Alt+1":  "heading1",
	"Alt+2":  "heading2",
	"Alt+3":  "heading3",
	"Alt+4":  "heading4",
	"Alt+Q":  "blockquote",
	"Alt+C":  "codeBlock",
}

// KeyName normalizes a key event to a binding name such as "Ctrl+B",
// "Alt+1", "Shift+Left" or "Enter". Plain printable runes yield "".
func KeyName(ev *tcell.EventKey) string {
	mod := ev.Modifiers()
	k := ev.Key()

	if k == tcell.KeyRune {
		r := ev.Rune()
		if r > 0 && r < ' ' {
			return "Ctrl+" + string('A'+r-1)
		}
		switch {
		case mod&tcell.ModCtrl != 0:
			return "Ctrl+" + strings.ToUpper(string(r))
		case mod&tcell.ModAlt != 0:
			return "Alt+" + strings.ToUpper(string(r))
		}
		return ""
	}

	switch k {
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "Backspace"
	case tcell.KeyTab:
		return "Tab"
	case tcell.KeyEnter:
		return "Enter"
	case tcell.KeyEscape:
		return "Esc"
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return "Ctrl+" + string(rune('A'+(k-tcell.KeyCtrlA)))
	}

	name, ok := tcell.KeyNames[k]
	if !ok {
		return ""
	}
	if mod&tcell.ModShift != 0 {
		return "Shift+" + name
	}
	return name
}
