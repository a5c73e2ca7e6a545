package input

import "unicode"

// Virtual-key codes for the US layout, as used by keybd_event.
const (
	vkTab    = 0x09
	vkReturn = 0x0D
	vkShift  = 0x10
	vkSpace  = 0x20
)

// keyStroke is one virtual key, optionally pressed with shift held.
type keyStroke struct {
	vk    uint16
	shift bool
}

// oemKeys lists each punctuation key with the rune it types plain and shifted.
var oemKeys = []struct {
	vk             uint16
	plain, shifted rune
}{
	{0xBA, ';', ':'},
	{0xBB, '=', '+'},
	{0xBC, ',', '<'},
	{0xBD, '-', '_'},
	{0xBE, '.', '>'},
	{0xBF, '/', '?'},
	{0xC0, '`', '~'},
	{0xDB, '[', '{'},
	{0xDC, '\\', '|'},
	{0xDD, ']', '}'},
	{0xDE, '\'', '"'},
	{'1', '1', '!'},
	{'2', '2', '@'},
	{'3', '3', '#'},
	{'4', '4', '$'},
	{'5', '5', '%'},
	{'6', '6', '^'},
	{'7', '7', '&'},
	{'8', '8', '*'},
	{'9', '9', '('},
	{'0', '0', ')'},
}

var keymap = buildKeymap()

func buildKeymap() map[rune]keyStroke {
	m := map[rune]keyStroke{
		' ':  {vk: vkSpace},
		'\t': {vk: vkTab},
		'\n': {vk: vkReturn},
		'\r': {vk: vkReturn},
	}
	for _, k := range oemKeys {
		m[k.plain] = keyStroke{vk: k.vk}
		m[k.shifted] = keyStroke{vk: k.vk, shift: true}
	}
	for r := 'a'; r <= 'z'; r++ {
		upper := unicode.ToUpper(r)
		m[r] = keyStroke{vk: uint16(upper)}
		m[upper] = keyStroke{vk: uint16(upper), shift: true}
	}
	return m
}

// keyFor finds the keystroke that types r. Letters outside ASCII fall back to
// their upper-case code point, which matches many Latin layouts.
func keyFor(r rune) (keyStroke, bool) {
	if k, ok := keymap[r]; ok {
		return k, true
	}
	if unicode.IsLetter(r) {
		if up := unicode.ToUpper(r); up <= 0xFFFF {
			return keyStroke{vk: uint16(up)}, true
		}
	}
	return keyStroke{}, false
}
