package input

import "strings"

// keyAliases maps lower-cased tokens to canonical keys.
var keyAliases = map[string]Key{
	"enter":     KeyEnter,
	"return":    KeyEnter,
	"tab":       KeyTab,
	"escape":    KeyEscape,
	"esc":       KeyEscape,
	"space":     KeySpace,
	"backspace": KeyBackspace,
	"delete":    KeyDelete,
	"del":       KeyDelete,
	"up":        KeyUp,
	"down":      KeyDown,
	"left":      KeyLeft,
	"right":     KeyRight,
	"home":      KeyHome,
	"end":       KeyEnd,
	"pageup":    KeyPageUp,
	"pagedown":  KeyPageDown,
}

// ParseKey resolves a case-insensitive key token. The second result is false
// for unsupported tokens.
func ParseKey(token string) (Key, bool) {
	k, ok := keyAliases[strings.ToLower(token)]
	return k, ok
}

// IsValidKey reports whether token names a supported key.
func IsValidKey(token string) bool {
	_, ok := ParseKey(token)
	return ok
}

// ParseButton resolves a case-insensitive button token, returning false when
// the token is not left, right or middle.
func ParseButton(token string) (Button, bool) {
	switch strings.ToLower(token) {
	case "left":
		return ButtonLeft, true
	case "right":
		return ButtonRight, true
	case "middle":
		return ButtonMiddle, true
	}
	return "", false
}

// ResolveButton is ParseButton with a fallback: unknown or empty tokens
// resolve to the left button.
func ResolveButton(token string) Button {
	if b, ok := ParseButton(token); ok {
		return b
	}
	return ButtonLeft
}
