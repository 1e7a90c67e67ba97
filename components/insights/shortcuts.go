package insights

import "fmt"

// Shortcut is a key chord reported by the client.
type Shortcut struct {
	Key  string `json:"key"`
	Ctrl bool   `json:"ctrl"`
	Meta bool   `json:"meta"`
}

// ShortcutAction names what a chord triggers.
type ShortcutAction string

const (
	ShortcutRefresh    ShortcutAction = "refresh"
	ShortcutFocusRange ShortcutAction = "focus_date_range"
)

// FocusDateRangeTarget is the control focused by ctrl/meta+f.
const FocusDateRangeTarget = "date-range"

// ResolveShortcut maps ctrl/meta+r to refresh and ctrl/meta+f to focusing the
// date range control. Anything else is ErrUnknownShortcut.
func ResolveShortcut(s Shortcut) (ShortcutAction, error) {
	if !s.Ctrl && !s.Meta {
		return "", fmt.Errorf("%w: %q without modifier", ErrUnknownShortcut, s.Key)
	}
	switch s.Key {
	case "r":
		return ShortcutRefresh, nil
	case "f":
		return ShortcutFocusRange, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownShortcut, s.Key)
	}
}
