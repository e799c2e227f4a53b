// Package display renders controller status on a two-line character display.
package display

// Geometry of the character display.
const (
	Width = 16
	Lines = 2
)

// TextDisplay is the character display capability.
// It keeps no state beyond the cursor position.
type TextDisplay interface {
	// Clear blanks the display and homes the cursor.
	Clear() error
	// SetCursor moves the cursor to column 0 of line.
	SetCursor(line int) error
	// WriteString writes s at the cursor.
	WriteString(s string) error
}

// fit pads or truncates s to the display width.
func fit(s string) string {
	if len(s) >= Width {
		return s[:Width]
	}
	b := make([]byte, Width)
	copy(b, s)
	for i := len(s); i < Width; i++ {
		b[i] = ' '
	}
	return string(b)
}
