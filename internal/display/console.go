package display

import "log"

// LogDisplay is a headless TextDisplay that logs each frame when it changes.
// It is used when no LCD is wired.
type LogDisplay struct {
	frame [Lines]string
	last  [Lines]string
	line  int
}

// NewLogDisplay creates a LogDisplay.
func NewLogDisplay() *LogDisplay {
	return &LogDisplay{}
}

// Clear blanks the frame.
func (d *LogDisplay) Clear() error {
	d.frame = [Lines]string{}
	d.line = 0
	return nil
}

// SetCursor selects the line to write. Writing line 1 completes a frame.
func (d *LogDisplay) SetCursor(line int) error {
	if line >= 0 && line < Lines {
		d.line = line
	}
	return nil
}

// WriteString stores s on the current line and logs complete frames that differ from the last one.
func (d *LogDisplay) WriteString(s string) error {
	d.frame[d.line] = s
	if d.line == Lines-1 && d.frame != d.last {
		d.last = d.frame
		log.Printf("display: [%s] [%s]", d.frame[0], d.frame[1])
	}
	return nil
}
