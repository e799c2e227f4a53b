package display

import (
	"fmt"
	"strings"
)

// FakeDisplay emulates a 16x2 character grid and records every operation.
type FakeDisplay struct {
	grid   [Lines][Width]byte
	line   int
	col    int
	Clears int

	// Ops records operations in order: "clear", "cursor N", "write TEXT".
	Ops []string

	// Err, if set, is returned by every method.
	Err error
}

// NewFakeDisplay creates a blank FakeDisplay.
func NewFakeDisplay() *FakeDisplay {
	f := &FakeDisplay{}
	f.blank()
	return f
}

func (f *FakeDisplay) blank() {
	for l := range f.grid {
		for c := range f.grid[l] {
			f.grid[l][c] = ' '
		}
	}
	f.line, f.col = 0, 0
}

// Clear blanks the grid.
func (f *FakeDisplay) Clear() error {
	if f.Err != nil {
		return f.Err
	}
	f.blank()
	f.Clears++
	f.Ops = append(f.Ops, "clear")
	return nil
}

// SetCursor moves to column 0 of line.
func (f *FakeDisplay) SetCursor(line int) error {
	if f.Err != nil {
		return f.Err
	}
	if line < 0 || line >= Lines {
		return fmt.Errorf("fake display: line %d out of range", line)
	}
	f.line, f.col = line, 0
	f.Ops = append(f.Ops, fmt.Sprintf("cursor %d", line))
	return nil
}

// WriteString writes s at the cursor; characters past the edge are dropped.
func (f *FakeDisplay) WriteString(s string) error {
	if f.Err != nil {
		return f.Err
	}
	for i := 0; i < len(s) && f.col < Width; i++ {
		f.grid[f.line][f.col] = s[i]
		f.col++
	}
	f.Ops = append(f.Ops, "write "+strings.TrimRight(s, " "))
	return nil
}

// Line returns the text on line with trailing blanks removed.
func (f *FakeDisplay) Line(line int) string {
	return strings.TrimRight(string(f.grid[line][:]), " ")
}

// ResetOps forgets recorded operations.
func (f *FakeDisplay) ResetOps() {
	f.Ops = nil
	f.Clears = 0
}
