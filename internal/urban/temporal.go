package urban

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrInvalidWindow is returned by NewWindow for reversed or out-of-range windows.
var ErrInvalidWindow = eris.New("urban: invalid time window")

// Window is an inclusive [Start, End] span of years.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FullWindow spans the whole dataset.
func FullWindow() Window {
	return Window{Start: MinYear, End: MaxYear}
}

// NewWindow validates start <= end and that both lie within [MinYear, MaxYear].
func NewWindow(start, end int) (Window, error) {
	if start > end {
		return Window{}, eris.Wrapf(ErrInvalidWindow, "urban: start %d after end %d", start, end)
	}
	if start < MinYear || end > MaxYear {
		return Window{}, eris.Wrapf(ErrInvalidWindow, "urban: window %d-%d outside %d-%d", start, end, MinYear, MaxYear)
	}
	return Window{Start: start, End: end}, nil
}

func (w Window) String() string {
	return fmt.Sprintf("%d-%d", w.Start, w.End)
}

// Active reports whether b was built within the window and still stood at its end.
func (w Window) Active(b Building) bool {
	return b.YearBuilt >= w.Start && b.YearBuilt <= w.End && b.YearLost > w.End
}

// Overlaps reports whether the two windows share at least one year.
func (w Window) Overlaps(other Window) bool {
	return w.End >= other.Start && w.Start <= other.End
}

// Toward returns the window selected when jumping to frame from w. A frame
// lying wholly before w keeps w's end; one lying wholly after keeps w's start.
func (w Window) Toward(frame Window) Window {
	next := frame
	if frame.End < w.Start {
		next.End = w.End
	}
	if frame.Start > w.End {
		next.Start = w.Start
	}
	return next
}

// Filter returns the buildings active during w, preserving input order.
func Filter(buildings []Building, w Window) []Building {
	out := make([]Building, 0, len(buildings))
	for _, b := range buildings {
		if w.Active(b) {
			out = append(out, b)
		}
	}
	return out
}
