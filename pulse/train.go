// Package pulse turns remote definitions into trains of (on, off) pulse
// durations.
package pulse

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a remote lacks a field pulse
	// generation requires.
	ErrMissingField = errors.New("pulse: missing mandatory field")
	// ErrInvalidCode is returned when a code is not a numeric literal.
	ErrInvalidCode = errors.New("pulse: invalid code")
	// ErrCodeWidthOverflow is returned when a code needs more bits than the
	// remote declares.
	ErrCodeWidthOverflow = errors.New("pulse: code wider than bits")
	// ErrNegativeGap is returned for a train holding a negative duration,
	// which happens when gap, ptrail and the pulse sum are inconsistent.
	ErrNegativeGap = errors.New("pulse: negative duration")
)

// Pair is one carrier burst followed by silence, in microseconds.
type Pair struct {
	On  int64 `json:"on"`
	Off int64 `json:"off"`
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d, %d)", p.On, p.Off)
}

// Train is the pulse sequence of one button press.
type Train []Pair

// Duration returns the sum of all on and off durations.
func (t Train) Duration() int64 {
	var sum int64
	for _, p := range t {
		sum += p.On + p.Off
	}
	return sum
}

// Validate reports ErrNegativeGap if any duration of t is negative.
func (t Train) Validate() error {
	for i, p := range t {
		if p.On < 0 || p.Off < 0 {
			return fmt.Errorf("%w: pair %d is %v", ErrNegativeGap, i, p)
		}
	}
	return nil
}

// Flatten returns the durations of t as on, off, on, off, ...
func Flatten(t Train) []int64 {
	flat := make([]int64, 0, 2*len(t))
	for _, p := range t {
		flat = append(flat, p.On, p.Off)
	}
	return flat
}
