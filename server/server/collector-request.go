package server

import (
	"errors"
	"fmt"

	"github.com/derktes/lirc2broadlink/pulse"
)

type taggedFrame struct {
	CollectorID string    `json:"collectorId"`
	Frame       frameData `json:"frame"`
}

// frameData is a raw capture. Each data entry is a mark and a space count
// in units of Resolution microseconds.
type frameData struct {
	Resolution int     `json:"resolution"`
	Data       [][]int `json:"data"`
}

func (f *taggedFrame) validate() error {
	if f.CollectorID == "" {
		return errors.New("Frame has no collector ID")
	}
	if f.Frame.Resolution < 1 {
		return fmt.Errorf("Frame resolution %d is not positive", f.Frame.Resolution)
	}
	if len(f.Frame.Data) < 1 {
		return errors.New("Frame has no header")
	}
	for i, d := range f.Frame.Data {
		if len(d) != 2 {
			return fmt.Errorf("Frame entry %d has %d values, want 2", i, len(d))
		}
		if d[0] < 0 || d[1] < 0 {
			return fmt.Errorf("Frame entry %d is negative", i)
		}
	}
	return nil
}

// train scales the capture to microseconds.
func (f *taggedFrame) train() pulse.Train {
	t := make(pulse.Train, len(f.Frame.Data))
	res := int64(f.Frame.Resolution)
	for i, d := range f.Frame.Data {
		t[i] = pulse.Pair{On: int64(d[0]) * res, Off: int64(d[1]) * res}
	}
	return t
}
