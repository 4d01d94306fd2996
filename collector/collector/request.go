package collector

import (
	"errors"

	"github.com/derktes/lirc2broadlink/pulse"
)

// taggedFrame is the body published to the server's /ir/frame endpoint.
type taggedFrame struct {
	CollectorID string    `json:"collectorId"`
	Frame       frameData `json:"frame"`
}

// frameData is one capture as printed by the receiver firmware: mark and
// space counts in units of Resolution microseconds.
type frameData struct {
	Resolution int     `json:"resolution"`
	Data       [][]int `json:"data"`
}

func (f *frameData) train() (pulse.Train, error) {
	if f.Resolution < 1 || len(f.Data) < 1 {
		return nil, errors.New("Frame is empty")
	}
	t := make(pulse.Train, 0, len(f.Data))
	for _, d := range f.Data {
		if len(d) != 2 {
			return nil, errors.New("Frame entry is not a mark/space pair")
		}
		t = append(t, pulse.Pair{On: int64(d[0] * f.Resolution), Off: int64(d[1] * f.Resolution)})
	}
	return t, nil
}
