package lirc

import "fmt"

// Timing is an (on, off) pair of durations in microseconds as written on a
// three-token definition line such as "header 2400 600".
type Timing struct {
	On  int64 `json:"on"`
	Off int64 `json:"off"`
}

func (t Timing) String() string {
	return fmt.Sprintf("(%d, %d)", t.On, t.Off)
}

// MaxBits is the widest bits, pre_data_bits or post_data_bits accepted.
const MaxBits = 64

// RemoteConfig holds the protocol parameters of one remote control.
type RemoteConfig struct {
	Name string

	// Mandatory for pulse generation, nil when the block did not set them.
	Bits   *int
	Header *Timing
	One    *Timing
	Zero   *Timing

	Gap    *int64
	PTrail *int64
	Flags  Flags

	PreData      *uint64
	PreDataBits  *int
	PostData     *uint64
	PostDataBits *int

	MinRepeat int

	// Codes maps a button label to its numeric literal, e.g. "0x30C".
	Codes map[string]string

	// Lines the typed fields above do not cover, kept verbatim.
	Fields  map[string]string
	Timings map[string]Timing
}

// ButtonNames returns the labels of all codes of the remote.
func (rc *RemoteConfig) ButtonNames() []string {
	names := make([]string, 0, len(rc.Codes))
	for name := range rc.Codes {
		names = append(names, name)
	}
	return names
}
