// Package broadlink encodes pulse trains in the pulse-length format accepted
// by Broadlink IR blasters.
package broadlink

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/derktes/lirc2broadlink/pulse"
)

// TagIR marks a payload as an IR pulse sequence.
const TagIR byte = 0x26

// Durations are converted to device ticks as d*tickNum/tickDen, which is
// roughly one tick every 30.45us.
const (
	tickNum = 269
	tickDen = 8192
)

const (
	maxRepeat = 0xff
	maxTicks  = 0xffff

	// longest duration still below maxTicks+1 ticks
	maxDuration = ((maxTicks+1)*tickDen - 1) / tickNum
)

var (
	// ErrRepeatCountOverflow is returned for repeat counts that do not fit
	// the one-byte repeat field.
	ErrRepeatCountOverflow = errors.New("broadlink: repeat count out of range")
	// ErrDurationOverflow is returned for durations too long for a
	// two-byte tick count.
	ErrDurationOverflow = errors.New("broadlink: duration out of range")
	// ErrMalformedPacket is returned by Decode.
	ErrMalformedPacket = errors.New("broadlink: malformed packet")
)

// Quantize converts a duration in microseconds to device ticks, rounding
// down.
func Quantize(us int64) (int, error) {
	if us < 0 {
		return 0, fmt.Errorf("%w: %dus", pulse.ErrNegativeGap, us)
	}
	if us > maxDuration {
		return 0, fmt.Errorf("%w: %dus", ErrDurationOverflow, us)
	}
	ticks := us * tickNum / tickDen
	if ticks > maxTicks {
		return 0, fmt.Errorf("%w: %dus is %d ticks", ErrDurationOverflow, us, ticks)
	}
	return int(ticks), nil
}

// Microseconds converts a tick count back to the nearest microsecond.
func Microseconds(ticks int) int64 {
	return (int64(ticks)*tickDen + tickNum/2) / tickNum
}

// appendTicks writes one tick count: a single byte below 256, otherwise a
// zero byte followed by the count as big-endian uint16.
func appendTicks(b []byte, ticks int) []byte {
	if ticks < 0x100 {
		return append(b, byte(ticks))
	}
	return append(b, 0x00, byte(ticks>>8), byte(ticks))
}

// EncodeDuration returns the wire form of a single duration.
func EncodeDuration(us int64) ([]byte, error) {
	ticks, err := Quantize(us)
	if err != nil {
		return nil, err
	}
	return appendTicks(nil, ticks), nil
}

// Packet is one Broadlink IR command.
type Packet struct {
	Repeat    uint8
	Durations []int64
	raw       []byte
}

// Bytes returns the wire form of the packet.
func (p *Packet) Bytes() []byte {
	return p.raw
}

// Base64 returns the wire form as standard base64, the format Home
// Assistant's remote.send_command expects after a "b64:" prefix.
func (p *Packet) Base64() string {
	return base64.StdEncoding.EncodeToString(p.raw)
}

// Encode builds the packet for train, to be sent repeats+1 times by the
// device. The length field is little-endian while long tick counts inside
// the data block are big-endian.
func Encode(train pulse.Train, repeats int) (*Packet, error) {
	if repeats < 0 || repeats > maxRepeat {
		return nil, fmt.Errorf("%w: %d", ErrRepeatCountOverflow, repeats)
	}
	durations := pulse.Flatten(train)

	data := make([]byte, 0, len(durations))
	for i, d := range durations {
		ticks, err := Quantize(d)
		if err != nil {
			return nil, fmt.Errorf("duration %d: %w", i, err)
		}
		data = appendTicks(data, ticks)
	}
	if len(data) > 0xffff {
		return nil, fmt.Errorf("%w: %d data bytes", ErrDurationOverflow, len(data))
	}

	raw := make([]byte, 4, 4+len(data))
	raw[0] = TagIR
	raw[1] = byte(repeats)
	binary.LittleEndian.PutUint16(raw[2:4], uint16(len(data)))
	raw = append(raw, data...)

	return &Packet{Repeat: uint8(repeats), Durations: durations, raw: raw}, nil
}

// Decode parses the wire form of an IR packet. The durations it returns are
// reconstructed from tick counts and carry the quantization error of Encode.
// A zero byte followed by fewer than two bytes is read as a zero tick count;
// elsewhere it always starts a three-byte count.
func Decode(raw []byte) (*Packet, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedPacket, len(raw))
	}
	if raw[0] != TagIR {
		return nil, fmt.Errorf("%w: tag %#02x", ErrMalformedPacket, raw[0])
	}
	n := int(binary.LittleEndian.Uint16(raw[2:4]))
	if len(raw) < 4+n {
		return nil, fmt.Errorf("%w: length field %d, have %d data bytes", ErrMalformedPacket, n, len(raw)-4)
	}
	data := raw[4 : 4+n]

	var durations []int64
	for i := 0; i < len(data); {
		if data[i] != 0 {
			durations = append(durations, Microseconds(int(data[i])))
			i++
			continue
		}
		if i+3 > len(data) {
			// a zero tick count near the end cannot start a long form
			durations = append(durations, 0)
			i++
			continue
		}
		durations = append(durations, Microseconds(int(binary.BigEndian.Uint16(data[i+1:i+3]))))
		i += 3
	}

	cp := make([]byte, 4+n)
	copy(cp, raw)
	return &Packet{Repeat: raw[1], Durations: durations, raw: cp}, nil
}

// DecodeBase64 decodes the base64 form produced by Packet.Base64.
func DecodeBase64(s string) (*Packet, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}
	return Decode(raw)
}

// Pairs regroups the durations of p into (on, off) pairs. A trailing
// unpaired duration gets a zero off time.
func (p *Packet) Pairs() pulse.Train {
	t := make(pulse.Train, 0, (len(p.Durations)+1)/2)
	for i := 0; i < len(p.Durations); i += 2 {
		pr := pulse.Pair{On: p.Durations[i]}
		if i+1 < len(p.Durations) {
			pr.Off = p.Durations[i+1]
		}
		t = append(t, pr)
	}
	return t
}
