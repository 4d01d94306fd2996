package server

import (
	"errors"
	"fmt"

	"github.com/derktes/lirc2broadlink/pulse"
)

type protocolID int

const (
	protocolNEC protocolID = iota
	protocolUnknown
)

func (pid protocolID) String() string {
	switch pid {
	case protocolNEC:
		return "NEC"
	default:
		return "Unknown"
	}
}

// decodeFrame identifies the protocol of a captured frame and, when it is
// known, the frame's value.
func decodeFrame(t pulse.Train) (protocolID, string, error) {
	if len(t) < 1 {
		return protocolUnknown, "", errors.New("Frame has no header")
	}
	if matchNECProtocol(t[0]) {
		value, err := decodedNECFrameValue(t)
		return protocolNEC, value, err
	}
	return protocolUnknown, "", nil
}

const (
	pNECHeaderMarkMicros float64 = 9000
	pNECBitShortMicros   float64 = 562.5
	pNECBitLongMicros    float64 = 1687.5
)

func within(micros int64, nominal float64) bool {
	return (float64(micros) > nominal*0.90) && (float64(micros) < nominal*1.1)
}

func matchNECProtocol(h pulse.Pair) bool {
	return within(h.On, pNECHeaderMarkMicros)
}

func matchNECShort(micros int64) bool {
	return within(micros, pNECBitShortMicros)
}

func matchNECLong(micros int64) bool {
	return within(micros, pNECBitLongMicros)
}

func decodedNECFrameValue(t pulse.Train) (string, error) {
	var decodedValue uint32
	if len(t[1:]) < 32 {
		return "", errors.New("NEC has less than 32 raw pulses")
	}
	for i, p := range t[1:33] {
		if !matchNECShort(p.On) {
			return "", fmt.Errorf("Error decoding NEC frame value: bit %d mark %dus", i, p.On)
		}
		switch {
		case matchNECLong(p.Off):
			decodedValue |= 1 << uint(31-i)
		case matchNECShort(p.Off):
		default:
			return "", fmt.Errorf("Error decoding NEC frame value: bit %d space %dus", i, p.Off)
		}
	}
	return fmt.Sprintf("%08X", decodedValue), nil
}
