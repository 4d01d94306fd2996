package pulse

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Binary renders a numeric literal ("0x30C", "0b101", "780") as a string of
// exactly width binary digits. It never drops significant bits.
func Binary(code string, width int) (string, error) {
	v, err := strconv.ParseUint(code, 0, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return binaryValue(v, width)
}

func binaryValue(v uint64, width int) (string, error) {
	if n := bits.Len64(v); n > width {
		return "", fmt.Errorf("%w: %#x needs %d bits, have %d", ErrCodeWidthOverflow, v, n, width)
	}
	s := strconv.FormatUint(v, 2)
	if v == 0 {
		s = ""
	}
	return strings.Repeat("0", width-len(s)) + s, nil
}
