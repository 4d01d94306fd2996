package lirc

import "strings"

// Flags is the set of protocol flags a remote declares on its "flags" line.
type Flags uint32

const (
	FlagRaw Flags = 1 << iota
	FlagRC5
	FlagRC6
	FlagRCMM
	FlagSpaceEnc
	FlagSpaceFirst
	FlagGOLDSTAR
	FlagGRUNDIG
	FlagBO
	FlagSerial
	FlagXMP
	FlagReverse
	FlagNoHeadRep
	FlagNoFootRep
	FlagConstLength
	FlagRepeatHeader
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagRaw, "RAW_CODES"},
	{FlagRC5, "RC5"},
	{FlagRC6, "RC6"},
	{FlagRCMM, "RCMM"},
	{FlagSpaceEnc, "SPACE_ENC"},
	{FlagSpaceFirst, "SPACE_FIRST"},
	{FlagGOLDSTAR, "GOLDSTAR"},
	{FlagGRUNDIG, "GRUNDIG"},
	{FlagBO, "BO"},
	{FlagSerial, "SERIAL"},
	{FlagXMP, "XMP"},
	{FlagReverse, "REVERSE"},
	{FlagNoHeadRep, "NO_HEAD_REP"},
	{FlagNoFootRep, "NO_FOOT_REP"},
	{FlagConstLength, "CONST_LENGTH"},
	{FlagRepeatHeader, "REPEAT_HEADER"},
}

// ParseFlags parses a "|" separated flag list. Names it does not know are
// ignored.
func ParseFlags(s string) Flags {
	var f Flags
	for _, tok := range strings.Split(s, "|") {
		tok = strings.TrimSpace(tok)
		for _, fn := range flagNames {
			if fn.name == tok {
				f |= fn.flag
				break
			}
		}
	}
	return f
}

// Has reports whether every flag in other is set.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

func (f Flags) String() string {
	names := make([]string, 0, 2)
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}
