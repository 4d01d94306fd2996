package lirc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type parserState int

const (
	stateOutside parserState = iota
	stateRemote
	stateCodes
)

func (s parserState) String() string {
	switch s {
	case stateRemote:
		return "remote"
	case stateCodes:
		return "codes"
	default:
		return "outside"
	}
}

// Parser reads LIRC remote definitions. Malformed lines are logged and
// skipped; a Parser is not safe for concurrent use.
type Parser struct {
	log      *zap.Logger
	warnings int
}

// NewParser returns a parser logging its warnings to log. A nil logger
// discards them.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log}
}

// Parse parses text with a parser that discards warnings.
func Parse(text string) (map[string]RemoteConfig, error) {
	return NewParser(nil).Parse(text)
}

// Warnings returns the number of lines skipped by the last call to Parse.
func (p *Parser) Warnings() int {
	return p.warnings
}

// Parse returns one RemoteConfig per "begin remote" ... "end remote" block,
// keyed by the block's name.
func (p *Parser) Parse(text string) (map[string]RemoteConfig, error) {
	p.warnings = 0
	remotes := make(map[string]RemoteConfig)
	state := stateOutside
	var rb *remoteBuilder

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := stripComment(raw)
		trimmed := strings.TrimSpace(line)

		switch state {
		case stateOutside:
			if trimmed == "begin remote" {
				rb = newRemoteBuilder(lineNo)
				state = stateRemote
			}

		case stateRemote:
			switch {
			case trimmed == "end remote":
				if err := p.closeRemote(remotes, rb, lineNo); err != nil {
					return nil, err
				}
				rb, state = nil, stateOutside
			case trimmed == "begin remote":
				p.warn("nested begin remote, discarding open block", lineNo, raw, zap.Int("opened_at", rb.line))
				rb = newRemoteBuilder(lineNo)
			case strings.Contains(line, "begin codes"):
				if rb.codes == nil {
					rb.codes = make(map[string]string)
				}
				state = stateCodes
			default:
				p.addField(rb, strings.Fields(line), lineNo, raw)
			}

		case stateCodes:
			switch {
			case strings.Contains(line, "end codes"):
				state = stateRemote
			case trimmed == "end remote":
				p.warn("end remote inside codes block", lineNo, raw)
				if err := p.closeRemote(remotes, rb, lineNo); err != nil {
					return nil, err
				}
				rb, state = nil, stateOutside
			default:
				p.addCode(rb, strings.Fields(line), lineNo, raw)
			}
		}
	}

	if state != stateOutside {
		p.log.Warn("unterminated remote block dropped",
			zap.Int("opened_at", rb.line),
			zap.Stringer("state", state),
		)
		p.warnings++
	}
	return remotes, nil
}

func (p *Parser) closeRemote(remotes map[string]RemoteConfig, rb *remoteBuilder, lineNo int) error {
	rc, err := rb.build()
	if err != nil {
		return fmt.Errorf("remote opened at line %d, closed at line %d: %w", rb.line, lineNo, err)
	}
	if _, ok := remotes[rc.Name]; ok {
		p.log.Warn("duplicate remote name, replacing earlier block", zap.String("remote", rc.Name), zap.Int("line", lineNo))
		p.warnings++
	}
	remotes[rc.Name] = rc
	return nil
}

func (p *Parser) addField(rb *remoteBuilder, tokens []string, lineNo int, raw string) {
	switch len(tokens) {
	case 0:
	case 2:
		rb.fields[tokens[0]] = tokens[1]
	case 3:
		rb.timings[tokens[0]] = [2]string{tokens[1], tokens[2]}
	default:
		p.warn("couldn't parse line, skipping", lineNo, raw, zap.Int("tokens", len(tokens)))
	}
}

func (p *Parser) addCode(rb *remoteBuilder, tokens []string, lineNo int, raw string) {
	switch len(tokens) {
	case 0:
	case 1:
		p.warn("code line has no value, skipping", lineNo, raw)
	default:
		rb.codes[tokens[0]] = tokens[1]
	}
}

func (p *Parser) warn(msg string, lineNo int, raw string, fields ...zap.Field) {
	p.warnings++
	p.log.Warn(msg, append([]zap.Field{zap.Int("line", lineNo), zap.String("text", strings.TrimSpace(raw))}, fields...)...)
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// remoteBuilder accumulates the lines of one remote block until it is closed.
type remoteBuilder struct {
	line    int
	fields  map[string]string
	timings map[string][2]string
	codes   map[string]string
}

func newRemoteBuilder(line int) *remoteBuilder {
	return &remoteBuilder{
		line:    line,
		fields:  make(map[string]string),
		timings: make(map[string][2]string),
	}
}

func (rb *remoteBuilder) build() (RemoteConfig, error) {
	name, ok := rb.fields["name"]
	if !ok {
		return RemoteConfig{}, ErrMissingRemoteName
	}
	delete(rb.fields, "name")

	rc := RemoteConfig{
		Name:    name,
		Codes:   rb.codes,
		Fields:  make(map[string]string),
		Timings: make(map[string]Timing),
	}
	if rc.Codes == nil {
		rc.Codes = make(map[string]string)
	}

	keys := make([]string, 0, len(rb.fields))
	for key := range rb.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var err error
	for _, key := range keys {
		value := rb.fields[key]
		switch key {
		case "bits":
			rc.Bits, err = parseWidthField(key, value)
		case "gap":
			rc.Gap, err = parseDurationField(key, value)
		case "ptrail":
			rc.PTrail, err = parseDurationField(key, value)
		case "flags":
			rc.Flags = ParseFlags(value)
		case "pre_data":
			rc.PreData, err = parseDataField(key, value)
		case "pre_data_bits":
			rc.PreDataBits, err = parseWidthField(key, value)
		case "post_data":
			rc.PostData, err = parseDataField(key, value)
		case "post_data_bits":
			rc.PostDataBits, err = parseWidthField(key, value)
		case "min_repeat":
			var n *int
			if n, err = parseIntField(key, value); err == nil {
				rc.MinRepeat = *n
			}
		default:
			rc.Fields[key] = value
		}
		if err != nil {
			return RemoteConfig{}, err
		}
	}

	keys = keys[:0]
	for key := range rb.timings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pair := rb.timings[key]
		var t *Timing
		switch key {
		case "header", "one", "zero":
			if t, err = parseTimingField(key, pair); err != nil {
				return RemoteConfig{}, err
			}
			switch key {
			case "header":
				rc.Header = t
			case "one":
				rc.One = t
			case "zero":
				rc.Zero = t
			}
		case "gap":
			// "gap <gap> <repeat gap>": only the first value is used.
			if rc.Gap, err = parseDurationField(key, pair[0]); err != nil {
				return RemoteConfig{}, err
			}
		default:
			if t, err = parseTimingField(key, pair); err == nil {
				rc.Timings[key] = *t
			} else {
				rc.Fields[key] = pair[0] + " " + pair[1]
			}
		}
	}
	return rc, nil
}

func parseIntField(key, value string) (*int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidValue, key, value)
	}
	return &n, nil
}

// parseWidthField reads a bit count. Codes and data words are 64-bit
// values, so wider fields cannot be represented.
func parseWidthField(key, value string) (*int, error) {
	n, err := parseIntField(key, value)
	if err != nil {
		return nil, err
	}
	if *n > MaxBits {
		return nil, fmt.Errorf("%w: %s %d exceeds %d", ErrInvalidValue, key, *n, MaxBits)
	}
	return n, nil
}

func parseDurationField(key, value string) (*int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidValue, key, value)
	}
	return &n, nil
}

func parseDataField(key, value string) (*uint64, error) {
	n, err := strconv.ParseUint(value, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidValue, key, value)
	}
	return &n, nil
}

func parseTimingField(key string, pair [2]string) (*Timing, error) {
	on, err := strconv.ParseInt(pair[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidValue, key, pair[0])
	}
	off, err := strconv.ParseInt(pair[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidValue, key, pair[1])
	}
	return &Timing{On: on, Off: off}, nil
}
