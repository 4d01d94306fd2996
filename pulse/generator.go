package pulse

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/derktes/lirc2broadlink/lirc"
)

// frame holds the remote-wide parameters shared by every button.
type frame struct {
	bits              int
	header, one, zero Pair
	prefix, suffix    string
	gap               *int64
	ptrail            *int64
	constLength       bool
}

func newFrame(rc *lirc.RemoteConfig) (*frame, error) {
	var missing []string
	if rc.Bits == nil {
		missing = append(missing, "bits")
	}
	if rc.Header == nil {
		missing = append(missing, "header")
	}
	if rc.One == nil {
		missing = append(missing, "one")
	}
	if rc.Zero == nil {
		missing = append(missing, "zero")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: remote %q has no %v", ErrMissingField, rc.Name, missing)
	}

	for _, w := range []struct {
		name  string
		width *int
	}{{"bits", rc.Bits}, {"pre_data_bits", rc.PreDataBits}, {"post_data_bits", rc.PostDataBits}} {
		if w.width != nil && (*w.width < 0 || *w.width > lirc.MaxBits) {
			return nil, fmt.Errorf("%w: remote %q has %s %d, limit %d", ErrCodeWidthOverflow, rc.Name, w.name, *w.width, lirc.MaxBits)
		}
	}

	f := &frame{
		bits:        *rc.Bits,
		header:      Pair(*rc.Header),
		one:         Pair(*rc.One),
		zero:        Pair(*rc.Zero),
		gap:         rc.Gap,
		ptrail:      rc.PTrail,
		constLength: rc.Flags.Has(lirc.FlagConstLength),
	}

	var err error
	if rc.PreData != nil {
		if rc.PreDataBits == nil {
			return nil, fmt.Errorf("%w: remote %q has pre_data but no pre_data_bits", ErrMissingField, rc.Name)
		}
		if f.prefix, err = binaryValue(*rc.PreData, *rc.PreDataBits); err != nil {
			return nil, fmt.Errorf("pre_data: %w", err)
		}
	}
	if rc.PostData != nil {
		if rc.PostDataBits == nil {
			return nil, fmt.Errorf("%w: remote %q has post_data but no post_data_bits", ErrMissingField, rc.Name)
		}
		if f.suffix, err = binaryValue(*rc.PostData, *rc.PostDataBits); err != nil {
			return nil, fmt.Errorf("post_data: %w", err)
		}
	}
	return f, nil
}

func (f *frame) train(code string) (Train, error) {
	body, err := Binary(code, f.bits)
	if err != nil {
		return nil, err
	}
	digits := f.prefix + body + f.suffix

	t := make(Train, 0, len(digits)+2)
	t = append(t, f.header)
	for _, d := range digits {
		if d == '1' {
			t = append(t, f.one)
		} else {
			t = append(t, f.zero)
		}
	}

	var gap int64
	switch {
	case f.gap != nil && f.constLength:
		gap = *f.gap - t.Duration()
	case f.gap != nil:
		gap = *f.gap
	}

	if f.ptrail != nil {
		gap -= *f.ptrail
		t = append(t, Pair{On: *f.ptrail, Off: gap})
	} else {
		t[len(t)-1].Off += gap
	}
	return t, nil
}

// Generate builds the pulse train of every button of rc. Buttons whose code
// cannot be converted are left out and reported in the returned error; a
// remote missing bits, header, one or zero fails as a whole.
func Generate(rc lirc.RemoteConfig) (map[string]Train, error) {
	f, err := newFrame(&rc)
	if err != nil {
		return nil, err
	}

	names := rc.ButtonNames()
	sort.Strings(names)

	var errs error
	trains := make(map[string]Train, len(names))
	for _, name := range names {
		t, err := f.train(rc.Codes[name])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("button %q: %w", name, err))
			continue
		}
		trains[name] = t
	}
	return trains, errs
}

// GenerateButton builds the pulse train of a single button.
func GenerateButton(rc lirc.RemoteConfig, button string) (Train, error) {
	code, ok := rc.Codes[button]
	if !ok {
		return nil, fmt.Errorf("remote %q has no button %q", rc.Name, button)
	}
	f, err := newFrame(&rc)
	if err != nil {
		return nil, err
	}
	return f.train(code)
}
