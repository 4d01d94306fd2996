package broadlink

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/derktes/lirc2broadlink/lirc"
	"github.com/derktes/lirc2broadlink/pulse"
)

// EncodeRemote returns the base64 packet of every button of rc, repeated
// rc.MinRepeat times. Buttons that fail are missing from the map and listed
// in the error; a remote that cannot be encoded at all returns a nil map.
func EncodeRemote(rc lirc.RemoteConfig) (map[string]string, error) {
	if rc.MinRepeat < 0 || rc.MinRepeat > maxRepeat {
		return nil, fmt.Errorf("remote %q: %w: min_repeat %d", rc.Name, ErrRepeatCountOverflow, rc.MinRepeat)
	}

	trains, errs := pulse.Generate(rc)
	if trains == nil {
		return nil, errs
	}

	names := make([]string, 0, len(trains))
	for name := range trains {
		names = append(names, name)
	}
	sort.Strings(names)

	codes := make(map[string]string, len(trains))
	for _, name := range names {
		pkt, err := Encode(trains[name], rc.MinRepeat)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("button %q: %w", name, err))
			continue
		}
		codes[name] = pkt.Base64()
	}
	return codes, errs
}

// RemoteResult is the outcome of encoding one remote.
type RemoteResult struct {
	Codes map[string]string
	Err   error
}

// EncodeAll encodes every remote, running at most limit encodings at once
// (no limit if limit <= 0). Per-remote failures are reported in the results;
// the returned error is only set when ctx ends before all remotes are done.
func EncodeAll(ctx context.Context, remotes map[string]lirc.RemoteConfig, limit int) (map[string]RemoteResult, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	var mu sync.Mutex
	results := make(map[string]RemoteResult, len(remotes))
	for name, rc := range remotes {
		name, rc := name, rc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			codes, err := EncodeRemote(rc)
			mu.Lock()
			results[name] = RemoteResult{Codes: codes, Err: err}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
