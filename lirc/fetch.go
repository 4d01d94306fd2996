package lirc

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const maxDefinitionSize = 4 << 20

// Fetch retrieves a definition file, e.g. one of the lirc-remotes database
// entries, and returns its text. A nil client uses http.DefaultClient.
func Fetch(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s returned %s", ErrFetch, url, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDefinitionSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrFetch, url, err)
	}
	if len(body) > maxDefinitionSize {
		return "", fmt.Errorf("%w: %s is larger than %d bytes", ErrFetch, url, maxDefinitionSize)
	}
	return string(body), nil
}
