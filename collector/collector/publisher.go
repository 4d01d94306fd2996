package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type publishClient struct {
	serverURL string
	client    *http.Client
	log       *zap.Logger
}

func newPublishClient(serverHost string, serverPort int, log *zap.Logger) (*publishClient, error) {
	serverURLString := fmt.Sprintf("http://%s:%d/ir/frame", serverHost, serverPort)
	if _, err := url.Parse(serverURLString); err != nil {
		return nil, err
	}
	return &publishClient{
		serverURL: serverURLString,
		client:    &http.Client{Timeout: publishTimeout},
		log:       log,
	}, nil
}

func (pc *publishClient) publishTaggedFrameJSON(ctx context.Context, taggedFrameJSON []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.serverURL, bytes.NewReader(taggedFrameJSON))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	response, err := pc.client.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("server responded %s", response.Status)
	}
	pc.log.Debug("published frame", zap.Int("status", response.StatusCode))
	return nil
}
